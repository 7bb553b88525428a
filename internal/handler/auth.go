package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/auth"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/service"
)

// AuthHandler serves account registration and the session cookie.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → create an account and log it in
//   - HandleLogin    → check credentials, set the token cookie
//   - HandleLogout   → clear the token cookie
//   - HandleLoggedIn → report whether the cookie belongs to a live account
type AuthHandler struct {
	auth         *service.AuthService
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates an AuthHandler. secureCookie should be true when the
// app is served over HTTPS.
func NewAuthHandler(svc *service.AuthService, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:         svc,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// UserView is the public part of an account. It never contains the hash.
type UserView struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func viewOf(u *model.User) *UserView {
	return &UserView{FirstName: u.FirstName, LastName: u.LastName, Email: u.Email}
}

type sessionResponse struct {
	Success bool      `json:"success"`
	User    *UserView `json:"user"`
}

type loggedInResponse struct {
	LoggedIn     bool      `json:"loggedIn"`
	User         *UserView `json:"user"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

type registerRequest struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	PasswordVerify string `json:"passwordVerify"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account and logs it in.
//
// HTTP: POST /auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Register(r.Context(), service.Registration{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Email:          req.Email,
		Password:       req.Password,
		PasswordVerify: req.PasswordVerify,
	})
	if err != nil {
		h.fail(w, "register", err)
		return
	}

	auth.SetTokenCookie(w, res.Token, h.auth.TokenTTL(), h.secureCookie)
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, User: viewOf(res.User)})
}

// HandleLogin checks credentials and sets the token cookie.
//
// HTTP: POST /auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, "login", err)
		return
	}

	auth.SetTokenCookie(w, res.Token, h.auth.TokenTTL(), h.secureCookie)
	writeJSON(w, http.StatusOK, sessionResponse{Success: true, User: viewOf(res.User)})
}

// HandleLogout expires the token cookie. The token itself stays valid until
// its exp claim; without the cookie the browser no longer sends it.
//
// HTTP: GET /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearTokenCookie(w, h.secureCookie)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleLoggedIn reports the session state. It always answers 200; the
// client reads loggedIn.
//
// HTTP: GET /auth/loggedIn
// Auth: Optional
func (h *AuthHandler) HandleLoggedIn(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, loggedInResponse{ErrorMessage: "Unauthorized"})
		return
	}

	user, err := h.auth.CurrentUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrUnauthorized) {
			writeJSON(w, http.StatusOK, loggedInResponse{ErrorMessage: "User not found"})
			return
		}
		h.fail(w, "loggedIn", err)
		return
	}

	writeJSON(w, http.StatusOK, loggedInResponse{LoggedIn: true, User: viewOf(user)})
}

func (h *AuthHandler) fail(w http.ResponseWriter, op string, err error) {
	if statusFor(err) == http.StatusInternalServerError {
		h.logger.Error("auth request failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
	}
	writeError(w, err)
}
