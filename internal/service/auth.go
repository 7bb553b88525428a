package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/playlister/internal/apperror"
	"github.com/sakif/playlister/internal/auth"
	"github.com/sakif/playlister/internal/identity"
	"github.com/sakif/playlister/internal/model"
	"github.com/sakif/playlister/internal/repository"
)

// AuthService registers accounts and logs them in.
//
//	AuthHandler (HTTP) → AuthService → repository.UserRepository
//	                   ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the account and its freshly issued token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Registration is the sign-up form. The json names are what validation
// errors report as the offending field.
type Registration struct {
	FirstName      string `json:"firstName"      validate:"required"`
	LastName       string `json:"lastName"       validate:"required"`
	Email          string `json:"email"          validate:"required,email"`
	Password       string `json:"password"       validate:"required,min=8"`
	PasswordVerify string `json:"passwordVerify" validate:"required,eqfield=Password"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// errBadCredentials covers both an unknown email and a wrong password so a
// caller cannot tell which accounts exist.
var errBadCredentials = apperror.Unauthorized("wrong email or password")

// Register validates the form, creates the account and logs it in.
func (s *AuthService) Register(ctx context.Context, in Registration) (*AuthResult, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = NormalizeEmail(in.Email)

	if err := validate.Struct(in); err != nil {
		return nil, registrationError(err)
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user, err := s.users.CreateUser(ctx, repository.NewUser{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: "An account with this email address already exists.",
				Field:   "email",
				Cause:   err,
			}
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID.String()),
		slog.String("email", user.Email),
	)
	return s.issue(user)
}

// Login checks credentials and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.ValidationFailed("", "Please enter all required fields.")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Info("login rejected", slog.String("email", email))
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID.String()))
	return s.issue(user)
}

// CurrentUser returns the account behind an authenticated ID.
func (s *AuthService) CurrentUser(ctx context.Context, id model.ID) (*model.User, error) {
	if identity.Canonical(id) == "" {
		return nil, apperror.Unauthorized("not logged in")
	}

	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("account not found")
		}
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}
	return user, nil
}

// TokenTTL is the lifetime of tokens this service issues.
func (s *AuthService) TokenTTL() time.Duration { return s.tokens.TTL() }

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

// NormalizeEmail lower-cases and trims an address. Accounts are looked up by
// the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// registrationError turns validator output into the single message the
// sign-up form shows. A missing field outranks every other problem.
func registrationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.ValidationFailed("", err.Error())
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return apperror.ValidationFailed("", "Please enter all required fields.")
		}
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "email":
		return apperror.ValidationFailed(fe.Field(), "Please enter a valid email address.")
	case "min":
		return apperror.ValidationFailed(fe.Field(),
			fmt.Sprintf("Please enter a password of at least %d characters.", auth.MinPasswordLength))
	case "eqfield":
		return apperror.ValidationFailed(fe.Field(), "Please enter the same password twice.")
	}
	return apperror.ValidationFailed(fe.Field(), fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
}
