package handler

// RESPONSE HELPERS:
// Every handler answers through writeJSON / writeError so the response shape
// stays the same across endpoints.
//
// ERROR FORMAT:
// Errors carry a human-readable errorMessage, which is what the web client
// displays, plus the offending field when validation names one:
//   {"success": false, "errorMessage": "Please enter all required fields."}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/playlister/internal/apperror"
)

// maxBodyBytes bounds request bodies. A playlist with a few hundred songs is
// well under this.
const maxBodyBytes = 1 << 20

// ErrorResponse is the error body returned by all endpoints.
type ErrorResponse struct {
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage"`
	Field        string `json:"field,omitempty"`
}

// writeJSON sends data as JSON with the given status code.
// Headers and status must be set before the body is written.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// statusFor maps an error kind to its HTTP status. Services never see HTTP;
// this is the only place the mapping lives.
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError sends err with the status its kind maps to.
//
// 5xx bodies never include the error text: a backend message can contain
// queries, hostnames or driver internals. The caller logs it instead.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeJSON(w, status, ErrorResponse{ErrorMessage: "An internal error occurred"})
		return
	}

	resp := ErrorResponse{ErrorMessage: err.Error()}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		resp.ErrorMessage = appErr.Message
		resp.Field = appErr.Field
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads a JSON body into dst. A malformed body is a validation
// error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("", "Invalid JSON body")
	}
	return nil
}
