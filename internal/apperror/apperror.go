// Package apperror defines the error kinds shared by every layer of playlister.
//
// Each kind is a sentinel error. Constructors wrap the sentinel in an *AppError
// carrying a human-readable message, so callers branch with errors.Is and the
// HTTP layer reads the message with errors.As:
//
//	if errors.Is(err, apperror.ErrNotFound) { ... }
//
// Storage backends never leak engine errors directly; they wrap them with
// Backend, which keeps the engine error reachable as the Cause.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("Validation Error")
	ErrConflict      = errors.New("conflict")
	ErrForbidden     = errors.New("forbidden")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrConfiguration = errors.New("configuration error")
	ErrBackend       = errors.New("backend error")

	// ErrPartialWrite marks a multi-step write where the first step persisted
	// and a later one failed. The caller decides on compensation.
	ErrPartialWrite = errors.New("partial write")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying engine or library error
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes both the sentinel kind and the cause to errors.Is / errors.As.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// OwnerMissing reports a playlist whose owner account cannot be resolved.
// It is a data-integrity problem, not an authorization failure.
func OwnerMissing(email string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("owner account missing for %s", email),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with %s", resource, key),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Misconfigured is returned at construction time only, never per request.
func Misconfigured(format string, args ...any) *AppError {
	return &AppError{
		Err:     ErrConfiguration,
		Message: fmt.Sprintf(format, args...),
	}
}

// Backend wraps an engine failure for operation op.
func Backend(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrBackend,
		Message: fmt.Sprintf("%s: %v", op, cause),
		Cause:   cause,
	}
}

func PartialWrite(message string, cause error) *AppError {
	return &AppError{
		Err:     ErrPartialWrite,
		Message: fmt.Sprintf("%s: %v", message, cause),
		Cause:   cause,
	}
}
