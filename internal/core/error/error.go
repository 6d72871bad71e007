package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
	// ForbiddenMessage is returned when an operation is disabled in the current environment.
	ForbiddenMessage = "operation not permitted in this environment"
)

// ErrValidation marks caller-input validation failures. It is the only error
// class that is surfaced to end users of the chat and moderation paths.
var ErrValidation = errors.New("validation failed")

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Status:  status,
		Message: message,
	}
}

// Validation builds a 400 error carrying a user-safe reason.
func Validation(reason string) *AppError {
	return New(ErrValidation, http.StatusBadRequest, reason)
}

// IsValidation reports whether err is a caller-input validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// Forbidden builds a 403 error for operations disabled by environment policy.
func Forbidden(err error) *AppError {
	return New(err, http.StatusForbidden, ForbiddenMessage)
}

// StatusOf returns the HTTP status attached to err, or 500 when none is.
func StatusOf(err error) int {
	var ae *AppError
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message that is safe to show to callers.
func PublicMessage(err error) string {
	var ae *AppError
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return SystemErrorMessage
}

// Is reports whether the target matches the underlying error or the AppError itself.
func (e *AppError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to AppError or the wrapped error in a chain.
func (e *AppError) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**AppError); ok {
		*t = e
		return true
	}
	return false
}
