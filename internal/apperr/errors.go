package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("sign in required")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("not allowed")
	ErrConflict        = errors.New("state changed on the server")
	ErrBackend         = errors.New("backend request failed")
	ErrValidation      = errors.New("invalid input")
)

// ValidationError reports a bad form field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid is shorthand for a field-level validation failure.
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Status maps an error onto the HTTP status the API answers with.
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// FromStatus is the inverse of Status, used by API clients.
func FromStatus(code int, message string) error {
	var base error
	switch code {
	case http.StatusUnauthorized:
		base = ErrUnauthenticated
	case http.StatusForbidden:
		base = ErrForbidden
	case http.StatusNotFound:
		base = ErrNotFound
	case http.StatusConflict:
		base = ErrConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return &ValidationError{Message: message}
	default:
		base = ErrBackend
	}
	if message == "" {
		return base
	}
	return fmt.Errorf("%w: %s", base, message)
}
