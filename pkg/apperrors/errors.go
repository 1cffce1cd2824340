package apperrors

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("validation failed")
	ErrMessageDeleted = errors.New("message is deleted")
	ErrChatDisabled   = errors.New("chat is disabled")
	ErrTransport      = errors.New("broadcast transport failure")
)

// HTTPStatusFromError maps a service error onto an HTTP status code.
func HTTPStatusFromError(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrChatDisabled):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrMessageDeleted):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
