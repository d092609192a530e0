package server

import (
	"errors"
	"net/http"

	"github.com/jamie/scholarship-tailor/internal/ingest"
	"github.com/jamie/scholarship-tailor/internal/session"
)

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return "validation error: " + e.Field + " - " + e.Message
}

// ErrForbidden indicates the caller does not own the session.
type ErrForbidden struct{}

func (e *ErrForbidden) Error() string {
	return "you do not own this session"
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		ve *ErrValidation
		fe *ErrForbidden
		ie *ingest.Error
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &fe):
		return http.StatusForbidden
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, session.ErrTerminal), errors.Is(err, session.ErrNotInterviewing), errors.Is(err, session.ErrNotAnalyzed):
		return http.StatusConflict
	case errors.As(err, &ie):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
