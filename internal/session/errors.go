package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jamie/scholarship-tailor/internal/analyzer"
	"github.com/jamie/scholarship-tailor/internal/composer"
	"github.com/jamie/scholarship-tailor/internal/decoder"
	"github.com/jamie/scholarship-tailor/internal/schemas"
)

// ErrorKind classifies why a stage failed.
type ErrorKind string

const (
	KindDecodeFailure          ErrorKind = "decode_failure"
	KindClassificationFailure  ErrorKind = "classification_failure"
	KindGenerationTimeout      ErrorKind = "generation_timeout"
	KindGenerationFailure      ErrorKind = "generation_failure"
	KindContractViolation      ErrorKind = "contract_violation"
	KindConcurrentModification ErrorKind = "concurrent_modification"
	KindCancelled              ErrorKind = "cancelled"
)

// StageError is the durable record of a stage failure, persisted with the
// session so callers can distinguish a retryable outage from a terminal
// contract problem.
type StageError struct {
	Stage   Stage     `json:"stage"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed (%s): %s", e.Stage, e.Kind, e.Message)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}

var (
	// ErrNotFound is returned by stores when no session has the given id.
	ErrNotFound = errors.New("session not found")

	// ErrConcurrentModification is returned when a guarded update lost a
	// race: the session changed since it was read.
	ErrConcurrentModification = errors.New("session was modified concurrently")

	// ErrTerminal is returned when an operation targets a completed or
	// cancelled session.
	ErrTerminal = errors.New("session is terminal")

	// ErrNotInterviewing is returned when an answer arrives for a session
	// that is not waiting on one.
	ErrNotInterviewing = errors.New("session is not awaiting an interview answer")

	// ErrNotAnalyzed is returned when outreach is requested before the gap
	// report exists.
	ErrNotAnalyzed = errors.New("session has no gap report yet")
)

// classifyError maps a stage failure onto the error taxonomy.
func classifyError(err error) ErrorKind {
	var (
		de *decoder.DecodeError
		ce *analyzer.ClassificationError
		me *composer.ComposeError
		ve *schemas.ValidationError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindGenerationTimeout
	case errors.Is(err, ErrConcurrentModification):
		return KindConcurrentModification
	case errors.As(err, &de):
		return KindDecodeFailure
	case errors.As(err, &ce):
		return KindClassificationFailure
	case errors.As(err, &me) && me.Overrun:
		return KindContractViolation
	case errors.As(err, &ve):
		return KindContractViolation
	default:
		return KindGenerationFailure
	}
}
