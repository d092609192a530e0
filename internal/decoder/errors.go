package decoder

import "fmt"

// DecodeError represents a malformed or failed value model derivation.
// The orchestrator treats it as retryable up to its bounded attempt count.
type DecodeError struct {
	Message string
	Cause   error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode failure: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("decode failure: %s", e.Message)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}
