package analyzer

import "fmt"

// ClassificationError indicates bullet-category classification failed.
// The orchestrator degrades to the fail-safe "all gaps" report instead of
// failing the session on this error.
type ClassificationError struct {
	Message string
	Cause   error
}

func (e *ClassificationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("classification failure: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("classification failure: %s", e.Message)
}

func (e *ClassificationError) Unwrap() error {
	return e.Cause
}
