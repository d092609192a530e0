package outreach

import "fmt"

// DraftError indicates outreach drafting failed.
type DraftError struct {
	Message string
	Cause   error
}

func (e *DraftError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("outreach drafting failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("outreach drafting failed: %s", e.Message)
}

func (e *DraftError) Unwrap() error {
	return e.Cause
}
