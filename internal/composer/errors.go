package composer

import "fmt"

// ComposeError indicates essay composition failed. Overrun marks drafts
// rejected only for exceeding the word budget, which are worth one retry.
type ComposeError struct {
	Message string
	Cause   error
	Overrun bool
}

func (e *ComposeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("essay composition failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("essay composition failed: %s", e.Message)
}

func (e *ComposeError) Unwrap() error {
	return e.Cause
}
