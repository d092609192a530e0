package optimizer

import "fmt"

// OptimizeError indicates bullet optimization failed.
type OptimizeError struct {
	Message string
	Cause   error
}

func (e *OptimizeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("bullet optimization failed: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("bullet optimization failed: %s", e.Message)
}

func (e *OptimizeError) Unwrap() error {
	return e.Cause
}
