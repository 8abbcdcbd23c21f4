package store

import "fmt"

// ValidationError indicates a client-supplied value was rejected before any
// store mutation took place.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}
