package models

import "fmt"

// ValidationError marks a form-level failure. Validation errors are resolved
// where the input was entered and never reach the session or transfer state
// machines.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
