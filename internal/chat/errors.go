package chat

import "fmt"

// ErrNoMessage is the user-facing text for a missing or blank message.
const ErrNoMessage = "No message provided"

// ValidationError reports a request the caller has to fix. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NoMessage returns the validation error for an empty message.
func NoMessage() *ValidationError {
	return &ValidationError{Reason: ErrNoMessage}
}
