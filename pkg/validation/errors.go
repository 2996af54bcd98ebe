package validation

import "fmt"

// ValidationInputError is returned before any scoring runs when the input
// cannot be scored at all (missing brand context, empty code).
type ValidationInputError struct {
	Field   string
	Message string
}

func (e *ValidationInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// NewInputError creates a ValidationInputError for field.
func NewInputError(field, message string) *ValidationInputError {
	return &ValidationInputError{Field: field, Message: message}
}
