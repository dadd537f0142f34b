package pipeline

import "fmt"

// ValidationError reports a structurally invalid request, rejected
// before the quota check so malformed requests never consume tokens.
type ValidationError struct {
	// Field is the request field that failed validation.
	Field string

	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
