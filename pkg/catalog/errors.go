package catalog

import (
	"fmt"
	"strings"
)

// LoadError reports a catalog file that could not be read or parsed.
type LoadError struct {
	// Path is the catalog file that failed to load.
	Path string

	// Message describes the failure.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load catalog %q: %s: %v", e.Path, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load catalog %q: %s", e.Path, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ValidationError reports a structural problem in a parsed catalog.
type ValidationError struct {
	// SectionID is the section involved, when the problem is tied to one.
	SectionID string

	// Field is the YAML path of the offending field.
	Field string

	// Message describes the problem.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := []string{"catalog validation error"}
	if e.SectionID != "" {
		parts = append(parts, fmt.Sprintf("in section %q", e.SectionID))
	}
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("at %s", e.Field))
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, " ")
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// ErrorList collects multiple validation problems so a broken catalog
// file is reported in one pass.
type ErrorList struct {
	Errors []error
}

// Error implements the error interface.
func (e *ErrorList) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %v\n", i+1, err))
	}
	return sb.String()
}

// Add appends a non-nil error to the list.
func (e *ErrorList) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// ToError returns nil for an empty list, the sole error for a list of
// one, or the list itself otherwise.
func (e *ErrorList) ToError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	if len(e.Errors) == 1 {
		return e.Errors[0]
	}
	return e
}
