package relay

import "fmt"

// FrameError represents a frame that could not be serialized or parsed.
type FrameError struct {
	// Message describes what went wrong.
	Message string

	// Payload is the offending wire payload (empty on marshal failures).
	Payload string

	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *FrameError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("relay frame error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("relay frame error: %s", e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *FrameError) Unwrap() error {
	return e.Cause
}

// WriteError represents a failure delivering a frame to a client. The
// session treats it as a client disconnect.
type WriteError struct {
	// Transport is "sse" or "websocket".
	Transport string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *WriteError) Error() string {
	return fmt.Sprintf("relay write error on %s transport: %v", e.Transport, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *WriteError) Unwrap() error {
	return e.Cause
}
