package upstream

import (
	"fmt"
	"time"
)

// UpstreamError represents a general upstream failure, typically a non-2xx
// response that is neither an auth nor a rate limit problem.
type UpstreamError struct {
	// Provider is the configured upstream name.
	Provider string

	// StatusCode is the HTTP status code (0 if not applicable).
	StatusCode int

	// Message is the error message.
	Message string

	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream %q error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream %q error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// AuthError represents an authentication failure (HTTP 401 or 403).
type AuthError struct {
	// Provider is the configured upstream name.
	Provider string

	// Message is the error message from the upstream.
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("upstream %q authentication failed: %s", e.Provider, e.Message)
}

// RateLimitError represents an upstream rate limit response (HTTP 429).
type RateLimitError struct {
	// Provider is the configured upstream name.
	Provider string

	// RetryAfter is the duration to wait before retrying (if provided).
	RetryAfter time.Duration

	// Message is the error message from the upstream.
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("upstream %q rate limit exceeded (retry after %s): %s",
			e.Provider, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("upstream %q rate limit exceeded: %s", e.Provider, e.Message)
}

// TimeoutError represents a request that timed out before the stream
// produced its first byte.
type TimeoutError struct {
	// Provider is the configured upstream name.
	Provider string

	// Timeout is the configured timeout duration.
	Timeout time.Duration
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("upstream %q request timeout after %s", e.Provider, e.Timeout)
}

// ParseError represents a malformed upstream payload.
type ParseError struct {
	// Provider is the configured upstream name.
	Provider string

	// RawPayload is the payload that failed to parse.
	RawPayload string

	// Cause is the underlying parse error.
	Cause error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("upstream %q response parse error: %v", e.Provider, e.Cause)
}

// Unwrap returns the underlying error for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// StreamError represents a transport failure mid-stream. It is terminal
// for the session; no retry is attempted.
type StreamError struct {
	// Provider is the configured upstream name.
	Provider string

	// Message is the error message.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("upstream %q stream error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("upstream %q stream error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *StreamError) Unwrap() error {
	return e.Cause
}
