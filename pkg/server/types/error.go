package types

// ErrorResponse is the JSON body returned for every error condition.
type ErrorResponse struct {
	// Error contains the error details.
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains detailed error information.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error and determines the HTTP status code.
	Type string `json:"type"`

	// Param is the request field that caused the error (if applicable).
	Param string `json:"param,omitempty"`

	// Code is a machine-readable error code.
	Code string `json:"code,omitempty"`
}

// Error type constants.
const (
	// ErrorTypeInvalidRequest indicates a client-side error (400).
	ErrorTypeInvalidRequest = "invalid_request"

	// ErrorTypeMethodNotAllowed indicates a wrong HTTP method (405).
	ErrorTypeMethodNotAllowed = "method_not_allowed"

	// ErrorTypeInputTooLarge indicates a transcript that exceeds the
	// character budget even after compaction (413).
	ErrorTypeInputTooLarge = "input_too_large"

	// ErrorTypeQuotaExceeded indicates the identity is out of
	// admission tokens (429).
	ErrorTypeQuotaExceeded = "quota_exceeded"

	// ErrorTypeServerError indicates an internal server error (500).
	ErrorTypeServerError = "server_error"

	// ErrorTypeUpstreamError indicates a model gateway failure (502).
	ErrorTypeUpstreamError = "upstream_error"

	// ErrorTypeServiceUnavailable indicates temporary unavailability (503).
	ErrorTypeServiceUnavailable = "service_unavailable"

	// ErrorTypeTimeout indicates the request deadline elapsed before
	// the session finished (504).
	ErrorTypeTimeout = "timeout"
)

// Error code constants for common error scenarios.
const (
	// CodeMissingField indicates a required field is missing.
	CodeMissingField = "missing_field"

	// CodeInvalidValue indicates a field has an invalid value.
	CodeInvalidValue = "invalid_value"

	// CodeInvalidJSON indicates the request body is not valid JSON.
	CodeInvalidJSON = "invalid_json"

	// CodeRequestTooLarge indicates the HTTP body exceeds the server cap.
	CodeRequestTooLarge = "request_too_large"

	// CodeTranscriptTooLarge indicates the transcript is over the
	// character budget after compaction.
	CodeTranscriptTooLarge = "transcript_too_large"

	// CodeQuotaExhausted indicates the identity's token bucket is empty.
	CodeQuotaExhausted = "quota_exhausted"

	// CodeUpstreamAuth indicates the gateway rejected our credentials.
	CodeUpstreamAuth = "upstream_auth"

	// CodeUpstreamRateLimited indicates the gateway throttled us.
	CodeUpstreamRateLimited = "upstream_rate_limited"

	// CodeUpstreamFailure indicates a general gateway failure.
	CodeUpstreamFailure = "upstream_failure"

	// CodeInternalError indicates an internal server error.
	CodeInternalError = "internal_error"
)

// NewErrorResponse creates a new error response with the given details.
func NewErrorResponse(message, errorType, param, code string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    errorType,
			Param:   param,
			Code:    code,
		},
	}
}

// NewInvalidRequestError creates an error response for invalid requests (400).
func NewInvalidRequestError(message, param, code string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInvalidRequest, param, code)
}

// NewMethodNotAllowedError creates an error response for wrong methods (405).
func NewMethodNotAllowedError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeMethodNotAllowed, "method", "")
}

// NewInputTooLargeError creates an error response for over-budget
// transcripts (413).
func NewInputTooLargeError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeInputTooLarge, "", CodeTranscriptTooLarge)
}

// NewQuotaExceededError creates an error response for exhausted quota (429).
func NewQuotaExceededError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeQuotaExceeded, "", CodeQuotaExhausted)
}

// NewServerError creates an error response for internal server errors (500).
func NewServerError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServerError, "", CodeInternalError)
}

// NewUpstreamError creates an error response for gateway failures (502).
func NewUpstreamError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeUpstreamError, "", CodeUpstreamFailure)
}

// NewServiceUnavailableError creates an error response for temporary
// unavailability (503).
func NewServiceUnavailableError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeServiceUnavailable, "", CodeUpstreamRateLimited)
}

// NewTimeoutError creates an error response for elapsed request
// deadlines (504).
func NewTimeoutError(message string) *ErrorResponse {
	return NewErrorResponse(message, ErrorTypeTimeout, "", "")
}

// HTTPStatusCode returns the HTTP status code for the error type.
func (e *ErrorDetail) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return 400
	case ErrorTypeMethodNotAllowed:
		return 405
	case ErrorTypeInputTooLarge:
		return 413
	case ErrorTypeQuotaExceeded:
		return 429
	case ErrorTypeServerError:
		return 500
	case ErrorTypeUpstreamError:
		return 502
	case ErrorTypeServiceUnavailable:
		return 503
	case ErrorTypeTimeout:
		return 504
	default:
		return 500
	}
}
