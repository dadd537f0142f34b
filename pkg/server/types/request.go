package types

import (
	"fmt"
	"strings"
)

// ExtractionRequest is the JSON body accepted by the extraction endpoints.
// The SSE endpoint reads it from the POST body; the WebSocket endpoint
// reads it as the first text message after the upgrade.
type ExtractionRequest struct {
	// Identity names the caller for quota accounting and the audit
	// trail. When empty the server falls back to the client address.
	Identity string `json:"identity,omitempty"`

	// Summaries are prior briefs carried into this session, oldest
	// first. The pipeline folds them into the context block ahead of
	// the transcript.
	Summaries []Summary `json:"summaries,omitempty"`

	// Transcript is the raw meeting transcript to extract from.
	Transcript string `json:"transcript,omitempty"`

	// Context is free-form background prepended to the prompt, for
	// example the meeting series or attendee roster.
	Context string `json:"context,omitempty"`

	// Model overrides the configured extraction model for this
	// session. Empty means the server default.
	Model string `json:"model,omitempty"`
}

// Summary is one prior brief carried into a session.
type Summary struct {
	// ID correlates the summary with earlier sessions. Optional.
	ID string `json:"id,omitempty"`

	// Text is the brief content.
	Text string `json:"text"`
}

// ValidationError represents a request validation failure. Param names
// the offending field in JSON path form.
type ValidationError struct {
	Param   string
	Code    string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Param, e.Message)
}

// Validate checks that the request is well-formed. It returns a
// *ValidationError describing the first problem found, or nil.
func (r *ExtractionRequest) Validate() *ValidationError {
	if strings.TrimSpace(r.Transcript) == "" && len(r.Summaries) == 0 {
		return &ValidationError{
			Param:   "transcript",
			Code:    CodeMissingField,
			Message: "request must carry a transcript or at least one summary",
		}
	}
	for i, s := range r.Summaries {
		if strings.TrimSpace(s.Text) == "" {
			return &ValidationError{
				Param:   fmt.Sprintf("summaries[%d].text", i),
				Code:    CodeMissingField,
				Message: "summary text must not be empty",
			}
		}
	}
	return nil
}
