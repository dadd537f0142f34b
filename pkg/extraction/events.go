package extraction

// Event type discriminators used on the wire. Every serialized frame carries
// one of these in its "type" field.
const (
	EventTypeProgress = "progress"
	EventTypeSection  = "section"
	EventTypeComplete = "complete"
	EventTypeError    = "error"
)

// Stage labels attached to progress events. Stages advance monotonically
// through a session: analyzing covers roughly the first third of expected
// sections, extracting the middle, mapping the remainder. The complete stage
// is emitted exactly once alongside the terminal event.
const (
	StageAnalyzing  = "analyzing"
	StageExtracting = "extracting"
	StageMapping    = "mapping"
	StageComplete   = "complete"
)

// Confidence levels self-reported by the upstream model for each section.
// Missing or unrecognized values default to ConfidenceLow.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// DefaultTitle is used when a session completes without any usable title.
const DefaultTitle = "Untitled Brief"

// Event is one typed record in an extraction session's output sequence.
// Events are emitted in evidence-arrival order; after a terminal event no
// further events follow in a well-behaved session.
type Event interface {
	// EventType returns the wire discriminator for this event.
	EventType() string

	// Terminal reports whether this event ends the session.
	Terminal() bool
}

// ProgressEvent reports coarse pipeline progress. Percent grows
// monotonically and is capped at 90 until the terminal complete record
// arrives, which carries 100.
type ProgressEvent struct {
	Type    string `json:"type"`
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
}

func (e ProgressEvent) EventType() string { return EventTypeProgress }
func (e ProgressEvent) Terminal() bool    { return false }

// SectionEvent carries one extracted section. Title is resolved from the
// section catalog; unknown ids fall back to the raw id. Sources lists the
// input item identifiers the model attributed the section to, and is never
// nil.
type SectionEvent struct {
	Type       string   `json:"type"`
	ID         string   `json:"sectionId"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Confidence string   `json:"confidence"`
	Sources    []string `json:"sources"`
}

func (e SectionEvent) EventType() string { return EventTypeSection }
func (e SectionEvent) Terminal() bool    { return false }

// CompleteEvent terminates a successful session. When the upstream stream
// ends without a complete record the decoder synthesizes one, deriving the
// title from emitted section content and noting that it did so.
type CompleteEvent struct {
	Type  string `json:"type"`
	Title string `json:"suggestedTitle"`
	Notes string `json:"notes,omitempty"`
}

func (e CompleteEvent) EventType() string { return EventTypeComplete }
func (e CompleteEvent) Terminal() bool    { return true }

// ErrorEvent terminates a failed session. Message carries the upstream
// transport error verbatim; no retry is attempted.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (e ErrorEvent) EventType() string { return EventTypeError }
func (e ErrorEvent) Terminal() bool    { return true }

// NewProgress constructs a progress event.
func NewProgress(stage string, percent int) ProgressEvent {
	return ProgressEvent{Type: EventTypeProgress, Stage: stage, Percent: percent}
}

// NewError constructs a terminal error event.
func NewError(message string) ErrorEvent {
	return ErrorEvent{Type: EventTypeError, Message: message}
}
