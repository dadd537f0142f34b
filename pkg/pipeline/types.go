package pipeline

import (
	"log/slog"
	"strings"

	"mercator-hq/ganymede/pkg/audit/recorder"
	"mercator-hq/ganymede/pkg/catalog"
	"mercator-hq/ganymede/pkg/compactor"
	"mercator-hq/ganymede/pkg/quota"
	"mercator-hq/ganymede/pkg/upstream"
)

// DefaultEventBuffer is the session event channel capacity used when the
// config does not set one.
const DefaultEventBuffer = 16

// Item is one opaque unit of meeting input: a summary, a transcript
// chunk, or a whole transcript. ID is optional; when present it seeds
// fallback title derivation and is typically a file path or meeting
// identifier.
type Item struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// Request describes one extraction invocation.
type Request struct {
	// Identity is the quota identity the invocation is charged to.
	Identity string

	// RequestID correlates the session with server logs and the audit
	// trail. Optional.
	RequestID string

	// Transport names the delivery transport for the audit trail, one
	// of the audit.Transport* constants.
	Transport string

	// Items are the meeting inputs in presentation order. At least one
	// item must carry text.
	Items []Item

	// Context is an optional free-text note injected ahead of the
	// transcript in the upstream prompt.
	Context string

	// Model overrides the upstream client's default model when
	// non-empty.
	Model string
}

// validate checks the request for structural problems.
func (r *Request) validate() error {
	if r.Identity == "" {
		return NewValidationError("identity", "identity is required")
	}
	for _, item := range r.Items {
		if strings.TrimSpace(item.Text) != "" {
			return nil
		}
	}
	return NewValidationError("items", "at least one item with text is required")
}

// joinedText concatenates the item texts into one transcript. Items are
// separated by blank lines so utterance parsing never merges the last
// line of one item with the first line of the next.
func (r *Request) joinedText() string {
	parts := make([]string, 0, len(r.Items))
	for _, item := range r.Items {
		if text := strings.TrimSpace(item.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// firstItemID returns the identifier of the first item, used to seed the
// decoder's fallback title.
func (r *Request) firstItemID() string {
	if len(r.Items) == 0 {
		return ""
	}
	return r.Items[0].ID
}

// Config holds the runner configuration.
type Config struct {
	// TargetChars is the transcript character budget enforced before
	// anything is sent upstream.
	// Default: 50000
	TargetChars int

	// PreserveTimestamps keeps utterance timestamps through compaction
	// at the cost of budget headroom.
	// Default: false
	PreserveTimestamps bool

	// EventBuffer is the session event channel capacity.
	// Default: 16
	EventBuffer int
}

// withDefaults returns a copy of the config with zero values replaced
// by defaults.
func (c Config) withDefaults() Config {
	if c.TargetChars <= 0 {
		c.TargetChars = compactor.DefaultTargetChars
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = DefaultEventBuffer
	}
	return c
}

// Deps are the shared components a runner orchestrates. Catalog and
// Upstream are required; Quota, Recorder, Metrics, and Logger are
// optional. A nil Quota admits every request.
type Deps struct {
	Quota    *quota.Guard
	Catalog  *catalog.Manager
	Upstream *upstream.Client
	Recorder *recorder.Recorder
	Metrics  *Metrics
	Logger   *slog.Logger
}
