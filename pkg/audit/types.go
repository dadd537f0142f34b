package audit

import (
	"context"
	"io"
	"time"
)

// Session outcomes. Every extraction session ends in exactly one of these.
const (
	// OutcomeComplete means the session delivered a complete record.
	OutcomeComplete = "complete"

	// OutcomeError means the session ended with a terminal error event.
	OutcomeError = "error"

	// OutcomeRejected means the quota guard rejected the session before
	// any upstream work happened.
	OutcomeRejected = "rejected"

	// OutcomeTooLarge means the transcript could not be reduced to the
	// configured budget.
	OutcomeTooLarge = "too_large"

	// OutcomeCanceled means the client disconnected or canceled mid-session.
	OutcomeCanceled = "canceled"
)

// Transports a session can be delivered over.
const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
	TransportCLI       = "cli"
)

// Record is the audit trail for one extraction session. It captures
// request metadata, compaction statistics, and the outcome. The
// transcript itself is never stored; only its hash is.
type Record struct {
	// Identity
	ID        string `json:"id"`         // UUID v4
	RequestID string `json:"request_id"` // From the server middleware

	// Caller
	Identity  string `json:"identity"`  // Quota identity
	Transport string `json:"transport"` // sse, websocket, cli

	// Input
	Model          string `json:"model"`           // Upstream model used
	SourceChars    int    `json:"source_chars"`    // Transcript size as submitted
	CompactedChars int    `json:"compacted_chars"` // Transcript size sent upstream
	WasCompacted   bool   `json:"was_compacted"`   // Whether reduction ran
	TranscriptHash string `json:"transcript_hash"` // SHA-256 of the submitted transcript

	// Output
	SectionCount int    `json:"section_count"` // Sections delivered
	Title        string `json:"title"`         // Suggested brief title

	// Outcome
	Outcome     string `json:"outcome"`                // complete, error, rejected, too_large, canceled
	ErrorDetail string `json:"error_detail,omitempty"` // Terminal error message, if any

	// Timing
	StartedAt  time.Time `json:"started_at"`  // When the session began
	RecordedAt time.Time `json:"recorded_at"` // When the record was written
	DurationMs int64     `json:"duration_ms"` // Session wall time
}

// Query defines filter parameters for querying audit records.
type Query struct {
	// Time range over StartedAt
	Since *time.Time `json:"since,omitempty"` // Inclusive start time
	Until *time.Time `json:"until,omitempty"` // Inclusive end time

	// Filters
	Identity  string `json:"identity,omitempty"`
	Outcome   string `json:"outcome,omitempty"`
	Transport string `json:"transport,omitempty"`

	// Pagination
	Limit  int `json:"limit,omitempty"`  // Max records to return
	Offset int `json:"offset,omitempty"` // Skip N records
}

// Storage defines the interface for audit storage backends.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Store persists an audit record.
	Store(ctx context.Context, record *Record) error

	// Query retrieves records matching the query filters, newest first.
	// Returns an empty slice if no records match.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count returns the number of records matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes records matching the query filters and returns how
	// many were removed. Used for retention enforcement.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases any resources held by the storage backend.
	Close() error
}

// Exporter writes audit records to an output format.
type Exporter interface {
	// Export writes records to the provided writer.
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
