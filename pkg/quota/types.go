package quota

import "time"

const (
	// DefaultMaxTokens is the bucket capacity when none is configured.
	DefaultMaxTokens = 10

	// DefaultRefillInterval is the time to earn one token back.
	DefaultRefillInterval = 6000 * time.Millisecond

	// DefaultSweepInterval is how often stale buckets are swept.
	DefaultSweepInterval = time.Hour

	// DefaultStaleAfter is how long a bucket may sit untouched before
	// the sweeper removes it.
	DefaultStaleAfter = time.Hour
)

// Config configures a Guard.
type Config struct {
	// MaxTokens is the bucket capacity, which is also the burst size.
	MaxTokens int

	// RefillInterval is the time to earn one token back. Tokens refill
	// one per interval, never fractionally.
	RefillInterval time.Duration

	// SweepInterval is how often the background sweeper scans for
	// stale buckets.
	SweepInterval time.Duration

	// StaleAfter is the idle period after which a bucket is removed.
	StaleAfter time.Duration
}

// withDefaults fills zero fields with default values.
func (c Config) withDefaults() Config {
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = DefaultRefillInterval
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = DefaultStaleAfter
	}
	return c
}

// Decision is the outcome of one quota check. Remaining and ResetHint
// are populated whether or not the request was admitted, so callers can
// attach rate limit metadata to every response.
type Decision struct {
	// Allowed reports whether the request may proceed.
	Allowed bool

	// Limit is the bucket capacity.
	Limit int

	// Remaining is the token count left after this check.
	Remaining int

	// ResetHint is the time until the next token refill. Zero when the
	// bucket is full. On a rejection this doubles as the retry-after
	// hint.
	ResetHint time.Duration
}
