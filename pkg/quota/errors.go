package quota

import (
	"fmt"
	"time"
)

// QuotaExceededError reports a request rejected before any downstream
// work happened. RetryAfter tells the caller when the next token
// arrives.
type QuotaExceededError struct {
	// Identity is the identity whose bucket is empty.
	Identity string

	// Limit is the bucket capacity.
	Limit int

	// RetryAfter is the time until the next token refill.
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for identity %q: limit %d, retry after %s",
		e.Identity, e.Limit, e.RetryAfter.Round(time.Millisecond))
}

// NewQuotaExceededError builds the error from a rejecting decision.
func NewQuotaExceededError(identity string, d Decision) *QuotaExceededError {
	return &QuotaExceededError{
		Identity:   identity,
		Limit:      d.Limit,
		RetryAfter: d.ResetHint,
	}
}
