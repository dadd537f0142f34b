package quota

import "time"

// bucket holds the per-identity token state. Access is serialized by
// the Guard's lock; the bucket itself carries no synchronization.
type bucket struct {
	tokens     int
	lastRefill time.Time
}

// newBucket creates a bucket at full capacity.
func newBucket(capacity int, now time.Time) *bucket {
	return &bucket{
		tokens:     capacity,
		lastRefill: now,
	}
}

// refill adds the tokens earned since lastRefill: elapsed time divided
// by the interval, integer division, capped at capacity. lastRefill
// advances only when at least one full interval elapsed; checks inside
// an interval must not reset the clock or a steady trickle of checks
// would starve the refill forever.
func (b *bucket) refill(now time.Time, capacity int, interval time.Duration) {
	elapsed := now.Sub(b.lastRefill)
	if elapsed < interval {
		return
	}

	earned := int(elapsed / interval)
	b.tokens += earned
	if b.tokens > capacity {
		b.tokens = capacity
	}
	b.lastRefill = now
}

// take consumes one token if available.
func (b *bucket) take() bool {
	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

// resetHint returns the time until the next token refill, zero when the
// bucket is full.
func (b *bucket) resetHint(now time.Time, capacity int, interval time.Duration) time.Duration {
	if b.tokens >= capacity {
		return 0
	}
	hint := interval - now.Sub(b.lastRefill)
	if hint < 0 {
		hint = 0
	}
	return hint
}
