package storage

import (
	"context"
	"time"
)

// Store is the usage ledger behind the quota guard. It records how
// often each identity was admitted or rejected; it holds no bucket
// state, which lives in memory only.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// RecordDecision adds one admitted or rejected count for an
	// identity, creating the ledger row on first sight.
	RecordDecision(ctx context.Context, identity string, allowed bool) error

	// Usage returns the accumulated counts for an identity. Returns
	// nil if the identity has never been recorded.
	Usage(ctx context.Context, identity string) (*IdentityUsage, error)

	// List returns the accumulated counts for all recorded identities.
	List(ctx context.Context) ([]*IdentityUsage, error)

	// Close releases resources held by the store.
	Close() error
}

// IdentityUsage is the accumulated quota ledger for one identity.
type IdentityUsage struct {
	// Identity is the ledger key.
	Identity string

	// Admitted counts checks that consumed a token.
	Admitted int64

	// Rejected counts checks that found an empty bucket.
	Rejected int64

	// FirstSeen is when the identity was first recorded.
	FirstSeen time.Time

	// LastSeen is when the identity was last recorded.
	LastSeen time.Time
}
