package storage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the in-memory ledger size.
const DefaultMaxEntries = 100000

// MemoryStore implements Store in memory. This is the default store;
// counts are lost when the process exits.
//
// MemoryStore is thread-safe using sync.RWMutex.
type MemoryStore struct {
	mu         sync.RWMutex
	usage      map[string]*IdentityUsage
	maxEntries int
}

// NewMemoryStore creates an in-memory usage ledger.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		usage:      make(map[string]*IdentityUsage),
		maxEntries: DefaultMaxEntries,
	}
}

// RecordDecision adds one admitted or rejected count for an identity.
func (m *MemoryStore) RecordDecision(ctx context.Context, identity string, allowed bool) error {
	if identity == "" {
		return fmt.Errorf("identity cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.usage[identity]
	if !ok {
		if len(m.usage) >= m.maxEntries {
			m.evictOldestLocked()
		}
		u = &IdentityUsage{
			Identity:  identity,
			FirstSeen: time.Now(),
		}
		m.usage[identity] = u
	}

	if allowed {
		u.Admitted++
	} else {
		u.Rejected++
	}
	u.LastSeen = time.Now()

	return nil
}

// Usage returns a copy of the accumulated counts for an identity, or
// nil if the identity was never recorded.
func (m *MemoryStore) Usage(ctx context.Context, identity string) (*IdentityUsage, error) {
	if identity == "" {
		return nil, fmt.Errorf("identity cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.usage[identity]
	if !ok {
		return nil, nil
	}

	out := *u
	return &out, nil
}

// List returns copies of all recorded usage entries.
func (m *MemoryStore) List(ctx context.Context) ([]*IdentityUsage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*IdentityUsage, 0, len(m.usage))
	for _, u := range m.usage {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

// Size returns the number of recorded identities.
func (m *MemoryStore) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.usage)
}

// Close releases resources. For the memory store it is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}

// evictOldestLocked drops the least recently seen identity to make
// room. Caller must hold the write lock.
func (m *MemoryStore) evictOldestLocked() {
	var (
		oldestKey  string
		oldestTime time.Time
		found      bool
	)

	for key, u := range m.usage {
		if !found || u.LastSeen.Before(oldestTime) {
			oldestKey = key
			oldestTime = u.LastSeen
			found = true
		}
	}

	if found {
		delete(m.usage, oldestKey)
	}
}
