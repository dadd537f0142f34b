// Package storage provides the usage ledger behind the quota guard.
//
// The ledger records per-identity admitted and rejected counts; it does
// not persist bucket state, which is rebuilt at full capacity on first
// access after a restart.
//
// Two backends are provided: MemoryStore for fast non-durable counting
// and SQLiteStore for counts that survive restarts.
package storage
