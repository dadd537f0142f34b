// Package quota admits or rejects extraction requests per identity
// before any downstream work happens.
//
// # Overview
//
// Each identity gets a token bucket with a configurable capacity
// (default 10) refilling one token per fixed interval (default 6s).
// Refill is computed lazily on each check from the elapsed time, so
// idle identities cost nothing. Buckets are created on first sight at
// full capacity and swept away after about an hour of inactivity.
//
//	guard := quota.NewGuard(quota.Config{MaxTokens: 10, RefillInterval: 6 * time.Second})
//	defer guard.Close()
//
//	d := guard.Check(ctx, identity)
//	if !d.Allowed {
//	    return quota.NewQuotaExceededError(identity, d)
//	}
//
// # Ordering
//
// The guard must run strictly before the upstream call: a rejected
// request never costs an upstream token. Decisions carry the remaining
// count and a reset hint either way, so HTTP handlers can set rate
// limit headers on every response.
//
// # Ledger
//
// An optional storage.Store records per-identity admitted and rejected
// counts for offline inspection. The ledger never influences
// decisions, and a ledger failure only logs a warning.
package quota
