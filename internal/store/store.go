// Package store is the shared backing for the result cache and the
// rate limiter. The in-memory implementation is the default; the
// Postgres one lets several instances share limiter windows and cached
// results behind the same contract.
package store

import (
	"context"
	"time"
)

// Entry is one stored value. Expired entries may still be returned by
// Get until they are evicted; the caller decides whether stale data is
// acceptable (the sticky-cache fallback path says yes, normal lookups
// say no).
type Entry struct {
	Value     []byte
	StoredAt  time.Time
	ExpiresAt time.Time
}

// Fresh reports whether the entry is within its TTL at time now.
func (e Entry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Store is the injected state contract.
type Store interface {
	// Get returns the entry under key, expired or not.
	Get(ctx context.Context, key string) (Entry, bool, error)
	// Set writes value under key with the given TTL, evicting the
	// globally oldest entry when the store is at capacity.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Increment bumps the fixed-window counter under key, resetting it
	// when the previous window has passed. It returns the count within
	// the current window and the time the window resets.
	Increment(ctx context.Context, key string, window time.Duration) (int64, time.Time, error)
}
