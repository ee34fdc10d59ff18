// Package rescache is the short-TTL result cache keyed by the full
// query signature. Fresh entries short-circuit the provider chain;
// expired ones remain readable for the sticky fallback until evicted.
package rescache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/bantaypondo/news/internal/logger"
	"github.com/bantaypondo/news/internal/store"
)

type Cache struct {
	store store.Store
	ttl   time.Duration
	now   func() time.Time
}

func New(s store.Store, ttl time.Duration) *Cache {
	return &Cache{store: s, ttl: ttl, now: time.Now}
}

// Key derives the cache and rate-limit signature from the normalized
// request parameters.
func Key(category, query, from, to string, page, pageSize int) string {
	sig := fmt.Sprintf("%s|%s|%s|%s|%d|%d", category, query, from, to, page, pageSize)
	h := sha256.Sum256([]byte(sig))
	return hex.EncodeToString(h[:])
}

// Get returns the payload under key. fresh is false when the entry has
// outlived its TTL; such entries are only good enough for the fallback
// path, never for a normal cache hit.
func (c *Cache) Get(ctx context.Context, key string) (payload []byte, fresh, ok bool) {
	e, ok, err := c.store.Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "error", err)
		return nil, false, false
	}
	if !ok {
		return nil, false, false
	}
	return e.Value, e.Fresh(c.now()), true
}

// Set writes payload through under key. Store errors are logged and
// swallowed: a failed cache write must never fail the request.
func (c *Cache) Set(ctx context.Context, key string, payload []byte) {
	if err := c.store.Set(ctx, key, payload, c.ttl); err != nil {
		logger.Warn("cache write failed", "error", err)
	}
}
