// Package ratelimit is a fixed-window counter per client identity,
// guarding the expensive provider calls behind the feed endpoint.
package ratelimit

import (
	"context"
	"time"

	"github.com/bantaypondo/news/internal/logger"
	"github.com/bantaypondo/news/internal/store"
)

// Decision is the outcome of one limiter check, carrying everything the
// HTTP layer needs for the standard rate-limit headers.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time
	RetryAfter time.Duration
}

type Limiter struct {
	store  store.Store
	limit  int
	window time.Duration
	now    func() time.Time
}

func New(s store.Store, limit int, window time.Duration) *Limiter {
	return &Limiter{store: s, limit: limit, window: window, now: time.Now}
}

// Check counts one request for clientID and decides whether it may
// proceed. A store failure fails open: availability over strict
// limiting.
func (l *Limiter) Check(ctx context.Context, clientID string) Decision {
	count, reset, err := l.store.Increment(ctx, "ratelimit:"+clientID, l.window)
	if err != nil {
		logger.Warn("rate limiter store failed, allowing request", "error", err)
		return Decision{Allowed: true, Limit: l.limit, Remaining: l.limit, Reset: l.now().Add(l.window)}
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	d := Decision{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: remaining,
		Reset:     reset,
	}
	if !d.Allowed {
		d.RetryAfter = reset.Sub(l.now())
		if d.RetryAfter < 0 {
			d.RetryAfter = 0
		}
	}
	return d
}
