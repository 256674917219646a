package auth

import (
	"context"
	"sync"
	"time"
)

// RateLimiter checks whether an authenticated identity may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// InProcessLimiter is a fixed-window rate limiter that tracks request
// counts per identity in memory.
type InProcessLimiter struct {
	rpm      int
	now      func() time.Time
	mu       sync.Mutex
	counters map[int64]*counter
}

type counter struct {
	count    int
	windowAt time.Time
}

// NewInProcessLimiter creates a limiter allowing rpm requests per identity
// per minute. A non-positive rpm disables limiting.
func NewInProcessLimiter(rpm int) *InProcessLimiter {
	return &InProcessLimiter{
		rpm:      rpm,
		now:      time.Now,
		counters: make(map[int64]*counter),
	}
}

// Allow checks if the request is within the rate limit.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	if l.rpm <= 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.counters[identity.ID]
	if !ok || now.Sub(c.windowAt) >= time.Minute {
		l.counters[identity.ID] = &counter{count: 1, windowAt: now}
		l.sweep(now)
		return nil
	}

	c.count++
	if c.count > l.rpm {
		return ErrTooManyRequests
	}

	return nil
}

// sweep drops windows that have expired so idle identities do not
// accumulate. Must be called with mu held.
func (l *InProcessLimiter) sweep(now time.Time) {
	for id, c := range l.counters {
		if now.Sub(c.windowAt) >= time.Minute {
			delete(l.counters, id)
		}
	}
}
