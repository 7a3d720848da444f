package memory

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a sliding-window per-key limiter: at most max events
// per key within the trailing window.
type RateLimiter struct {
	window time.Duration
	max    int
	clock  func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	return NewRateLimiterWithClock(window, max, time.Now)
}

// NewRateLimiterWithClock allows deterministic windows in tests.
func NewRateLimiterWithClock(window time.Duration, max int, clock func() time.Time) *RateLimiter {
	return &RateLimiter{
		window: window,
		max:    max,
		clock:  clock,
		hits:   make(map[string][]time.Time),
	}
}

func (l *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	cutoff := now.Add(-l.window)

	kept := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false, nil
	}
	l.hits[key] = append(kept, now)
	return true, nil
}
