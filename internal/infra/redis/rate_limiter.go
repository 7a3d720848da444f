package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window per-key limiter backed by Redis: an INCR
// per event with the window's TTL set on the first one. It fails open on
// Redis errors so a cache outage does not take session creation down.
type RateLimiter struct {
	client *redis.Client
	window time.Duration
	max    int
}

func NewRateLimiter(client *redis.Client, window time.Duration, max int) *RateLimiter {
	return &RateLimiter{client: client, window: window, max: max}
}

func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := "ratelimit:" + key
	count, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return true, err
	}
	if count == 1 {
		_ = l.client.Expire(ctx, k, l.window).Err()
	}
	return count <= int64(l.max), nil
}
