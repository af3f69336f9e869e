package rateLimit

import (
	"context"
	"time"

	redisadapter "eventbooking/internal/adapters/redis"
	"eventbooking/internal/observability"
)

// RateLimiter is a fixed-window counter backed by redis, keyed per user
// and per client IP.
type RateLimiter struct {
	redis *redisadapter.Cache
}

func NewRateLimiter(redis *redisadapter.Cache) *RateLimiter {
	return &RateLimiter{redis: redis}
}

func (rl *RateLimiter) Allow(ctx context.Context, key string, rate int, period time.Duration) bool {
	fullKey := "rl:" + key

	pipe := rl.redis.Client().Pipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, period)

	_, err := pipe.Exec(ctx)
	if err != nil {
		// Fail open: a broken limiter must not take reservations down.
		return true
	}

	allowed := incr.Val() <= int64(rate)
	if !allowed {
		observability.RateLimitExceeded.Inc()
	}
	return allowed
}
