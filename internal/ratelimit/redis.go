package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore provides fixed-window rate limiting on a shared Redis counter
// store, for deployments running more than one process.
type RedisStore struct {
	client redis.Cmdable
	limit  int64
	window time.Duration
}

var _ Limiter = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed limiter allowing the given requests
// per minute per key.
func NewRedisStore(client redis.Cmdable, requestsPerMinute int) *RedisStore {
	return &RedisStore{
		client: client,
		limit:  int64(requestsPerMinute),
		window: time.Minute,
	}
}

// Admit increments the key's counter for the current window and checks it
// against the limit. INCR is atomic in Redis, so concurrent requests for the
// same key never over-admit. On a Redis error the decision allows the request
// and the error is returned for the caller to log: an unavailable counter
// store must not take down the redirect path.
func (s *RedisStore) Admit(ctx context.Context, key string) (Decision, error) {
	now := time.Now()
	windowStart := now.Truncate(s.window)
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, windowStart.Unix())

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, s.window*2)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{Allowed: true}, fmt.Errorf("rate limit counter unavailable: %w", err)
	}

	count := incr.Val()
	if count > s.limit {
		return Decision{
			Allowed:    false,
			RetryAfter: windowStart.Add(s.window).Sub(now),
		}, nil
	}

	return Decision{Allowed: true, Remaining: int(s.limit - count)}, nil
}
