package redis

import (
	"context"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/tasknest/backend/repository"
)

type rateLimiter struct {
	client *redislib.Client
	prefix string
	limit  int64
	window time.Duration
}

// NewRateLimiter creates a fixed-window limiter backed by Redis. INCR is
// atomic, so increment-and-check never loses updates under concurrency; the
// first request of a window arms the expiry.
func NewRateLimiter(client *redislib.Client, limit int, window time.Duration) repository.RateLimiter {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	return &rateLimiter{
		client: client,
		prefix: "rate_limit:",
		limit:  int64(limit),
		window: window,
	}
}

func (l *rateLimiter) Allow(ctx context.Context, identity string) (bool, error) {
	key := l.prefix + identity

	count, err := l.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.client.Expire(ctx, key, l.window).Err(); err != nil {
			return false, err
		}
	}
	return count <= l.limit, nil
}
