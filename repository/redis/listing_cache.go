package redis

import (
	"context"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/tasknest/backend/repository"
)

type listingCache struct {
	client *redislib.Client
}

// NewListingCache creates a Redis-backed cache for serialized listing payloads.
func NewListingCache(client *redislib.Client) repository.ListingCache {
	return &listingCache{client: client}
}

func (c *listingCache) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redislib.Nil {
			return nil, nil
		}
		return nil, err
	}
	return payload, nil
}

func (c *listingCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, payload, ttl).Err()
}

// Invalidate deletes every key matching the glob pattern via incremental SCAN,
// so it never blocks the server the way KEYS would.
func (c *listingCache) Invalidate(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
