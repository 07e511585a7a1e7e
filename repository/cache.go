package repository

import (
	"context"
	"time"
)

// ListingCache stores serialized listing payloads under a TTL. A hit returns
// the payload verbatim so the handler can skip the store and re-serialization.
type ListingCache interface {
	// Get returns (nil, nil) on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	// Invalidate deletes every key matching the glob pattern.
	Invalidate(ctx context.Context, pattern string) error
}
