package repository

import "context"

// RateLimiter admits or rejects a request for the given principal identity.
// Increment-and-check must be atomic; the window resets by expiry, so a burst
// straddling the boundary can admit up to twice the nominal rate.
type RateLimiter interface {
	Allow(ctx context.Context, identity string) (bool, error)
}
