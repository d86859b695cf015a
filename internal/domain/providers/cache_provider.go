package providers

import (
	"context"
	"time"
)

// CacheProvider defines the interface for key/value storage with TTLs.
// Backends range from Redis on the server side to a local SQLite file on
// the client side; the session store treats them interchangeably.
type CacheProvider interface {
	// Get retrieves a value; an error means absent or unreadable
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an expiration; zero means no expiry
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value
	Delete(ctx context.Context, key string) error

	// Keys lists stored keys matching a prefix
	Keys(ctx context.Context, prefix string) ([]string, error)
}
