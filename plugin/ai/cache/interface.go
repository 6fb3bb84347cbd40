// Package cache provides in-process caches for sessions and classifier decisions.
package cache

import (
	"context"
	"time"
)

// CacheService is a byte-oriented cache keyed by string.
// Values are copied in and out so callers never share memory with the cache.
type CacheService interface {
	// Get retrieves a value from cache.
	// Returns: value, whether it exists
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value in cache.
	// ttl: expiration time, <= 0 uses the service default
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// Invalidate invalidates cache entries.
	// pattern: supports a trailing wildcard (session:*)
	Invalidate(ctx context.Context, pattern string) error
}
