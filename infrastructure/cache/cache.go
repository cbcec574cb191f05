// Package cache implements the cache-aside content delivery layer: a
// key-value store abstraction with TTL support, a codec that owns the TTL
// policy per entity class, and an invalidation router that maps mutations to
// the key patterns they make stale.
//
// The cache is a disposable derivative of the document store. Every
// operation here is best-effort: callers log cache failures and carry on,
// they never fail a request because the cache was unreachable.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key does not exist in the cache or has
// expired. It is the explicit "absent" signal; a miss is never a failure.
var ErrNotFound = errors.New("cache: key not found")

// Store abstracts a key-value cache with TTL and wildcard deletion.
// All operations are safe for concurrent use.
type Store interface {
	// Get retrieves the value associated with key.
	// Returns ErrNotFound if the key does not exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL, silently overwriting any
	// existing entry. A zero TTL means the entry does not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching a glob pattern such as
	// "search:*". Patterns without a wildcard behave like Delete.
	DeletePattern(ctx context.Context, pattern string) error

	// Ping verifies connectivity to the underlying backend.
	Ping(ctx context.Context) error

	// Close releases resources held by the implementation.
	Close() error
}
