package core

import (
	"context"
	"time"
)

// Cache[T] is a typed key-value cache with TTL. Pending redirects, profiles and
// school directory lookups are kept in separate instances.
type Cache[T any] interface {
	// Get returns ErrCacheMiss (from package cache) when the key is absent or expired.
	Get(ctx context.Context, key string) (T, error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Take returns the value and removes it in one step, so a key can be
	// consumed at most once even under concurrent callers.
	Take(ctx context.Context, key string) (T, error)

	Close() error
	Health(ctx context.Context) error

	// GetWithFetch retrieves a value using the cache-aside pattern.
	// On cache miss, fetchFunc is called and the result is stored in cache.
	GetWithFetch(
		ctx context.Context,
		key string,
		ttl time.Duration,
		fetchFunc func(ctx context.Context, key string) (T, error),
	) (T, error)
}
