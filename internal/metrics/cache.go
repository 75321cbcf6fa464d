package metrics

import (
	"context"
	"time"

	"github.com/unimatch/authbridge/internal/core"
)

// Compile-time interface check.
var _ core.Cache[struct{}] = (*CacheWrapper[struct{}])(nil)

// CacheWrapper decorates a cache with hit/miss accounting under a name.
type CacheWrapper[T any] struct {
	core.Cache[T]
	name     string
	recorder Recorder
}

// NewCacheWrapper wraps c so every lookup is recorded under name.
func NewCacheWrapper[T any](name string, c core.Cache[T], recorder Recorder) *CacheWrapper[T] {
	return &CacheWrapper[T]{Cache: c, name: name, recorder: recorder}
}

// Get records a hit when the underlying cache returns a value.
func (w *CacheWrapper[T]) Get(ctx context.Context, key string) (T, error) {
	v, err := w.Cache.Get(ctx, key)
	w.recorder.RecordCacheLookup(w.name, err == nil)
	return v, err
}

// Take records a hit when the key was present.
func (w *CacheWrapper[T]) Take(ctx context.Context, key string) (T, error) {
	v, err := w.Cache.Take(ctx, key)
	w.recorder.RecordCacheLookup(w.name, err == nil)
	return v, err
}

// GetWithFetch records a miss when fetchFunc had to run.
func (w *CacheWrapper[T]) GetWithFetch(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetchFunc func(ctx context.Context, key string) (T, error),
) (T, error) {
	fetched := false
	v, err := w.Cache.GetWithFetch(ctx, key, ttl, func(ctx context.Context, key string) (T, error) {
		fetched = true
		return fetchFunc(ctx, key)
	})
	if err == nil {
		w.recorder.RecordCacheLookup(w.name, !fetched)
	}
	return v, err
}
