package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryCache_GetSet(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	err := cache.Set(ctx, "test-key", 42, time.Minute)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := cache.Get(ctx, "test-key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if value != 42 {
		t.Errorf("Expected value 42, got %d", value)
	}
}

func TestMemoryCache_GetMiss(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	_, err := cache.Get(ctx, "non-existent")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	if err := cache.Set(ctx, "expire-key", 100, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, err := cache.Get(ctx, "expire-key")
	if err != nil {
		t.Fatalf("Get failed before expiration: %v", err)
	}
	if value != 100 {
		t.Errorf("Expected value 100, got %d", value)
	}

	// Expiry is exclusive: an entry is gone exactly at its deadline.
	now = now.Add(time.Minute)

	_, err = cache.Get(ctx, "expire-key")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after expiration, got %v", err)
	}
}

func TestMemoryCache_Take(t *testing.T) {
	cache := NewMemoryCache[string]()
	ctx := context.Background()

	_ = cache.Set(ctx, "handle", "https://app.example.com/cb", time.Minute)

	value, err := cache.Take(ctx, "handle")
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if value != "https://app.example.com/cb" {
		t.Errorf("unexpected value %q", value)
	}

	_, err = cache.Take(ctx, "handle")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss on second Take, got %v", err)
	}
}

func TestMemoryCache_TakeExpired(t *testing.T) {
	cache := NewMemoryCache[string]()
	ctx := context.Background()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_ = cache.Set(ctx, "handle", "value", time.Second)
	now = now.Add(2 * time.Second)

	_, err := cache.Take(ctx, "handle")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss for expired entry, got %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("expired entry should be removed by Take, %d left", cache.Len())
	}
}

func TestMemoryCache_TakeConcurrent(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	_ = cache.Set(ctx, "once", 7, time.Minute)

	var hits atomic.Int64
	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			if _, err := cache.Take(ctx, "once"); err == nil {
				hits.Add(1)
			}
		})
	}
	wg.Wait()

	if hits.Load() != 1 {
		t.Errorf("expected exactly one successful Take, got %d", hits.Load())
	}
}

func TestMemoryCache_Sweep(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	_ = cache.Set(ctx, "short", 1, time.Second)
	_ = cache.Set(ctx, "long", 2, time.Hour)
	now = now.Add(time.Minute)

	if removed := cache.Sweep(); removed != 1 {
		t.Errorf("expected 1 removed entry, got %d", removed)
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 remaining entry, got %d", cache.Len())
	}
}

func TestMemoryCache_Delete(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	err := cache.Set(ctx, "delete-key", 123, time.Minute)
	if err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	err = cache.Delete(ctx, "delete-key")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err = cache.Get(ctx, "delete-key")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after delete, got %v", err)
	}
}

func TestMemoryCache_Close(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	_ = cache.Set(ctx, "key1", 1, time.Minute)
	_ = cache.Set(ctx, "key2", 2, time.Minute)

	err := cache.Close()
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err = cache.Get(ctx, "key1")
	if !errors.Is(err, ErrCacheMiss) {
		t.Error("Expected cache to be cleared after Close")
	}
}

func TestMemoryCache_Health(t *testing.T) {
	cache := NewMemoryCache[int64]()

	if err := cache.Health(context.Background()); err != nil {
		t.Errorf("Health check should always succeed for memory cache, got: %v", err)
	}
}

func TestMemoryCache_Concurrent(t *testing.T) {
	cache := NewMemoryCache[int64]()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			for j := range 100 {
				_ = cache.Set(ctx, "concurrent-key", int64(i*1000+j), time.Minute)
			}
		})
	}
	for range 10 {
		wg.Go(func() {
			for range 100 {
				_, _ = cache.Get(ctx, "concurrent-key")
			}
		})
	}
	wg.Wait()

	_, err := cache.Get(ctx, "concurrent-key")
	if err != nil {
		t.Errorf("Cache corrupted after concurrent access: %v", err)
	}
}

func TestMemoryCache_GetWithFetch_CacheMiss(t *testing.T) {
	c := NewMemoryCache[int64]()
	ctx := context.Background()

	fetchCount := 0
	fetchFunc := func(ctx context.Context, key string) (int64, error) {
		fetchCount++
		return 42, nil
	}

	value, err := c.GetWithFetch(ctx, "key", time.Minute, fetchFunc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 42 {
		t.Errorf("expected 42, got %d", value)
	}

	value, err = c.GetWithFetch(ctx, "key", time.Minute, fetchFunc)
	if err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}
	if value != 42 {
		t.Errorf("expected 42 on cache hit, got %d", value)
	}
	if fetchCount != 1 {
		t.Errorf("expected fetchFunc not called on cache hit, got %d calls", fetchCount)
	}
}

func TestMemoryCache_GetWithFetch_FetchError(t *testing.T) {
	c := NewMemoryCache[int64]()
	ctx := context.Background()

	expectedErr := errors.New("fetch failed")
	_, err := c.GetWithFetch(
		ctx,
		"key",
		time.Minute,
		func(ctx context.Context, key string) (int64, error) {
			return 0, expectedErr
		},
	)
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected fetch error, got %v", err)
	}

	if _, err := c.Get(ctx, "key"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("failed fetch must not populate cache, got %v", err)
	}
}

func TestMemoryCache_GetWithFetch_Concurrent(t *testing.T) {
	c := NewMemoryCache[int64]()
	ctx := context.Background()

	release := make(chan struct{})
	var fetchCount atomic.Int64
	fetchFunc := func(ctx context.Context, key string) (int64, error) {
		fetchCount.Add(1)
		<-release
		return 99, nil
	}

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			val, err := c.GetWithFetch(ctx, "shared-key", time.Minute, fetchFunc)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if val != 99 {
				t.Errorf("expected 99, got %d", val)
			}
		})
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := fetchCount.Load(); n < 1 || n > 50 {
		t.Errorf("unexpected fetch count %d", n)
	}
}
