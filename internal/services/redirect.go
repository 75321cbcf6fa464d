package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/unimatch/authbridge/internal/cache"
	"github.com/unimatch/authbridge/internal/core"
	"github.com/unimatch/authbridge/internal/models"
	"github.com/unimatch/authbridge/internal/util"
)

const redirectKeyPrefix = "redirect:"

// RedirectStore keeps PendingRedirects under opaque single-use handles.
type RedirectStore struct {
	cache core.Cache[models.PendingRedirect]
	ttl   time.Duration
	now   func() time.Time
}

func NewRedirectStore(c core.Cache[models.PendingRedirect], ttl time.Duration) *RedirectStore {
	return &RedirectStore{cache: c, ttl: ttl, now: time.Now}
}

// Save stores pr and returns the handle that retrieves it.
func (s *RedirectStore) Save(ctx context.Context, pr models.PendingRedirect) (string, error) {
	handle, err := util.NewHandle()
	if err != nil {
		return "", fmt.Errorf("failed to generate redirect handle: %w", err)
	}
	pr.CreatedAt = s.now().UTC()

	if err := s.cache.Set(ctx, redirectKeyPrefix+handle, pr, s.ttl); err != nil {
		return "", fmt.Errorf("failed to store pending redirect: %w", err)
	}
	return handle, nil
}

// Take returns the PendingRedirect for handle and removes it, so a handle
// resolves at most once.
func (s *RedirectStore) Take(ctx context.Context, handle string) (*models.PendingRedirect, error) {
	if handle == "" {
		return nil, ErrRedirectNotFound
	}
	pr, err := s.cache.Take(ctx, redirectKeyPrefix+handle)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrRedirectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending redirect: %w", err)
	}
	return &pr, nil
}
