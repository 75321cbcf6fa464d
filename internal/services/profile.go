package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/unimatch/authbridge/internal/core"
	"github.com/unimatch/authbridge/internal/models"
	"github.com/unimatch/authbridge/internal/store"

	"github.com/sirupsen/logrus"
)

const profileCacheKeyPrefix = "profile:"

// ProfileReconciler keeps exactly one profile per normalized email and merges
// verified identities into it without clobbering user edits.
type ProfileReconciler struct {
	store    core.ProfileStore
	cache    core.Cache[models.Profile]
	cacheTTL time.Duration
	metrics  core.Recorder
}

// NewProfileReconciler creates a reconciler. cache may be nil.
func NewProfileReconciler(
	s core.ProfileStore,
	c core.Cache[models.Profile],
	cacheTTL time.Duration,
	m core.Recorder,
) *ProfileReconciler {
	return &ProfileReconciler{
		store:    s,
		cache:    c,
		cacheTTL: cacheTTL,
		metrics:  m,
	}
}

// UpsertFromIdentity finds or creates the profile for identity.Email.
// On an existing profile, name and picture are filled only when empty.
func (r *ProfileReconciler) UpsertFromIdentity(
	ctx context.Context,
	identity *core.VerifiedIdentity,
) (*models.Profile, error) {
	if identity == nil {
		return nil, ErrMissingEmail
	}
	email := store.NormalizeEmail(identity.Email)
	if email == "" {
		return nil, ErrMissingEmail
	}

	profile, created, err := r.store.CreateProfileIfAbsent(ctx, &models.Profile{
		Email:      email,
		Name:       strings.TrimSpace(identity.Name),
		PictureURL: identity.PictureURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	r.metrics.RecordProfileUpsert(created)
	if created {
		log.WithFields(logrus.Fields{
			"profile_id": profile.ID,
			"provider":   identity.Provider,
		}).Info("profile created")
		return profile, nil
	}

	patch := mergeIdentity(profile, identity)
	if patch.IsEmpty() {
		return profile, nil
	}
	return r.UpdateFields(ctx, profile.ID, patch)
}

// mergeIdentity returns the fields identity may fill on p.
func mergeIdentity(p *models.Profile, identity *core.VerifiedIdentity) models.ProfilePatch {
	var patch models.ProfilePatch
	if name := strings.TrimSpace(identity.Name); p.Name == "" && name != "" {
		patch.Name = &name
	}
	if pic := identity.PictureURL; p.PictureURL == "" && pic != "" {
		patch.PictureURL = &pic
	}
	return patch
}

// FindByEmail looks a profile up by email without mutating anything.
func (r *ProfileReconciler) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	p, err := r.store.GetProfileByEmail(ctx, email)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return p, nil
}

// FindByID looks a profile up by id, through the profile cache when configured.
func (r *ProfileReconciler) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	if id == "" {
		return nil, ErrProfileNotFound
	}
	if r.cache == nil {
		p, err := r.store.GetProfileByID(ctx, id)
		if err != nil {
			return nil, translateNotFound(err)
		}
		return p, nil
	}

	p, err := r.cache.GetWithFetch(
		ctx,
		profileCacheKeyPrefix+id,
		r.cacheTTL,
		func(ctx context.Context, key string) (models.Profile, error) {
			p, err := r.store.GetProfileByID(ctx, strings.TrimPrefix(key, profileCacheKeyPrefix))
			if err != nil {
				return models.Profile{}, err
			}
			return *p, nil
		},
	)
	if err != nil {
		return nil, translateNotFound(err)
	}
	return &p, nil
}

// UpdateFields applies a partial update. Nil fields are left untouched and an
// empty name never replaces an existing one.
func (r *ProfileReconciler) UpdateFields(
	ctx context.Context,
	id string,
	patch models.ProfilePatch,
) (*models.Profile, error) {
	p, err := r.store.UpdateProfile(ctx, id, patch)
	if err != nil {
		return nil, translateNotFound(err)
	}

	if r.cache != nil {
		if err := r.cache.Delete(ctx, profileCacheKeyPrefix+id); err != nil {
			log.WithError(err).WithField("profile_id", id).Warn("failed to invalidate profile cache")
		}
	}
	return p, nil
}

func translateNotFound(err error) error {
	if errors.Is(err, store.ErrRecordNotFound) {
		return ErrProfileNotFound
	}
	return err
}
