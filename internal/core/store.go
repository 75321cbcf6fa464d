package core

import (
	"context"

	"github.com/unimatch/authbridge/internal/models"
)

// ProfileStore defines the persistence operations used by the profile reconciler.
type ProfileStore interface {
	GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetProfileByID(ctx context.Context, id string) (*models.Profile, error)
	// CreateProfileIfAbsent inserts p unless a profile with the same email exists.
	// It returns the stored profile and whether it was created by this call.
	CreateProfileIfAbsent(ctx context.Context, p *models.Profile) (*models.Profile, bool, error)
	UpdateProfile(ctx context.Context, id string, patch models.ProfilePatch) (*models.Profile, error)
}
