package models

import (
	"time"
)

// Profile is the durable internal user record reconciled from external identities.
type Profile struct {
	ID         string `gorm:"primaryKey"`
	Email      string `gorm:"uniqueIndex;not null"` // stored lower-case
	Name       string
	PictureURL string // avatar from the identity provider

	// User-owned attributes
	School        *string
	Gender        *string // set by the user only
	DefaultFaceID *string // opaque reference to a face resource

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the table name used by Profile to `profiles`
func (Profile) TableName() string {
	return "profiles"
}

// SchoolName returns the inferred school or an empty string.
func (p *Profile) SchoolName() string {
	if p.School == nil {
		return ""
	}
	return *p.School
}

// ProfilePatch describes a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	Name          *string
	PictureURL    *string
	School        *string
	Gender        *string
	DefaultFaceID *string
}

// IsEmpty reports whether the patch changes nothing.
func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.PictureURL == nil && p.School == nil &&
		p.Gender == nil && p.DefaultFaceID == nil
}

// Columns converts the patch into a column map for a partial update.
// An empty name is dropped so that it never clears an existing one.
func (p ProfilePatch) Columns() map[string]any {
	cols := make(map[string]any)
	if p.Name != nil && *p.Name != "" {
		cols["name"] = *p.Name
	}
	if p.PictureURL != nil {
		cols["picture_url"] = *p.PictureURL
	}
	if p.School != nil {
		cols["school"] = *p.School
	}
	if p.Gender != nil {
		cols["gender"] = *p.Gender
	}
	if p.DefaultFaceID != nil {
		cols["default_face_id"] = *p.DefaultFaceID
	}
	return cols
}
