package store

import "errors"

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrEmailRequired is returned when a profile is written without an email
	ErrEmailRequired = errors.New("profile email is required")
)
