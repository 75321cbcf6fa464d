package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/unimatch/authbridge/internal/core"
	"github.com/unimatch/authbridge/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Compile-time interface check.
var _ core.ProfileStore = (*Store)(nil)

type Store struct {
	db *gorm.DB
}

func New(ctx context.Context, driver, dsn string) (*Store, error) {
	dialector, err := GetDialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := configurePool(driver, db); err != nil {
		return nil, err
	}

	// Auto migrate
	if err := db.WithContext(ctx).AutoMigrate(&models.Profile{}); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Profile operations

// GetProfileByEmail finds a profile by normalized email address
func (s *Store) GetProfileByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var p models.Profile
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&p).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

func (s *Store) GetProfileByID(ctx context.Context, id string) (*models.Profile, error) {
	var p models.Profile
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translateError(err)
	}
	return &p, nil
}

// CreateProfileIfAbsent inserts the profile unless one with the same email
// already exists. The unique index on email makes the insert the arbiter when
// two callers race; the loser reads back the winner's row.
func (s *Store) CreateProfileIfAbsent(
	ctx context.Context,
	p *models.Profile,
) (*models.Profile, bool, error) {
	p.Email = NormalizeEmail(p.Email)
	if p.Email == "" {
		return nil, false, ErrEmailRequired
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(p)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to create profile: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return p, true, nil
	}

	existing, err := s.GetProfileByEmail(ctx, p.Email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load existing profile: %w", err)
	}
	return existing, false, nil
}

// UpdateProfile applies a partial update and returns the stored profile.
func (s *Store) UpdateProfile(
	ctx context.Context,
	id string,
	patch models.ProfilePatch,
) (*models.Profile, error) {
	var updated models.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&updated).Error; err != nil {
			return translateError(err)
		}
		cols := patch.Columns()
		if len(cols) == 0 {
			return nil
		}
		if err := tx.Model(&updated).Updates(cols).Error; err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		return tx.Where("id = ?", id).First(&updated).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Health checks the database connection
func (s *Store) Health() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the underlying GORM database connection (for transactions)
func (s *Store) DB() *gorm.DB {
	return s.db
}

func translateError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRecordNotFound
	}
	return err
}
