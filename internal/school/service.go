package school

import (
	"context"
	"fmt"
	"strings"

	"github.com/unimatch/authbridge/internal/config"
	"github.com/unimatch/authbridge/internal/core"
	"github.com/unimatch/authbridge/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "school")

// Inference results reported to the metrics recorder.
const (
	ResultMatched      = "matched"
	ResultUnchanged    = "unchanged"
	ResultNoMatch      = "no_match"
	ResultRejected     = "rejected"
	ResultUpdateFailed = "update_failed"
)

// ProfileUpdater is the slice of the profile reconciler this service needs.
type ProfileUpdater interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	UpdateFields(ctx context.Context, id string, patch models.ProfilePatch) (*models.Profile, error)
}

// DirectoryLookup resolves a domain through an external school directory.
type DirectoryLookup interface {
	Lookup(ctx context.Context, domain string) (string, error)
}

// Service infers a school from an email domain and records it on the profile.
type Service struct {
	rules        *Rules
	directory    DirectoryLookup
	requireMatch bool
	profiles     ProfileUpdater
	validate     *validator.Validate
	metrics      core.Recorder
}

// NewService creates the inference service. directory may be nil.
func NewService(
	cfg *config.Config,
	profiles ProfileUpdater,
	directory DirectoryLookup,
	m core.Recorder,
) *Service {
	return &Service{
		rules:        NewRules(cfg.SchoolDomainRules, cfg.SchoolBlockedDomains),
		directory:    directory,
		requireMatch: cfg.SchoolRequireMatch,
		profiles:     profiles,
		validate:     validator.New(),
		metrics:      m,
	}
}

// InferAndApply derives the school for email and stores it on the profile when
// it differs. A policy violation returns ("", err). A persistence failure
// returns the inferred school together with ErrUpdateFailed.
func (s *Service) InferAndApply(ctx context.Context, email, profileID string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email"); err != nil {
		s.metrics.RecordSchoolInference(ResultRejected)
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	domain := email[strings.LastIndex(email, "@")+1:]
	if s.rules.Blocked(domain) {
		s.metrics.RecordSchoolInference(ResultRejected)
		return "", fmt.Errorf("%w: %s", ErrDomainNotAllowed, domain)
	}

	school := s.resolve(ctx, domain)
	if school == "" {
		if s.requireMatch {
			s.metrics.RecordSchoolInference(ResultRejected)
			return "", fmt.Errorf("%w: %s", ErrNotSchoolEmail, domain)
		}
		s.metrics.RecordSchoolInference(ResultNoMatch)
		return "", nil
	}

	profile, err := s.profiles.FindByID(ctx, profileID)
	if err != nil {
		s.metrics.RecordSchoolInference(ResultUpdateFailed)
		return school, fmt.Errorf("%w: load profile %s: %v", ErrUpdateFailed, profileID, err)
	}
	if profile.SchoolName() == school {
		s.metrics.RecordSchoolInference(ResultUnchanged)
		return school, nil
	}

	if _, err := s.profiles.UpdateFields(ctx, profileID, models.ProfilePatch{School: &school}); err != nil {
		s.metrics.RecordSchoolInference(ResultUpdateFailed)
		return school, fmt.Errorf("%w: %v", ErrUpdateFailed, err)
	}

	log.WithFields(logrus.Fields{
		"profile_id": profileID,
		"domain":     domain,
		"school":     school,
	}).Info("school inferred")
	s.metrics.RecordSchoolInference(ResultMatched)
	return school, nil
}

func (s *Service) resolve(ctx context.Context, domain string) string {
	if school, ok := s.rules.Match(domain); ok {
		return school
	}
	if s.directory == nil {
		return ""
	}

	school, err := s.directory.Lookup(ctx, domain)
	if err != nil {
		log.WithError(err).WithField("domain", domain).Warn("school directory lookup failed")
		return ""
	}
	return school
}
