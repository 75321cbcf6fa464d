package bootstrap

import (
	"github.com/unimatch/authbridge/internal/config"
	"github.com/unimatch/authbridge/internal/core"
	"github.com/unimatch/authbridge/internal/metrics"
	"github.com/unimatch/authbridge/internal/models"
	"github.com/unimatch/authbridge/internal/school"
	"github.com/unimatch/authbridge/internal/services"
	"github.com/unimatch/authbridge/internal/store"
	"github.com/unimatch/authbridge/internal/token"
)

// initializeServices creates all business logic services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	profileCache core.Cache[models.Profile],
	redirectCache core.Cache[models.PendingRedirect],
	providers []core.OAuthIdentityProvider,
	email core.EmailVerifier,
	directory school.DirectoryLookup,
	prometheusMetrics metrics.Recorder,
) (*services.ProfileReconciler, *school.Service, *services.FederationService) {
	codec, err := token.NewCodec(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to create token codec")
	}

	profiles := services.NewProfileReconciler(db, profileCache, cfg.ProfileCacheTTL, prometheusMetrics)
	schoolService := school.NewService(cfg, profiles, directory, prometheusMetrics)
	redirects := services.NewRedirectStore(redirectCache, cfg.PendingRedirectTTL)

	federation := services.NewFederationService(
		cfg,
		providers,
		email,
		profiles,
		schoolService,
		codec,
		redirects,
		prometheusMetrics,
	)
	return profiles, schoolService, federation
}
