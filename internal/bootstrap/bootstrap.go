package bootstrap

import (
	"context"
	"net/http"

	"github.com/unimatch/authbridge/internal/config"
	"github.com/unimatch/authbridge/internal/core"
	"github.com/unimatch/authbridge/internal/metrics"
	"github.com/unimatch/authbridge/internal/models"
	"github.com/unimatch/authbridge/internal/school"
	"github.com/unimatch/authbridge/internal/services"
	"github.com/unimatch/authbridge/internal/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "bootstrap")

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      metrics.Recorder
	RedirectCache        core.Cache[models.PendingRedirect]
	ProfileCache         core.Cache[models.Profile]
	DirectoryCache       core.Cache[string]
	RateLimitRedisClient *redis.Client

	// Identity providers
	OAuthProviders []core.OAuthIdentityProvider
	EmailVerifier  core.EmailVerifier
	Directory      school.DirectoryLookup

	// Services
	Profiles   *services.ProfileReconciler
	School     *school.Service
	Federation *services.FederationService

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server

	sweepers []func() int
	closers  []namedCloser
}

type namedCloser struct {
	name  string
	close func() error
}

// Run initializes and starts the application
func Run(ctx context.Context, cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration and set up logging
	if err := validateAllConfiguration(cfg); err != nil {
		return err
	}
	setupLogging(cfg)

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		app.closeAll()
		return err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(ctx); err != nil {
		app.closeAll()
		return err
	}

	// Phase 4: Initialize HTTP layer
	app.initializeHTTPLayer()

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, caches, and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	// Database
	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}
	app.closers = append(app.closers, namedCloser{"database", app.DB.Close})

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config)

	// Caches
	var sweep func() int
	app.RedirectCache, sweep, err = initializeCache[models.PendingRedirect](
		ctx, app.Config, "redirect", app.MetricsRecorder,
	)
	if err != nil {
		return err
	}
	app.trackCache("redirect cache", app.RedirectCache.Close, sweep)

	app.ProfileCache, sweep, err = initializeCache[models.Profile](
		ctx, app.Config, "profile", app.MetricsRecorder,
	)
	if err != nil {
		return err
	}
	app.trackCache("profile cache", app.ProfileCache.Close, sweep)

	if app.Config.SchoolDirectoryEnabled {
		app.DirectoryCache, sweep, err = initializeCache[string](
			ctx, app.Config, "school", app.MetricsRecorder,
		)
		if err != nil {
			return err
		}
		app.trackCache("school cache", app.DirectoryCache.Close, sweep)
	}

	// Redis (for rate limiting)
	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config)
	if err != nil {
		return err
	}
	if app.RateLimitRedisClient != nil {
		app.closers = append(app.closers, namedCloser{"rate limit redis", app.RateLimitRedisClient.Close})
	}

	return nil
}

func (app *Application) trackCache(name string, closeFn func() error, sweep func() int) {
	app.closers = append(app.closers, namedCloser{name, closeFn})
	if sweep != nil {
		app.sweepers = append(app.sweepers, sweep)
	}
}

// initializeBusinessLayer sets up identity providers and services
func (app *Application) initializeBusinessLayer(ctx context.Context) error {
	var err error

	oauthHTTPClient := createOAuthHTTPClient(app.Config)
	app.OAuthProviders, err = initializeOAuthProviders(ctx, app.Config, oauthHTTPClient)
	if err != nil {
		return err
	}
	logOAuthProvidersStatus(app.OAuthProviders)

	app.EmailVerifier, err = initializeEmailVerifier(app.Config)
	if err != nil {
		return err
	}
	app.Directory, err = initializeSchoolDirectory(app.Config, app.DirectoryCache)
	if err != nil {
		return err
	}

	app.Profiles, app.School, app.Federation = initializeServices(
		app.Config,
		app.DB,
		app.ProfileCache,
		app.RedirectCache,
		app.OAuthProviders,
		app.EmailVerifier,
		app.Directory,
		app.MetricsRecorder,
	)
	return nil
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() {
	app.HandlerSet = initializeHandlers(app.Federation, app.Profiles, app.School, app.OAuthProviders)

	app.Router = setupRouter(
		app.Config,
		app.HandlerSet,
		healthChecks(app.DB, app.RedirectCache),
		app.MetricsRecorder,
		app.RateLimitRedisClient,
	)

	app.Server = createHTTPServer(app.Config, app.Router)
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Config, app.Server)
	addCacheSweepJob(m, app.sweepers)
	addCloseJobs(m, app.closers)

	<-m.Done()
}

// closeAll releases whatever was opened before a startup failure.
func (app *Application) closeAll() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].close(); err != nil {
			log.WithError(err).Warnf("failed to close %s", app.closers[i].name)
		}
	}
}
