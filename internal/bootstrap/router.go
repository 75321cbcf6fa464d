package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/unimatch/authbridge/internal/config"
	"github.com/unimatch/authbridge/internal/core"
	"github.com/unimatch/authbridge/internal/metrics"
	"github.com/unimatch/authbridge/internal/middleware"
	"github.com/unimatch/authbridge/internal/models"
	"github.com/unimatch/authbridge/internal/store"
	"github.com/unimatch/authbridge/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const healthCheckTimeout = 2 * time.Second

// healthCheck reports whether one dependency is usable.
type healthCheck struct {
	name  string
	check func(ctx context.Context) error
}

// healthChecks lists the dependencies /health reports on.
func healthChecks(db *store.Store, redirects core.Cache[models.PendingRedirect]) []healthCheck {
	return []healthCheck{
		{name: "database", check: func(context.Context) error { return db.Health() }},
		{name: "cache", check: redirects.Health},
	}
}

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	h handlerSet,
	checks []healthCheck,
	prometheusMetrics metrics.Recorder,
	rateLimitRedisClient *redis.Client,
) *gin.Engine {
	// Setup Gin mode
	setupGinMode(cfg)
	r := gin.New()

	// Setup middleware
	r.Use(metrics.HTTPMetricsMiddleware(prometheusMetrics))
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(util.IPMiddleware())

	// Health check endpoint
	r.GET("/health", createHealthCheckHandler(checks))

	// Setup metrics endpoint
	setupMetricsEndpoint(r, cfg)

	// Setup rate limiting
	rateLimiters := setupRateLimiting(cfg, rateLimitRedisClient)

	// Setup all routes
	setupAllRoutes(r, h, rateLimiters)

	// Log server startup info
	logServerStartup(cfg, h)

	return r
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Info("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Info("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Info("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(r *gin.Engine, h handlerSet, rateLimiters rateLimitMiddlewares) {
	// OAuth redirect flow
	if h.hasOAuth {
		r.GET("/login", rateLimiters.login, h.federation.Login)
		r.GET("/callback", h.federation.Callback)
		r.GET("/oauth/:provider", rateLimiters.login, h.federation.LoginWithProvider)
		r.GET("/oauth/:provider/callback", h.federation.CallbackWithProvider)
	}

	// Email confirmation flow
	r.GET("/auth/confirm", h.federation.Confirm)

	api := r.Group("/api/auth")
	{
		api.POST("/magic-link", rateLimiters.magicLink, h.federation.MagicLink)
		api.POST("/logout", h.federation.Logout)

		me := api.Group("/me")
		me.Use(middleware.RequireBearer(h.federationService))
		{
			me.GET("", h.profile.Me)
			me.PATCH("", h.profile.UpdateMe)
		}
	}
}

// createHealthCheckHandler creates health check endpoint handler
func createHealthCheckHandler(checks []healthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := http.StatusOK
		body := gin.H{"status": "healthy"}
		for _, hc := range checks {
			if err := hc.check(ctx); err != nil {
				log.WithError(err).WithField("dependency", hc.name).Warn("health check failed")
				status = http.StatusServiceUnavailable
				body["status"] = "unhealthy"
				body[hc.name] = "disconnected"
				continue
			}
			body[hc.name] = "connected"
		}
		c.JSON(status, body)
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	mode := ginModeMap[cfg.IsProduction()]
	gin.SetMode(mode)
	log.Infof("Gin mode: %s", ginModeLogMessage[cfg.IsProduction()])
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

var ginModeLogMessage = map[bool]string{
	true:  "Release (production)",
	false: "Debug (development)",
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config, h handlerSet) {
	log.WithFields(logrus.Fields{
		"addr":             cfg.ServerAddr,
		"base_url":         cfg.BaseURL,
		"oauth_providers":  h.federationService.Providers(),
		"email_enabled":    h.federationService.EmailEnabled(),
		"default_callback": cfg.DefaultCallbackURL,
	}).Info("AuthBridge server starting")
}
