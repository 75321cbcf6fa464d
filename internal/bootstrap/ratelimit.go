package bootstrap

import (
	"time"

	"github.com/unimatch/authbridge/internal/config"
	"github.com/unimatch/authbridge/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitCleanupInterval = time.Minute

// rateLimitMiddlewares holds rate limiting middlewares for different endpoints
type rateLimitMiddlewares struct {
	login     gin.HandlerFunc
	magicLink gin.HandlerFunc
}

// setupRateLimiting configures rate limiting middlewares based on configuration
// Accepts an optional go-redis client
func setupRateLimiting(cfg *config.Config, redisClient *redis.Client) rateLimitMiddlewares {
	// Return no-op middlewares when rate limiting is disabled
	noOpMiddleware := func(c *gin.Context) { c.Next() }

	switch {
	case !cfg.EnableRateLimit:
		return rateLimitMiddlewares{
			login:     noOpMiddleware,
			magicLink: noOpMiddleware,
		}
	default:
		return createRateLimiters(cfg, redisClient)
	}
}

// createRateLimiters creates rate limiting middlewares for all endpoints
func createRateLimiters(cfg *config.Config, redisClient *redis.Client) rateLimitMiddlewares {
	storeType := middleware.RateLimitStoreType(cfg.RateLimitStore)
	if storeType == middleware.RateLimitStoreRedis {
		log.Info("rate limiting enabled (store: redis, shared client)")
	} else {
		log.Info("rate limiting enabled (store: memory, single instance only)")
	}

	createLimiter := func(requestsPerMinute int, name string) gin.HandlerFunc {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: requestsPerMinute,
			StoreType:         storeType,
			RedisClient:       redisClient, // nil for memory store
			CleanupInterval:   rateLimitCleanupInterval,
			Prefix:            "ratelimit:" + name,
		})
		if err != nil {
			log.WithError(err).Fatalf("failed to create rate limiter for %s", name)
		}
		return limiter
	}

	return rateLimitMiddlewares{
		login:     createLimiter(cfg.LoginRateLimit, "login"),
		magicLink: createLimiter(cfg.MagicLinkRateLimit, "magic-link"),
	}
}
