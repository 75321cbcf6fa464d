package bootstrap

import (
	"context"
	"fmt"

	"github.com/unimatch/authbridge/internal/cache"
	"github.com/unimatch/authbridge/internal/config"
	"github.com/unimatch/authbridge/internal/core"
	"github.com/unimatch/authbridge/internal/metrics"

	"github.com/sirupsen/logrus"
)

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	prometheusMetrics := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Info("Prometheus metrics initialized")
	} else {
		log.Info("Metrics disabled (using noop implementation)")
	}
	return prometheusMetrics
}

// initializeCache creates the named cache on the configured backend and wraps
// it with hit/miss accounting. The returned sweep function is non-nil only
// for the memory backend, which needs periodic eviction of expired entries.
func initializeCache[T any](
	ctx context.Context,
	cfg *config.Config,
	name string,
	recorder metrics.Recorder,
) (core.Cache[T], func() int, error) {
	switch cfg.CacheType {
	case config.CacheTypeRedis:
		ctx, cancel := context.WithTimeout(ctx, cfg.CacheInitTimeout)
		defer cancel()

		c, err := cache.NewRueidisCache[T](
			ctx,
			cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			"authbridge:"+name+":",
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis %s cache: %w", name, err)
		}
		log.WithFields(logrus.Fields{
			"cache": name,
			"addr":  cfg.RedisAddr,
			"db":    cfg.RedisDB,
		}).Info("cache backend: redis")
		return metrics.NewCacheWrapper[T](name, c, recorder), nil, nil

	default: // memory
		c := cache.NewMemoryCache[T]()
		log.WithField("cache", name).Info("cache backend: memory (single instance only)")
		return metrics.NewCacheWrapper[T](name, c, recorder), c.Sweep, nil
	}
}
