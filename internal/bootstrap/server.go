package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/unimatch/authbridge/internal/config"

	"github.com/appleboy/graceful"
)

const cacheSweepInterval = time.Minute

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Fatal("failed to start server")
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, cfg *config.Config, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Info("shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("server forced to shutdown")
			return err
		}

		log.Info("server exited")
		return nil
	})
}

// addCacheSweepJob periodically evicts expired entries from memory caches
func addCacheSweepJob(m *graceful.Manager, sweepers []func() int) {
	if len(sweepers) == 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cacheSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sweepCaches(sweepers)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

func sweepCaches(sweepers []func() int) int {
	total := 0
	for _, sweep := range sweepers {
		total += sweep()
	}
	if total > 0 {
		log.WithField("evicted", total).Debug("expired cache entries swept")
	}
	return total
}

// addCloseJobs releases caches, Redis clients and the database on shutdown
func addCloseJobs(m *graceful.Manager, closers []namedCloser) {
	for _, c := range closers {
		m.AddShutdownJob(func() error {
			if err := c.close(); err != nil {
				log.WithError(err).Errorf("error closing %s", c.name)
				return err
			}
			log.Infof("%s closed", c.name)
			return nil
		})
	}
}
