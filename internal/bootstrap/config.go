package bootstrap

import (
	"errors"
	"fmt"
	"os"

	"github.com/unimatch/authbridge/internal/config"

	"github.com/sirupsen/logrus"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validateProviderConfig(cfg); err != nil {
		return fmt.Errorf("invalid identity provider configuration: %w", err)
	}
	return nil
}

// validateProviderConfig checks that at least one sign-in flow is available
func validateProviderConfig(cfg *config.Config) error {
	if !cfg.GoogleOAuthEnabled && !cfg.GitHubOAuthEnabled && !cfg.EmailAuthEnabled {
		return errors.New(
			"no identity provider enabled (set GOOGLE_OAUTH_ENABLED, GITHUB_OAUTH_ENABLED or EMAIL_AUTH_ENABLED)",
		)
	}
	return nil
}

// setupLogging applies LOG_LEVEL and LOG_FORMAT to the standard logrus logger
func setupLogging(cfg *config.Config) {
	logrus.SetOutput(os.Stdout)

	switch cfg.LogFormat {
	case config.LogFormatJSON:
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
