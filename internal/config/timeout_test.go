package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestDefaultTimeoutValues verifies that timeout configurations have sensible defaults
func TestDefaultTimeoutValues(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.DBInitTimeout, "DB init timeout should be 30s")
	assert.Equal(t, 5*time.Second, cfg.DBCloseTimeout, "DB close timeout should be 5s")
	assert.Equal(t, 5*time.Second, cfg.CacheInitTimeout, "Cache init timeout should be 5s")
	assert.Equal(t, 5*time.Second, cfg.CacheCloseTimeout, "Cache close timeout should be 5s")
	assert.Equal(
		t,
		5*time.Second,
		cfg.ServerShutdownTimeout,
		"Server shutdown timeout should be 5s",
	)
	assert.Equal(t, 15*time.Second, cfg.OAuthTimeout, "OAuth timeout should be 15s")
	assert.Equal(t, 10*time.Second, cfg.EmailAuthTimeout, "Email auth timeout should be 10s")
	assert.Equal(t, 10*time.Minute, cfg.PendingRedirectTTL, "Pending redirect TTL should be 10m")
}

// TestTimeoutConfigurationFromEnv verifies that timeout values can be configured via environment
func TestTimeoutConfigurationFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envKey   string
		envValue string
		getter   func(*Config) time.Duration
		expected time.Duration
	}{
		{
			name:     "DB_INIT_TIMEOUT",
			envKey:   "DB_INIT_TIMEOUT",
			envValue: "60s",
			getter:   func(c *Config) time.Duration { return c.DBInitTimeout },
			expected: 60 * time.Second,
		},
		{
			name:     "CACHE_INIT_TIMEOUT",
			envKey:   "CACHE_INIT_TIMEOUT",
			envValue: "3s",
			getter:   func(c *Config) time.Duration { return c.CacheInitTimeout },
			expected: 3 * time.Second,
		},
		{
			name:     "SERVER_SHUTDOWN_TIMEOUT",
			envKey:   "SERVER_SHUTDOWN_TIMEOUT",
			envValue: "30s",
			getter:   func(c *Config) time.Duration { return c.ServerShutdownTimeout },
			expected: 30 * time.Second,
		},
		{
			name:     "JWT_EXPIRATION",
			envKey:   "JWT_EXPIRATION",
			envValue: "2h",
			getter:   func(c *Config) time.Duration { return c.JWTExpiration },
			expected: 2 * time.Hour,
		},
		{
			name:     "PENDING_REDIRECT_TTL",
			envKey:   "PENDING_REDIRECT_TTL",
			envValue: "90s",
			getter:   func(c *Config) time.Duration { return c.PendingRedirectTTL },
			expected: 90 * time.Second,
		},
		{
			name:     "SCHOOL_DIRECTORY_CACHE_TTL",
			envKey:   "SCHOOL_DIRECTORY_CACHE_TTL",
			envValue: "1h",
			getter:   func(c *Config) time.Duration { return c.SchoolDirectoryCacheTTL },
			expected: time.Hour,
		},
		{
			name:     "DB_CLOSE_TIMEOUT",
			envKey:   "DB_CLOSE_TIMEOUT",
			envValue: "8s",
			getter:   func(c *Config) time.Duration { return c.DBCloseTimeout },
			expected: 8 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Set environment variable (automatically scoped to test)
			t.Setenv(tt.envKey, tt.envValue)

			cfg := Load()

			actual := tt.getter(cfg)
			assert.Equal(t, tt.expected, actual, "%s should be configurable via env", tt.envKey)
		})
	}
}

// TestTimeoutConfigurationInvalidValues verifies that invalid timeout values fall back to defaults
func TestTimeoutConfigurationInvalidValues(t *testing.T) {
	tests := []struct {
		name     string
		envKey   string
		envValue string
		getter   func(*Config) time.Duration
		expected time.Duration
	}{
		{
			name:     "DB_INIT_TIMEOUT invalid",
			envKey:   "DB_INIT_TIMEOUT",
			envValue: "invalid",
			getter:   func(c *Config) time.Duration { return c.DBInitTimeout },
			expected: 30 * time.Second, // Should use default
		},
		{
			name:     "CACHE_INIT_TIMEOUT empty",
			envKey:   "CACHE_INIT_TIMEOUT",
			envValue: "",
			getter:   func(c *Config) time.Duration { return c.CacheInitTimeout },
			expected: 5 * time.Second, // Should use default
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envKey, tt.envValue)

			cfg := Load()

			actual := tt.getter(cfg)
			assert.Equal(
				t,
				tt.expected,
				actual,
				"%s should fall back to default on invalid value",
				tt.envKey,
			)
		})
	}
}
