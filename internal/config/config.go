package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backend constants
const (
	CacheTypeMemory = "memory"
	CacheTypeRedis  = "redis"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Log format constants
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Supported JWT signing algorithms
const (
	SigningHS256 = "HS256"
	SigningHS384 = "HS384"
	SigningHS512 = "HS512"
)

type Config struct {
	// Server settings
	ServerAddr  string
	BaseURL     string
	Environment string

	// Logging
	LogLevel  string
	LogFormat string // "text" or "json"

	// JWT settings
	JWTSecret           string
	JWTExpiration       time.Duration
	JWTSigningAlgorithm string
	JWTIssuer           string

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Callback handling
	DefaultCallbackURL     string
	AllowedCallbackOrigins []string // scheme://host[:port]; empty allows only DefaultCallbackURL's origin
	PendingRedirectTTL     time.Duration

	// Google OAuth (OpenID Connect)
	GoogleOAuthEnabled     bool
	GoogleClientID         string
	GoogleClientSecret     string
	GoogleOAuthRedirectURL string
	GoogleIssuerURL        string
	GoogleOAuthScopes      []string

	// GitHub OAuth
	GitHubOAuthEnabled     bool
	GitHubClientID         string
	GitHubClientSecret     string
	GitHubOAuthRedirectURL string
	GitHubOAuthScopes      []string
	GitHubAPIURL           string

	// OAuth HTTP Client Settings
	OAuthTimeout            time.Duration // HTTP client timeout for OAuth requests (default: 15s)
	OAuthInsecureSkipVerify bool          // Skip TLS verification for OAuth (dev/testing only, default: false)

	// Email confirmation (Supabase GoTrue)
	EmailAuthEnabled  bool
	SupabaseURL       string
	SupabaseAnonKey   string
	EmailAuthTimeout  time.Duration
	EmailConfirmPath  string
	EmailDefaultType  string
	MagicLinkRedirect string // override for the confirm URL sent in magic links

	// School inference
	SchoolDomainRules       map[string]string // email domain -> school name
	SchoolBlockedDomains    []string
	SchoolRequireMatch      bool
	SchoolToleratedErrors   []string
	SchoolDirectoryEnabled  bool
	SchoolDirectoryURL      string
	SchoolDirectoryTimeout  time.Duration
	SchoolDirectoryRetries  int
	SchoolDirectoryCacheTTL time.Duration

	// Cache
	CacheType       string // "memory" or "redis"
	ProfileCacheTTL time.Duration

	// Redis (cache and rate limiting)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	EnableRateLimit    bool
	RateLimitStore     string // "memory" or "redis"
	LoginRateLimit     int    // requests per minute per IP
	MagicLinkRateLimit int    // requests per minute per IP

	// Metrics
	MetricsEnabled bool
	MetricsToken   string // optional bearer token protecting /metrics

	// Timeouts
	DBInitTimeout         time.Duration
	DBCloseTimeout        time.Duration
	CacheInitTimeout      time.Duration
	CacheCloseTimeout     time.Duration
	ServerShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "authbridge.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	baseURL := strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/")

	return &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		BaseURL:     baseURL,
		Environment: getEnv("ENVIRONMENT", "development"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", LogFormatText),

		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTExpiration:       getEnvDuration("JWT_EXPIRATION", 24*time.Hour),
		JWTSigningAlgorithm: getEnv("JWT_SIGNING_ALGORITHM", SigningHS256),
		JWTIssuer:           getEnv("JWT_ISSUER", baseURL),

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		DefaultCallbackURL:     getEnv("DEFAULT_CALLBACK_URL", "http://localhost:3000/callback"),
		AllowedCallbackOrigins: getEnvSlice("ALLOWED_CALLBACK_ORIGINS", nil),
		PendingRedirectTTL:     getEnvDuration("PENDING_REDIRECT_TTL", 10*time.Minute),

		GoogleOAuthEnabled:     getEnvBool("GOOGLE_OAUTH_ENABLED", false),
		GoogleClientID:         getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:     getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleOAuthRedirectURL: getEnv("GOOGLE_REDIRECT_URL", baseURL+"/callback"),
		GoogleIssuerURL:        getEnv("GOOGLE_ISSUER_URL", "https://accounts.google.com"),
		GoogleOAuthScopes: getEnvSlice(
			"GOOGLE_SCOPES",
			[]string{"openid", "email", "profile"},
		),

		GitHubOAuthEnabled:     getEnvBool("GITHUB_OAUTH_ENABLED", false),
		GitHubClientID:         getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret:     getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubOAuthRedirectURL: getEnv("GITHUB_REDIRECT_URL", baseURL+"/oauth/github/callback"),
		GitHubOAuthScopes:      getEnvSlice("GITHUB_SCOPES", []string{"user:email"}),
		GitHubAPIURL:           getEnv("GITHUB_API_URL", "https://api.github.com"),

		OAuthTimeout:            getEnvDuration("OAUTH_TIMEOUT", 15*time.Second),
		OAuthInsecureSkipVerify: getEnvBool("OAUTH_INSECURE_SKIP_VERIFY", false),

		EmailAuthEnabled:  getEnvBool("EMAIL_AUTH_ENABLED", false),
		SupabaseURL:       strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseAnonKey:   getEnv("SUPABASE_ANON_KEY", ""),
		EmailAuthTimeout:  getEnvDuration("EMAIL_AUTH_TIMEOUT", 10*time.Second),
		EmailConfirmPath:  getEnv("EMAIL_CONFIRM_PATH", "/auth/confirm"),
		EmailDefaultType:  getEnv("EMAIL_CONFIRM_DEFAULT_TYPE", "email"),
		MagicLinkRedirect: getEnv("MAGIC_LINK_REDIRECT_URL", ""),

		SchoolDomainRules:       getEnvMap("SCHOOL_DOMAIN_RULES"),
		SchoolBlockedDomains:    getEnvSlice("SCHOOL_BLOCKED_DOMAINS", nil),
		SchoolRequireMatch:      getEnvBool("SCHOOL_REQUIRE_MATCH", false),
		SchoolToleratedErrors:   lookupEnvSlice("SCHOOL_TOLERATED_ERRORS", []string{"update_failed"}),
		SchoolDirectoryEnabled:  getEnvBool("SCHOOL_DIRECTORY_ENABLED", false),
		SchoolDirectoryURL:      getEnv("SCHOOL_DIRECTORY_URL", "http://universities.hipolabs.com"),
		SchoolDirectoryTimeout:  getEnvDuration("SCHOOL_DIRECTORY_TIMEOUT", 5*time.Second),
		SchoolDirectoryRetries:  getEnvInt("SCHOOL_DIRECTORY_RETRIES", 2),
		SchoolDirectoryCacheTTL: getEnvDuration("SCHOOL_DIRECTORY_CACHE_TTL", 24*time.Hour),

		CacheType:       getEnv("CACHE_TYPE", CacheTypeMemory),
		ProfileCacheTTL: getEnvDuration("PROFILE_CACHE_TTL", 5*time.Minute),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		EnableRateLimit:    getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:     getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		LoginRateLimit:     getEnvInt("LOGIN_RATE_LIMIT", 30),
		MagicLinkRateLimit: getEnvInt("MAGIC_LINK_RATE_LIMIT", 5),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),

		DBInitTimeout:         getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		DBCloseTimeout:        getEnvDuration("DB_CLOSE_TIMEOUT", 5*time.Second),
		CacheInitTimeout:      getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),
		CacheCloseTimeout:     getEnvDuration("CACHE_CLOSE_TIMEOUT", 5*time.Second),
		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Validate checks configuration values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	var errs []error

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.JWTSigningAlgorithm {
	case SigningHS256, SigningHS384, SigningHS512:
	default:
		errs = append(errs, fmt.Errorf(
			"invalid JWT_SIGNING_ALGORITHM value: %q (must be one of HS256, HS384, HS512)",
			c.JWTSigningAlgorithm,
		))
	}
	if c.JWTExpiration <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRATION must be positive"))
	}
	if c.PendingRedirectTTL <= 0 {
		errs = append(errs, errors.New("PENDING_REDIRECT_TTL must be positive"))
	}

	switch c.CacheType {
	case CacheTypeMemory, CacheTypeRedis:
	default:
		errs = append(errs, fmt.Errorf(
			"invalid CACHE_TYPE value: %q (must be %q or %q)",
			c.CacheType, CacheTypeMemory, CacheTypeRedis,
		))
	}
	if c.ProfileCacheTTL <= 0 {
		errs = append(errs, errors.New("PROFILE_CACHE_TTL must be positive"))
	}

	switch c.RateLimitStore {
	case RateLimitStoreMemory, RateLimitStoreRedis:
	default:
		errs = append(errs, fmt.Errorf(
			"invalid RATE_LIMIT_STORE value: %q (must be %q or %q)",
			c.RateLimitStore, RateLimitStoreMemory, RateLimitStoreRedis,
		))
	}

	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		errs = append(errs, fmt.Errorf(
			"invalid LOG_FORMAT value: %q (must be %q or %q)",
			c.LogFormat, LogFormatText, LogFormatJSON,
		))
	}

	if u, err := url.Parse(c.DefaultCallbackURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid DEFAULT_CALLBACK_URL value: %q", c.DefaultCallbackURL))
	}
	for _, origin := range c.AllowedCallbackOrigins {
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("invalid ALLOWED_CALLBACK_ORIGINS entry: %q", origin))
		}
	}

	if c.GoogleOAuthEnabled && (c.GoogleClientID == "" || c.GoogleClientSecret == "") {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required when Google OAuth is enabled"))
	}
	if c.GitHubOAuthEnabled && (c.GitHubClientID == "" || c.GitHubClientSecret == "") {
		errs = append(errs, errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are required when GitHub OAuth is enabled"))
	}
	if c.EmailAuthEnabled && (c.SupabaseURL == "" || c.SupabaseAnonKey == "") {
		errs = append(errs, errors.New("SUPABASE_URL and SUPABASE_ANON_KEY are required when email auth is enabled"))
	}

	for domain, school := range c.SchoolDomainRules {
		if !strings.Contains(domain, ".") || school == "" {
			errs = append(errs, fmt.Errorf("invalid SCHOOL_DOMAIN_RULES entry: %q=%q", domain, school))
		}
	}
	if c.SchoolDirectoryEnabled && c.SchoolDirectoryCacheTTL <= 0 {
		errs = append(errs, errors.New("SCHOOL_DIRECTORY_CACHE_TTL must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		// Split by comma and trim spaces
		if parts := splitAndTrim(value, ","); len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

// lookupEnvSlice is getEnvSlice except that a variable set to an empty value
// yields an empty list instead of the default.
func lookupEnvSlice(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	if parts := splitAndTrim(value, ","); len(parts) > 0 {
		return parts
	}
	return []string{}
}

// getEnvMap parses "key=value" pairs separated by semicolons, so values may
// contain commas. Keys are lower-cased. Malformed pairs are kept with an empty
// value so Validate can report them.
func getEnvMap(key string) map[string]string {
	out := make(map[string]string)
	for _, pair := range splitAndTrim(os.Getenv(key), ";") {
		k, v, _ := strings.Cut(pair, "=")
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
