package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/unimatch/authbridge/internal/auth"
	"github.com/unimatch/authbridge/internal/client"
	"github.com/unimatch/authbridge/internal/config"
	"github.com/unimatch/authbridge/internal/core"
	"github.com/unimatch/authbridge/internal/school"

	"github.com/appleboy/go-httpclient"
	"github.com/sirupsen/logrus"
)

const (
	supabaseAPIKeyHeader = "apikey"

	directoryRetryDelay    = 500 * time.Millisecond
	directoryMaxRetryDelay = 5 * time.Second
)

// initializeOAuthProviders initializes configured OAuth providers
func initializeOAuthProviders(
	ctx context.Context,
	cfg *config.Config,
	httpClient *http.Client,
) ([]core.OAuthIdentityProvider, error) {
	var providers []core.OAuthIdentityProvider

	// Google (OpenID Connect discovery)
	if cfg.GoogleOAuthEnabled {
		ctx, cancel := context.WithTimeout(ctx, cfg.OAuthTimeout)
		defer cancel()

		google, err := auth.NewGoogleProvider(ctx, cfg.GoogleIssuerURL, auth.OAuthProviderConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleOAuthRedirectURL,
			Scopes:       cfg.GoogleOAuthScopes,
		}, httpClient)
		if err != nil {
			return nil, err
		}
		providers = append(providers, google)
		log.WithField("redirect", cfg.GoogleOAuthRedirectURL).Info("Google OAuth configured")
	}

	// GitHub OAuth
	if cfg.GitHubOAuthEnabled {
		providers = append(providers, auth.NewGitHubProvider(auth.OAuthProviderConfig{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  cfg.GitHubOAuthRedirectURL,
			Scopes:       cfg.GitHubOAuthScopes,
			APIURL:       cfg.GitHubAPIURL,
		}, httpClient))
		log.WithField("redirect", cfg.GitHubOAuthRedirectURL).Info("GitHub OAuth configured")
	}

	return providers, nil
}

// initializeEmailVerifier creates the Supabase verifier when email sign-in is enabled.
// Its client never retries: a confirmation token is single use.
func initializeEmailVerifier(cfg *config.Config) (core.EmailVerifier, error) {
	if !cfg.EmailAuthEnabled {
		return nil, nil
	}

	httpClient, err := client.CreateAuthClient(
		httpclient.AuthModeSimple,
		cfg.SupabaseAnonKey,
		supabaseAPIKeyHeader,
		cfg.EmailAuthTimeout,
		cfg.OAuthInsecureSkipVerify,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	log.WithField("url", cfg.SupabaseURL).Info("email confirmation enabled")
	return auth.NewSupabaseVerifier(cfg.SupabaseURL, httpClient), nil
}

// initializeSchoolDirectory creates the university directory client when enabled.
func initializeSchoolDirectory(
	cfg *config.Config,
	directoryCache core.Cache[string],
) (school.DirectoryLookup, error) {
	if !cfg.SchoolDirectoryEnabled {
		return nil, nil
	}

	retryClient, err := client.CreateRetryClient(
		cfg.SchoolDirectoryTimeout,
		false,
		cfg.SchoolDirectoryRetries,
		directoryRetryDelay,
		directoryMaxRetryDelay,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create school directory client: %w", err)
	}

	log.WithFields(logrus.Fields{
		"url":       cfg.SchoolDirectoryURL,
		"cache_ttl": cfg.SchoolDirectoryCacheTTL,
	}).Info("school directory enabled")
	return school.NewDirectory(
		retryClient,
		cfg.SchoolDirectoryURL,
		directoryCache,
		cfg.SchoolDirectoryCacheTTL,
	), nil
}

// createOAuthHTTPClient creates an HTTP client for OAuth requests with optimized connection pool
func createOAuthHTTPClient(cfg *config.Config) *http.Client {
	if cfg.OAuthInsecureSkipVerify {
		log.Warn("OAuth TLS verification is disabled (OAUTH_INSECURE_SKIP_VERIFY=true)")
	}

	// Create optimized transport with connection pool settings
	transport := client.CreateOptimizedTransport(cfg.OAuthInsecureSkipVerify)

	httpClient, err := httpclient.NewClient(
		httpclient.WithTimeout(cfg.OAuthTimeout),
		httpclient.WithTransport(transport),
	)
	if err != nil {
		log.WithError(err).Fatal("failed to create OAuth HTTP client")
	}

	return httpClient
}

// getProviderNames returns the sorted provider names
func getProviderNames(providers []core.OAuthIdentityProvider) []string {
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	sort.Strings(names)
	return names
}

// defaultProviderName picks the provider behind /login and /callback:
// Google when configured, otherwise the first name in sorted order.
func defaultProviderName(providers []core.OAuthIdentityProvider) string {
	names := getProviderNames(providers)
	for _, name := range names {
		if name == auth.ProviderGoogle {
			return name
		}
	}
	if len(names) > 0 {
		return names[0]
	}
	return ""
}

// logOAuthProvidersStatus logs enabled OAuth providers
func logOAuthProvidersStatus(providers []core.OAuthIdentityProvider) {
	if len(providers) > 0 {
		log.WithField("providers", getProviderNames(providers)).Info("OAuth providers enabled")
	}
}
