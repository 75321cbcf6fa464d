package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/unimatch/authbridge/internal/core"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// Provider names used in routes and pending redirects.
const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// OAuthProviderConfig contains configuration for an OAuth provider
type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// Optional endpoint overrides, mainly for GitHub Enterprise and tests.
	AuthURL  string
	TokenURL string
	APIURL   string
}

// Compile-time interface check.
var _ core.OAuthIdentityProvider = (*OAuthProvider)(nil)

// OAuthProvider implements the authorization-code flow against GitHub and
// reads the account profile from its REST API.
type OAuthProvider struct {
	config     *oauth2.Config
	provider   string
	apiBaseURL string
	httpClient *http.Client
}

// NewGitHubProvider creates a new GitHub OAuth provider
func NewGitHubProvider(cfg OAuthProviderConfig, httpClient *http.Client) *OAuthProvider {
	endpoint := github.Endpoint
	if cfg.AuthURL != "" {
		endpoint.AuthURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://api.github.com"
	}

	return &OAuthProvider{
		provider:   ProviderGitHub,
		apiBaseURL: strings.TrimRight(apiURL, "/"),
		httpClient: httpClient,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint:     endpoint,
		},
	}
}

// Name returns the provider name
func (p *OAuthProvider) Name() string {
	return p.provider
}

// AuthCodeURL returns the OAuth authorization URL
func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// ExchangeCode trades the authorization code for a token and resolves the
// account's verified email.
func (p *OAuthProvider) ExchangeCode(
	ctx context.Context,
	code string,
) (*core.VerifiedIdentity, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, classifyExchangeError(p.provider, err)
	}

	return p.getGitHubUserInfo(ctx, token)
}

// GitHub user info structures
type githubUser struct {
	ID        int64  `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type githubEmail struct {
	Email      string `json:"email"`
	Primary    bool   `json:"primary"`
	Verified   bool   `json:"verified"`
	Visibility string `json:"visibility"`
}

// getGitHubUserInfo retrieves user info from GitHub API
func (p *OAuthProvider) getGitHubUserInfo(
	ctx context.Context,
	token *oauth2.Token,
) (*core.VerifiedIdentity, error) {
	client := p.config.Client(ctx, token)

	var user githubUser
	if err := p.getJSON(ctx, client, p.apiBaseURL+"/user", &user); err != nil {
		return nil, err
	}

	// The public profile email is not guaranteed to be verified, so the
	// emails endpoint is authoritative.
	email, err := p.getGitHubPrimaryEmail(ctx, client)
	if err != nil {
		return nil, err
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &core.VerifiedIdentity{
		Email:      strings.ToLower(strings.TrimSpace(email)),
		Name:       name,
		PictureURL: user.AvatarURL,
		ExternalID: fmt.Sprintf("%d", user.ID),
		Provider:   p.provider,
	}, nil
}

// getGitHubPrimaryEmail fetches primary email from GitHub emails endpoint
func (p *OAuthProvider) getGitHubPrimaryEmail(
	ctx context.Context,
	client *http.Client,
) (string, error) {
	var emails []githubEmail
	if err := p.getJSON(ctx, client, p.apiBaseURL+"/user/emails", &emails); err != nil {
		return "", err
	}

	// Find primary verified email
	for _, email := range emails {
		if email.Primary && email.Verified {
			return email.Email, nil
		}
	}

	// Fallback to first verified email
	for _, email := range emails {
		if email.Verified {
			return email.Email, nil
		}
	}

	return "", fmt.Errorf("%w: github account has no verified email", core.ErrNoUserInfo)
}

func (p *OAuthProvider) getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrProviderUnavailable, p.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return classifyStatus(p.provider, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: failed to decode response: %v", core.ErrNoUserInfo, p.provider, err)
	}
	return nil
}
