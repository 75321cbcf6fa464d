package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/unimatch/authbridge/internal/core"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

var log = logrus.WithField("component", "auth")

// Compile-time interface check.
var _ core.OAuthIdentityProvider = (*OIDCProvider)(nil)

// OIDCProvider runs the authorization-code flow against an OpenID Connect
// issuer and trusts only the verified id_token for identity facts.
type OIDCProvider struct {
	name        string
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
	httpClient  *http.Client
}

// NewGoogleProvider discovers Google's OIDC configuration at issuerURL.
func NewGoogleProvider(
	ctx context.Context,
	issuerURL string,
	cfg OAuthProviderConfig,
	httpClient *http.Client,
) (*OIDCProvider, error) {
	return NewOIDCProvider(ctx, ProviderGoogle, issuerURL, cfg, httpClient)
}

// NewOIDCProvider performs issuer discovery and returns a provider registered under name.
func NewOIDCProvider(
	ctx context.Context,
	name, issuerURL string,
	cfg OAuthProviderConfig,
	httpClient *http.Client,
) (*OIDCProvider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RedirectURL == "" {
		return nil, fmt.Errorf("%s oauth config missing required fields", name)
	}

	if httpClient != nil {
		ctx = oidc.ClientContext(ctx, httpClient)
	}
	oidcProvider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to init %s oidc provider: %w", name, err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	return &OIDCProvider{
		name:       name,
		httpClient: httpClient,
		verifier: oidcProvider.Verifier(&oidc.Config{
			ClientID: cfg.ClientID,
		}),
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     oidcProvider.Endpoint(),
			Scopes:       scopes,
		},
	}, nil
}

// Name returns the provider identifier used in routes.
func (p *OIDCProvider) Name() string {
	return p.name
}

// AuthCodeURL builds the authorization URL carrying state.
func (p *OIDCProvider) AuthCodeURL(state string) string {
	return p.oauthConfig.AuthCodeURL(
		state,
		oauth2.AccessTypeOnline,
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

type oidcClaims struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// ExchangeCode exchanges code and verifies the returned id_token.
func (p *OIDCProvider) ExchangeCode(
	ctx context.Context,
	code string,
) (*core.VerifiedIdentity, error) {
	if p.httpClient != nil {
		ctx = oidc.ClientContext(ctx, p.httpClient)
	}

	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, classifyExchangeError(p.name, err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrNoUserInfo, p.name, ErrMissingIDToken)
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %s id_token verification failed: %v", core.ErrProofRejected, p.name, err)
	}

	var claims oidcClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: %s id_token claims parse failed: %v", core.ErrNoUserInfo, p.name, err)
	}

	if claims.Email == "" {
		return nil, fmt.Errorf("%w: %s id_token has no email", core.ErrNoUserInfo, p.name)
	}
	if claims.EmailVerified != nil && !*claims.EmailVerified {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrNoUserInfo, p.name, ErrUnverifiedEmail)
	}

	log.WithFields(logrus.Fields{
		"provider":        p.name,
		"issuer":          idToken.Issuer,
		"subject_present": claims.Subject != "",
		"expiry_unix":     idToken.Expiry.Unix(),
	}).Debug("oidc id_token verified")

	return &core.VerifiedIdentity{
		Email:      strings.ToLower(strings.TrimSpace(claims.Email)),
		Name:       claims.Name,
		PictureURL: claims.Picture,
		ExternalID: claims.Subject,
		Provider:   p.name,
	}, nil
}

// IsUnavailable reports whether err means the provider could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, core.ErrProviderUnavailable)
}
