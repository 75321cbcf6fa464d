package core

import (
	"context"
	"errors"
)

var (
	// ErrNoUserInfo is returned by identity providers when the exchanged
	// assertion carries no usable user information.
	ErrNoUserInfo = errors.New("identity provider returned no user info")

	// ErrProviderUnavailable marks failures to reach an identity provider.
	ErrProviderUnavailable = errors.New("identity provider unavailable")

	// ErrProofRejected marks proofs the identity provider refused.
	ErrProofRejected = errors.New("identity proof rejected")
)

// VerifiedIdentity is the outcome of one successful proof verification.
// It carries facts only and is never persisted.
type VerifiedIdentity struct {
	Email      string // normalized lower-case
	Name       string
	PictureURL string
	ExternalID string // provider subject, if any
	Provider   string
}

// EmailConfirmation is the proof presented in the email-confirmation flow.
// Either TokenHash or Token (with Email) must be set.
type EmailConfirmation struct {
	TokenHash string
	Token     string
	Email     string
	Type      string
}

// OAuthIdentityProvider is implemented by every authorization-code provider.
type OAuthIdentityProvider interface {
	Name() string
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*VerifiedIdentity, error)
}

// EmailVerifier is implemented by the passwordless email provider.
type EmailVerifier interface {
	Verify(ctx context.Context, req EmailConfirmation) (*VerifiedIdentity, error)
	SendMagicLink(ctx context.Context, email, redirectTo string) error
}
