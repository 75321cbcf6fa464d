package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/unimatch/authbridge/internal/core"
)

const (
	supabaseVerifyPath = "/auth/v1/verify"
	supabaseOTPPath    = "/auth/v1/otp"

	// DefaultConfirmationType is used when the confirmation link carries no type.
	DefaultConfirmationType = "email"
)

// Compile-time interface check.
var _ core.EmailVerifier = (*SupabaseVerifier)(nil)

// SupabaseVerifier confirms magic-link and OTP proofs against a Supabase
// GoTrue endpoint. The client is expected to carry the anon key header.
type SupabaseVerifier struct {
	baseURL string
	client  *http.Client
}

// NewSupabaseVerifier creates a verifier for the project at baseURL.
func NewSupabaseVerifier(baseURL string, client *http.Client) *SupabaseVerifier {
	return &SupabaseVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type verifyRequest struct {
	Type      string `json:"type"`
	TokenHash string `json:"token_hash,omitempty"`
	Token     string `json:"token,omitempty"`
	Email     string `json:"email,omitempty"`
}

type otpRequest struct {
	Email      string `json:"email"`
	CreateUser bool   `json:"create_user"`
}

type supabaseUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// verifyResponse covers the shapes GoTrue versions return: a session with a
// nested user, a user wrapper, or the bare user object.
type verifyResponse struct {
	User    *supabaseUser `json:"user"`
	Session *struct {
		User *supabaseUser `json:"user"`
	} `json:"session"`
	supabaseUser
}

// Verify submits the confirmation proof. It never retries.
func (v *SupabaseVerifier) Verify(
	ctx context.Context,
	req core.EmailConfirmation,
) (*core.VerifiedIdentity, error) {
	vtype := req.Type
	if vtype == "" {
		vtype = DefaultConfirmationType
	}

	body := verifyRequest{Type: vtype}
	switch {
	case req.TokenHash != "":
		body.TokenHash = req.TokenHash
	case req.Token != "":
		body.Token = req.Token
		body.Email = req.Email
	default:
		return nil, fmt.Errorf("%w: supabase: no token or token_hash", core.ErrProofRejected)
	}

	respBody, err := v.post(ctx, v.baseURL+supabaseVerifyPath, body)
	if err != nil {
		return nil, err
	}

	var parsed verifyResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: supabase: invalid verify response: %v", core.ErrNoUserInfo, err)
	}

	user := parsed.pickUser()
	identity := &core.VerifiedIdentity{Provider: "email"}
	if user == nil {
		return identity, nil
	}

	identity.Email = strings.ToLower(strings.TrimSpace(user.Email))
	identity.ExternalID = user.ID
	identity.Name = metadataString(user.UserMetadata, "name", "full_name")
	identity.PictureURL = metadataString(user.UserMetadata, "avatar_url", "picture")
	return identity, nil
}

// SendMagicLink asks GoTrue to email a sign-in link that lands on redirectTo.
func (v *SupabaseVerifier) SendMagicLink(ctx context.Context, email, redirectTo string) error {
	endpoint := v.baseURL + supabaseOTPPath
	if redirectTo != "" {
		endpoint += "?" + url.Values{"redirect_to": {redirectTo}}.Encode()
	}

	_, err := v.post(ctx, endpoint, otpRequest{Email: email, CreateUser: true})
	return err
}

func (r *verifyResponse) pickUser() *supabaseUser {
	if r.Session != nil && r.Session.User != nil && r.Session.User.Email != "" {
		return r.Session.User
	}
	if r.User != nil && r.User.Email != "" {
		return r.User
	}
	if r.supabaseUser.Email != "" {
		return &r.supabaseUser
	}
	return nil
}

func metadataString(meta map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := meta[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func (v *SupabaseVerifier) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: supabase: %v", core.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: supabase: failed to read response: %v", core.ErrProviderUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus("supabase", resp.StatusCode, body)
	}
	return body, nil
}
