package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/unimatch/authbridge/internal/core"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIssuer is a minimal OpenID Connect issuer: discovery, JWKS and token endpoint.
type fakeIssuer struct {
	t        *testing.T
	srv      *httptest.Server
	key      *rsa.PrivateKey
	claims   jwt.MapClaims
	noIDTok  bool
	tokenErr int
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &fakeIssuer{t: t, key: key}
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"issuer":                                f.srv.URL,
			"authorization_endpoint":                f.srv.URL + "/auth",
			"token_endpoint":                        f.srv.URL + "/token",
			"jwks_uri":                              f.srv.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		pub := f.key.PublicKey
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": "test-key",
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if f.tokenErr != 0 {
			w.WriteHeader(f.tokenErr)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		resp := map[string]any{"access_token": "at", "token_type": "Bearer", "expires_in": 3600}
		if !f.noIDTok {
			resp["id_token"] = f.sign()
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeIssuer) sign() string {
	claims := jwt.MapClaims{
		"iss": f.srv.URL,
		"aud": "client-id",
		"sub": "subject-1",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	for k, v := range f.claims {
		claims[k] = v
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = "test-key"
	signed, err := tok.SignedString(f.key)
	require.NoError(f.t, err)
	return signed
}

func (f *fakeIssuer) provider(t *testing.T) *OIDCProvider {
	t.Helper()
	p, err := NewGoogleProvider(context.Background(), f.srv.URL, OAuthProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/callback",
	}, f.srv.Client())
	require.NoError(t, err)
	return p
}

func TestOIDCProvider_ExchangeCode(t *testing.T) {
	f := newFakeIssuer(t)
	f.claims = jwt.MapClaims{
		"email":          "Alice@Uni.edu",
		"email_verified": true,
		"name":           "Alice",
		"picture":        "https://img/alice.png",
	}
	p := f.provider(t)

	id, err := p.ExchangeCode(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, &core.VerifiedIdentity{
		Email:      "alice@uni.edu",
		Name:       "Alice",
		PictureURL: "https://img/alice.png",
		ExternalID: "subject-1",
		Provider:   ProviderGoogle,
	}, id)
}

func TestOIDCProvider_AuthCodeURL(t *testing.T) {
	f := newFakeIssuer(t)
	p := f.provider(t)

	u, err := url.Parse(p.AuthCodeURL("h1"))
	require.NoError(t, err)
	assert.Equal(t, f.srv.URL+"/auth", u.Scheme+"://"+u.Host+u.Path)
	assert.Equal(t, "h1", u.Query().Get("state"))
	assert.Contains(t, u.Query().Get("scope"), "openid")
}

func TestOIDCProvider_Failures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fakeIssuer)
		wantErr error
	}{
		{
			name:    "missing id_token",
			setup:   func(f *fakeIssuer) { f.noIDTok = true },
			wantErr: core.ErrNoUserInfo,
		},
		{
			name:    "no email claim",
			setup:   func(f *fakeIssuer) { f.claims = jwt.MapClaims{"name": "x"} },
			wantErr: core.ErrNoUserInfo,
		},
		{
			name: "unverified email",
			setup: func(f *fakeIssuer) {
				f.claims = jwt.MapClaims{"email": "a@b.c", "email_verified": false}
			},
			wantErr: core.ErrNoUserInfo,
		},
		{
			name:    "wrong audience",
			setup:   func(f *fakeIssuer) { f.claims = jwt.MapClaims{"aud": "someone-else", "email": "a@b.c"} },
			wantErr: core.ErrProofRejected,
		},
		{
			name:    "expired id_token",
			setup:   func(f *fakeIssuer) { f.claims = jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix(), "email": "a@b.c"} },
			wantErr: core.ErrProofRejected,
		},
		{
			name:    "code rejected",
			setup:   func(f *fakeIssuer) { f.tokenErr = http.StatusBadRequest },
			wantErr: core.ErrProofRejected,
		},
		{
			name:    "token endpoint down",
			setup:   func(f *fakeIssuer) { f.tokenErr = http.StatusServiceUnavailable },
			wantErr: core.ErrProviderUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeIssuer(t)
			tt.setup(f)
			p := f.provider(t)

			id, err := p.ExchangeCode(context.Background(), "code")
			assert.Nil(t, id)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewOIDCProvider_RequiresConfig(t *testing.T) {
	_, err := NewGoogleProvider(context.Background(), "http://127.0.0.1:0", OAuthProviderConfig{}, nil)
	assert.Error(t, err)
}
