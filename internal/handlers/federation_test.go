package handlers

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/unimatch/authbridge/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestLogin_RedirectsToProvider(t *testing.T) {
	h := newRelayHarness(t)

	w := h.do(t, http.MethodGet, "/login?callback_url=https://app.example.com/done", "")

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	u := location(t, w)
	assert.Equal(t, "accounts.example.com", u.Host)
	assert.NotEmpty(t, u.Query().Get("state"))
}

func TestLogin_UnknownProvider(t *testing.T) {
	h := newRelayHarness(t)

	w := h.do(t, http.MethodGet, "/oauth/myspace?callback_url=https://app.example.com/done", "")

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://app.example.com/done?error=unknown_provider", w.Header().Get("Location"))
}

func TestCallback_Success(t *testing.T) {
	tests := []struct {
		name      string
		loginPath string
		callback  string
		wantHost  string
	}{
		{"callback_url", "/login?callback_url=https://app.example.com/done", "/callback", "app.example.com"},
		{"legacy callback", "/login?callback=https://app.example.com/legacy", "/callback", "app.example.com"},
		{"callback_url wins", "/login?callback_url=https://app.example.com/a&callback=https://app.example.com/b", "/callback", "app.example.com"},
		{"provider route", "/oauth/google", "/oauth/google/callback", "localhost:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRelayHarness(t)

			w := h.do(t, http.MethodGet, tt.loginPath, "")
			require.Equal(t, http.StatusTemporaryRedirect, w.Code)
			state := location(t, w).Query().Get("state")

			h.google.EXPECT().ExchangeCode(gomock.Any(), "auth-code").
				Return(&core.VerifiedIdentity{Email: "alice@uni.edu", Name: "Alice"}, nil)

			w = h.do(t, http.MethodGet, tt.callback+"?code=auth-code&state="+url.QueryEscape(state), "")

			assert.Equal(t, http.StatusFound, w.Code)
			u := location(t, w)
			assert.Equal(t, tt.wantHost, u.Host)
			assert.Empty(t, u.Query().Get("error"))

			claims, err := h.codec.Verify(u.Query().Get("token"))
			require.NoError(t, err)
			assert.Equal(t, "alice@uni.edu", claims.Email)
		})
	}

	t.Run("legacy callback path preserved", func(t *testing.T) {
		h := newRelayHarness(t)
		w := h.do(t, http.MethodGet, "/login?callback=https://app.example.com/legacy", "")
		state := location(t, w).Query().Get("state")
		h.google.EXPECT().ExchangeCode(gomock.Any(), "c").
			Return(&core.VerifiedIdentity{Email: "bob@uni.edu"}, nil)

		w = h.do(t, http.MethodGet, "/callback?code=c&state="+url.QueryEscape(state), "")
		assert.Equal(t, "/legacy", location(t, w).Path)
	})
}

func TestCallback_Failures(t *testing.T) {
	h := newRelayHarness(t)

	t.Run("forged state", func(t *testing.T) {
		w := h.do(t, http.MethodGet, "/callback?code=c&state=forged", "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, testCallback+"?error=invalid_state", w.Header().Get("Location"))
	})

	t.Run("provider error", func(t *testing.T) {
		w := h.do(t, http.MethodGet, "/login?callback_url=https://app.example.com/done", "")
		state := location(t, w).Query().Get("state")

		w = h.do(t, http.MethodGet, "/callback?error=access_denied&state="+url.QueryEscape(state), "")
		assert.Equal(t, "https://app.example.com/done?error=oauth_failed", w.Header().Get("Location"))
	})

	t.Run("missing code", func(t *testing.T) {
		w := h.do(t, http.MethodGet, "/login", "")
		state := location(t, w).Query().Get("state")

		w = h.do(t, http.MethodGet, "/callback?state="+url.QueryEscape(state), "")
		assert.Equal(t, testCallback+"?error=missing_code", w.Header().Get("Location"))
	})
}

func TestConfirm(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		h := newRelayHarness(t)
		w := h.do(t, http.MethodGet, "/auth/confirm", "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, testCallback+"?error=missing_token", w.Header().Get("Location"))
	})

	t.Run("magic link round trip", func(t *testing.T) {
		h := newRelayHarness(t)
		var confirmURL string
		h.email.EXPECT().SendMagicLink(gomock.Any(), "carol@uni.edu", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, redirectTo string) error {
				confirmURL = redirectTo
				return nil
			})

		w := h.do(t, http.MethodPost, "/api/auth/magic-link",
			`{"email":"Carol@Uni.edu","emailRedirectTo":"https://app.example.com/welcome"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Magic link sent"}`, w.Body.String())

		cu, err := url.Parse(confirmURL)
		require.NoError(t, err)
		assert.Equal(t, "/auth/confirm", cu.Path)
		state := cu.Query().Get("state")
		require.NotEmpty(t, state)

		h.email.EXPECT().Verify(gomock.Any(), core.EmailConfirmation{TokenHash: "th", Type: "magiclink"}).
			Return(&core.VerifiedIdentity{Email: "carol@uni.edu", Provider: "email"}, nil)

		w = h.do(t, http.MethodGet, "/auth/confirm?token_hash=th&type=magiclink&state="+url.QueryEscape(state), "")
		assert.Equal(t, http.StatusFound, w.Code)
		u := location(t, w)
		assert.Equal(t, "app.example.com", u.Host)
		assert.Equal(t, "/welcome", u.Path)
		assert.NotEmpty(t, u.Query().Get("token"))
	})

	t.Run("rejected proof", func(t *testing.T) {
		h := newRelayHarness(t)
		h.email.EXPECT().Verify(gomock.Any(), gomock.Any()).Return(nil, core.ErrProofRejected)

		w := h.do(t, http.MethodGet, "/auth/confirm?token_hash=expired", "")
		assert.Equal(t, testCallback+"?error=confirm_failed", w.Header().Get("Location"))
	})
}

func TestMagicLink(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(h *relayHarness)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing email",
			body:       `{"emailRedirectTo":"https://app.example.com"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"email is required"}`,
		},
		{
			name:       "malformed body",
			body:       `{"email":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"email is required"}`,
		},
		{
			name:       "invalid email",
			body:       `{"email":"not-an-email"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"invalid email address"}`,
		},
		{
			name: "provider failure",
			body: `{"email":"dan@uni.edu","redirect_to":"https://app.example.com"}`,
			setup: func(h *relayHarness) {
				h.email.EXPECT().SendMagicLink(gomock.Any(), "dan@uni.edu", gomock.Any()).
					Return(core.ErrProviderUnavailable)
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Failed to send magic link"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newRelayHarness(t)
			if tt.setup != nil {
				tt.setup(h)
			}
			w := h.do(t, http.MethodPost, "/api/auth/magic-link", tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestLogout(t *testing.T) {
	h := newRelayHarness(t)
	w := h.do(t, http.MethodPost, "/api/auth/logout", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, w.Body.String())
}
