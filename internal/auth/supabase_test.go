package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/unimatch/authbridge/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSupabaseServer(t *testing.T, handler http.HandlerFunc) (*SupabaseVerifier, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSupabaseVerifier(srv.URL+"/", srv.Client()), srv
}

func TestSupabaseVerifier_TokenHash(t *testing.T) {
	var got verifyRequest
	v, _ := newSupabaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/v1/verify", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{
			"access_token": "sb",
			"user": {"id": "u1", "email": "Bob@Uni.EDU", "user_metadata": {"full_name": "Bob B", "avatar_url": "https://img/bob"}}
		}`))
	})

	id, err := v.Verify(context.Background(), core.EmailConfirmation{TokenHash: "hash-1"})
	require.NoError(t, err)

	assert.Equal(t, verifyRequest{Type: "email", TokenHash: "hash-1"}, got)
	assert.Equal(t, "bob@uni.edu", id.Email)
	assert.Equal(t, "Bob B", id.Name)
	assert.Equal(t, "https://img/bob", id.PictureURL)
	assert.Equal(t, "u1", id.ExternalID)
}

func TestSupabaseVerifier_TokenWithEmail(t *testing.T) {
	var got verifyRequest
	v, _ := newSupabaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"session": {"user": {"email": "carol@uni.edu", "user_metadata": {"name": "Carol"}}}}`))
	})

	id, err := v.Verify(context.Background(), core.EmailConfirmation{
		Token: "123456", Email: "carol@uni.edu", Type: "magiclink",
	})
	require.NoError(t, err)

	assert.Equal(t, verifyRequest{Type: "magiclink", Token: "123456", Email: "carol@uni.edu"}, got)
	assert.Equal(t, "carol@uni.edu", id.Email)
	assert.Equal(t, "Carol", id.Name)
}

func TestSupabaseVerifier_BareUserAndMissingEmail(t *testing.T) {
	t.Run("bare user object", func(t *testing.T) {
		v, _ := newSupabaseServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id": "u9", "email": "dan@uni.edu"}`))
		})
		id, err := v.Verify(context.Background(), core.EmailConfirmation{TokenHash: "h"})
		require.NoError(t, err)
		assert.Equal(t, "dan@uni.edu", id.Email)
	})

	t.Run("no email anywhere", func(t *testing.T) {
		v, _ := newSupabaseServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"user": {"id": "u9"}}`))
		})
		id, err := v.Verify(context.Background(), core.EmailConfirmation{TokenHash: "h"})
		require.NoError(t, err)
		assert.Empty(t, id.Email)
	})
}

func TestSupabaseVerifier_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{name: "expired link", status: http.StatusForbidden, wantErr: core.ErrProofRejected},
		{name: "bad request", status: http.StatusBadRequest, wantErr: core.ErrProofRejected},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: core.ErrProviderUnavailable},
		{name: "server error", status: http.StatusInternalServerError, wantErr: core.ErrProviderUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			v, _ := newSupabaseServer(t, func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"msg":"Token has expired or is invalid"}`))
			})
			_, err := v.Verify(context.Background(), core.EmailConfirmation{TokenHash: "h"})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 1, calls, "proof verification must not retry")
		})
	}
}

func TestSupabaseVerifier_NoProof(t *testing.T) {
	v := NewSupabaseVerifier("http://127.0.0.1:0", http.DefaultClient)
	_, err := v.Verify(context.Background(), core.EmailConfirmation{Email: "a@b.c"})
	assert.ErrorIs(t, err, core.ErrProofRejected)
}

func TestSupabaseVerifier_SendMagicLink(t *testing.T) {
	var got otpRequest
	var redirect string
	v, _ := newSupabaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/otp", r.URL.Path)
		redirect = r.URL.Query().Get("redirect_to")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{}`))
	})

	err := v.SendMagicLink(context.Background(), "erin@uni.edu", "https://auth.example.com/auth/confirm?state=abc")
	require.NoError(t, err)
	assert.Equal(t, otpRequest{Email: "erin@uni.edu", CreateUser: true}, got)
	assert.Equal(t, "https://auth.example.com/auth/confirm?state=abc", redirect)
}

func TestSupabaseVerifier_SendMagicLinkFailure(t *testing.T) {
	v, _ := newSupabaseServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})
	err := v.SendMagicLink(context.Background(), "bad", "")
	assert.ErrorIs(t, err, core.ErrProofRejected)
}
