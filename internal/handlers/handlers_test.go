package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/unimatch/authbridge/internal/cache"
	"github.com/unimatch/authbridge/internal/config"
	"github.com/unimatch/authbridge/internal/core"
	"github.com/unimatch/authbridge/internal/metrics"
	"github.com/unimatch/authbridge/internal/middleware"
	"github.com/unimatch/authbridge/internal/mocks"
	"github.com/unimatch/authbridge/internal/models"
	"github.com/unimatch/authbridge/internal/school"
	"github.com/unimatch/authbridge/internal/services"
	"github.com/unimatch/authbridge/internal/store"
	"github.com/unimatch/authbridge/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testCallback = "http://localhost:3000/callback"

type relayHarness struct {
	router   *gin.Engine
	google   *mocks.MockOAuthIdentityProvider
	email    *mocks.MockEmailVerifier
	db       *store.Store
	profiles *services.ProfileReconciler
	codec    *token.Codec
}

func testRelayConfig() *config.Config {
	return &config.Config{
		BaseURL:                "http://auth.test",
		JWTSecret:              "relay-test-secret",
		JWTExpiration:          time.Hour,
		JWTIssuer:              "http://auth.test",
		DefaultCallbackURL:     testCallback,
		AllowedCallbackOrigins: []string{"https://app.example.com"},
		PendingRedirectTTL:     time.Minute,
		EmailConfirmPath:       "/auth/confirm",
		EmailDefaultType:       "email",
		SchoolDomainRules:      map[string]string{"uni.edu": "Uni"},
		SchoolBlockedDomains:   []string{"blocked.test"},
		SchoolToleratedErrors:  []string{school.CodeUpdateFailed},
	}
}

// newRelayHarness wires the real federation stack behind mocked identity
// providers and registers the relay routes on a test router.
func newRelayHarness(t *testing.T) *relayHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	cfg := testRelayConfig()

	db, err := store.New(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := &relayHarness{
		google: mocks.NewMockOAuthIdentityProvider(ctrl),
		email:  mocks.NewMockEmailVerifier(ctrl),
		db:     db,
	}
	h.google.EXPECT().Name().Return("google").AnyTimes()
	h.google.EXPECT().AuthCodeURL(gomock.Any()).DoAndReturn(func(state string) string {
		return "https://accounts.example.com/auth?" + url.Values{"state": {state}}.Encode()
	}).AnyTimes()

	noop := metrics.NewNoopMetrics()
	h.profiles = services.NewProfileReconciler(db, cache.NewMemoryCache[models.Profile](), time.Minute, noop)
	redirects := services.NewRedirectStore(cache.NewMemoryCache[models.PendingRedirect](), cfg.PendingRedirectTTL)
	h.codec, err = token.NewCodec(cfg)
	require.NoError(t, err)

	schools := school.NewService(cfg, h.profiles, nil, noop)
	svc := services.NewFederationService(
		cfg,
		[]core.OAuthIdentityProvider{h.google},
		h.email,
		h.profiles,
		schools,
		h.codec,
		redirects,
		noop,
	)

	fed := NewFederationHandler(svc, "google")
	prof := NewProfileHandler(h.profiles, schools)

	r := gin.New()
	r.GET("/login", fed.Login)
	r.GET("/callback", fed.Callback)
	r.GET("/oauth/:provider", fed.LoginWithProvider)
	r.GET("/oauth/:provider/callback", fed.CallbackWithProvider)
	r.GET("/auth/confirm", fed.Confirm)
	api := r.Group("/api/auth")
	api.POST("/magic-link", fed.MagicLink)
	api.POST("/logout", fed.Logout)
	me := api.Group("/me", middleware.RequireBearer(svc))
	me.GET("", prof.Me)
	me.PATCH("", prof.UpdateMe)
	h.router = r
	return h
}

func (h *relayHarness) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

// location parses the redirect target of w.
func location(t *testing.T, w *httptest.ResponseRecorder) *url.URL {
	t.Helper()
	u, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	return u
}

// signIn runs a full OAuth round trip for email and returns the issued token.
func (h *relayHarness) signIn(t *testing.T, email string) string {
	t.Helper()
	w := h.do(t, http.MethodGet, "/login", "")
	require.Equal(t, http.StatusTemporaryRedirect, w.Code)
	state := location(t, w).Query().Get("state")

	h.google.EXPECT().ExchangeCode(gomock.Any(), "code-"+email).
		Return(&core.VerifiedIdentity{Email: email, Name: "Test User", Provider: "google"}, nil)

	w = h.do(t, http.MethodGet, "/callback?"+url.Values{"code": {"code-" + email}, "state": {state}}.Encode(), "")
	require.Equal(t, http.StatusFound, w.Code)
	tok := location(t, w).Query().Get("token")
	require.NotEmpty(t, tok)
	return tok
}

// seedProfile stores a profile directly, bypassing sign-in policy, and
// returns a session token for it.
func (h *relayHarness) seedProfile(t *testing.T, email string) string {
	t.Helper()
	p, err := h.profiles.UpsertFromIdentity(context.Background(), &core.VerifiedIdentity{Email: email})
	require.NoError(t, err)
	tok, err := h.codec.Issue(h.codec.NewClaims(p.ID, p.Email, "", ""))
	require.NoError(t, err)
	return tok
}
