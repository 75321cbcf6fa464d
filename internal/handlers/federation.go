package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/unimatch/authbridge/internal/core"
	"github.com/unimatch/authbridge/internal/models"
	"github.com/unimatch/authbridge/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "handlers")

// FederationHandler relays browser redirects and email confirmations to the
// federation service. It never renders pages: every outcome is a redirect to
// the caller's callback carrying token= or error=.
type FederationHandler struct {
	svc             *services.FederationService
	defaultProvider string
}

// NewFederationHandler creates the relay. defaultProvider serves /login and /callback.
func NewFederationHandler(svc *services.FederationService, defaultProvider string) *FederationHandler {
	return &FederationHandler{
		svc:             svc,
		defaultProvider: defaultProvider,
	}
}

// callbackParam prefers callback_url over the legacy callback parameter.
func callbackParam(c *gin.Context) string {
	if cb := c.Query("callback_url"); cb != "" {
		return cb
	}
	return c.Query("callback")
}

// Login starts the default provider's flow.
// GET /login?callback_url=...
func (h *FederationHandler) Login(c *gin.Context) {
	h.beginOAuth(c, c.DefaultQuery("provider", h.defaultProvider))
}

// LoginWithProvider starts the named provider's flow.
// GET /oauth/:provider
func (h *FederationHandler) LoginWithProvider(c *gin.Context) {
	h.beginOAuth(c, c.Param("provider"))
}

func (h *FederationHandler) beginOAuth(c *gin.Context, provider string) {
	callback := callbackParam(c)

	authURL, err := h.svc.BeginOAuth(c.Request.Context(), provider, callback)
	if err != nil {
		code := services.CodeOAuthFailed
		if errors.Is(err, services.ErrUnknownProvider) {
			code = services.CodeUnknownProvider
		}
		log.WithError(err).WithField("provider", provider).Warn("failed to start oauth flow")
		c.Redirect(http.StatusFound, h.svc.FailureRedirect(callback, code))
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// Callback finishes the default provider's flow.
// GET /callback?code=...&state=...
func (h *FederationHandler) Callback(c *gin.Context) {
	h.finishOAuth(c, h.defaultProvider)
}

// CallbackWithProvider finishes the named provider's flow.
// GET /oauth/:provider/callback?code=...&state=...
func (h *FederationHandler) CallbackWithProvider(c *gin.Context) {
	h.finishOAuth(c, c.Param("provider"))
}

func (h *FederationHandler) finishOAuth(c *gin.Context, provider string) {
	proof := services.Proof{
		Provider:      provider,
		Code:          c.Query("code"),
		ProviderError: c.Query("error"),
	}
	res := h.svc.StartFederation(c.Request.Context(), models.FlowOAuth, proof, c.Query("state"))
	c.Redirect(http.StatusFound, res.RedirectURL())
}

// Confirm finishes the email-confirmation flow.
// GET /auth/confirm?token_hash=...&type=...&state=...
func (h *FederationHandler) Confirm(c *gin.Context) {
	proof := services.Proof{
		Confirmation: core.EmailConfirmation{
			TokenHash: c.Query("token_hash"),
			Token:     c.Query("token"),
			Email:     c.Query("email"),
			Type:      c.Query("type"),
		},
	}
	res := h.svc.StartFederation(c.Request.Context(), models.FlowEmail, proof, c.Query("state"))
	c.Redirect(http.StatusFound, res.RedirectURL())
}

type magicLinkRequest struct {
	Email           string `json:"email"`
	EmailRedirectTo string `json:"emailRedirectTo"`
	RedirectTo      string `json:"redirect_to"`
}

// MagicLink asks the email provider to send a sign-in link.
// POST /api/auth/magic-link {"email": "...", "emailRedirectTo": "..."}
func (h *FederationHandler) MagicLink(c *gin.Context) {
	var req magicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	callback := req.EmailRedirectTo
	if callback == "" {
		callback = req.RedirectTo
	}

	err := h.svc.BeginMagicLink(c.Request.Context(), req.Email, callback)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Magic link sent"})
	case errors.Is(err, services.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email address"})
	case errors.Is(err, services.ErrEmailFlowDisabled):
		c.JSON(http.StatusNotFound, gin.H{"error": "Email sign-in is not enabled"})
	default:
		log.WithError(err).Error("failed to send magic link")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send magic link"})
	}
}

// Logout acknowledges a client-side sign out. Session tokens are stateless,
// so there is nothing to revoke.
// POST /api/auth/logout
func (h *FederationHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
