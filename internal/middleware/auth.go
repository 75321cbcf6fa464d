package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/unimatch/authbridge/internal/core"

	"github.com/gin-gonic/gin"
)

// ContextKeyClaims is the gin context key holding the verified *core.SessionClaims.
const ContextKeyClaims = "session_claims"

// SessionVerifier validates a bearer token and returns its claims.
type SessionVerifier interface {
	IssueForCurrentSession(ctx context.Context, bearer string) (*core.SessionClaims, error)
}

// RequireBearer rejects requests without a valid session token in the
// Authorization header. Verified claims are stored under ContextKeyClaims.
func RequireBearer(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "No valid authorization token",
			})
			return
		}

		claims, err := verifier.IssueForCurrentSession(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by RequireBearer.
func ClaimsFromContext(c *gin.Context) (*core.SessionClaims, bool) {
	v, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*core.SessionClaims)
	return claims, ok && claims != nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	scheme, value, ok := strings.Cut(c.GetHeader("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(value), true
}
