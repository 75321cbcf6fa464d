package util

import (
	"context"

	"github.com/gin-gonic/gin"
)

type contextKey int

const ipContextKey contextKey = iota

// IPMiddleware stores the client IP on the request context so that services
// receiving only a context.Context can tag their logs with it.
func IPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(SetIPContext(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}

// SetIPContext returns a copy of ctx carrying ip. An empty ip leaves ctx unchanged.
func SetIPContext(ctx context.Context, ip string) context.Context {
	if ip == "" {
		return ctx
	}
	return context.WithValue(ctx, ipContextKey, ip)
}

// GetIPFromContext extracts the client IP address from the context
func GetIPFromContext(ctx context.Context) string {
	if ginCtx, ok := ctx.(*gin.Context); ok {
		return ginCtx.ClientIP()
	}
	if ip, ok := ctx.Value(ipContextKey).(string); ok {
		return ip
	}
	return ""
}
