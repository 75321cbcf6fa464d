package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	resultSuccess = "success"
	resultError   = "error"
	resultHit     = "hit"
	resultMiss    = "miss"
)

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m Recorder) gin.HandlerFunc {
	// Type assert to concrete Metrics for Prometheus access
	metrics, ok := m.(*Metrics)
	if !ok {
		// NoopMetrics or unknown implementation
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()

		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		path := normalizePath(c.FullPath()) // Use route pattern, not actual path
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// normalizePath converts the actual request path to route pattern
// Returns the route pattern (e.g., "/oauth/:provider") or "unknown" if no route matched
func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}

// RecordFederation records the terminal state of one federation attempt.
// code is empty on success.
func (m *Metrics) RecordFederation(flow, result, code string, duration time.Duration) {
	m.FederationTotal.WithLabelValues(flow, result, code).Inc()
	m.FederationDuration.WithLabelValues(flow, result).Observe(duration.Seconds())
}

// RecordMagicLinkSent records a magic link send request
func (m *Metrics) RecordMagicLinkSent(success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.MagicLinksTotal.WithLabelValues(result).Inc()
}

// RecordProfileUpsert records a profile reconciliation
func (m *Metrics) RecordProfileUpsert(created bool) {
	outcome := "existing"
	if created {
		outcome = "created"
	}
	m.ProfileUpsertsTotal.WithLabelValues(outcome).Inc()
}

// RecordSchoolInference records a school inference outcome
func (m *Metrics) RecordSchoolInference(result string) {
	m.SchoolInferenceTotal.WithLabelValues(result).Inc()
}

// RecordTokenIssued records a session token issued by flow
func (m *Metrics) RecordTokenIssued(flow string) {
	m.TokensIssuedTotal.WithLabelValues(flow).Inc()
}

// RecordTokenValidation records a bearer token validation result
func (m *Metrics) RecordTokenValidation(result string) {
	m.TokenValidationTotal.WithLabelValues(result).Inc()
}

// RecordCacheLookup records a cache hit or miss
func (m *Metrics) RecordCacheLookup(cache string, hit bool) {
	result := resultMiss
	if hit {
		result = resultHit
	}
	m.CacheLookupsTotal.WithLabelValues(cache, result).Inc()
}
