package metrics

import (
	"sync"

	"github.com/unimatch/authbridge/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder is an alias for core.Recorder.
type Recorder = core.Recorder

// Ensure Metrics implements Recorder interface at compile time
var _ Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Federation Metrics
	FederationTotal    *prometheus.CounterVec
	FederationDuration *prometheus.HistogramVec
	MagicLinksTotal    *prometheus.CounterVec

	// Profile Metrics
	ProfileUpsertsTotal  *prometheus.CounterVec
	SchoolInferenceTotal *prometheus.CounterVec

	// Token Metrics
	TokensIssuedTotal    *prometheus.CounterVec
	TokenValidationTotal *prometheus.CounterVec

	// Cache Metrics
	CacheLookupsTotal *prometheus.CounterVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	return &Metrics{
		FederationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authbridge_federation_total",
				Help: "Total number of completed federation attempts",
			},
			[]string{"flow", "result", "code"}, // flow: oauth, email
		),
		FederationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "authbridge_federation_duration_seconds",
				Help:    "Time spent in one federation attempt, provider calls included",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"flow", "result"},
		),
		MagicLinksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authbridge_magic_links_total",
				Help: "Total number of magic link send requests",
			},
			[]string{"result"},
		),

		ProfileUpsertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authbridge_profile_upserts_total",
				Help: "Total number of profile reconciliations",
			},
			[]string{"outcome"}, // created, existing
		),
		SchoolInferenceTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authbridge_school_inference_total",
				Help: "Total number of school inference attempts",
			},
			[]string{"result"},
		),

		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authbridge_tokens_issued_total",
				Help: "Total number of session tokens issued",
			},
			[]string{"flow"},
		),
		TokenValidationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authbridge_token_validation_total",
				Help: "Total number of session token validations",
			},
			[]string{"result"}, // valid, expired, invalid
		),

		CacheLookupsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authbridge_cache_lookups_total",
				Help: "Total number of cache lookups",
			},
			[]string{"cache", "result"}, // hit, miss
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),
	}
}
