package core

import "time"

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Federation
	RecordFederation(flow, result, code string, duration time.Duration)
	RecordMagicLinkSent(success bool)

	// Profiles
	RecordProfileUpsert(created bool)

	// School inference
	RecordSchoolInference(result string)

	// Tokens
	RecordTokenIssued(flow string)
	RecordTokenValidation(result string)

	// Caches
	RecordCacheLookup(cache string, hit bool)
}
