package metrics

import "time"

// NoopMetrics is a no-operation implementation of Recorder.
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements Recorder interface at compile time
var _ Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() Recorder {
	return &NoopMetrics{}
}

func (n *NoopMetrics) RecordFederation(flow, result, code string, duration time.Duration) {}
func (n *NoopMetrics) RecordMagicLinkSent(success bool)                                     {}
func (n *NoopMetrics) RecordProfileUpsert(created bool)                                     {}
func (n *NoopMetrics) RecordSchoolInference(result string)                                  {}
func (n *NoopMetrics) RecordTokenIssued(flow string)                                        {}
func (n *NoopMetrics) RecordTokenValidation(result string)                                  {}
func (n *NoopMetrics) RecordCacheLookup(cache string, hit bool)                             {}
