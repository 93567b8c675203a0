// Package metrics provides internal metrics utilities for geodb.
package metrics

import "github.com/arloliu/geodb/types"

// NopMetrics is a no-op metrics collector that discards all metrics.
//
// This is used as the default metrics collector when no collector is configured,
// avoiding nil checks throughout the codebase.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements types.MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNopMetrics creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A collector that discards all metrics
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

// ----------------------
// Requests
// ----------------------

// IncRequestTotal discards the metric.
func (m *NopMetrics) IncRequestTotal(_ string) {}

// IncRequestError discards the metric.
func (m *NopMetrics) IncRequestError(_ string) {}

// ObserveRequestDuration discards the metric.
func (m *NopMetrics) ObserveRequestDuration(_ string, _ float64) {}

// IncWriteForbidden discards the metric.
func (m *NopMetrics) IncWriteForbidden(_ string) {}

// ----------------------
// Endpoint Discovery Retry
// ----------------------

// IncDiscoveryRetry discards the metric.
func (m *NopMetrics) IncDiscoveryRetry() {}

// IncRetryExhausted discards the metric.
func (m *NopMetrics) IncRetryExhausted() {}

// IncDiscoveryDisabled discards the metric.
func (m *NopMetrics) IncDiscoveryDisabled() {}

// ----------------------
// Topology
// ----------------------

// IncTopologyRefresh discards the metric.
func (m *NopMetrics) IncTopologyRefresh() {}

// IncTopologyRefreshError discards the metric.
func (m *NopMetrics) IncTopologyRefreshError() {}

// ObserveTopologyRefreshDuration discards the metric.
func (m *NopMetrics) ObserveTopologyRefreshDuration(_ float64) {}

// IncWriteLocationChanged discards the metric.
func (m *NopMetrics) IncWriteLocationChanged(_, _ string) {}
