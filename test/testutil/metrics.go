package testutil

import (
	"sync"
	"sync/atomic"

	"github.com/arloliu/geodb/types"
)

// TestMetricsCollector is a test implementation of types.MetricsCollector
// that tracks method calls for assertion in tests.
type TestMetricsCollector struct {
	mu sync.RWMutex

	// Requests
	RequestTotal    map[string]int64
	RequestErrors   map[string]int64
	RequestDuration map[string][]float64
	WriteForbidden  map[string]int64

	// Topology
	RefreshDuration      []float64
	WriteLocationChanged map[string]int64 // key: "from->to"

	// Atomic counters for quick access
	discoveryRetries  atomic.Int64
	retryExhausted    atomic.Int64
	discoveryDisabled atomic.Int64
	refreshes         atomic.Int64
	refreshErrors     atomic.Int64
}

// Compile-time assertion that TestMetricsCollector implements types.MetricsCollector.
var _ types.MetricsCollector = (*TestMetricsCollector)(nil)

// NewTestMetricsCollector creates a new test metrics collector.
func NewTestMetricsCollector() *TestMetricsCollector {
	return &TestMetricsCollector{
		RequestTotal:         make(map[string]int64),
		RequestErrors:        make(map[string]int64),
		RequestDuration:      make(map[string][]float64),
		WriteForbidden:       make(map[string]int64),
		WriteLocationChanged: make(map[string]int64),
	}
}

// ----------------------
// Requests
// ----------------------

func (m *TestMetricsCollector) IncRequestTotal(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestTotal[endpoint]++
}

func (m *TestMetricsCollector) IncRequestError(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestErrors[endpoint]++
}

func (m *TestMetricsCollector) ObserveRequestDuration(endpoint string, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestDuration[endpoint] = append(m.RequestDuration[endpoint], seconds)
}

func (m *TestMetricsCollector) IncWriteForbidden(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteForbidden[endpoint]++
}

// ----------------------
// Endpoint Discovery Retry
// ----------------------

func (m *TestMetricsCollector) IncDiscoveryRetry() {
	m.discoveryRetries.Add(1)
}

func (m *TestMetricsCollector) IncRetryExhausted() {
	m.retryExhausted.Add(1)
}

func (m *TestMetricsCollector) IncDiscoveryDisabled() {
	m.discoveryDisabled.Add(1)
}

// ----------------------
// Topology
// ----------------------

func (m *TestMetricsCollector) IncTopologyRefresh() {
	m.refreshes.Add(1)
}

func (m *TestMetricsCollector) IncTopologyRefreshError() {
	m.refreshErrors.Add(1)
}

func (m *TestMetricsCollector) ObserveTopologyRefreshDuration(seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RefreshDuration = append(m.RefreshDuration, seconds)
}

func (m *TestMetricsCollector) IncWriteLocationChanged(from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteLocationChanged[from+"->"+to]++
}

// ----------------------
// Accessors
// ----------------------

// GetRequestTotal returns the request count for an endpoint.
func (m *TestMetricsCollector) GetRequestTotal(endpoint string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.RequestTotal[endpoint]
}

// GetWriteForbidden returns the write-forbidden count for an endpoint.
func (m *TestMetricsCollector) GetWriteForbidden(endpoint string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.WriteForbidden[endpoint]
}

// GetWriteLocationChanged returns how often the writer moved from one region to another.
func (m *TestMetricsCollector) GetWriteLocationChanged(from, to string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.WriteLocationChanged[from+"->"+to]
}

// DiscoveryRetries returns the number of granted discovery retries.
func (m *TestMetricsCollector) DiscoveryRetries() int64 {
	return m.discoveryRetries.Load()
}

// RetryExhausted returns the number of operations that ran out of retries.
func (m *TestMetricsCollector) RetryExhausted() int64 {
	return m.retryExhausted.Load()
}

// DiscoveryDisabled returns the number of retries refused with discovery off.
func (m *TestMetricsCollector) DiscoveryDisabled() int64 {
	return m.discoveryDisabled.Load()
}

// Refreshes returns the number of topology fetches.
func (m *TestMetricsCollector) Refreshes() int64 {
	return m.refreshes.Load()
}

// RefreshErrors returns the number of failed topology fetches.
func (m *TestMetricsCollector) RefreshErrors() int64 {
	return m.refreshErrors.Load()
}
