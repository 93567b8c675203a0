package vm

import (
	"fmt"
	"io"
	"net/http"

	"github.com/VictoriaMetrics/metrics"

	"github.com/arloliu/geodb/types"
)

// Option configures a Collector.
type Option func(*Collector)

// WithPrefix sets the metric name prefix.
//
// Default: "geodb"
//
// Parameters:
//   - prefix: The prefix to use for all metric names
//
// Returns:
//   - Option: A configuration option
func WithPrefix(prefix string) Option {
	return func(c *Collector) {
		c.prefix = prefix
	}
}

// WithMetricsSet sets the metrics set to use.
//
// If provided, the collector will register metrics with this set instead of
// creating a new one. The caller is responsible for exposing this set
// (e.g., via metrics.WritePrometheus or a custom handler).
//
// Parameters:
//   - set: The metrics set to use
//
// Returns:
//   - Option: A configuration option
func WithMetricsSet(set *metrics.Set) Option {
	return func(c *Collector) {
		c.set = set
	}
}

// Collector implements types.MetricsCollector using VictoriaMetrics.
//
// Metrics without labels are pre-created at initialization time. Metrics
// labeled by endpoint or region are created on first use, since the set of
// regions is only known once the account topology has been fetched.
// Thread-safe for concurrent use.
type Collector struct {
	set    *metrics.Set
	prefix string

	// Endpoint discovery retry metrics
	discoveryRetries  *metrics.Counter
	retryExhausted    *metrics.Counter
	discoveryDisabled *metrics.Counter

	// Topology metrics
	topologyRefreshes      *metrics.Counter
	topologyRefreshErrors  *metrics.Counter
	topologyRefreshSeconds *metrics.Histogram
}

var _ types.MetricsCollector = (*Collector)(nil)

// New creates a new VictoriaMetrics-based metrics collector.
//
// The collector creates its own metrics.Set and registers it globally.
//
// Parameters:
//   - opts: Configuration options (e.g., WithPrefix)
//
// Returns:
//   - *Collector: A new metrics collector ready for use
//
// Example:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//	executor, _ := geodb.NewExecutor(manager,
//	    geodb.WithMetrics(collector),
//	)
func New(opts ...Option) *Collector {
	c := &Collector{
		prefix: "geodb",
	}

	for _, opt := range opts {
		opt(c)
	}

	// If no set is provided, create a new one and register it globally.
	// If a set is provided, we assume the caller manages it.
	if c.set == nil {
		c.set = metrics.NewSet()
		metrics.RegisterSet(c.set)
	}

	c.initMetrics()

	return c
}

// initMetrics pre-creates the unlabeled metrics with the configured prefix.
func (c *Collector) initMetrics() {
	p := c.prefix

	c.discoveryRetries = c.set.NewCounter(p + "_endpoint_discovery_retries_total")
	c.retryExhausted = c.set.NewCounter(p + "_endpoint_discovery_retry_exhausted_total")
	c.discoveryDisabled = c.set.NewCounter(p + "_endpoint_discovery_disabled_total")

	c.topologyRefreshes = c.set.NewCounter(p + "_topology_refresh_total")
	c.topologyRefreshErrors = c.set.NewCounter(p + "_topology_refresh_errors_total")
	c.topologyRefreshSeconds = c.set.NewHistogram(p + "_topology_refresh_duration_seconds")
}

// Set returns the underlying metrics set.
func (c *Collector) Set() *metrics.Set {
	return c.set
}

// Handler returns an HTTP handler that exposes metrics in Prometheus format.
//
// Example:
//
//	http.HandleFunc("/metrics", collector.Handler)
func (c *Collector) Handler(w http.ResponseWriter, _ *http.Request) {
	c.set.WritePrometheus(w)
}

// WritePrometheus writes all metrics in Prometheus format to the given writer.
//
// Parameters:
//   - w: The writer to write metrics to
func (c *Collector) WritePrometheus(w io.Writer) {
	c.set.WritePrometheus(w)
}

func (c *Collector) endpointName(metric, endpoint string) string {
	return fmt.Sprintf(`%s_%s{endpoint=%q}`, c.prefix, metric, endpoint)
}

// ----------------------
// Requests
// ----------------------

// IncRequestTotal increments the total request counter.
func (c *Collector) IncRequestTotal(endpoint string) {
	c.set.GetOrCreateCounter(c.endpointName("request_total", endpoint)).Inc()
}

// IncRequestError increments the request error counter.
func (c *Collector) IncRequestError(endpoint string) {
	c.set.GetOrCreateCounter(c.endpointName("request_errors_total", endpoint)).Inc()
}

// ObserveRequestDuration records a request duration in seconds.
func (c *Collector) ObserveRequestDuration(endpoint string, seconds float64) {
	c.set.GetOrCreateHistogram(c.endpointName("request_duration_seconds", endpoint)).Update(seconds)
}

// IncWriteForbidden increments the counter of writes sent to a region that
// no longer accepts writes.
func (c *Collector) IncWriteForbidden(endpoint string) {
	c.set.GetOrCreateCounter(c.endpointName("write_forbidden_total", endpoint)).Inc()
}

// ----------------------
// Endpoint Discovery Retry
// ----------------------

// IncDiscoveryRetry increments the counter of granted discovery retries.
func (c *Collector) IncDiscoveryRetry() {
	c.discoveryRetries.Inc()
}

// IncRetryExhausted increments the counter of operations that gave up.
func (c *Collector) IncRetryExhausted() {
	c.retryExhausted.Inc()
}

// IncDiscoveryDisabled increments the counter of retries refused because
// endpoint discovery is disabled.
func (c *Collector) IncDiscoveryDisabled() {
	c.discoveryDisabled.Inc()
}

// ----------------------
// Topology
// ----------------------

// IncTopologyRefresh increments the account topology fetch counter.
func (c *Collector) IncTopologyRefresh() {
	c.topologyRefreshes.Inc()
}

// IncTopologyRefreshError increments the failed topology fetch counter.
func (c *Collector) IncTopologyRefreshError() {
	c.topologyRefreshErrors.Inc()
}

// ObserveTopologyRefreshDuration records a topology fetch duration in seconds.
func (c *Collector) ObserveTopologyRefreshDuration(seconds float64) {
	c.topologyRefreshSeconds.Update(seconds)
}

// IncWriteLocationChanged increments the counter of write region changes.
func (c *Collector) IncWriteLocationChanged(from, to string) {
	name := fmt.Sprintf(`%s_write_location_changed_total{from=%q,to=%q}`, c.prefix, from, to)
	c.set.GetOrCreateCounter(name).Inc()
}
