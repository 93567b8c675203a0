package types

// MetricsCollector defines methods for collecting operational metrics.
//
// Endpoint-scoped methods accept the regional endpoint for labeling.
// Implementations should be thread-safe as methods may be called concurrently.
//
// Example usage with VictoriaMetrics (via contrib/metrics/vm):
//
//	import vmmetrics "github.com/arloliu/geodb/contrib/metrics/vm"
//
//	collector := vmmetrics.New(vmmetrics.WithPrefix("myapp"))
//	executor, _ := geodb.NewExecutor(manager,
//	    geodb.WithMetrics(collector),
//	)
//
//	// Expose metrics via HTTP
//	http.HandleFunc("/metrics", collector.Handler)
type MetricsCollector interface {
	// ----------------------
	// Requests
	// ----------------------

	// IncRequestTotal increments the total request counter.
	IncRequestTotal(endpoint string)

	// IncRequestError increments the request error counter.
	IncRequestError(endpoint string)

	// ObserveRequestDuration records a request duration in seconds.
	ObserveRequestDuration(endpoint string, seconds float64)

	// IncWriteForbidden increments the counter of writes rejected because the
	// region is no longer writable.
	IncWriteForbidden(endpoint string)

	// ----------------------
	// Endpoint Discovery Retry
	// ----------------------

	// IncDiscoveryRetry increments the counter of granted discovery retries.
	IncDiscoveryRetry()

	// IncRetryExhausted increments the counter of operations that spent
	// their whole retry budget.
	IncRetryExhausted()

	// IncDiscoveryDisabled increments the counter of retries refused because
	// endpoint discovery is disabled.
	IncDiscoveryDisabled()

	// ----------------------
	// Topology
	// ----------------------

	// IncTopologyRefresh increments the account topology fetch counter.
	IncTopologyRefresh()

	// IncTopologyRefreshError increments the failed topology fetch counter.
	IncTopologyRefreshError()

	// ObserveTopologyRefreshDuration records a topology fetch duration in seconds.
	ObserveTopologyRefreshDuration(seconds float64)

	// IncWriteLocationChanged increments the counter of observed write
	// region changes.
	IncWriteLocationChanged(from, to string)
}
