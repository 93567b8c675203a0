// Package vm provides a VictoriaMetrics-based implementation of the MetricsCollector interface.
//
// This package uses github.com/VictoriaMetrics/metrics for lightweight,
// high-performance Prometheus-compatible metrics collection.
//
// # Basic Usage
//
// Create a collector with default prefix "geodb":
//
//	collector := vm.New()
//	executor, _ := geodb.NewExecutor(manager,
//	    geodb.WithMetrics(collector),
//	)
//	manager, _ := topology.NewManager(source,
//	    topology.WithManagerMetrics(collector),
//	)
//
// # Custom Prefix
//
// Use WithPrefix to customize the metric name prefix:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//
// This produces metrics like:
//   - myapp_request_total{endpoint="https://orders-EastUS.db.example.com:443/"}
//   - myapp_endpoint_discovery_retries_total
//
// # Exposing Metrics
//
// Use the Handler method to expose metrics via HTTP:
//
//	http.HandleFunc("/metrics", collector.Handler)
//	http.ListenAndServe(":8080", nil)
//
// Or use WritePrometheus to write metrics to a custom writer:
//
//	collector.WritePrometheus(w)
//
// # Metrics Provided
//
// Requests:
//   - {prefix}_request_total{endpoint} - Counter of requests
//   - {prefix}_request_errors_total{endpoint} - Counter of failed requests
//   - {prefix}_request_duration_seconds{endpoint} - Histogram of request latencies
//   - {prefix}_write_forbidden_total{endpoint} - Counter of writes rejected by a non-write region
//
// Endpoint discovery retry:
//   - {prefix}_endpoint_discovery_retries_total - Counter of granted retries
//   - {prefix}_endpoint_discovery_retry_exhausted_total - Counter of operations that gave up
//   - {prefix}_endpoint_discovery_disabled_total - Counter of retries refused with discovery off
//
// Topology:
//   - {prefix}_topology_refresh_total - Counter of account topology fetches
//   - {prefix}_topology_refresh_errors_total - Counter of failed fetches
//   - {prefix}_topology_refresh_duration_seconds - Histogram of fetch latencies
//   - {prefix}_write_location_changed_total{from,to} - Counter of write region changes
package vm
