package vm

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eastEndpoint = "https://orders-EastUS.db.example.com:443/"

func scrape(t *testing.T, c *Collector) string {
	t.Helper()

	var buf bytes.Buffer
	c.WritePrometheus(&buf)

	return buf.String()
}

func TestNewDefaults(t *testing.T) {
	c := New(WithMetricsSet(metrics.NewSet()))
	require.NotNil(t, c.Set())

	out := scrape(t, c)
	assert.Contains(t, out, "geodb_endpoint_discovery_retries_total 0")
	assert.Contains(t, out, "geodb_topology_refresh_total 0")
}

func TestCollectorRequests(t *testing.T) {
	c := New(WithPrefix("test"), WithMetricsSet(metrics.NewSet()))

	c.IncRequestTotal(eastEndpoint)
	c.IncRequestTotal(eastEndpoint)
	c.IncRequestError(eastEndpoint)
	c.IncWriteForbidden(eastEndpoint)
	c.ObserveRequestDuration(eastEndpoint, 0.25)

	out := scrape(t, c)
	assert.Contains(t, out, `test_request_total{endpoint="`+eastEndpoint+`"} 2`)
	assert.Contains(t, out, `test_request_errors_total{endpoint="`+eastEndpoint+`"} 1`)
	assert.Contains(t, out, `test_write_forbidden_total{endpoint="`+eastEndpoint+`"} 1`)
	assert.Contains(t, out, `test_request_duration_seconds_count{endpoint="`+eastEndpoint+`"} 1`)
}

func TestCollectorDiscoveryAndTopology(t *testing.T) {
	c := New(WithPrefix("test"), WithMetricsSet(metrics.NewSet()))

	c.IncDiscoveryRetry()
	c.IncDiscoveryRetry()
	c.IncRetryExhausted()
	c.IncDiscoveryDisabled()
	c.IncTopologyRefresh()
	c.IncTopologyRefreshError()
	c.ObserveTopologyRefreshDuration(0.01)
	c.IncWriteLocationChanged("East US", "West US")

	out := scrape(t, c)
	assert.Contains(t, out, "test_endpoint_discovery_retries_total 2")
	assert.Contains(t, out, "test_endpoint_discovery_retry_exhausted_total 1")
	assert.Contains(t, out, "test_endpoint_discovery_disabled_total 1")
	assert.Contains(t, out, "test_topology_refresh_total 1")
	assert.Contains(t, out, "test_topology_refresh_errors_total 1")
	assert.Contains(t, out, "test_topology_refresh_duration_seconds_count 1")
	assert.Contains(t, out, `test_write_location_changed_total{from="East US",to="West US"} 1`)
}

func TestCollectorHandler(t *testing.T) {
	c := New(WithPrefix("handler"), WithMetricsSet(metrics.NewSet()))
	c.IncDiscoveryRetry()

	rec := httptest.NewRecorder()
	c.Handler(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Contains(t, rec.Body.String(), "handler_endpoint_discovery_retries_total 1")
}
