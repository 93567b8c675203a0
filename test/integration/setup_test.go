package integration_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/geodb"
	"github.com/arloliu/geodb/test/testutil"
	"github.com/arloliu/geodb/topology"
	"github.com/arloliu/geodb/types"
)

const accountEndpoint = "https://orders.db.example.com:443/"

var regions = []string{"East US", "West US", "North Europe"}

// testAccount lays out the regions with East US as the writer.
func testAccount(t *testing.T) types.DatabaseAccount {
	t.Helper()

	account := types.DatabaseAccount{ID: "orders"}
	for _, name := range regions {
		endpoint, err := topology.LocationalEndpoint(accountEndpoint, name)
		require.NoError(t, err)
		account.ReadableLocations = append(account.ReadableLocations, types.Location{Name: name, Endpoint: endpoint})
	}
	account.WritableLocations = []types.Location{account.ReadableLocations[0]}

	return account
}

// client is one application instance: a manager synced from NATS and an executor.
type client struct {
	source   *topology.NATS
	manager  *topology.Manager
	executor *geodb.Executor
	metrics  *testutil.TestMetricsCollector
	syncDone chan error
}

// newClient wires a client to the bucket and starts syncing.
func newClient(t *testing.T, kv jetstream.KeyValue, opts ...geodb.Option) *client {
	t.Helper()

	source := newSource(t, kv)
	collector := testutil.NewTestMetricsCollector()
	manager, err := topology.NewManager(source,
		topology.WithDefaultEndpoint(accountEndpoint),
		topology.WithPreferredLocations("West US"),
		topology.WithManagerMetrics(collector),
	)
	require.NoError(t, err)
	require.NoError(t, manager.RefreshEndpointList(t.Context()))

	opts = append([]geodb.Option{geodb.WithRetryAfter(5 * time.Millisecond), geodb.WithMetrics(collector)}, opts...)
	executor, err := geodb.NewExecutor(manager, opts...)
	require.NoError(t, err)

	c := &client{
		source:   source,
		manager:  manager,
		executor: executor,
		metrics:  collector,
		syncDone: make(chan error, 1),
	}

	ctx, cancel := context.WithCancel(t.Context())
	go func() { c.syncDone <- manager.Sync(ctx, source.Watch(ctx)) }()

	t.Cleanup(func() {
		cancel()
		_ = manager.Close()
	})

	return c
}

// startBucket creates a bucket, publishes the test account and returns an
// operator source for driving failovers.
func startBucket(t *testing.T, bucket string) (jetstream.KeyValue, *topology.NATS) {
	t.Helper()

	js := testutil.StartEmbeddedNATS(t)
	kv := testutil.CreateKV(t, js, bucket)

	operator := newSource(t, kv)
	require.NoError(t, operator.Publish(t.Context(), testAccount(t)))

	return kv, operator
}

// newSource opens a NATS topology source; each client needs its own.
func newSource(t *testing.T, kv jetstream.KeyValue) *topology.NATS {
	t.Helper()

	source, err := topology.NewNATS(kv, topology.WithPollInterval(100*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { _ = source.Close() })

	return source
}

// regionService accepts writes only on the current write region of the published account.
type regionService struct {
	mu       sync.Mutex
	operator *topology.NATS
	writes   map[string]int
}

func newRegionService(operator *topology.NATS) *regionService {
	return &regionService{operator: operator, writes: make(map[string]int)}
}

func (s *regionService) write(ctx context.Context, endpoint string) error {
	account, err := s.operator.ReadAccount(ctx, endpoint)
	if err != nil {
		return err
	}

	write, _ := account.WriteLocation()
	if write.Endpoint != endpoint {
		return &types.RequestError{
			StatusCode: types.StatusForbidden,
			SubStatus:  types.SubStatusWriteForbidden,
			Endpoint:   endpoint,
		}
	}

	s.mu.Lock()
	s.writes[endpoint]++
	s.mu.Unlock()

	return nil
}

func (s *regionService) count(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.writes[endpoint]
}
