// Package geodb provides the client-side retry and endpoint routing layer for
// a geo-replicated database account.
//
// A database account is served from several regions. Exactly one region
// accepts writes at a time; after a regional failover the previous write
// region rejects writes with a write-forbidden error (HTTP 403, sub-status 3).
// geodb detects that error, refreshes the account topology, and retries the
// operation against the new write region.
//
// # Key Features
//
//   - Endpoint Discovery Retry: Bounded retries after a write-forbidden error,
//     each preceded by one endpoint list refresh (see package policy)
//   - Topology Manager: Shared, coalesced topology refreshes with preferred
//     location fallback (see package topology)
//   - NATS KV Topology: Account documents distributed and failed over through
//     NATS JetStream Key-Value
//   - Pluggable Logging and Metrics: *slog.Logger works as-is; VictoriaMetrics
//     collector in contrib/metrics/vm
//
// # Basic Usage
//
//	source, _ := topology.NewNATS(kv)
//	manager, _ := topology.NewManager(source,
//	    topology.WithDefaultEndpoint("https://orders.db.example.com:443/"),
//	)
//	defer manager.Close()
//	_ = manager.RefreshEndpointList(ctx)
//
//	executor, err := geodb.NewExecutor(manager,
//	    geodb.WithLogger(slog.Default()),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	err = executor.ExecuteWrite(ctx, func(ctx context.Context, endpoint string) error {
//	    return insertOrder(ctx, endpoint, order)
//	})
//
// # Configuration File
//
// Client and manager settings can be loaded from YAML:
//
//	cfg, err := geodb.LoadFileConfig("geodb.yaml")
//	manager, _ := topology.NewManager(source, topology.FromFileConfig(cfg)...)
//	executor, _ := geodb.NewExecutor(manager, cfg.ClientOptions()...)
//
// # Error Handling
//
// Request functions report service rejections with a *RequestError. Use
// IsWriteForbidden to classify them:
//
//	if geodb.IsWriteForbidden(err) {
//	    // The region lost the write role
//	}
//
// The executor returns:
//   - nil: The request eventually succeeded
//   - The request error as is: Not write-forbidden, or discovery is disabled
//   - The refresh error as is: The topology could not be refreshed
//   - *RetryExhaustedError: The retry budget ran out; it wraps the last
//     write-forbidden error
//
// # Sentinel Errors
//
//   - ErrWriteForbidden: Write sent to a region that is not the write region
//   - ErrNilEndpointManager: A nil endpoint manager was provided
//   - ErrAccountUnavailable: No endpoint returned the account topology
//
// # Context and Timeouts
//
// Every operation honors ctx cancellation, including while waiting between
// retries. Each operation carries an activity ID (see WithActivityID) that is
// attached to its log entries.
package geodb
