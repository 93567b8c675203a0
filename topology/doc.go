// Package topology tracks which regions of a geo-replicated database account
// accept reads and writes.
//
// # Overview
//
// [Manager] is the client-wide endpoint manager. It implements
// [types.EndpointManager], so the endpoint discovery retry policy can ask it
// to refresh after a write lands on a region that is no longer writable, and
// [geodb.LocationResolver], so the executor knows where to send each request.
//
// The account topology comes from an [AccountReader]:
//   - [NATS]: Reads the account document from a NATS KV bucket and streams
//     changes to a Manager via [Manager.Sync].
//   - [Local]: An in-memory account for tests and demos.
//
// Both sources also implement [geodb.TopologyOperator] so a failover can be
// driven from tests or operations tooling.
//
// # Manager
//
//	source, _ := topology.NewNATS(kv)
//	manager, _ := topology.NewManager(source,
//	    topology.WithDefaultEndpoint("https://orders.db.example.com:443/"),
//	    topology.WithPreferredLocations("West US", "East US"),
//	    topology.WithRefreshRateLimit(5, 1),
//	)
//	defer manager.Close()
//
//	if err := manager.RefreshEndpointList(ctx); err != nil {
//	    // Requests go to the default endpoint until a refresh succeeds
//	}
//	go manager.Sync(ctx, source.Watch(ctx))
//
// A refresh asks the default endpoint first and then the regional endpoint
// of each preferred location (see [LocationalEndpoint]). Concurrent refreshes
// share a single fetch. With endpoint discovery disabled, refreshes are
// no-ops and every request goes to the default endpoint.
//
// # Account Document Format
//
// The NATS KV value is a JSON object; the first writable location is the
// current write region:
//
//	{
//	    "id": "orders",
//	    "writableLocations": [
//	        {"name": "East US", "endpoint": "https://orders-EastUS.db.example.com:443/"}
//	    ],
//	    "readableLocations": [
//	        {"name": "East US", "endpoint": "https://orders-EastUS.db.example.com:443/"},
//	        {"name": "West US", "endpoint": "https://orders-WestUS.db.example.com:443/"}
//	    ]
//	}
//
// # Failover
//
// [NATS.Failover] rewrites the document with the promoted region as the sole
// writer, using the KV revision to avoid overwriting a concurrent change:
//
//	_ = source.Failover(ctx, "West US")
//
// Managers watching the key pick up the change and emit a
// [geodb.TopologyUpdate] on [Manager.Watch].
package topology
