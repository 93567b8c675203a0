package geodb

import "context"

// LocationResolver is a topology manager that also resolves which regional
// endpoint requests should be sent to.
//
// Implementations MUST be safe for concurrent use from multiple goroutines.
// topology.Manager is the standard implementation.
type LocationResolver interface {
	EndpointManager

	// WriteEndpoint returns the endpoint of the current write region.
	WriteEndpoint() string

	// ReadEndpoint returns the preferred endpoint for reads.
	ReadEndpoint() string
}

// TopologyWatcher publishes write region changes.
//
// Implementations include topology.Manager.
type TopologyWatcher interface {
	// Watch returns a channel that receives topology updates.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//
	// Returns:
	//   - <-chan TopologyUpdate: Channel of topology changes
	Watch(ctx context.Context) <-chan TopologyUpdate
}

// TopologyOperator promotes a region to be the write region.
//
// This interface is used by operations tools and tests to simulate or drive
// a failover. Implementations include topology.Local and topology.NATS.
type TopologyOperator interface {
	// Failover makes the named location the current write region.
	//
	// Parameters:
	//   - ctx: Context for cancellation/timeout
	//   - location: The region name to promote (e.g., "West US")
	//
	// Returns:
	//   - error: types.ErrUnknownLocation if the account has no such region
	Failover(ctx context.Context, location string) error
}

// TopologyUpdate describes a change of write region observed on refresh.
type TopologyUpdate struct {
	// Previous is the write location before the refresh.
	Previous Location

	// Current is the write location after the refresh.
	Current Location

	// Account is the refreshed account topology.
	Account DatabaseAccount
}
