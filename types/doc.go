// Package types provides shared types and error definitions for the geodb library.
//
// This is a leaf package with zero geodb imports to prevent import cycles.
// All packages in geodb can safely import this package.
//
// # Topology
//
// A DatabaseAccount describes the regions serving a geo-replicated account.
// Exactly one region accepts writes at a time; it is the first entry of
// WritableLocations:
//
//	account := types.DatabaseAccount{
//	    ID: "orders",
//	    WritableLocations: []types.Location{
//	        {Name: "East US", Endpoint: "https://orders-eastus.db.example.com:443/"},
//	    },
//	    ReadableLocations: []types.Location{
//	        {Name: "East US", Endpoint: "https://orders-eastus.db.example.com:443/"},
//	        {Name: "West US", Endpoint: "https://orders-westus.db.example.com:443/"},
//	    },
//	}
//
// # Errors
//
// Sentinel errors are provided for common failure scenarios:
//
//   - ErrWriteForbidden: The contacted region no longer accepts writes
//   - ErrAccountUnavailable: No endpoint returned the account topology
//   - ErrNoDefaultEndpoint: A topology manager was built without an endpoint
//   - ErrUnknownLocation: A failover named a region the account does not have
//
// RequestError carries the status of a failed request, and RetryExhaustedError
// wraps the original write-forbidden error once the retry budget is spent.
package types
