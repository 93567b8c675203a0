// Package types provides shared types and errors for the geodb library.
//
// This is a "leaf" package with no imports from other geodb packages,
// allowing it to be imported by any package without causing import cycles.
package types

import (
	"context"
	"errors"
	"strconv"
)

// Location is a named region serving a database account.
type Location struct {
	// Name is the region display name (e.g., "East US").
	Name string `json:"name" yaml:"name"`

	// Endpoint is the regional service URL.
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DatabaseAccount is the account topology reported by the database service.
type DatabaseAccount struct {
	// ID identifies the account.
	ID string `json:"id" yaml:"id"`

	// WritableLocations lists the regions accepting writes, current writer first.
	WritableLocations []Location `json:"writableLocations" yaml:"writable_locations"`

	// ReadableLocations lists the regions serving reads.
	ReadableLocations []Location `json:"readableLocations" yaml:"readable_locations"`
}

// WriteLocation returns the current write region.
//
// Returns:
//   - Location: The first writable location
//   - bool: false if the account has no writable location
func (a DatabaseAccount) WriteLocation() (Location, bool) {
	if len(a.WritableLocations) == 0 {
		return Location{}, false
	}

	return a.WritableLocations[0], true
}

// FindLocation looks up a location by name in either list.
//
// Parameters:
//   - name: The region name
//
// Returns:
//   - Location: The matching location
//   - bool: true if found
func (a DatabaseAccount) FindLocation(name string) (Location, bool) {
	for _, l := range a.WritableLocations {
		if l.Name == name {
			return l, true
		}
	}
	for _, l := range a.ReadableLocations {
		if l.Name == name {
			return l, true
		}
	}

	return Location{}, false
}

// Clone returns a deep copy of the account.
func (a DatabaseAccount) Clone() DatabaseAccount {
	out := DatabaseAccount{ID: a.ID}
	if a.WritableLocations != nil {
		out.WritableLocations = append([]Location(nil), a.WritableLocations...)
	}
	if a.ReadableLocations != nil {
		out.ReadableLocations = append([]Location(nil), a.ReadableLocations...)
	}

	return out
}

// EndpointManager is the shared view of which regions are readable and writable.
//
// A single manager lives for the whole client session and is consulted by
// every in-flight operation. Implementations MUST be safe for concurrent use.
type EndpointManager interface {
	// IsEndpointDiscoveryEnabled reports whether regions are discovered
	// dynamically. The value may change between calls.
	IsEndpointDiscoveryEnabled() bool

	// RefreshEndpointList re-reads the account topology from the service.
	//
	// Parameters:
	//   - ctx: Context for cancellation and deadline
	//
	// Returns:
	//   - error: nil on success, error if the topology could not be fetched
	RefreshEndpointList(ctx context.Context) error
}

// Status codes identifying a write sent to a region that no longer accepts writes.
const (
	StatusForbidden         = 403
	SubStatusWriteForbidden = 3
)

// Sentinel errors for common failure scenarios.
var (
	// ErrWriteForbidden indicates the contacted region is not the current write region.
	ErrWriteForbidden = errors.New("geodb: write forbidden on this region")

	// ErrNilEndpointManager indicates that a nil endpoint manager was provided.
	ErrNilEndpointManager = errors.New("geodb: endpoint manager cannot be nil")

	// ErrNilAccountReader indicates that a nil account reader was provided.
	ErrNilAccountReader = errors.New("geodb: account reader cannot be nil")

	// ErrNoDefaultEndpoint indicates the topology manager has no default endpoint.
	ErrNoDefaultEndpoint = errors.New("geodb: default endpoint is required")

	// ErrAccountUnavailable indicates that no endpoint returned the account topology.
	ErrAccountUnavailable = errors.New("geodb: database account unavailable")

	// ErrUnknownLocation indicates a region name not present in the account.
	ErrUnknownLocation = errors.New("geodb: unknown location")

	// ErrManagerClosed indicates an operation on a closed topology manager.
	ErrManagerClosed = errors.New("geodb: topology manager is closed")
)

// RequestError describes a request rejected by the database service.
type RequestError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// SubStatus refines the status code.
	SubStatus int

	// Endpoint is the regional endpoint that was contacted.
	Endpoint string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	msg := "geodb: request to " + e.Endpoint + " failed with status " +
		strconv.Itoa(e.StatusCode) + "." + strconv.Itoa(e.SubStatus)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// IsWriteForbidden reports whether err means the write went to a region that
// is no longer writable, typically after a failover.
//
// Parameters:
//   - err: The error to classify
//
// Returns:
//   - bool: true for ErrWriteForbidden or a 403.3 RequestError
func IsWriteForbidden(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrWriteForbidden) {
		return true
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode == StatusForbidden && reqErr.SubStatus == SubStatusWriteForbidden
	}

	return false
}

// RetryExhaustedError is returned once an operation spent its whole retry
// budget on write-forbidden failures.
type RetryExhaustedError struct {
	// Attempts is the number of retries granted before giving up.
	Attempts int

	// Cause is the last write-forbidden error.
	Cause error
}

// Error implements the error interface.
func (e *RetryExhaustedError) Error() string {
	msg := "geodb: endpoint discovery retries exhausted after " +
		strconv.Itoa(e.Attempts) + " attempts"
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}

	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *RetryExhaustedError) Unwrap() error {
	return e.Cause
}
