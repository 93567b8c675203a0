package geodb

import "github.com/arloliu/geodb/types"

// Type aliases for convenience - re-export from types package.
type (
	Location            = types.Location
	DatabaseAccount     = types.DatabaseAccount
	EndpointManager     = types.EndpointManager
	RequestError        = types.RequestError
	RetryExhaustedError = types.RetryExhaustedError
	Logger              = types.Logger
	MetricsCollector    = types.MetricsCollector
)

// Re-export sentinel errors for convenience.
var (
	ErrWriteForbidden     = types.ErrWriteForbidden
	ErrNilEndpointManager = types.ErrNilEndpointManager
	ErrAccountUnavailable = types.ErrAccountUnavailable
)

// IsWriteForbidden reports whether err means the contacted region no longer
// accepts writes. See types.IsWriteForbidden.
func IsWriteForbidden(err error) bool {
	return types.IsWriteForbidden(err)
}
