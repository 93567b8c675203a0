package topology

import (
	"context"
	"sync"

	"github.com/arloliu/geodb"
	"github.com/arloliu/geodb/types"
)

// Local provides an in-memory account topology source and operator for testing.
//
// Unlike NATS, this implementation allows programmatic control of the
// account document and of per-endpoint failures, making it ideal for unit
// tests and demos. It implements both AccountReader (for a Manager) and
// geodb.TopologyOperator (for driving failovers).
type Local struct {
	mu             sync.RWMutex
	account        types.DatabaseAccount
	readErr        error
	endpointErrors map[string]error
	endpoints      []string
	reads          int
}

var (
	_ AccountReader          = (*Local)(nil)
	_ geodb.TopologyOperator = (*Local)(nil)
)

// NewLocal creates a new in-memory topology source.
//
// Parameters:
//   - account: The initial account topology
//
// Returns:
//   - *Local: A new local topology instance
func NewLocal(account types.DatabaseAccount) *Local {
	return &Local{
		account:        account.Clone(),
		endpointErrors: make(map[string]error),
	}
}

// ReadAccount returns the current account document.
//
// Every call is recorded, successful or not. A per-endpoint error set with
// SetEndpointError takes precedence over the global error from SetReadError.
//
// Parameters:
//   - ctx: Context for cancellation
//   - endpoint: The endpoint being asked
//
// Returns:
//   - types.DatabaseAccount: A copy of the account
//   - error: The configured error, or ctx's error
func (l *Local) ReadAccount(ctx context.Context, endpoint string) (types.DatabaseAccount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.reads++
	l.endpoints = append(l.endpoints, endpoint)

	if err := ctx.Err(); err != nil {
		return types.DatabaseAccount{}, err
	}
	if err, ok := l.endpointErrors[endpoint]; ok {
		return types.DatabaseAccount{}, err
	}
	if l.readErr != nil {
		return types.DatabaseAccount{}, l.readErr
	}

	return l.account.Clone(), nil
}

// SetAccount replaces the account document.
//
// Parameters:
//   - account: The new account topology
func (l *Local) SetAccount(account types.DatabaseAccount) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.account = account.Clone()
}

// Account returns a copy of the current account document.
func (l *Local) Account() types.DatabaseAccount {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.account.Clone()
}

// SetReadError makes every read fail with err. Pass nil to clear.
func (l *Local) SetReadError(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.readErr = err
}

// SetEndpointError makes reads through one endpoint fail with err.
// Pass nil to clear.
func (l *Local) SetEndpointError(endpoint string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err == nil {
		delete(l.endpointErrors, endpoint)
		return
	}
	l.endpointErrors[endpoint] = err
}

// Failover makes the named location the sole write region.
//
// Parameters:
//   - ctx: Context for cancellation. For the local in-memory implementation,
//     this parameter is accepted for interface compliance but not used.
//   - location: The region to promote
//
// Returns:
//   - error: types.ErrUnknownLocation if the account has no such region
func (l *Local) Failover(_ context.Context, location string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	promoted, err := promote(l.account, location)
	if err != nil {
		return err
	}
	l.account = promoted

	return nil
}

// Reads returns how many times ReadAccount was called.
func (l *Local) Reads() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.reads
}

// Endpoints returns the endpoints asked so far, in call order.
func (l *Local) Endpoints() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]string(nil), l.endpoints...)
}
