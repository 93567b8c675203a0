package topology

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/arloliu/geodb"
	"github.com/arloliu/geodb/internal/logging"
	"github.com/arloliu/geodb/internal/metrics"
	"github.com/arloliu/geodb/types"
)

// AccountReader fetches the account topology from the database service.
//
// Implementations MUST be safe for concurrent use.
type AccountReader interface {
	// ReadAccount fetches the account document through the given endpoint.
	//
	// Parameters:
	//   - ctx: Context for cancellation and deadline
	//   - endpoint: The endpoint to ask (global or regional)
	//
	// Returns:
	//   - types.DatabaseAccount: The account topology
	//   - error: Error if the endpoint could not serve it
	ReadAccount(ctx context.Context, endpoint string) (types.DatabaseAccount, error)
}

// Manager is the client-wide view of which regions are readable and writable.
//
// It implements types.EndpointManager for the endpoint discovery retry policy
// and geodb.LocationResolver for the executor. One Manager is shared by every
// operation of a client; all methods are safe for concurrent use.
//
// Concurrent refreshes are coalesced. A caller only accepts the result of a
// fetch that started after it entered; callers arriving while a fetch is in
// flight wait for it and then share one follow-up fetch.
type Manager struct {
	reader  AccountReader
	config  ManagerConfig
	limiter *rate.Limiter
	group   singleflight.Group

	discovery atomic.Bool
	fetches   atomic.Uint64

	mu            sync.RWMutex
	cache         locationCache
	refreshedAt   time.Time
	updates       chan geodb.TopologyUpdate
	done          chan struct{}
	watchStarted  bool
	closed        bool
	updatesClosed bool
}

var (
	_ types.EndpointManager  = (*Manager)(nil)
	_ geodb.LocationResolver = (*Manager)(nil)
	_ geodb.TopologyWatcher  = (*Manager)(nil)
)

// NewManager creates a new topology manager.
//
// The manager starts without a known topology and resolves every request to
// the default endpoint until the first successful refresh. Call
// RefreshEndpointList once at startup to populate it.
//
// Parameters:
//   - reader: Source of the account topology (e.g., NATS, Local)
//   - opts: Configuration options; WithDefaultEndpoint is required
//
// Returns:
//   - *Manager: A new manager
//   - error: types.ErrNilAccountReader or types.ErrNoDefaultEndpoint
//
// Example:
//
//	manager, _ := topology.NewManager(source,
//	    topology.WithDefaultEndpoint("https://orders.db.example.com:443/"),
//	    topology.WithPreferredLocations("West US", "East US"),
//	)
//	_ = manager.RefreshEndpointList(ctx)
func NewManager(reader AccountReader, opts ...ManagerOption) (*Manager, error) {
	if reader == nil {
		return nil, types.ErrNilAccountReader
	}

	config := DefaultManagerConfig()
	for _, opt := range opts {
		opt(&config)
	}

	if config.DefaultEndpoint == "" {
		return nil, types.ErrNoDefaultEndpoint
	}

	// Ensure metrics is never nil
	if config.Metrics == nil {
		config.Metrics = metrics.NewNopMetrics()
	}

	// Ensure logger is never nil
	if config.Logger == nil {
		config.Logger = logging.NewNopLogger()
	}

	m := &Manager{
		reader: reader,
		config: config,
		cache: locationCache{
			defaultEndpoint: config.DefaultEndpoint,
			preferred:       config.PreferredLocations,
		},
		updates: make(chan geodb.TopologyUpdate, 10),
		done:    make(chan struct{}),
	}
	m.discovery.Store(config.EnableEndpointDiscovery)

	if config.RefreshRate != rate.Inf {
		m.limiter = rate.NewLimiter(config.RefreshRate, max(config.RefreshBurst, 1))
	}

	return m, nil
}

// Config returns the manager configuration.
//
// This method is primarily useful for testing to verify configuration options.
func (m *Manager) Config() ManagerConfig {
	return m.config
}

// IsEndpointDiscoveryEnabled reports whether regions are discovered dynamically.
func (m *Manager) IsEndpointDiscoveryEnabled() bool {
	return m.discovery.Load()
}

// SetEndpointDiscovery enables or disables dynamic region discovery.
//
// Takes effect for the next endpoint resolution and retry decision.
//
// Parameters:
//   - enabled: false pins all requests to the default endpoint
func (m *Manager) SetEndpointDiscovery(enabled bool) {
	if m.discovery.Swap(enabled) != enabled {
		m.config.Logger.Info("endpoint discovery toggled", "enabled", enabled)
	}
}

// RefreshEndpointList fetches the account topology and updates the endpoints.
//
// With discovery disabled this is a no-op. The default endpoint is asked
// first, then the regional endpoint of each preferred location, until one
// serves the account. Concurrent calls share a single fetch, but a fetch
// that started before this call is never trusted: its document may predate
// the failover the caller just observed. Each caller stops waiting when its
// own ctx is done.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: types.ErrAccountUnavailable joined with the last fetch error,
//     types.ErrManagerClosed, or ctx's error
func (m *Manager) RefreshEndpointList(ctx context.Context) error {
	if m.isClosed() {
		return types.ErrManagerClosed
	}

	if !m.IsEndpointDiscoveryEnabled() {
		return nil
	}

	entered := m.fetches.Load()
	for {
		ch := m.group.DoChan("refresh", func() (any, error) {
			generation := m.fetches.Add(1)

			// The shared fetch must outlive the first caller's cancellation
			fetchCtx := context.WithoutCancel(ctx)
			if m.config.RefreshTimeout > 0 {
				var cancel context.CancelFunc
				fetchCtx, cancel = context.WithTimeout(fetchCtx, m.config.RefreshTimeout)
				defer cancel()
			}

			return generation, m.refresh(fetchCtx)
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case res := <-ch:
			if generation, _ := res.Val.(uint64); generation <= entered {
				// Joined a fetch that began before this call
				continue
			}

			return res.Err
		}
	}
}

// refresh performs one rate-limited topology fetch and applies the result.
func (m *Manager) refresh(ctx context.Context) error {
	if m.limiter != nil {
		if err := m.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	m.mu.RLock()
	candidates := m.cache.candidates()
	m.mu.RUnlock()

	start := time.Now()
	m.config.Metrics.IncTopologyRefresh()

	account, err := m.fetchAccount(ctx, candidates)
	m.config.Metrics.ObserveTopologyRefreshDuration(time.Since(start).Seconds())
	if err != nil {
		m.config.Metrics.IncTopologyRefreshError()
		m.config.Logger.Warn("failed to refresh endpoint list",
			"endpoints", len(candidates),
			"error", err,
		)

		return err
	}

	m.apply(account)

	return nil
}

// fetchAccount asks each candidate endpoint in turn.
func (m *Manager) fetchAccount(ctx context.Context, candidates []string) (types.DatabaseAccount, error) {
	var lastErr error
	for _, endpoint := range candidates {
		account, err := m.reader.ReadAccount(ctx, endpoint)
		if err == nil {
			return account, nil
		}

		lastErr = err
		m.config.Logger.Debug("account endpoint unavailable",
			"endpoint", endpoint,
			"error", err,
		)

		if ctx.Err() != nil {
			break
		}
	}

	return types.DatabaseAccount{}, fmt.Errorf("%w: %w", types.ErrAccountUnavailable, lastErr)
}

// apply replaces the cached topology and publishes a write location change.
func (m *Manager) apply(account types.DatabaseAccount) {
	m.mu.Lock()
	previous, hadPrevious := m.cache.account.WriteLocation()
	hadPrevious = hadPrevious && m.cache.known

	m.cache.account = account.Clone()
	m.cache.known = true
	m.refreshedAt = time.Now()

	current, hasCurrent := account.WriteLocation()
	changed := hadPrevious && hasCurrent && previous != current

	if changed && !m.updatesClosed {
		// Non-blocking; watchers that fall behind miss intermediate changes
		select {
		case m.updates <- geodb.TopologyUpdate{
			Previous: previous,
			Current:  current,
			Account:  account.Clone(),
		}:
		default:
		}
	}
	m.mu.Unlock()

	if changed {
		m.config.Metrics.IncWriteLocationChanged(previous.Name, current.Name)
		m.config.Logger.Warn("write location changed",
			"from", previous.Name,
			"to", current.Name,
			"endpoint", current.Endpoint,
		)
	}
}

// Sync applies account snapshots pushed by a source such as NATS.Watch.
//
// It blocks until snapshots is closed, ctx is done, or the manager is closed.
// Snapshots are applied even while discovery is disabled; they only affect
// endpoint resolution once discovery is enabled again.
//
// Parameters:
//   - ctx: Context for cancellation
//   - snapshots: Channel of account documents
//
// Returns:
//   - error: nil when snapshots is closed, ctx's error, or types.ErrManagerClosed
func (m *Manager) Sync(ctx context.Context, snapshots <-chan types.DatabaseAccount) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return types.ErrManagerClosed
		case account, ok := <-snapshots:
			if !ok {
				return nil
			}
			m.apply(account)
		}
	}
}

// WriteEndpoint returns the endpoint of the current write region.
//
// Falls back to the default endpoint when discovery is disabled or no
// write region is known.
func (m *Manager) WriteEndpoint() string {
	if !m.IsEndpointDiscoveryEnabled() {
		return m.config.DefaultEndpoint
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.cache.writeEndpoint()
}

// ReadEndpoint returns the endpoint reads should be sent to.
//
// The first preferred location that is readable wins, then the first
// readable location, then the write endpoint. With discovery disabled the
// default endpoint is returned.
func (m *Manager) ReadEndpoint() string {
	if !m.IsEndpointDiscoveryEnabled() {
		return m.config.DefaultEndpoint
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.cache.readEndpoint()
}

// Account returns a copy of the last known account topology.
//
// Returns:
//   - types.DatabaseAccount: The topology
//   - bool: false if no refresh has succeeded yet
func (m *Manager) Account() (types.DatabaseAccount, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.cache.account.Clone(), m.cache.known
}

// LastRefresh returns when the topology was last updated, or the zero time.
func (m *Manager) LastRefresh() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.refreshedAt
}

// Watch returns a channel that receives write location changes.
//
// The channel is closed when Close() is called or the context is cancelled.
// Multiple calls to Watch return the same channel; only the first call's
// context controls the watch lifecycle.
//
// Parameters:
//   - ctx: Context for cancellation (only used on first call)
//
// Returns:
//   - <-chan geodb.TopologyUpdate: Channel of topology changes
func (m *Manager) Watch(ctx context.Context) <-chan geodb.TopologyUpdate {
	m.mu.Lock()
	if !m.watchStarted && !m.closed {
		m.watchStarted = true
		go m.waitForClose(ctx)
	}
	m.mu.Unlock()

	return m.updates
}

// Close stops the manager and releases resources.
//
// This method is safe to call multiple times. Refreshes after Close fail
// with types.ErrManagerClosed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	close(m.done)

	if !m.watchStarted && !m.updatesClosed {
		m.updatesClosed = true
		close(m.updates)
	}

	return nil
}

func (m *Manager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.closed
}

// waitForClose waits for context cancellation or close signal.
func (m *Manager) waitForClose(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-m.done:
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.updatesClosed {
		m.updatesClosed = true
		close(m.updates)
	}
}
