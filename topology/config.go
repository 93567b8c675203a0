package topology

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/arloliu/geodb"
	"github.com/arloliu/geodb/types"
)

// ManagerConfig holds configuration for a topology Manager.
type ManagerConfig struct {
	// DefaultEndpoint is the account's global endpoint. Requests go here
	// when discovery is disabled or no topology is known yet.
	DefaultEndpoint string

	// PreferredLocations orders the regions used for reads and as fallback
	// endpoints when the default endpoint cannot serve the account topology.
	PreferredLocations []string

	// EnableEndpointDiscovery turns dynamic region discovery on.
	// Default: true
	EnableEndpointDiscovery bool

	// RefreshTimeout bounds one topology fetch, independent of the caller's
	// context. Zero or negative disables the bound.
	// Default: 10 seconds
	RefreshTimeout time.Duration

	// RefreshRate limits how often the account topology is fetched.
	// Default: rate.Inf (unlimited)
	RefreshRate rate.Limit

	// RefreshBurst is the burst size for RefreshRate.
	// Default: 1
	RefreshBurst int

	Logger  types.Logger
	Metrics types.MetricsCollector
}

// DefaultManagerConfig returns a ManagerConfig with sensible defaults.
//
// Returns:
//   - ManagerConfig: Default configuration
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		EnableEndpointDiscovery: true,
		RefreshTimeout:          10 * time.Second,
		RefreshRate:             rate.Inf,
		RefreshBurst:            1,
	}
}

// ManagerOption configures a topology Manager.
type ManagerOption func(*ManagerConfig)

// WithDefaultEndpoint sets the account's global endpoint.
//
// Parameters:
//   - endpoint: e.g., "https://orders.db.example.com:443/"
//
// Returns:
//   - ManagerOption: Configuration option
func WithDefaultEndpoint(endpoint string) ManagerOption {
	return func(c *ManagerConfig) {
		c.DefaultEndpoint = endpoint
	}
}

// WithPreferredLocations sets the ordered list of preferred regions.
//
// Parameters:
//   - locations: Region names, most preferred first
//
// Returns:
//   - ManagerOption: Configuration option
func WithPreferredLocations(locations ...string) ManagerOption {
	return func(c *ManagerConfig) {
		c.PreferredLocations = append([]string(nil), locations...)
	}
}

// WithEndpointDiscovery enables or disables dynamic region discovery.
//
// Parameters:
//   - enabled: false pins all requests to the default endpoint
//
// Returns:
//   - ManagerOption: Configuration option
func WithEndpointDiscovery(enabled bool) ManagerOption {
	return func(c *ManagerConfig) {
		c.EnableEndpointDiscovery = enabled
	}
}

// WithRefreshTimeout bounds each topology fetch.
//
// Parameters:
//   - d: Timeout duration
//
// Returns:
//   - ManagerOption: Configuration option
func WithRefreshTimeout(d time.Duration) ManagerOption {
	return func(c *ManagerConfig) {
		c.RefreshTimeout = d
	}
}

// WithRefreshRateLimit limits how often the account topology is fetched.
//
// Refreshes beyond the limit wait for a token instead of being skipped.
//
// Parameters:
//   - perSecond: Sustained fetches per second
//   - burst: Maximum burst size (values below 1 are treated as 1)
//
// Returns:
//   - ManagerOption: Configuration option
func WithRefreshRateLimit(perSecond float64, burst int) ManagerOption {
	return func(c *ManagerConfig) {
		c.RefreshRate = rate.Limit(perSecond)
		c.RefreshBurst = max(burst, 1)
	}
}

// WithManagerLogger sets the logger for the manager.
//
// Parameters:
//   - l: The logger
//
// Returns:
//   - ManagerOption: Configuration option
func WithManagerLogger(l types.Logger) ManagerOption {
	return func(c *ManagerConfig) {
		c.Logger = l
	}
}

// WithManagerMetrics sets the metrics collector for the manager.
//
// Parameters:
//   - m: The metrics collector
//
// Returns:
//   - ManagerOption: Configuration option
func WithManagerMetrics(m types.MetricsCollector) ManagerOption {
	return func(c *ManagerConfig) {
		c.Metrics = m
	}
}

// FromFileConfig converts a YAML file configuration into manager options.
//
// Parameters:
//   - cfg: A validated file configuration
//
// Returns:
//   - []ManagerOption: Options for NewManager
func FromFileConfig(cfg *geodb.FileConfig) []ManagerOption {
	opts := []ManagerOption{
		WithDefaultEndpoint(cfg.Endpoint),
		WithPreferredLocations(cfg.PreferredLocations...),
		WithEndpointDiscovery(cfg.DiscoveryEnabled()),
	}
	if cfg.Refresh.Timeout > 0 {
		opts = append(opts, WithRefreshTimeout(cfg.Refresh.Timeout))
	}
	if cfg.Refresh.RatePerSecond > 0 {
		opts = append(opts, WithRefreshRateLimit(cfg.Refresh.RatePerSecond, cfg.Refresh.Burst))
	}

	return opts
}

// NATSConfig holds configuration for the NATS account topology source.
type NATSConfig struct {
	// Key is the NATS KV key holding the account topology document.
	// Default: "geodb.topology.account"
	Key string

	// PollInterval is the fallback polling interval if watch fails.
	// Default: 5 seconds
	PollInterval time.Duration

	// FetchTimeout bounds a single KV read.
	// Default: 10 seconds
	FetchTimeout time.Duration
}

// DefaultNATSConfig returns a NATSConfig with sensible defaults.
//
// Returns:
//   - NATSConfig: Default configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		Key:          "geodb.topology.account",
		PollInterval: 5 * time.Second,
		FetchTimeout: 10 * time.Second,
	}
}

// NATSOption configures a NATS topology source.
type NATSOption func(*NATSConfig)

// WithKey sets the NATS KV key holding the account document.
//
// Parameters:
//   - key: The key name (e.g., "orders.topology")
//
// Returns:
//   - NATSOption: Configuration option
func WithKey(key string) NATSOption {
	return func(c *NATSConfig) {
		c.Key = key
	}
}

// WithPollInterval sets the fallback polling interval.
//
// If the NATS watch fails or disconnects, the source falls back to
// polling at this interval. Zero or negative keeps the default.
//
// Parameters:
//   - d: Polling interval duration
//
// Returns:
//   - NATSOption: Configuration option
func WithPollInterval(d time.Duration) NATSOption {
	return func(c *NATSConfig) {
		c.PollInterval = d
	}
}

// WithFetchTimeout sets the timeout for a single KV read.
//
// Parameters:
//   - d: Timeout duration
//
// Returns:
//   - NATSOption: Configuration option
func WithFetchTimeout(d time.Duration) NATSOption {
	return func(c *NATSConfig) {
		c.FetchTimeout = d
	}
}
