package geodb

import (
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/geodb/internal/logging"
	"github.com/arloliu/geodb/internal/metrics"
	"github.com/arloliu/geodb/policy"
)

// ActivityIDProvider generates the identifier attached to every operation.
//
// The default provider returns a random UUID.
type ActivityIDProvider func() string

// DefaultActivityIDProvider returns a new random UUID string.
func DefaultActivityIDProvider() string {
	return uuid.NewString()
}

// ClientConfig holds configuration for geodb executors.
type ClientConfig struct {
	MaxRetryAttempts   int
	RetryAfter         time.Duration
	ActivityIDProvider ActivityIDProvider
	Metrics            MetricsCollector
	Logger             Logger
}

// DefaultConfig returns a ClientConfig with sensible defaults.
//
// Defaults:
//   - MaxRetryAttempts: 120 endpoint discovery retries per operation
//   - RetryAfter: 1s between retries
//   - ActivityIDProvider: random UUIDs
//   - Metrics/Logger: no-op
//
// Returns:
//   - *ClientConfig: Configuration with default settings
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		MaxRetryAttempts:   policy.DefaultMaxRetryAttempts,
		RetryAfter:         policy.DefaultRetryAfter,
		ActivityIDProvider: DefaultActivityIDProvider,
		Metrics:            metrics.NewNopMetrics(),
		Logger:             logging.NewNopLogger(),
	}
}

// Option configures a ClientConfig.
type Option func(*ClientConfig)

// WithMaxRetryAttempts sets the endpoint discovery retry budget per operation.
//
// Parameters:
//   - n: Maximum number of retries after write-forbidden failures
//
// Returns:
//   - Option: Configuration option
func WithMaxRetryAttempts(n int) Option {
	return func(c *ClientConfig) {
		c.MaxRetryAttempts = n
	}
}

// WithRetryAfter sets the delay between a topology refresh and the resubmission.
//
// Parameters:
//   - d: Delay before resubmitting (zero resubmits immediately)
//
// Returns:
//   - Option: Configuration option
func WithRetryAfter(d time.Duration) Option {
	return func(c *ClientConfig) {
		c.RetryAfter = d
	}
}

// WithActivityIDProvider sets the operation identifier generator.
//
// Parameters:
//   - fn: Function returning a new activity ID
//
// Returns:
//   - Option: Configuration option
func WithActivityIDProvider(fn ActivityIDProvider) Option {
	return func(c *ClientConfig) {
		c.ActivityIDProvider = fn
	}
}

// WithMetrics sets the metrics collector.
//
// If not set, a no-op collector is used that discards all metrics.
// Use contrib/metrics/vm.New() for VictoriaMetrics integration.
//
// Parameters:
//   - collector: The metrics collector implementation
//
// Returns:
//   - Option: Configuration option
func WithMetrics(collector MetricsCollector) Option {
	return func(c *ClientConfig) {
		c.Metrics = collector
	}
}

// WithLogger sets the structured logger.
//
// If not set, a no-op logger is used that discards all messages.
// *slog.Logger satisfies the Logger interface.
//
// Parameters:
//   - logger: The logger implementation
//
// Returns:
//   - Option: Configuration option
//
// Example:
//
//	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
//	executor, _ := geodb.NewExecutor(manager,
//	    geodb.WithLogger(logger),
//	)
func WithLogger(logger Logger) Option {
	return func(c *ClientConfig) {
		c.Logger = logger
	}
}
