package policy

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/arloliu/geodb/internal/logging"
	"github.com/arloliu/geodb/internal/metrics"
	"github.com/arloliu/geodb/types"
)

const (
	// DefaultMaxRetryAttempts is the retry budget of a single operation.
	DefaultMaxRetryAttempts = 120

	// DefaultRetryAfter is the advisory delay before resubmitting a write.
	DefaultRetryAfter = 1000 * time.Millisecond
)

// EndpointDiscoveryRetry decides whether a write rejected by a region that is
// no longer writable should be retried after refreshing the region topology.
//
// Create one instance per logical operation. Each granted retry increments
// the attempt counter and refreshes the shared topology manager exactly once;
// after maxRetryAttempts grants the policy is exhausted and refuses every
// further retry without side effects.
//
// The counter is advanced with compare-and-swap, so sharing an instance
// between goroutines cannot exceed the budget or lose a grant. Refreshes
// issued by concurrent grants are not coalesced here.
type EndpointDiscoveryRetry struct {
	manager          types.EndpointManager
	maxRetryAttempts int64
	retryAfter       time.Duration
	logger           types.Logger
	metrics          types.MetricsCollector
	attempts         atomic.Int64
}

// EndpointDiscoveryOption configures an EndpointDiscoveryRetry policy.
type EndpointDiscoveryOption func(*EndpointDiscoveryRetry)

// WithMaxRetryAttempts sets the retry budget.
//
// Negative values are treated as zero, which refuses every retry.
//
// Parameters:
//   - n: Maximum number of granted retries
//
// Returns:
//   - EndpointDiscoveryOption: Configuration option
func WithMaxRetryAttempts(n int) EndpointDiscoveryOption {
	return func(p *EndpointDiscoveryRetry) {
		p.maxRetryAttempts = int64(max(n, 0))
	}
}

// WithRetryAfter sets the advisory delay reported by RetryAfter.
//
// Parameters:
//   - d: Delay the caller should wait before resubmitting
//
// Returns:
//   - EndpointDiscoveryOption: Configuration option
func WithRetryAfter(d time.Duration) EndpointDiscoveryOption {
	return func(p *EndpointDiscoveryRetry) {
		p.retryAfter = d
	}
}

// WithLogger sets the logger for the policy.
//
// Parameters:
//   - l: The logger
//
// Returns:
//   - EndpointDiscoveryOption: Configuration option
func WithLogger(l types.Logger) EndpointDiscoveryOption {
	return func(p *EndpointDiscoveryRetry) {
		p.logger = l
	}
}

// WithMetrics sets the metrics collector for the policy.
//
// Parameters:
//   - m: The metrics collector
//
// Returns:
//   - EndpointDiscoveryOption: Configuration option
func WithMetrics(m types.MetricsCollector) EndpointDiscoveryOption {
	return func(p *EndpointDiscoveryRetry) {
		p.metrics = m
	}
}

// NewEndpointDiscoveryRetry creates a new EndpointDiscoveryRetry policy.
//
// Defaults: maxRetryAttempts=120, retryAfter=1s
//
// Parameters:
//   - manager: The shared topology manager
//   - opts: Optional configuration options
//
// Returns:
//   - *EndpointDiscoveryRetry: A new policy with zero attempts
//   - error: types.ErrNilEndpointManager if manager is nil
func NewEndpointDiscoveryRetry(manager types.EndpointManager, opts ...EndpointDiscoveryOption) (*EndpointDiscoveryRetry, error) {
	if manager == nil {
		return nil, types.ErrNilEndpointManager
	}

	p := &EndpointDiscoveryRetry{
		manager:          manager,
		maxRetryAttempts: DefaultMaxRetryAttempts,
		retryAfter:       DefaultRetryAfter,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure metrics is never nil
	if p.metrics == nil {
		p.metrics = metrics.NewNopMetrics()
	}

	// Ensure logger is never nil
	if p.logger == nil {
		p.logger = logging.NewNopLogger()
	}

	return p, nil
}

// ShouldRetry decides whether the write that failed with err should be resubmitted.
//
// The caller classifies err as write-forbidden before calling; the policy
// does not inspect it. A retry is refused when the budget is spent or when
// endpoint discovery is disabled. Otherwise the attempt counter is
// incremented and the topology is refreshed synchronously before returning.
//
// A refresh failure is returned unmodified with false. The counter keeps
// the increment made before the refresh.
//
// Parameters:
//   - ctx: Context passed to the topology refresh
//   - err: The write-forbidden failure (unused)
//
// Returns:
//   - bool: true if the caller should resubmit after RetryAfter
//   - error: The refresh error, if any
func (p *EndpointDiscoveryRetry) ShouldRetry(ctx context.Context, _ error) (bool, error) {
	for {
		current := p.attempts.Load()
		if current >= p.maxRetryAttempts {
			return false, nil
		}

		if !p.manager.IsEndpointDiscoveryEnabled() {
			p.metrics.IncDiscoveryDisabled()
			return false, nil
		}

		if !p.attempts.CompareAndSwap(current, current+1) {
			continue
		}

		p.metrics.IncDiscoveryRetry()
		p.logger.Info("write location changed, refreshing endpoint list before retry",
			"attempt", current+1,
			"max_attempts", p.maxRetryAttempts,
		)

		if err := p.manager.RefreshEndpointList(ctx); err != nil {
			return false, err
		}

		return true, nil
	}
}

// RetryAfter returns the advisory delay before resubmitting.
//
// The policy never sleeps; honoring the delay is up to the caller.
func (p *EndpointDiscoveryRetry) RetryAfter() time.Duration {
	return p.retryAfter
}

// Attempts returns the number of retries granted so far.
func (p *EndpointDiscoveryRetry) Attempts() int {
	return int(p.attempts.Load())
}

// MaxAttempts returns the retry budget.
func (p *EndpointDiscoveryRetry) MaxAttempts() int {
	return int(p.maxRetryAttempts)
}

// Exhausted reports whether the retry budget is spent.
//
// Once true it stays true for the lifetime of the policy.
func (p *EndpointDiscoveryRetry) Exhausted() bool {
	return p.attempts.Load() >= p.maxRetryAttempts
}
