package geodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/geodb/internal/logging"
	"github.com/arloliu/geodb/internal/metrics"
	"github.com/arloliu/geodb/policy"
)

// RequestFunc sends one request to the given regional endpoint.
//
// It must return an error classified by IsWriteForbidden when the region
// rejected a write because it is no longer the write region.
type RequestFunc func(ctx context.Context, endpoint string) error

type activityIDKey struct{}

// WithActivityID returns a context carrying the operation's activity ID.
//
// Executors reuse an activity ID found in the context instead of
// generating a new one.
func WithActivityID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, activityIDKey{}, id)
}

// ActivityID returns the activity ID carried by ctx, or "".
func ActivityID(ctx context.Context) string {
	id, _ := ctx.Value(activityIDKey{}).(string)
	return id
}

// Executor routes requests to the current regional endpoints and retries
// writes rejected after a failover.
//
// Each call gets its own policy.EndpointDiscoveryRetry, so retry budgets are
// per operation while the LocationResolver is shared. Executor is safe for
// concurrent use.
type Executor struct {
	resolver LocationResolver
	config   *ClientConfig
}

// NewExecutor creates a new Executor.
//
// Parameters:
//   - resolver: The shared topology manager (e.g., topology.Manager)
//   - opts: Optional configuration options
//
// Returns:
//   - *Executor: A new executor
//   - error: ErrNilEndpointManager if resolver is nil
func NewExecutor(resolver LocationResolver, opts ...Option) (*Executor, error) {
	if resolver == nil {
		return nil, ErrNilEndpointManager
	}

	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	// Ensure metrics is never nil
	if config.Metrics == nil {
		config.Metrics = metrics.NewNopMetrics()
	}

	// Ensure logger is never nil
	if config.Logger == nil {
		config.Logger = logging.NewNopLogger()
	}

	if config.ActivityIDProvider == nil {
		config.ActivityIDProvider = DefaultActivityIDProvider
	}

	return &Executor{
		resolver: resolver,
		config:   config,
	}, nil
}

// Config returns the executor configuration.
func (e *Executor) Config() ClientConfig {
	return *e.config
}

// ExecuteWrite sends fn to the current write endpoint.
//
// When fn fails with a write-forbidden error the topology is refreshed and
// the write is resubmitted to the new write endpoint after the retry delay,
// until it succeeds or the retry budget is spent.
//
// Parameters:
//   - ctx: Context for cancellation, also passed to topology refreshes
//   - fn: The request to send
//
// Returns:
//   - error: nil on success; fn's error if it is not write-forbidden or
//     discovery is disabled; *RetryExhaustedError wrapping the last
//     write-forbidden error when the budget is spent; the refresh error if
//     the topology could not be refreshed
func (e *Executor) ExecuteWrite(ctx context.Context, fn RequestFunc) error {
	return e.execute(ctx, "write", e.resolver.WriteEndpoint, fn)
}

// ExecuteRead sends fn to the preferred read endpoint.
//
// Reads follow the same endpoint discovery retry rules as writes.
//
// Parameters:
//   - ctx: Context for cancellation
//   - fn: The request to send
//
// Returns:
//   - error: See ExecuteWrite
func (e *Executor) ExecuteRead(ctx context.Context, fn RequestFunc) error {
	return e.execute(ctx, "read", e.resolver.ReadEndpoint, fn)
}

func (e *Executor) execute(ctx context.Context, operation string, resolve func() string, fn RequestFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id := ActivityID(ctx)
	if id == "" {
		id = e.config.ActivityIDProvider()
		ctx = WithActivityID(ctx, id)
	}
	logger := logging.With(e.config.Logger, "activity_id", id, "operation", operation)

	retry, err := policy.NewEndpointDiscoveryRetry(e.resolver,
		policy.WithMaxRetryAttempts(e.config.MaxRetryAttempts),
		policy.WithRetryAfter(e.config.RetryAfter),
		policy.WithLogger(logger),
		policy.WithMetrics(e.config.Metrics),
	)
	if err != nil {
		return err
	}

	for {
		endpoint := resolve()

		start := time.Now()
		reqErr := fn(ctx, endpoint)
		elapsed := time.Since(start).Seconds()

		e.config.Metrics.IncRequestTotal(endpoint)
		e.config.Metrics.ObserveRequestDuration(endpoint, elapsed)

		if reqErr == nil {
			return nil
		}

		e.config.Metrics.IncRequestError(endpoint)

		if !IsWriteForbidden(reqErr) {
			return reqErr
		}

		e.config.Metrics.IncWriteForbidden(endpoint)

		ok, refreshErr := retry.ShouldRetry(ctx, reqErr)
		if refreshErr != nil {
			logger.Error("endpoint list refresh failed",
				"endpoint", endpoint,
				"attempt", retry.Attempts(),
				"error", refreshErr,
			)

			return refreshErr
		}

		if !ok {
			if retry.Exhausted() {
				e.config.Metrics.IncRetryExhausted()
				logger.Error("endpoint discovery retries exhausted",
					"endpoint", endpoint,
					"attempts", retry.Attempts(),
					"error", reqErr,
				)

				return &RetryExhaustedError{Attempts: retry.Attempts(), Cause: reqErr}
			}

			return reqErr
		}

		if err := wait(ctx, retry.RetryAfter()); err != nil {
			return fmt.Errorf("geodb: retry wait interrupted: %w", errors.Join(err, reqErr))
		}
	}
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
