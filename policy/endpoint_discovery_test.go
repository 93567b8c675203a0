package policy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/geodb/test/testutil"
	"github.com/arloliu/geodb/types"
)

func newTestPolicy(t *testing.T, manager types.EndpointManager, opts ...EndpointDiscoveryOption) *EndpointDiscoveryRetry {
	t.Helper()

	p, err := NewEndpointDiscoveryRetry(manager, opts...)
	require.NoError(t, err)

	return p
}

func TestNewEndpointDiscoveryRetryNilManager(t *testing.T) {
	p, err := NewEndpointDiscoveryRetry(nil)
	require.ErrorIs(t, err, types.ErrNilEndpointManager)
	require.Nil(t, p)
}

func TestEndpointDiscoveryRetryDefaults(t *testing.T) {
	p := newTestPolicy(t, testutil.NewMockEndpointManager())

	require.Equal(t, 120, p.MaxAttempts())
	require.Equal(t, time.Second, p.RetryAfter())
	require.Equal(t, 0, p.Attempts())
	require.False(t, p.Exhausted())
}

func TestEndpointDiscoveryRetryOptions(t *testing.T) {
	p := newTestPolicy(t, testutil.NewMockEndpointManager(),
		WithMaxRetryAttempts(3),
		WithRetryAfter(50*time.Millisecond),
	)

	require.Equal(t, 3, p.MaxAttempts())
	require.Equal(t, 50*time.Millisecond, p.RetryAfter())

	p = newTestPolicy(t, testutil.NewMockEndpointManager(), WithMaxRetryAttempts(-1))
	require.Equal(t, 0, p.MaxAttempts())
	require.True(t, p.Exhausted())
}

func TestEndpointDiscoveryRetryFirstCallGrants(t *testing.T) {
	manager := testutil.NewMockEndpointManager()
	p := newTestPolicy(t, manager)

	ok, err := p.ShouldRetry(t.Context(), types.ErrWriteForbidden)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, p.Attempts())
	require.Equal(t, 1, manager.Refreshes())
}

func TestEndpointDiscoveryRetryEachGrantRefreshesOnce(t *testing.T) {
	manager := testutil.NewMockEndpointManager()
	p := newTestPolicy(t, manager)

	for i := 1; i <= 50; i++ {
		ok, err := p.ShouldRetry(t.Context(), types.ErrWriteForbidden)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, i, p.Attempts())
		require.Equal(t, i, manager.Refreshes())
	}
}

func TestEndpointDiscoveryRetryExhaustsAfterBudget(t *testing.T) {
	manager := testutil.NewMockEndpointManager()
	p := newTestPolicy(t, manager)

	for range DefaultMaxRetryAttempts {
		ok, err := p.ShouldRetry(t.Context(), types.ErrWriteForbidden)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.True(t, p.Exhausted())
	require.Equal(t, 120, manager.Refreshes())

	// The 121st call and every later one refuse without side effects
	for range 5 {
		ok, err := p.ShouldRetry(t.Context(), types.ErrWriteForbidden)
		require.NoError(t, err)
		require.False(t, ok)
		require.Equal(t, 120, p.Attempts())
		require.Equal(t, 120, manager.Refreshes())
	}
}

func TestEndpointDiscoveryRetryPresetExhausted(t *testing.T) {
	manager := testutil.NewMockEndpointManager()
	p := newTestPolicy(t, manager)
	p.attempts.Store(120)

	ok, err := p.ShouldRetry(t.Context(), types.ErrWriteForbidden)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 120, p.Attempts())
	require.Equal(t, 0, manager.Refreshes())
}

func TestEndpointDiscoveryRetryDiscoveryDisabled(t *testing.T) {
	manager := testutil.NewMockEndpointManager()
	manager.SetDiscovery(false)
	collector := testutil.NewTestMetricsCollector()
	p := newTestPolicy(t, manager, WithMetrics(collector))
	p.attempts.Store(5)

	ok, err := p.ShouldRetry(t.Context(), types.ErrWriteForbidden)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 5, p.Attempts())
	require.Equal(t, 0, manager.Refreshes())
	require.Equal(t, int64(1), collector.DiscoveryDisabled())
	require.False(t, p.Exhausted())
}

func TestEndpointDiscoveryRetryDiscoveryReenabled(t *testing.T) {
	manager := testutil.NewMockEndpointManager()
	p := newTestPolicy(t, manager)

	manager.SetDiscovery(false)
	ok, err := p.ShouldRetry(t.Context(), types.ErrWriteForbidden)
	require.NoError(t, err)
	require.False(t, ok)

	manager.SetDiscovery(true)
	ok, err = p.ShouldRetry(t.Context(), types.ErrWriteForbidden)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, p.Attempts())
	require.Equal(t, 1, manager.Refreshes())
}

func TestEndpointDiscoveryRetryRefreshErrorPropagates(t *testing.T) {
	manager := testutil.NewMockEndpointManager()
	refreshErr := errors.New("account endpoint unreachable")
	manager.SetRefreshError(refreshErr)
	p := newTestPolicy(t, manager)

	ok, err := p.ShouldRetry(t.Context(), types.ErrWriteForbidden)
	require.False(t, ok)
	// Returned as is, not wrapped
	require.Same(t, refreshErr, err)
	// Increment happens before the refresh
	require.Equal(t, 1, p.Attempts())
	require.Equal(t, 1, manager.Refreshes())

	manager.SetRefreshError(nil)
	ok, err = p.ShouldRetry(t.Context(), types.ErrWriteForbidden)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 2, p.Attempts())
}

func TestEndpointDiscoveryRetryPassesContextToRefresh(t *testing.T) {
	type ctxKey struct{}

	manager := testutil.NewMockEndpointManager()
	var seen any
	manager.OnRefresh = func(ctx context.Context) error {
		seen = ctx.Value(ctxKey{})
		return ctx.Err()
	}
	p := newTestPolicy(t, manager)

	ctx := context.WithValue(t.Context(), ctxKey{}, "op-1")
	ok, err := p.ShouldRetry(ctx, types.ErrWriteForbidden)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "op-1", seen)

	cancelled, cancel := context.WithCancel(t.Context())
	cancel()
	ok, err = p.ShouldRetry(cancelled, types.ErrWriteForbidden)
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, ok)
}

func TestEndpointDiscoveryRetryZeroBudget(t *testing.T) {
	manager := testutil.NewMockEndpointManager()
	p := newTestPolicy(t, manager, WithMaxRetryAttempts(0))

	ok, err := p.ShouldRetry(t.Context(), types.ErrWriteForbidden)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 0, manager.Refreshes())
}

func TestEndpointDiscoveryRetryMetrics(t *testing.T) {
	manager := testutil.NewMockEndpointManager()
	collector := testutil.NewTestMetricsCollector()
	p := newTestPolicy(t, manager, WithMaxRetryAttempts(2), WithMetrics(collector))

	for range 4 {
		_, _ = p.ShouldRetry(t.Context(), types.ErrWriteForbidden)
	}

	assert.Equal(t, int64(2), collector.DiscoveryRetries())
	assert.Equal(t, int64(0), collector.DiscoveryDisabled())
}

func TestEndpointDiscoveryRetryConcurrentCallersRespectBudget(t *testing.T) {
	manager := testutil.NewMockEndpointManager()
	p := newTestPolicy(t, manager, WithMaxRetryAttempts(25))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				ok, err := p.ShouldRetry(t.Context(), types.ErrWriteForbidden)
				if err == nil && ok {
					mu.Lock()
					granted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 25, granted)
	require.Equal(t, 25, p.Attempts())
	require.Equal(t, 25, manager.Refreshes())
	require.True(t, p.Exhausted())
}
