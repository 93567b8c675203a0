package scenarios

import (
	"context"
	"time"
)

// pollInterval is how often waitUntil re-checks its condition.
const pollInterval = 20 * time.Millisecond

func waitUntil(ctx context.Context, timeout time.Duration, condition func() bool) error {
	if condition() {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return context.DeadlineExceeded
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}

// hold blocks for d or until ctx is done.
func hold(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}

	return def
}
