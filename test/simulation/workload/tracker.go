package workload

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/geodb/types"
)

// Store is the service side of a write, used for verification.
type Store interface {
	// Stored reports which endpoint accepted the record, if any.
	Stored(id uuid.UUID) (string, bool)
}

// WriteTracker tracks acknowledged writes and failed operations.
type WriteTracker struct {
	mu     sync.RWMutex
	writes map[uuid.UUID]int64 // key -> timestamp (unix nanos)

	exhausted atomic.Int64
	forbidden atomic.Int64
	failed    atomic.Int64
}

// NewWriteTracker creates a new write tracker.
func NewWriteTracker() *WriteTracker {
	return &WriteTracker{
		writes: make(map[uuid.UUID]int64),
	}
}

// TrackWrite records an acknowledged write.
func (t *WriteTracker) TrackWrite(key uuid.UUID, timestampUnixNano int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes[key] = timestampUnixNano
}

// TrackFailure classifies an operation error.
func (t *WriteTracker) TrackFailure(err error) {
	var exhausted *types.RetryExhaustedError
	switch {
	case errors.As(err, &exhausted):
		t.exhausted.Add(1)
	case types.IsWriteForbidden(err):
		// Returned as is when discovery is disabled
		t.forbidden.Add(1)
	default:
		t.failed.Add(1)
	}
}

// Count returns the number of currently tracked writes.
func (t *WriteTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.writes)
}

// Exhausted returns the number of operations that spent their retry budget.
func (t *WriteTracker) Exhausted() int64 { return t.exhausted.Load() }

// Forbidden returns the number of operations that gave up on write-forbidden without retrying.
func (t *WriteTracker) Forbidden() int64 { return t.forbidden.Load() }

// Failed returns the number of operations that failed for any other reason.
func (t *WriteTracker) Failed() int64 { return t.failed.Load() }

// VerifyAndPrune verifies writes older than minAge and removes them to save memory.
// This is essential for long-running soak tests.
func (t *WriteTracker) VerifyAndPrune(store Store, minAge time.Duration) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoffNano := time.Now().UnixNano() - minAge.Nanoseconds()
	pruned := 0
	missing := 0

	for key, ts := range t.writes {
		if ts >= cutoffNano {
			continue
		}
		if _, ok := store.Stored(key); !ok {
			missing++
		}

		// Remove regardless of result to bound memory
		delete(t.writes, key)
		pruned++
	}

	if missing > 0 {
		return pruned, fmt.Errorf("consistency check failed during pruning: missing=%d", missing)
	}

	return pruned, nil
}

// VerifyConsistency checks that every acknowledged write was stored.
func (t *WriteTracker) VerifyConsistency(store Store) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	missing := 0
	for key := range t.writes {
		if _, ok := store.Stored(key); !ok {
			missing++
		}
	}

	if missing > 0 {
		return fmt.Errorf("consistency check failed: missing %d of %d acknowledged writes", missing, len(t.writes))
	}

	return nil
}
