package chaos

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/geodb/types"
)

// ErrDropped is returned for requests dropped by DropRate.
var ErrDropped = errors.New("chaos: request dropped")

// ServiceConfig holds the chaos configuration for the service.
type ServiceConfig struct {
	LatencyFunc func(endpoint string) time.Duration // Return 0 for no delay
	ErrorFunc   func(endpoint string) error         // Return nil for no error
	DropRate    float64                             // 0.0-1.0 probability to drop
}

// AccountFunc returns the account topology as the service currently sees it.
type AccountFunc func() types.DatabaseAccount

// Service is an in-memory regional database service.
//
// Writes are accepted only on the endpoint of the current write region;
// every other endpoint answers with a write-forbidden RequestError, the way
// a real account does right after a failover.
type Service struct {
	account AccountFunc
	config  atomic.Pointer[ServiceConfig]

	mu     sync.RWMutex
	stored map[uuid.UUID]string // id -> endpoint that accepted it

	rejected atomic.Int64
	dropped  atomic.Int64
}

// NewService creates a service that follows the given account topology.
func NewService(account AccountFunc) *Service {
	return &Service{
		account: account,
		stored:  make(map[uuid.UUID]string),
	}
}

// SetConfig updates the chaos configuration for the service.
func (s *Service) SetConfig(cfg ServiceConfig) {
	s.config.Store(&cfg)
}

// Write stores a record through endpoint.
func (s *Service) Write(ctx context.Context, endpoint string, id uuid.UUID) error {
	if err := s.injectChaos(ctx, endpoint); err != nil {
		return err
	}

	write, ok := s.account().WriteLocation()
	if !ok || write.Endpoint != endpoint {
		s.rejected.Add(1)

		return &types.RequestError{
			StatusCode: types.StatusForbidden,
			SubStatus:  types.SubStatusWriteForbidden,
			Endpoint:   endpoint,
		}
	}

	s.mu.Lock()
	s.stored[id] = endpoint
	s.mu.Unlock()

	return nil
}

// Stored reports which endpoint accepted the record, if any.
func (s *Service) Stored(id uuid.UUID) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	endpoint, ok := s.stored[id]

	return endpoint, ok
}

// Count returns the number of stored records.
func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.stored)
}

// Rejected returns the number of write-forbidden answers.
func (s *Service) Rejected() int64 {
	return s.rejected.Load()
}

// Dropped returns the number of requests dropped by DropRate.
func (s *Service) Dropped() int64 {
	return s.dropped.Load()
}

func (s *Service) injectChaos(ctx context.Context, endpoint string) error {
	cfg := s.config.Load()
	if cfg == nil {
		return ctx.Err()
	}

	if cfg.LatencyFunc != nil {
		if d := cfg.LatencyFunc(endpoint); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	if cfg.DropRate > 0 {
		// Use crypto/rand for better randomness distribution
		n, _ := rand.Int(rand.Reader, big.NewInt(1000000))
		if float64(n.Int64())/1000000.0 < cfg.DropRate {
			s.dropped.Add(1)
			return ErrDropped
		}
	}
	if cfg.ErrorFunc != nil {
		if err := cfg.ErrorFunc(endpoint); err != nil {
			return err
		}
	}

	return ctx.Err()
}
