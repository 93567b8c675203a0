package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/arloliu/geodb/types"
)

// MockEndpointManager is a scriptable implementation of types.EndpointManager.
//
// It also exposes WriteEndpoint/ReadEndpoint so it can stand in for a full
// location resolver in executor tests.
type MockEndpointManager struct {
	discovery atomic.Bool
	refreshes atomic.Int64

	mu            sync.RWMutex
	refreshErr    error
	writeEndpoint string
	readEndpoint  string

	// OnRefresh, if set, runs on every refresh after the call is counted.
	// Its error takes precedence over SetRefreshError.
	OnRefresh func(ctx context.Context) error
}

// Compile-time assertion that MockEndpointManager implements types.EndpointManager.
var _ types.EndpointManager = (*MockEndpointManager)(nil)

// NewMockEndpointManager creates a mock manager with discovery enabled.
func NewMockEndpointManager() *MockEndpointManager {
	m := &MockEndpointManager{
		writeEndpoint: "https://mock-write.db.example.com:443/",
		readEndpoint:  "https://mock-read.db.example.com:443/",
	}
	m.discovery.Store(true)

	return m
}

// IsEndpointDiscoveryEnabled returns the scripted discovery flag.
func (m *MockEndpointManager) IsEndpointDiscoveryEnabled() bool {
	return m.discovery.Load()
}

// RefreshEndpointList counts the call and returns the scripted error.
func (m *MockEndpointManager) RefreshEndpointList(ctx context.Context) error {
	m.refreshes.Add(1)

	m.mu.RLock()
	hook := m.OnRefresh
	err := m.refreshErr
	m.mu.RUnlock()

	if hook != nil {
		return hook(ctx)
	}

	return err
}

// SetDiscovery enables or disables endpoint discovery.
func (m *MockEndpointManager) SetDiscovery(enabled bool) {
	m.discovery.Store(enabled)
}

// SetRefreshError makes subsequent refreshes fail with err (nil clears it).
func (m *MockEndpointManager) SetRefreshError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshErr = err
}

// Refreshes returns how many times RefreshEndpointList was called.
func (m *MockEndpointManager) Refreshes() int {
	return int(m.refreshes.Load())
}

// WriteEndpoint returns the scripted write endpoint.
func (m *MockEndpointManager) WriteEndpoint() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.writeEndpoint
}

// ReadEndpoint returns the scripted read endpoint.
func (m *MockEndpointManager) ReadEndpoint() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.readEndpoint
}

// SetWriteEndpoint changes the endpoint returned by WriteEndpoint.
func (m *MockEndpointManager) SetWriteEndpoint(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeEndpoint = endpoint
}

// SetReadEndpoint changes the endpoint returned by ReadEndpoint.
func (m *MockEndpointManager) SetReadEndpoint(endpoint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readEndpoint = endpoint
}
