// Package testutil provides test utilities and mock implementations for geodb testing.
//
// Mocks in this package depend only on the types package so that tests in
// any geodb package, including policy, can import them without cycles.
//
// # Mock Implementations
//
//   - [MockEndpointManager]: Scriptable topology manager that counts refreshes
//   - [TestMetricsCollector]: Records every metric call for assertions
//
// # Usage
//
//	manager := testutil.NewMockEndpointManager()
//	manager.SetRefreshError(errors.New("account endpoint unreachable"))
//
//	retry, _ := policy.NewEndpointDiscoveryRetry(manager)
//	ok, err := retry.ShouldRetry(ctx, types.ErrWriteForbidden)
//
// # Integration Test Helpers
//
//   - StartEmbeddedNATS: Starts an embedded NATS JetStream server
//   - CreateKV: Creates a KV bucket on that server
package testutil
