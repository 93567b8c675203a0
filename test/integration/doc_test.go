// Package integration_test provides end-to-end integration tests for the geodb library.
//
// These tests run clients against an embedded NATS JetStream server that
// holds the account topology, and drive regional failovers through it.
//
// # Running Integration Tests
//
// Integration tests are skipped by default when using -short flag:
//
//	go test -short ./...           # Skips integration tests
//	go test ./test/integration/... # Runs integration tests
package integration_test
