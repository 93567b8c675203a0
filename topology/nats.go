package topology

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/geodb"
	"github.com/arloliu/geodb/types"
)

// failoverUpdateAttempts bounds compare-and-set retries when another
// operator changes the account document concurrently.
const failoverUpdateAttempts = 3

// NATS serves the account topology from a NATS KV bucket.
//
// The account document is stored as JSON under a single key. NATS implements
// AccountReader, so a Manager can refresh from it, and geodb.TopologyOperator,
// so operations tooling can drive a failover by rewriting the document.
//
// Watch() streams the document to a Manager via Manager.Sync. It should be
// called once per instance; subsequent calls return the same channel.
type NATS struct {
	kv     jetstream.KeyValue
	config NATSConfig

	mu           sync.Mutex
	updates      chan types.DatabaseAccount
	done         chan struct{}
	closed       bool
	watchStarted bool
	closeOnce    sync.Once
}

var (
	_ AccountReader          = (*NATS)(nil)
	_ geodb.TopologyOperator = (*NATS)(nil)
)

// NewNATS creates a new NATS KV account topology source.
//
// Parameters:
//   - kv: A NATS JetStream KeyValue store
//   - opts: Optional configuration options
//
// Returns:
//   - *NATS: A new source instance
//   - error: Error if kv is nil
//
// Example:
//
//	nc, _ := nats.Connect("nats://localhost:4222")
//	js, _ := jetstream.New(nc)
//	kv, _ := js.KeyValue(ctx, "geodb-config")
//
//	source, _ := topology.NewNATS(kv,
//	    topology.WithKey("orders.topology"),
//	    topology.WithPollInterval(10*time.Second),
//	)
func NewNATS(kv jetstream.KeyValue, opts ...NATSOption) (*NATS, error) {
	if kv == nil {
		return nil, errors.New("geodb/topology: KeyValue store is nil")
	}

	config := DefaultNATSConfig()
	for _, opt := range opts {
		opt(&config)
	}

	// Ensure the poll interval is positive
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultNATSConfig().PollInterval
	}

	return &NATS{
		kv:      kv,
		config:  config,
		updates: make(chan types.DatabaseAccount, 1),
		done:    make(chan struct{}),
	}, nil
}

// Config returns the source configuration.
//
// This method is primarily useful for testing to verify configuration options.
//
// Returns:
//   - NATSConfig: The current configuration
func (n *NATS) Config() NATSConfig {
	return n.config
}

// ReadAccount fetches the account document from the KV bucket.
//
// The endpoint argument is ignored; every endpoint of the account shares the
// same bucket.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - types.DatabaseAccount: The decoded account
//   - error: Error if the key is missing or the document is malformed
func (n *NATS) ReadAccount(ctx context.Context, _ string) (types.DatabaseAccount, error) {
	account, _, err := n.get(ctx)

	return account, err
}

// Publish stores the account document, replacing any previous value.
//
// Parameters:
//   - ctx: Context for cancellation
//   - account: The account topology to publish
//
// Returns:
//   - error: Error if the document could not be stored
func (n *NATS) Publish(ctx context.Context, account types.DatabaseAccount) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("geodb/topology: encode account: %w", err)
	}

	if _, err := n.kv.Put(ctx, n.config.Key, data); err != nil {
		return fmt.Errorf("geodb/topology: publish account: %w", err)
	}

	return nil
}

// Failover makes the named location the sole write region.
//
// The document is rewritten with a revision check, so a concurrent writer
// causes a re-read instead of a lost update.
//
// Parameters:
//   - ctx: Context for cancellation/timeout
//   - location: The region to promote
//
// Returns:
//   - error: types.ErrUnknownLocation, or an error from the KV bucket
func (n *NATS) Failover(ctx context.Context, location string) error {
	var lastErr error
	for range failoverUpdateAttempts {
		account, revision, err := n.get(ctx)
		if err != nil {
			return err
		}

		promoted, err := promote(account, location)
		if err != nil {
			return err
		}

		data, err := json.Marshal(promoted)
		if err != nil {
			return fmt.Errorf("geodb/topology: encode account: %w", err)
		}

		if _, err := n.kv.Update(ctx, n.config.Key, data, revision); err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}

			continue
		}

		return nil
	}

	return fmt.Errorf("geodb/topology: failover to %q: %w", location, lastErr)
}

// Watch returns a channel that receives the account document on every change.
//
// The current document is sent first. Only the latest document is buffered:
// a slow reader skips intermediate versions. If the KV watch fails the source
// falls back to polling at PollInterval.
//
// The channel is closed when Close() is called or the context is cancelled.
// Multiple calls to Watch return the same channel; only the first call's
// context controls the watch lifecycle.
//
// Parameters:
//   - ctx: Context for cancellation (only used on first call)
//
// Returns:
//   - <-chan types.DatabaseAccount: Channel of account documents
func (n *NATS) Watch(ctx context.Context) <-chan types.DatabaseAccount {
	n.mu.Lock()
	if n.watchStarted || n.closed {
		n.mu.Unlock()

		return n.updates
	}
	n.watchStarted = true
	n.mu.Unlock()

	go n.watchLoop(ctx)

	return n.updates
}

// Close stops the watcher and releases resources.
//
// This method is safe to call multiple times.
func (n *NATS) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}

	n.closed = true
	close(n.done)

	if !n.watchStarted {
		n.closeOnce.Do(func() { close(n.updates) })
	}

	return nil
}

// get fetches and decodes the document along with its revision.
func (n *NATS) get(ctx context.Context) (types.DatabaseAccount, uint64, error) {
	fetchCtx := ctx
	if n.config.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, n.config.FetchTimeout)
		defer cancel()
	}

	entry, err := n.kv.Get(fetchCtx, n.config.Key)
	if err != nil {
		return types.DatabaseAccount{}, 0, fmt.Errorf("geodb/topology: get %q: %w", n.config.Key, err)
	}

	account, err := decodeAccount(entry.Value())
	if err != nil {
		return types.DatabaseAccount{}, 0, err
	}

	return account, entry.Revision(), nil
}

func decodeAccount(data []byte) (types.DatabaseAccount, error) {
	var account types.DatabaseAccount
	if err := json.Unmarshal(data, &account); err != nil {
		return types.DatabaseAccount{}, fmt.Errorf("geodb/topology: decode account: %w", err)
	}

	return account, nil
}

// watchLoop is the main watch loop that monitors the NATS KV key.
func (n *NATS) watchLoop(ctx context.Context) {
	defer n.closeOnce.Do(func() { close(n.updates) })

	// Initial fetch
	n.fetchAndOffer(ctx)

	watcher, err := n.kv.Watch(ctx, n.config.Key)
	if err != nil {
		// Fall back to polling if watch fails
		n.pollLoop(ctx)
		return
	}
	defer func() { _ = watcher.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			return
		case entry, ok := <-watcher.Updates():
			if !ok {
				// Watcher channel closed, fall back to polling
				n.pollLoop(ctx)
				return
			}
			if entry == nil {
				// End of initial values marker
				continue
			}
			n.processEntry(entry)
		}
	}
}

// pollLoop is a fallback polling loop when watch fails.
func (n *NATS) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(n.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.done:
			return
		case <-ticker.C:
			n.fetchAndOffer(ctx)
		}
	}
}

func (n *NATS) fetchAndOffer(ctx context.Context) {
	account, _, err := n.get(ctx)
	if err != nil {
		// Missing key or malformed document; keep the last known topology
		return
	}

	n.offer(account)
}

func (n *NATS) processEntry(entry jetstream.KeyValueEntry) {
	if entry.Operation() == jetstream.KeyValueDelete || entry.Operation() == jetstream.KeyValuePurge {
		return
	}

	account, err := decodeAccount(entry.Value())
	if err != nil {
		return
	}

	n.offer(account)
}

// offer replaces any undelivered document with account.
func (n *NATS) offer(account types.DatabaseAccount) {
	for {
		select {
		case n.updates <- account:
			return
		default:
		}

		// Drop the stale document
		select {
		case <-n.updates:
		default:
		}
	}
}
