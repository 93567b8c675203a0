package scenarios

import (
	"context"
	"errors"
	"time"

	"github.com/arloliu/geodb/test/simulation/types"
)

// AccountOutage fails over while the account topology cannot be fetched.
//
// Writes to the old region fail with refresh errors until the topology
// endpoint recovers.
type AccountOutage struct {
	Hold    time.Duration // Outage length
	Timeout time.Duration // Convergence timeout after recovery
}

func (s *AccountOutage) Name() string {
	return "account-outage"
}

func (s *AccountOutage) Description() string {
	return "Fails over while the account endpoint is down, then recovers it"
}

func (s *AccountOutage) Run(ctx context.Context, env *types.Environment) error {
	target, err := failoverTarget(env.Topology.Account(), "")
	if err != nil {
		return err
	}

	env.Logger.Info("Account endpoint down")
	env.Topology.SetReadError(errors.New("simulated account endpoint outage"))

	if err := env.Topology.Failover(ctx, target.Name); err != nil {
		return err
	}

	if err := hold(ctx, orDefault(s.Hold, 5*time.Second)); err != nil {
		return err
	}

	env.Logger.Info("Account endpoint recovered")
	env.Topology.SetReadError(nil)

	return waitForWriteEndpoint(ctx, env, target, orDefault(s.Timeout, 10*time.Second))
}

// DiscoveryDisabled turns endpoint discovery off across a failover.
//
// With discovery off every request goes to the default endpoint and
// write-forbidden errors are returned without a retry.
type DiscoveryDisabled struct {
	Hold    time.Duration // Time with discovery off
	Timeout time.Duration // Convergence timeout after re-enabling
}

func (s *DiscoveryDisabled) Name() string {
	return "discovery-disabled"
}

func (s *DiscoveryDisabled) Description() string {
	return "Disables endpoint discovery across a failover and re-enables it"
}

func (s *DiscoveryDisabled) Run(ctx context.Context, env *types.Environment) error {
	target, err := failoverTarget(env.Topology.Account(), "")
	if err != nil {
		return err
	}

	env.Logger.Info("Disabling endpoint discovery")
	env.Manager.SetEndpointDiscovery(false)

	if err := env.Topology.Failover(ctx, target.Name); err != nil {
		return err
	}

	if err := hold(ctx, orDefault(s.Hold, 5*time.Second)); err != nil {
		return err
	}

	env.Logger.Info("Re-enabling endpoint discovery")
	env.Manager.SetEndpointDiscovery(true)
	if err := env.Manager.RefreshEndpointList(ctx); err != nil {
		return err
	}

	return waitForWriteEndpoint(ctx, env, target, orDefault(s.Timeout, 10*time.Second))
}
