package scenarios

import (
	"context"
	"fmt"
	"time"

	"github.com/arloliu/geodb/test/simulation/types"
	geotypes "github.com/arloliu/geodb/types"
)

// RegionFailover moves the write role to another region and waits for the
// client to follow it.
type RegionFailover struct {
	Target  string        // Region to promote; empty picks the next readable region
	Timeout time.Duration // How long the client may take to converge
	Hold    time.Duration // Traffic time after convergence
}

func (s *RegionFailover) Name() string {
	return "region-failover"
}

func (s *RegionFailover) Description() string {
	return "Promotes another region and verifies writes follow the new write region"
}

func (s *RegionFailover) Run(ctx context.Context, env *types.Environment) error {
	target, err := failoverTarget(env.Topology.Account(), s.Target)
	if err != nil {
		return err
	}

	env.Logger.Info("Failing over", "to", target.Name)
	if err := env.Topology.Failover(ctx, target.Name); err != nil {
		return err
	}

	if err := waitForWriteEndpoint(ctx, env, target, orDefault(s.Timeout, 10*time.Second)); err != nil {
		return err
	}
	env.Logger.Info("Client converged", "write_endpoint", target.Endpoint)

	return hold(ctx, orDefault(s.Hold, 5*time.Second))
}

// FailoverFlapping fails over repeatedly between regions.
type FailoverFlapping struct {
	Count    int           // Number of failovers
	Interval time.Duration // Time between failovers
	Timeout  time.Duration // Convergence timeout after the last failover
}

func (s *FailoverFlapping) Name() string {
	return "failover-flapping"
}

func (s *FailoverFlapping) Description() string {
	return "Moves the write role repeatedly to check retries stay within budget"
}

func (s *FailoverFlapping) Run(ctx context.Context, env *types.Environment) error {
	count := s.Count
	if count <= 0 {
		count = 5
	}

	var target geotypes.Location
	for i := range count {
		var err error
		target, err = failoverTarget(env.Topology.Account(), "")
		if err != nil {
			return err
		}

		env.Logger.Info("Flapping failover", "round", i+1, "to", target.Name)
		if err := env.Topology.Failover(ctx, target.Name); err != nil {
			return err
		}

		if err := hold(ctx, orDefault(s.Interval, time.Second)); err != nil {
			return err
		}
	}

	return waitForWriteEndpoint(ctx, env, target, orDefault(s.Timeout, 10*time.Second))
}

// failoverTarget resolves the region to promote.
func failoverTarget(account geotypes.DatabaseAccount, name string) (geotypes.Location, error) {
	if name != "" {
		loc, ok := account.FindLocation(name)
		if !ok {
			return geotypes.Location{}, fmt.Errorf("%w: %q", geotypes.ErrUnknownLocation, name)
		}

		return loc, nil
	}

	current, _ := account.WriteLocation()
	for _, loc := range account.ReadableLocations {
		if loc.Name != current.Name {
			return loc, nil
		}
	}

	return geotypes.Location{}, fmt.Errorf("no region to fail over to from %q", current.Name)
}

func waitForWriteEndpoint(ctx context.Context, env *types.Environment, target geotypes.Location, timeout time.Duration) error {
	err := waitUntil(ctx, timeout, func() bool {
		return env.Manager.WriteEndpoint() == target.Endpoint
	})
	if err != nil {
		return fmt.Errorf("client did not converge on %s: %w", target.Name, err)
	}

	return nil
}
