package types

import (
	"context"
	"log/slog"

	"github.com/arloliu/geodb"
	"github.com/arloliu/geodb/test/simulation/chaos"
	"github.com/arloliu/geodb/test/simulation/workload"
	"github.com/arloliu/geodb/topology"
)

// Environment holds the shared resources for the simulation.
type Environment struct {
	Executor *geodb.Executor
	Manager  *topology.Manager
	Topology *topology.Local
	Service  *chaos.Service
	Tracker  *workload.WriteTracker
	Logger   *slog.Logger
}

// Scenario defines a test scenario interface.
type Scenario interface {
	// Name returns the unique name of the scenario.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Run executes the scenario logic.
	Run(ctx context.Context, env *Environment) error
}
