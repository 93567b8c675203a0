package simulation_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/geodb/test/simulation"
	"github.com/arloliu/geodb/test/simulation/config"
	"github.com/arloliu/geodb/test/simulation/scenarios"
	"github.com/arloliu/geodb/test/testutil"
)

func quickSettings() *config.Config {
	settings := config.Default()
	settings.Simulation.Workers = 4
	settings.Simulation.WriteInterval = 2 * time.Millisecond
	settings.Simulation.ScenarioPause = 20 * time.Millisecond
	settings.Client.RetryAfter = time.Millisecond

	return settings
}

func TestSimulationFailovers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping simulation in short mode")
	}

	collector := testutil.NewTestMetricsCollector()
	sim, err := simulation.New(simulation.Config{
		Seed:     42,
		Settings: quickSettings(),
		Metrics:  collector,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	sim.RegisterScenario(&scenarios.RegionFailover{Hold: 100 * time.Millisecond})
	sim.RegisterScenario(&scenarios.FailoverFlapping{Count: 3, Interval: 50 * time.Millisecond})
	sim.RegisterScenario(&scenarios.AccountOutage{Hold: 100 * time.Millisecond})
	sim.RegisterScenario(&scenarios.DiscoveryDisabled{Hold: 100 * time.Millisecond})

	report, err := sim.Run(t.Context())
	require.NoError(t, err)

	assert.Positive(t, report.Acknowledged)
	assert.Positive(t, report.Rejected, "failovers should cause write-forbidden answers")
	assert.Positive(t, report.Forbidden, "discovery-disabled writes fail without retry")
	assert.Positive(t, report.Failed, "outage writes fail on refresh")
	assert.Equal(t, int64(0), report.Exhausted)
	assert.GreaterOrEqual(t, report.Stored, report.Acknowledged)
	assert.Positive(t, collector.DiscoveryRetries())
}

func TestNewSimulationNeedsTwoRegions(t *testing.T) {
	settings := quickSettings()
	settings.Account.Regions = []string{"East US"}

	_, err := simulation.New(simulation.Config{Settings: settings}, slog.Default())
	require.Error(t, err)
}
