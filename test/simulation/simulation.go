package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arloliu/geodb"
	"github.com/arloliu/geodb/test/simulation/chaos"
	"github.com/arloliu/geodb/test/simulation/config"
	simtypes "github.com/arloliu/geodb/test/simulation/types"
	"github.com/arloliu/geodb/test/simulation/workload"
	"github.com/arloliu/geodb/topology"
	"github.com/arloliu/geodb/types"
)

// Config holds simulation configuration.
type Config struct {
	Duration time.Duration
	Seed     int64
	Profile  string
	Settings *config.Config
	Metrics  types.MetricsCollector
}

// Report summarizes a finished simulation.
type Report struct {
	Acknowledged int
	Stored       int
	Rejected     int64
	Exhausted    int64
	Forbidden    int64
	Failed       int64
}

// Simulation orchestrates the test execution.
type Simulation struct {
	config       Config
	settings     *config.Config
	logger       *slog.Logger
	env          *simtypes.Environment
	scenarios    []simtypes.Scenario
	stopWorkload context.CancelFunc
	rng          *rand.Rand
	rngMu        sync.Mutex
}

// New creates a new simulation instance.
func New(cfg Config, logger *slog.Logger) (*Simulation, error) {
	settings := cfg.Settings
	if settings == nil {
		settings = config.Default()
	}
	if len(settings.Account.Regions) < 2 {
		return nil, errors.New("simulation needs at least two regions")
	}

	return &Simulation{
		config:    cfg,
		settings:  settings,
		logger:    logger,
		scenarios: make([]simtypes.Scenario, 0),
		//nolint:gosec // Simulation data, not security sensitive
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// RegisterScenario adds a scenario to the simulation.
func (s *Simulation) RegisterScenario(scenario simtypes.Scenario) {
	s.scenarios = append(s.scenarios, scenario)
}

// Run executes the simulation.
func (s *Simulation) Run(ctx context.Context) (Report, error) {
	s.logger.Info("Initializing simulation environment...")

	if err := s.setupEnvironment(ctx); err != nil {
		return Report{}, fmt.Errorf("failed to setup environment: %w", err)
	}
	defer s.teardown()

	s.logger.Info("Starting workload generator...", "workers", s.settings.Simulation.Workers)
	workloadCtx, cancel := context.WithCancel(ctx)
	s.stopWorkload = cancel

	var wg sync.WaitGroup
	for range s.settings.Simulation.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.generateTraffic(workloadCtx)
		}()
	}

	// Start pruner for soak tests
	if s.config.Profile == "soak" {
		go s.runPruner(workloadCtx)
	}

	// Soak runs repeat the scenario list until Duration elapses
	scenarioCtx := ctx
	if s.config.Profile == "soak" && s.config.Duration > 0 {
		var stop context.CancelFunc
		scenarioCtx, stop = context.WithTimeout(ctx, s.config.Duration)
		defer stop()
	}

	var failed []error
	for round := 1; ; round++ {
		for _, scenario := range s.scenarios {
			if scenarioCtx.Err() != nil {
				break
			}

			s.logger.Info("--------------------------------------------------")
			s.logger.Info("Running Scenario", "name", scenario.Name(), "round", round)
			s.logger.Info("--------------------------------------------------")

			err := scenario.Run(scenarioCtx, s.env)
			switch {
			case err == nil:
				s.logger.Info("Scenario completed successfully")
			case scenarioCtx.Err() != nil:
				s.logger.Info("Scenario interrupted", "name", scenario.Name())
			default:
				s.logger.Error("Scenario failed", "error", err)
				failed = append(failed, fmt.Errorf("%s: %w", scenario.Name(), err))
			}

			select {
			case <-scenarioCtx.Done():
			case <-time.After(s.settings.Simulation.ScenarioPause):
			}
		}

		if s.config.Profile != "soak" || scenarioCtx.Err() != nil {
			break
		}
	}

	s.logger.Info("Stopping workload...")
	cancel()
	wg.Wait()

	report := s.report()
	if err := s.verify(); err != nil {
		failed = append(failed, err)
	}

	return report, errors.Join(failed...)
}

func (s *Simulation) setupEnvironment(ctx context.Context) error {
	account, err := buildAccount(s.settings.Account)
	if err != nil {
		return err
	}

	local := topology.NewLocal(account)
	service := chaos.NewService(local.Account)

	managerOpts := []topology.ManagerOption{
		topology.WithDefaultEndpoint(s.settings.Account.Endpoint),
		topology.WithPreferredLocations(s.settings.Topology.PreferredLocations...),
		topology.WithManagerLogger(s.logger),
	}
	if s.settings.Topology.RefreshRate > 0 {
		managerOpts = append(managerOpts,
			topology.WithRefreshRateLimit(s.settings.Topology.RefreshRate, s.settings.Topology.RefreshBurst))
	}
	if s.config.Metrics != nil {
		managerOpts = append(managerOpts, topology.WithManagerMetrics(s.config.Metrics))
	}

	manager, err := topology.NewManager(local, managerOpts...)
	if err != nil {
		return err
	}

	if err := manager.RefreshEndpointList(ctx); err != nil {
		_ = manager.Close()
		return err
	}

	execOpts := []geodb.Option{
		geodb.WithMaxRetryAttempts(s.settings.Client.MaxRetryAttempts),
		geodb.WithRetryAfter(s.settings.Client.RetryAfter),
		geodb.WithLogger(s.logger),
	}
	if s.config.Metrics != nil {
		execOpts = append(execOpts, geodb.WithMetrics(s.config.Metrics))
	}

	executor, err := geodb.NewExecutor(manager, execOpts...)
	if err != nil {
		_ = manager.Close()
		return err
	}

	s.env = &simtypes.Environment{
		Executor: executor,
		Manager:  manager,
		Topology: local,
		Service:  service,
		Tracker:  workload.NewWriteTracker(),
		Logger:   s.logger,
	}

	return nil
}

// buildAccount lays out the regions; the first one starts as the writer.
func buildAccount(cfg config.AccountConfig) (types.DatabaseAccount, error) {
	account := types.DatabaseAccount{ID: cfg.ID}
	for _, region := range cfg.Regions {
		endpoint, err := topology.LocationalEndpoint(cfg.Endpoint, region)
		if err != nil {
			return types.DatabaseAccount{}, err
		}
		account.ReadableLocations = append(account.ReadableLocations, types.Location{Name: region, Endpoint: endpoint})
	}
	account.WritableLocations = account.ReadableLocations[:1:1]

	return account, nil
}

func (s *Simulation) teardown() {
	if s.stopWorkload != nil {
		s.stopWorkload()
	}
	if s.env != nil && s.env.Manager != nil {
		_ = s.env.Manager.Close()
	}
}

func (s *Simulation) generateTraffic(ctx context.Context) {
	ticker := time.NewTicker(s.jitter(s.settings.Simulation.WriteInterval))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			id := uuid.New()
			err := s.env.Executor.ExecuteWrite(ctx, func(ctx context.Context, endpoint string) error {
				return s.env.Service.Write(ctx, endpoint, id)
			})

			switch {
			case err == nil:
				s.env.Tracker.TrackWrite(id, time.Now().UnixNano())
			case ctx.Err() != nil:
				return
			default:
				s.env.Tracker.TrackFailure(err)
				s.logger.Debug("Write failed", "id", id, "error", err)
			}
		}
	}
}

// jitter spreads worker tickers over [d, 1.5d).
func (s *Simulation) jitter(d time.Duration) time.Duration {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()

	return d + time.Duration(s.rng.Int63n(int64(d)/2+1))
}

func (s *Simulation) report() Report {
	return Report{
		Acknowledged: s.env.Tracker.Count(),
		Stored:       s.env.Service.Count(),
		Rejected:     s.env.Service.Rejected(),
		Exhausted:    s.env.Tracker.Exhausted(),
		Forbidden:    s.env.Tracker.Forbidden(),
		Failed:       s.env.Tracker.Failed(),
	}
}

func (s *Simulation) verify() error {
	s.logger.Info("Verifying simulation results...")

	r := s.report()
	s.logger.Info("Simulation summary",
		"acknowledged", r.Acknowledged,
		"stored", r.Stored,
		"rejected", r.Rejected,
		"exhausted", r.Exhausted,
		"forbidden", r.Forbidden,
		"failed", r.Failed,
	)

	if err := s.env.Tracker.VerifyConsistency(s.env.Service); err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	s.logger.Info("Verification passed!")

	return nil
}

func (s *Simulation) runPruner(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Prune writes older than 5 minutes
			pruned, err := s.env.Tracker.VerifyAndPrune(s.env.Service, 5*time.Minute)
			if err != nil {
				s.logger.Error("Pruning failed", "error", err)
			} else {
				s.logger.Info("Pruned old writes", "count", pruned)
			}
		}
	}
}
