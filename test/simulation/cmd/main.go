package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // pprof is intentional for simulation
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arloliu/geodb/contrib/metrics/vm"
	"github.com/arloliu/geodb/test/simulation"
	"github.com/arloliu/geodb/test/simulation/config"
	"github.com/arloliu/geodb/test/simulation/scenarios"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	// Parse flags
	configPath := flag.String("config", "", "Path to configuration file (optional)")
	profile := flag.String("profile", "quick", "Simulation profile (quick, comprehensive, soak)")
	duration := flag.Duration("duration", 5*time.Minute, "Total simulation duration (for soak tests)")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	listen := flag.String("listen", ":6060", "Address for pprof and /metrics")
	flag.Parse()

	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	settings := config.Default()
	if *configPath != "" {
		var err error
		settings, err = config.Load(*configPath)
		if err != nil {
			logger.Error("Failed to load configuration", "path", *configPath, "error", err)
			return err
		}
		// Override flags with config values if present
		if settings.Simulation.Duration > 0 {
			*duration = settings.Simulation.Duration
		}
		if settings.Simulation.Seed != 0 {
			*seed = settings.Simulation.Seed
		}
	}

	logger.Info("Starting geodb Simulation",
		"profile", *profile,
		"seed", *seed,
		"duration", *duration,
		"regions", settings.Account.Regions,
	)

	collector := vm.New(vm.WithPrefix("geodb_sim"))
	http.HandleFunc("/metrics", collector.Handler)

	// Start pprof and metrics server
	go func() {
		logger.Info("Starting pprof server", "addr", *listen)
		server := &http.Server{
			Addr:              *listen,
			ReadHeaderTimeout: 3 * time.Second,
		}
		if err := server.ListenAndServe(); err != nil {
			logger.Error("pprof server failed", "error", err)
		}
	}()

	// Handle signals for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sim, err := simulation.New(simulation.Config{
		Seed:     *seed,
		Duration: *duration,
		Profile:  *profile,
		Settings: settings,
		Metrics:  collector,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize simulation", "error", err)
		return err
	}

	// Register scenarios based on profile
	registerScenarios(sim, *profile)

	report, err := sim.Run(ctx)
	logger.Info("Simulation report",
		"acknowledged", report.Acknowledged,
		"rejected", report.Rejected,
		"exhausted", report.Exhausted,
		"failed", report.Failed,
	)
	if err != nil {
		logger.Error("Simulation failed", "error", err)
		return err
	}

	logger.Info("Simulation completed successfully")

	return nil
}

func registerScenarios(sim *simulation.Simulation, profile string) {
	// Basic scenarios always included
	sim.RegisterScenario(&scenarios.RegionFailover{})
	sim.RegisterScenario(&scenarios.FailoverFlapping{})

	// Add more scenarios based on profile
	if profile == "comprehensive" || profile == "soak" {
		sim.RegisterScenario(&scenarios.AccountOutage{})
		sim.RegisterScenario(&scenarios.DiscoveryDisabled{})
	}
}
