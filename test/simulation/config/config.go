package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the simulation configuration
type Config struct {
	Simulation SimulationConfig `yaml:"simulation"`
	Account    AccountConfig    `yaml:"account"`
	Client     ClientConfig     `yaml:"client"`
	Topology   TopologyConfig   `yaml:"topology"`
}

type SimulationConfig struct {
	Duration        time.Duration `yaml:"duration"`
	Seed            int64         `yaml:"seed"`
	Workers         int           `yaml:"workers"`
	WriteInterval   time.Duration `yaml:"write_interval"`
	ScenarioPause   time.Duration `yaml:"scenario_pause"`
	ConsoleInterval time.Duration `yaml:"console_interval"`
}

type AccountConfig struct {
	ID       string   `yaml:"id"`
	Endpoint string   `yaml:"endpoint"`
	Regions  []string `yaml:"regions"` // first region starts as the writer
}

type ClientConfig struct {
	MaxRetryAttempts int           `yaml:"max_retry_attempts"`
	RetryAfter       time.Duration `yaml:"retry_after"`
}

type TopologyConfig struct {
	PreferredLocations []string `yaml:"preferred_locations"`
	RefreshRate        float64  `yaml:"refresh_rate"`
	RefreshBurst       int      `yaml:"refresh_burst"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()

	return cfg
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if len(cfg.Account.Regions) < 2 {
		return nil, errors.New("account needs at least two regions to fail over")
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Simulation.Duration == 0 {
		c.Simulation.Duration = 5 * time.Minute
	}
	if c.Simulation.Workers == 0 {
		c.Simulation.Workers = 4
	}
	if c.Simulation.WriteInterval == 0 {
		c.Simulation.WriteInterval = 10 * time.Millisecond
	}
	if c.Simulation.ScenarioPause == 0 {
		c.Simulation.ScenarioPause = 2 * time.Second
	}
	if c.Simulation.ConsoleInterval == 0 {
		c.Simulation.ConsoleInterval = 10 * time.Second
	}
	if c.Account.ID == "" {
		c.Account.ID = "simulation"
	}
	if c.Account.Endpoint == "" {
		c.Account.Endpoint = "https://simulation.db.example.com:443/"
	}
	if len(c.Account.Regions) == 0 {
		c.Account.Regions = []string{"East US", "West US", "North Europe"}
	}
	if c.Client.MaxRetryAttempts == 0 {
		c.Client.MaxRetryAttempts = 120
	}
	if c.Client.RetryAfter == 0 {
		c.Client.RetryAfter = 50 * time.Millisecond
	}
}
