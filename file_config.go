package geodb

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML representation of a client configuration.
//
// Example:
//
//	endpoint: https://orders.db.example.com:443/
//	preferred_locations: ["West US", "East US"]
//	enable_endpoint_discovery: true
//	retry:
//	  max_attempts: 120
//	  after: 1s
//	refresh:
//	  timeout: 10s
//	  rate_per_second: 5
//	  burst: 10
type FileConfig struct {
	Endpoint                string            `yaml:"endpoint"`
	PreferredLocations      []string          `yaml:"preferred_locations"`
	EnableEndpointDiscovery *bool             `yaml:"enable_endpoint_discovery"`
	Retry                   RetryFileConfig   `yaml:"retry"`
	Refresh                 RefreshFileConfig `yaml:"refresh"`
}

// RetryFileConfig configures endpoint discovery retries.
type RetryFileConfig struct {
	MaxAttempts *int           `yaml:"max_attempts"`
	After       *time.Duration `yaml:"after"`
}

// RefreshFileConfig configures topology refreshes.
type RefreshFileConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second"`
	Burst         int           `yaml:"burst"`
}

// LoadFileConfig reads and validates a YAML configuration file.
//
// Parameters:
//   - path: Path to the YAML file
//
// Returns:
//   - *FileConfig: The parsed configuration
//   - error: Read, parse or validation error
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("geodb: failed to read config file: %w", err)
	}

	return ParseFileConfig(data)
}

// ParseFileConfig parses and validates YAML configuration data.
//
// Parameters:
//   - data: YAML document
//
// Returns:
//   - *FileConfig: The parsed configuration
//   - error: Parse or validation error
func ParseFileConfig(data []byte) (*FileConfig, error) {
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("geodb: failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration values.
func (c *FileConfig) Validate() error {
	if c.Endpoint == "" {
		return errors.New("geodb: endpoint is required")
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("geodb: endpoint %q must be an absolute URL", c.Endpoint)
	}

	if c.Retry.MaxAttempts != nil && *c.Retry.MaxAttempts < 0 {
		return errors.New("geodb: retry.max_attempts must not be negative")
	}

	if c.Retry.After != nil && *c.Retry.After < 0 {
		return errors.New("geodb: retry.after must not be negative")
	}

	if c.Refresh.Timeout < 0 {
		return errors.New("geodb: refresh.timeout must not be negative")
	}

	if c.Refresh.RatePerSecond < 0 || c.Refresh.Burst < 0 {
		return errors.New("geodb: refresh rate limit must not be negative")
	}

	return nil
}

// DiscoveryEnabled reports the endpoint discovery setting, true when unset.
func (c *FileConfig) DiscoveryEnabled() bool {
	if c.EnableEndpointDiscovery == nil {
		return true
	}

	return *c.EnableEndpointDiscovery
}

// ClientOptions converts the retry section into executor options.
//
// Unset values keep the DefaultConfig defaults.
//
// Returns:
//   - []Option: Options for NewExecutor
func (c *FileConfig) ClientOptions() []Option {
	var opts []Option
	if c.Retry.MaxAttempts != nil {
		opts = append(opts, WithMaxRetryAttempts(*c.Retry.MaxAttempts))
	}
	if c.Retry.After != nil {
		opts = append(opts, WithRetryAfter(*c.Retry.After))
	}

	return opts
}
