package geodb

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
endpoint: https://orders.db.example.com:443/
preferred_locations: ["West US", "East US"]
enable_endpoint_discovery: false
retry:
  max_attempts: 10
  after: 250ms
refresh:
  timeout: 3s
  rate_per_second: 5
  burst: 10
`

func TestParseFileConfig(t *testing.T) {
	cfg, err := ParseFileConfig([]byte(sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "https://orders.db.example.com:443/", cfg.Endpoint)
	assert.Equal(t, []string{"West US", "East US"}, cfg.PreferredLocations)
	assert.False(t, cfg.DiscoveryEnabled())
	require.NotNil(t, cfg.Retry.MaxAttempts)
	assert.Equal(t, 10, *cfg.Retry.MaxAttempts)
	require.NotNil(t, cfg.Retry.After)
	assert.Equal(t, 250*time.Millisecond, *cfg.Retry.After)
	assert.Equal(t, 3*time.Second, cfg.Refresh.Timeout)
	assert.InDelta(t, 5.0, cfg.Refresh.RatePerSecond, 0.001)
	assert.Equal(t, 10, cfg.Refresh.Burst)
}

func TestFileConfigClientOptions(t *testing.T) {
	cfg, err := ParseFileConfig([]byte(sampleConfig))
	require.NoError(t, err)

	config := DefaultConfig()
	for _, opt := range cfg.ClientOptions() {
		opt(config)
	}

	assert.Equal(t, 10, config.MaxRetryAttempts)
	assert.Equal(t, 250*time.Millisecond, config.RetryAfter)
}

func TestFileConfigZeroRetryAfter(t *testing.T) {
	cfg, err := ParseFileConfig([]byte("endpoint: https://orders.db.example.com/\nretry:\n  after: 0s\n"))
	require.NoError(t, err)

	config := DefaultConfig()
	for _, opt := range cfg.ClientOptions() {
		opt(config)
	}

	assert.Equal(t, time.Duration(0), config.RetryAfter)
}

func TestFileConfigDefaults(t *testing.T) {
	cfg, err := ParseFileConfig([]byte("endpoint: https://orders.db.example.com/\n"))
	require.NoError(t, err)

	assert.True(t, cfg.DiscoveryEnabled())
	assert.Empty(t, cfg.ClientOptions())
}

func TestFileConfigValidation(t *testing.T) {
	cases := map[string]string{
		"missing endpoint":  "retry:\n  max_attempts: 1\n",
		"relative endpoint": "endpoint: orders.db.example.com\n",
		"negative attempts": "endpoint: https://a/\nretry:\n  max_attempts: -1\n",
		"negative after":    "endpoint: https://a/\nretry:\n  after: -1s\n",
		"negative timeout":  "endpoint: https://a/\nrefresh:\n  timeout: -1s\n",
		"negative rate":     "endpoint: https://a/\nrefresh:\n  rate_per_second: -2\n",
		"malformed yaml":    "endpoint: [\n",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseFileConfig([]byte(doc))
			require.Error(t, err)
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geodb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))

	cfg, err := LoadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://orders.db.example.com:443/", cfg.Endpoint)

	_, err = LoadFileConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
