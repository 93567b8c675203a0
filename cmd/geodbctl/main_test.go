package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/geodb/test/testutil"
	"github.com/arloliu/geodb/types"
)

const accountYAML = `
id: orders
writable_locations:
  - name: East US
    endpoint: https://orders-EastUS.db.example.com:443/
readable_locations:
  - name: East US
    endpoint: https://orders-EastUS.db.example.com:443/
  - name: West US
    endpoint: https://orders-WestUS.db.example.com:443/
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(t.Context())

	return out.String(), err
}

func TestLoadAccountFileYAML(t *testing.T) {
	account, err := loadAccountFile(writeFile(t, "account.yaml", accountYAML))
	require.NoError(t, err)

	assert.Equal(t, "orders", account.ID)
	write, ok := account.WriteLocation()
	require.True(t, ok)
	assert.Equal(t, "East US", write.Name)
	assert.Len(t, account.ReadableLocations, 2)
}

func TestLoadAccountFileJSON(t *testing.T) {
	doc := `{"id":"orders","writableLocations":[{"name":"East US","endpoint":"https://e/"}]}`
	account, err := loadAccountFile(writeFile(t, "account.json", doc))
	require.NoError(t, err)
	assert.Equal(t, "https://e/", account.WritableLocations[0].Endpoint)
}

func TestLoadAccountFileErrors(t *testing.T) {
	_, err := loadAccountFile("")
	require.Error(t, err)

	_, err = loadAccountFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = loadAccountFile(writeFile(t, "empty.yaml", "id: orders\n"))
	require.ErrorContains(t, err, "no writable location")

	_, err = loadAccountFile(writeFile(t, "nameless.yaml", "writable_locations:\n  - endpoint: https://e/\n"))
	require.ErrorContains(t, err, "needs both name and endpoint")
}

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCommand()

	for _, name := range []string{"nats-url", "bucket", "key", "log-level", "timeout"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}

	_, err := runCommand(t, "failover")
	require.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := runCommand(t, "--log-level", "loud", "show")
	require.ErrorContains(t, err, "invalid --log-level")
}

func TestPublishShowFailover(t *testing.T) {
	url := testutil.StartEmbeddedNATSServer(t).ClientURL()
	common := []string{"--nats-url", url, "--bucket", "geodbctl-test", "--log-level", "error"}

	path := writeFile(t, "account.yaml", accountYAML)
	_, err := runCommand(t, append(common, "publish", "--create-bucket", "--file", path)...)
	require.NoError(t, err)

	_, err = runCommand(t, append(common, "failover", "--location", "West US")...)
	require.NoError(t, err)

	out, err := runCommand(t, append(common, "show")...)
	require.NoError(t, err)

	var account types.DatabaseAccount
	require.NoError(t, json.Unmarshal([]byte(out), &account))
	write, ok := account.WriteLocation()
	require.True(t, ok)
	assert.Equal(t, "West US", write.Name)

	_, err = runCommand(t, append(common, "failover", "--location", "Mars")...)
	require.ErrorIs(t, err, types.ErrUnknownLocation)
}
