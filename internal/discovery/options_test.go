package discovery

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tagscout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, FetcherHTTP, cfg.FetcherMode)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
timeout: 30s
user_agent: audit-bot/2
headers:
  - "Accept-Language: en-GB"
fetcher: browser
settle_delay: 500ms
log_level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "audit-bot/2", cfg.UserAgent)
	assert.Equal(t, []string{"Accept-Language: en-GB"}, cfg.CustomHeaders)
	assert.Equal(t, FetcherBrowser, cfg.FetcherMode)
	assert.Equal(t, 500*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, "debug", cfg.LogLevel)

	// Unset keys keep their defaults.
	assert.Equal(t, 5<<20, cfg.MaxResponseSize)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadConfig(writeConfig(t, "timeout: [not, a, duration]"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "fetcher: carrier-pigeon"))
	assert.ErrorContains(t, err, "carrier-pigeon")

	_, err = LoadConfig(writeConfig(t, "timeout: 0s"))
	assert.ErrorContains(t, err, "timeout")

	_, err = LoadConfig(writeConfig(t, "log_level: chatty"))
	assert.ErrorContains(t, err, "log_level")
}
