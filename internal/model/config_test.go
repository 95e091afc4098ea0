package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, 30, cfg.AI.TimeoutSec)
	assert.Equal(t, 300, cfg.IMAP.PollIntervalSec)
	assert.Contains(t, cfg.Triage.Signature, "Best regards")
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
store:
  path: /tmp/custom.db
ai:
  enabled: false
  timeout_sec: 5
imap:
  host: imap.example.com
  username: me@example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.Store.Path)
	assert.False(t, cfg.AI.Enabled)
	assert.Equal(t, 5, cfg.AI.TimeoutSec)
	assert.True(t, cfg.IMAP.Configured())
	assert.Equal(t, "993", cfg.IMAP.Port)
}

func TestLoadConfig_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("TRIAGE_SERVER_ADDR", "0.0.0.0:9999")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9999", cfg.Server.Addr)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultAppConfig()
	cfg.Server.Addr = "127.0.0.1:7000"
	cfg.IMAP.Host = "imap.example.com"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7000", loaded.Server.Addr)
	assert.Equal(t, "imap.example.com", loaded.IMAP.Host)
}
