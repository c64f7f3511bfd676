package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 25, cfg.Supervisor.BatchSize)
	assert.Equal(t, 10, cfg.Supervisor.Workers)
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
log_level: debug
supervisor:
  batch_size: 5
  workers: 2
`), 0o600))

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SUPERVISOR_WORKERS", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "warn", cfg.LogLevel, "environment wins over the file")
	assert.Equal(t, 5, cfg.Supervisor.BatchSize)
	assert.Equal(t, 7, cfg.Supervisor.Workers)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
