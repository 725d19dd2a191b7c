package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkforge/linkwatch/internal/database"
)

func TestLoadDefaults(t *testing.T) {
	// Run from an empty directory so no config.yaml is picked up.
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(oldWD) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, 15*time.Second, cfg.Monitor.FetchTimeout)
	assert.Equal(t, 50, cfg.Monitor.BatchLimit)
	assert.Equal(t, 1, cfg.Monitor.BatchWorkers)
	assert.Equal(t, 4*time.Minute, cfg.Monitor.BatchWallClock)
	assert.Empty(t, cfg.Monitor.CronSchedule)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")

	content := `
server:
  address: ":9090"
  api_key: "test-key"
database:
  host: db.internal
  dbname: linkwatch_test
monitor:
  batch_limit: 10
  batch_workers: 4
  cron_schedule: "*/30 * * * *"
logger:
  level: debug
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o600))

	cfg, err := Load(cfgPath)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "test-key", cfg.Server.APIKey)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "linkwatch_test", cfg.Database.DBName)
	assert.Equal(t, 10, cfg.Monitor.BatchLimit)
	assert.Equal(t, 4, cfg.Monitor.BatchWorkers)
	assert.Equal(t, "*/30 * * * *", cfg.Monitor.CronSchedule)
	assert.Equal(t, "debug", cfg.Logger.Level)

	// Unset values still fall back to defaults.
	assert.Equal(t, 15*time.Second, cfg.Monitor.FetchTimeout)
}

func TestLoadInvalidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("server: [not: valid"), 0o600))

	_, err := Load(cfgPath)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Address: ":8080"},
			Database: database.Config{
				Host:   "localhost",
				DBName: "linkwatch",
			},
			Monitor: MonitorConfig{
				FetchTimeout: 15 * time.Second,
				BatchLimit:   50,
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing address", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Address = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing dbname", func(t *testing.T) {
		cfg := valid()
		cfg.Database.DBName = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero fetch timeout", func(t *testing.T) {
		cfg := valid()
		cfg.Monitor.FetchTimeout = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero batch limit", func(t *testing.T) {
		cfg := valid()
		cfg.Monitor.BatchLimit = 0
		assert.Error(t, cfg.Validate())
	})
}
