package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5101", cfg.Backend.BaseURL)
	assert.Equal(t, 3, cfg.Backend.MaxRetries)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
backend:
  base_url: https://models.example.com
  api_token: secret
  timeout: 30s
  max_retries: 5
health:
  interval: 1m
dedupe:
  grace: 2s
sync:
  schedule: "0 * * * *"
cache:
  path: /tmp/catalog.db
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://models.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, "secret", cfg.Backend.APIToken)
	assert.Equal(t, 30*time.Second, cfg.Backend.GetTimeout())
	assert.Equal(t, 5, cfg.Backend.MaxRetries)
	assert.Equal(t, time.Minute, cfg.Health.GetInterval())
	assert.Equal(t, 2*time.Second, cfg.Dedupe.GetGrace())
	assert.Equal(t, "0 * * * *", cfg.Sync.Schedule)
	assert.Equal(t, "/tmp/catalog.db", cfg.Cache.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestDurationDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 10*time.Second, cfg.Backend.GetTimeout())
	assert.Equal(t, 30*time.Second, cfg.Health.GetInterval())
	assert.Equal(t, 5*time.Second, cfg.Health.GetTimeout())
	assert.Equal(t, 5*time.Second, cfg.Dedupe.GetGrace())
}

func TestDurationInvalidFallsBack(t *testing.T) {
	backend := BackendConfig{Timeout: "not-a-duration"}
	assert.Equal(t, 10*time.Second, backend.GetTimeout())
}

func TestCacheEnabled(t *testing.T) {
	assert.True(t, (&CacheConfig{}).Enabled(), "empty path uses the default location")
	assert.True(t, (&CacheConfig{Path: "/tmp/x.db"}).Enabled())
	assert.False(t, (&CacheConfig{Path: "off"}).Enabled())
}

func TestSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Backend.BaseURL = "https://models.example.com"
	cfg.Sync.Schedule = "@hourly"
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://models.example.com", loaded.Backend.BaseURL)
	assert.Equal(t, "@hourly", loaded.Sync.Schedule)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expanded, err := ExpandPath("~/x/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x", "config.yaml"), expanded)

	plain, err := ExpandPath("/etc/modelman.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/etc/modelman.yaml", plain)
}
