// Package config loads and persists the modelman configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"modelman/pkg/logger"
)

// Config is the root configuration structure.
type Config struct {
	Backend BackendConfig    `mapstructure:"backend" yaml:"backend"`
	Health  HealthConfig     `mapstructure:"health" yaml:"health"`
	Dedupe  DedupeConfig     `mapstructure:"dedupe" yaml:"dedupe"`
	Sync    SyncConfig       `mapstructure:"sync" yaml:"sync"`
	Cache   CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Log     logger.LogConfig `mapstructure:"log" yaml:"log"`
}

// BackendConfig describes the backend endpoint and request behavior.
type BackendConfig struct {
	BaseURL    string `mapstructure:"base_url" yaml:"base_url"`
	APIToken   string `mapstructure:"api_token" yaml:"api_token,omitempty"`
	Timeout    string `mapstructure:"timeout" yaml:"timeout,omitempty"`
	MaxRetries int    `mapstructure:"max_retries" yaml:"max_retries,omitempty"`
}

// GetTimeout parses the request timeout, defaulting to 10s.
func (c *BackendConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 10*time.Second)
}

// HealthConfig describes the liveness probe.
type HealthConfig struct {
	Interval string `mapstructure:"interval" yaml:"interval,omitempty"`
	Timeout  string `mapstructure:"timeout" yaml:"timeout,omitempty"`
}

// GetInterval parses the probe interval, defaulting to 30s.
func (c *HealthConfig) GetInterval() time.Duration {
	return parseDuration(c.Interval, 30*time.Second)
}

// GetTimeout parses the probe timeout, defaulting to 5s.
func (c *HealthConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 5*time.Second)
}

// DedupeConfig describes read-request coalescing.
type DedupeConfig struct {
	Grace string `mapstructure:"grace" yaml:"grace,omitempty"`
}

// GetGrace parses the dedup grace window, defaulting to 5s.
func (c *DedupeConfig) GetGrace() time.Duration {
	return parseDuration(c.Grace, 5*time.Second)
}

// SyncConfig describes the optional scheduled catalog refresh.
type SyncConfig struct {
	// Schedule is a cron expression; empty disables scheduled refresh.
	Schedule string `mapstructure:"schedule" yaml:"schedule,omitempty"`
}

// CacheConfig describes the offline catalog cache.
type CacheConfig struct {
	// Path to the sqlite file; empty uses the default under the config
	// directory. "off" disables caching.
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// Enabled reports whether caching is active.
func (c *CacheConfig) Enabled() bool {
	return c.Path != "off"
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:    "http://localhost:5101",
			MaxRetries: 3,
		},
		Log: logger.LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the configuration at path, applying defaults for missing
// keys. A missing file yields the defaults without error.
func Load(path string) (*Config, error) {
	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("expand path: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(expanded)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MODELMAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("backend.base_url", defaults.Backend.BaseURL)
	v.SetDefault("backend.max_retries", defaults.Backend.MaxRetries)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to path as YAML, creating the directory
// if needed.
func Save(cfg *Config, path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return fmt.Errorf("expand path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(expanded, data, 0600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
