// Package config provides configuration management for rapport.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultHTTPAddr is the default listen address for the HTTP surface.
	DefaultHTTPAddr = "127.0.0.1:7432"
	// DefaultBufferEvents caps how many raw events one identity's source
	// retains between cycles.
	DefaultBufferEvents = 100_000
)

// Config is the top-level YAML structure.
type Config struct {
	HTTPAddr     string `yaml:"http_addr"`
	DBPath       string `yaml:"db_path"`
	RedisAddr    string `yaml:"redis_addr"` // empty disables Redis checkpoints
	BufferEvents int    `yaml:"buffer_events"`
	LogLevel     string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTPAddr:     DefaultHTTPAddr,
		DBPath:       DBPath(),
		BufferEvents: DefaultBufferEvents,
		LogLevel:     "info",
	}
}

// DataDir returns the rapport data directory.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".rapport"
	}
	return filepath.Join(home, ".rapport")
}

// DBPath returns the default database path.
func DBPath() string {
	return filepath.Join(DataDir(), "rapport.db")
}

// ConfigPath returns the configuration file path.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// EnsureDataDir creates the data directory if missing.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0o755)
}

// Load reads the configuration file, falling back to defaults when it does
// not exist, then applies environment overrides (RAPPORT_HTTP_ADDR,
// RAPPORT_DB_PATH, RAPPORT_REDIS_ADDR, RAPPORT_BUFFER_EVENTS,
// RAPPORT_LOG_LEVEL).
func Load() (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(ConfigPath())
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", ConfigPath(), err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read %s: %w", ConfigPath(), err)
	}

	if v := os.Getenv("RAPPORT_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("RAPPORT_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("RAPPORT_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("RAPPORT_BUFFER_EVENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BufferEvents = n
		}
	}
	if v := os.Getenv("RAPPORT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if cfg.BufferEvents <= 0 {
		cfg.BufferEvents = DefaultBufferEvents
	}
	return cfg, nil
}
