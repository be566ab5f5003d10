// Package config handles loading and saving cwatch configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/cwatch/config.yaml
//   - Data:    ~/.local/share/cwatch/ (timing database)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// StatsConfig tunes the rolling-window statistics.
type StatsConfig struct {
	WindowDays int `yaml:"window_days,omitempty"` // rolling window, default 30
}

// ThresholdConfig tunes stuck detection.
type ThresholdConfig struct {
	Multiplier float64 `yaml:"multiplier,omitempty"`  // applied to median/baseline, default 2.0
	MinSamples int     `yaml:"min_samples,omitempty"` // history needed before trusting the median, default 3
}

// Config is the top-level configuration for cwatch.
type Config struct {
	DBPath       string          `yaml:"db_path,omitempty"`       // timing database, default <data dir>/timings.db
	TopologyPath string          `yaml:"topology_path,omitempty"` // stage topology YAML; empty means built-in defaults
	Stats        StatsConfig     `yaml:"stats,omitempty"`
	Threshold    ThresholdConfig `yaml:"threshold,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DBPath: DefaultDBPath(),
		Stats: StatsConfig{
			WindowDays: 30,
		},
		Threshold: ThresholdConfig{
			Multiplier: 2.0,
			MinSamples: 3,
		},
	}
}

// ConfigDir returns the XDG config directory for cwatch.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "cwatch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "cwatch")
}

// DataDir returns the XDG data directory for cwatch.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "cwatch")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "cwatch")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// DefaultDBPath returns the default timing database location.
func DefaultDBPath() string {
	dir := DataDir()
	if dir == "" {
		return "timings.db"
	}
	return filepath.Join(dir, "timings.db")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.DBPath = expandHome(cfg.DBPath)
	cfg.TopologyPath = expandHome(cfg.TopologyPath)
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath()
	}
	if cfg.Stats.WindowDays <= 0 {
		cfg.Stats.WindowDays = 30
	}
	if cfg.Threshold.Multiplier <= 0 {
		cfg.Threshold.Multiplier = 2.0
	}
	if cfg.Threshold.MinSamples <= 0 {
		cfg.Threshold.MinSamples = 3
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
