package model

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Project   ProjectConfig   `yaml:"project" mapstructure:"project"`
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Selection SelectionConfig `yaml:"selection" mapstructure:"selection"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Watch     WatchConfig     `yaml:"watch" mapstructure:"watch"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

type ProjectConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Created string `yaml:"created" mapstructure:"created"`
}

type CatalogConfig struct {
	// Path to a catalog YAML file. Empty selects the embedded default dataset.
	Path string `yaml:"path" mapstructure:"path"`
}

type SelectionConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

type CacheConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`
	TTLSec     int  `yaml:"ttl_sec" mapstructure:"ttl_sec"`
	MaxEntries int  `yaml:"max_entries" mapstructure:"max_entries"`
}

type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

type MetricsConfig struct {
	// Addr is the listen address for /metrics in watch mode. Empty disables it.
	Addr string `yaml:"addr" mapstructure:"addr"`
}

type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// DefaultConfig returns the configuration used when no config file is present.
func DefaultConfig() Config {
	return Config{
		Selection: SelectionConfig{Path: "selection.yaml"},
		Cache: CacheConfig{
			Enabled:    true,
			TTLSec:     30,
			MaxEntries: 1000,
		},
		Watch:   WatchConfig{DebounceMs: 200},
		Logging: LoggingConfig{Level: "info"},
	}
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

func (c WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Validate returns one error per invalid field.
func (c Config) Validate() []error {
	var errs []error
	if c.Selection.Path == "" {
		errs = append(errs, fmt.Errorf("selection.path: must not be empty"))
	}
	if c.Cache.Enabled {
		if c.Cache.TTLSec < 1 {
			errs = append(errs, fmt.Errorf("cache.ttl_sec: must be >= 1, got %d", c.Cache.TTLSec))
		}
		if c.Cache.MaxEntries < 1 {
			errs = append(errs, fmt.Errorf("cache.max_entries: must be >= 1, got %d", c.Cache.MaxEntries))
		}
	}
	if c.Watch.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce_ms: must be >= 0, got %d", c.Watch.DebounceMs))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	return errs
}
