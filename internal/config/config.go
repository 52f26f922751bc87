// Package config loads the glean CLI configuration from a YAML file
// using Viper. Absent files resolve to defaults so the CLI works out
// of the box.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// DefaultFile is the config filename looked up in the working
// directory and its parents.
const DefaultFile = "glean.yaml"

// Config is the top-level CLI configuration.
type Config struct {
	// Store is the adapter URI: empty for memory, a directory for fs,
	// a .db path for sqlite, a redis:// URL for redis.
	Store string `mapstructure:"store" yaml:"store"`

	// Adapter overrides URI-based adapter detection when set.
	Adapter string `mapstructure:"adapter" yaml:"adapter"`

	// DebounceMS is the filesystem watch settle window.
	DebounceMS int `mapstructure:"debounce_ms" yaml:"debounce_ms"`

	// PollIntervalMS is the sqlite subscription poll interval.
	PollIntervalMS int `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`

	// IgnorePatterns lists doublestar patterns the filesystem watcher
	// skips.
	IgnorePatterns []string `mapstructure:"ignore_patterns" yaml:"ignore_patterns"`
}

// Debounce returns the configured debounce as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// PollInterval returns the configured poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

func defaultConfig() *Config {
	return &Config{
		Store:          "./glean-data",
		DebounceMS:     50,
		PollIntervalMS: 100,
	}
}

// Load reads configuration from the given YAML file path.
// If the file does not exist, it returns the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("store", "./glean-data")
	v.SetDefault("debounce_ms", 50)
	v.SetDefault("poll_interval_ms", 100)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
