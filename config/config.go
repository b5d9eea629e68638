// Package config loads the filenode YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/opd-ai/filenode/interfaces"
	"github.com/opd-ai/filenode/limits"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the top-level configuration
type Config struct {
	Timeline TimelineConfig         `yaml:"timeline"`
	Store    StoreConfig            `yaml:"store"`
	Log      LogConfig              `yaml:"log"`
	Chaos    interfaces.FaultConfig `yaml:"chaos"`
}

// TimelineConfig holds timeline settings
type TimelineConfig struct {
	Capacity int `yaml:"capacity"`
}

// StoreConfig holds timeline persistence settings. An empty path disables persistence.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Timeline: TimelineConfig{Capacity: limits.DefaultTimelineCapacity},
		Log:      LogConfig{Level: "info", Format: "text"},
		Chaos:    interfaces.DefaultFaultConfig(),
	}
}

// Load reads a config file from the given path. Missing keys keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks every section of the config.
func (c *Config) Validate() error {
	if _, err := limits.TimelineCapacity(c.Timeline.Capacity); err != nil {
		return fmt.Errorf("%w: timeline: %v", ErrInvalidConfig, err)
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	if _, err := c.Log.Formatter(); err != nil {
		return fmt.Errorf("%w: log.format: %v", ErrInvalidConfig, err)
	}
	if err := c.Chaos.Validate(); err != nil {
		return fmt.Errorf("%w: chaos: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Formatter returns the logrus formatter named by Format.
func (l LogConfig) Formatter() (logrus.Formatter, error) {
	switch l.Format {
	case "", "text":
		return &logrus.TextFormatter{FullTimestamp: true}, nil
	case "json":
		return &logrus.JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown log format %q", l.Format)
	}
}

// Apply configures logger with the level and formatter of l.
func (l LogConfig) Apply(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	formatter, err := l.Formatter()
	if err != nil {
		return fmt.Errorf("%w: log.format: %v", ErrInvalidConfig, err)
	}
	logger.SetLevel(level)
	logger.SetFormatter(formatter)
	return nil
}
