package factory

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"sync"

	"github.com/opd-ai/filenode/chaos"
	"github.com/opd-ai/filenode/interfaces"
	"github.com/opd-ai/filenode/limits"
	"github.com/sirupsen/logrus"
)

// Environment variables read by NewSimulatorFactory.
const (
	EnvChunkSize              = "FILENODE_CHAOS_CHUNK_SIZE"
	EnvDropEvery              = "FILENODE_CHAOS_DROP_EVERY"
	EnvWrongOffsetProbability = "FILENODE_CHAOS_WRONG_OFFSET_PROBABILITY"
	EnvDisconnectProbability  = "FILENODE_CHAOS_DISCONNECT_PROBABILITY"
	EnvCorruptProbability     = "FILENODE_CHAOS_CORRUPT_PROBABILITY"
	EnvSeed                   = "FILENODE_CHAOS_SEED"
)

// Validation constants for configuration bounds checking.
const (
	// MinChunkSize is the smallest chunk size accepted from the environment.
	MinChunkSize = 1
	// MaxDropEvery is the largest drop period accepted from the environment.
	MaxDropEvery = 1 << 20
	// TestSeed is the seed used by CreateSimulationForTesting.
	TestSeed = 1
)

// SimulatorFactory creates chaos simulators from a shared fault configuration.
// It is safe for concurrent use; all methods are protected by an internal mutex.
type SimulatorFactory struct {
	mu            sync.RWMutex
	defaultConfig interfaces.FaultConfig
}

// TestConfigOption is a functional option for customizing test simulation configuration.
type TestConfigOption func(*interfaces.FaultConfig)

// NewSimulatorFactory creates a factory from the default fault configuration
// with environment overrides applied.
func NewSimulatorFactory() *SimulatorFactory {
	return NewSimulatorFactoryWithConfig(interfaces.DefaultFaultConfig())
}

// NewSimulatorFactoryWithConfig creates a factory from base with environment
// overrides applied, so the environment wins over a configuration file.
func NewSimulatorFactoryWithConfig(base interfaces.FaultConfig) *SimulatorFactory {
	if base.ChunkSize == 0 {
		base.ChunkSize = limits.DefaultChunkSize
	}
	applyEnvironmentOverrides(&base)
	logConfigurationInfo(base)

	return &SimulatorFactory{defaultConfig: base}
}

// applyEnvironmentOverrides updates configuration based on FILENODE_CHAOS_* variables.
func applyEnvironmentOverrides(config *interfaces.FaultConfig) {
	parseUintSetting(EnvChunkSize, MinChunkSize, limits.MaxChunkSize, &config.ChunkSize)
	parseUintSetting(EnvDropEvery, 0, MaxDropEvery, &config.DropEvery)
	parseProbabilitySetting(EnvWrongOffsetProbability, &config.WrongOffsetProbability)
	parseProbabilitySetting(EnvDisconnectProbability, &config.DisconnectProbability)
	parseProbabilitySetting(EnvCorruptProbability, &config.CorruptProbability)
	parseUintSetting(EnvSeed, 0, math.MaxUint64, &config.Seed)
}

// parseUintSetting overwrites target with the value of key when it parses and
// lies within [min, max]. Otherwise it logs a warning and keeps the default.
func parseUintSetting(key string, min, max uint64, target *uint64) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseUintSetting",
			"env_var":     key,
			"value":       raw,
			"error":       err.Error(),
			"using_value": *target,
		}).Warn("Failed to parse environment variable, using default")
		return
	}
	if value < min || value > max {
		logrus.WithFields(logrus.Fields{
			"function":    "parseUintSetting",
			"env_var":     key,
			"value":       value,
			"min":         min,
			"max":         max,
			"using_value": *target,
		}).Warn("Environment variable out of bounds, using default")
		return
	}
	*target = value
}

// parseProbabilitySetting overwrites target with the value of key when it
// parses as a float in [0, 1].
func parseProbabilitySetting(key string, target *float64) {
	raw := os.Getenv(key)
	if raw == "" {
		return
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function":    "parseProbabilitySetting",
			"env_var":     key,
			"value":       raw,
			"error":       err.Error(),
			"using_value": *target,
		}).Warn("Failed to parse environment variable, using default")
		return
	}
	if math.IsNaN(value) || value < 0 || value > 1 {
		logrus.WithFields(logrus.Fields{
			"function":    "parseProbabilitySetting",
			"env_var":     key,
			"value":       value,
			"using_value": *target,
		}).Warn("Probability out of bounds, using default")
		return
	}
	*target = value
}

// logConfigurationInfo logs the final configuration settings for debugging purposes.
func logConfigurationInfo(config interfaces.FaultConfig) {
	logrus.WithFields(logrus.Fields{
		"function":                 "NewSimulatorFactory",
		"chunk_size":               config.ChunkSize,
		"drop_every":               config.DropEvery,
		"wrong_offset_probability": config.WrongOffsetProbability,
		"disconnect_probability":   config.DisconnectProbability,
		"corrupt_probability":      config.CorruptProbability,
		"seed":                     config.Seed,
	}).Debug("Created simulator factory with configuration")
}

// CreateTransferSimulator creates a transfer simulator using the factory configuration.
func (f *SimulatorFactory) CreateTransferSimulator(totalBytes uint64) (*chaos.TransferSimulator, error) {
	return f.CreateTransferSimulatorWithConfig(totalBytes, f.GetCurrentConfig())
}

// CreateTransferSimulatorWithConfig creates a transfer simulator with a custom configuration.
func (f *SimulatorFactory) CreateTransferSimulatorWithConfig(totalBytes uint64, config interfaces.FaultConfig) (*chaos.TransferSimulator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fault config: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "CreateTransferSimulatorWithConfig",
		"total_bytes": totalBytes,
		"chunk_size":  config.ChunkSize,
		"seed":        config.Seed,
	}).Debug("Creating transfer simulator")

	return chaos.NewTransferSimulator(totalBytes, config)
}

// CreateConnectionSimulator creates a connection simulator.
func (f *SimulatorFactory) CreateConnectionSimulator(failFirstN, disconnectAfterHeartbeats uint32) *chaos.ConnectionSimulator {
	logrus.WithFields(logrus.Fields{
		"function":                    "CreateConnectionSimulator",
		"fail_first_n":                failFirstN,
		"disconnect_after_heartbeats": disconnectAfterHeartbeats,
	}).Debug("Creating connection simulator")

	return chaos.NewConnectionSimulator(failFirstN, disconnectAfterHeartbeats)
}

// WithChunkSize sets the chunk size for the test configuration.
func WithChunkSize(size uint64) TestConfigOption {
	return func(c *interfaces.FaultConfig) {
		c.ChunkSize = size
	}
}

// WithDropEvery drops every nth chunk in the test configuration.
func WithDropEvery(n uint64) TestConfigOption {
	return func(c *interfaces.FaultConfig) {
		c.DropEvery = n
	}
}

// WithWrongOffset sets the wrong offset probability for the test configuration.
func WithWrongOffset(p float64) TestConfigOption {
	return func(c *interfaces.FaultConfig) {
		c.WrongOffsetProbability = p
	}
}

// WithDisconnect sets the disconnect probability for the test configuration.
func WithDisconnect(p float64) TestConfigOption {
	return func(c *interfaces.FaultConfig) {
		c.DisconnectProbability = p
	}
}

// WithCorruption sets the corruption probability for the test configuration.
func WithCorruption(p float64) TestConfigOption {
	return func(c *interfaces.FaultConfig) {
		c.CorruptProbability = p
	}
}

// WithSeed sets the seed for the test configuration.
func WithSeed(seed uint64) TestConfigOption {
	return func(c *interfaces.FaultConfig) {
		c.Seed = seed
	}
}

// CreateSimulationForTesting creates a transfer simulator for tests. It
// starts from a fault-free configuration with the default chunk size and
// TestSeed, ignoring the environment. Options that produce an invalid
// configuration cause a panic, since that is a bug in the test.
func (f *SimulatorFactory) CreateSimulationForTesting(totalBytes uint64, opts ...TestConfigOption) *chaos.TransferSimulator {
	testConfig := interfaces.FaultConfig{
		ChunkSize: limits.DefaultChunkSize,
		Seed:      TestSeed,
	}
	for _, opt := range opts {
		opt(&testConfig)
	}

	logrus.WithFields(logrus.Fields{
		"function":    "CreateSimulationForTesting",
		"total_bytes": totalBytes,
		"drop_every":  testConfig.DropEvery,
		"seed":        testConfig.Seed,
	}).Debug("Creating simulation for testing")

	sim, err := chaos.NewTransferSimulator(totalBytes, testConfig)
	if err != nil {
		panic(fmt.Sprintf("factory: invalid test simulation config: %v", err))
	}
	return sim
}

// GetCurrentConfig returns a copy of the current default configuration.
func (f *SimulatorFactory) GetCurrentConfig() interfaces.FaultConfig {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.defaultConfig
}

// UpdateConfig replaces the factory's default configuration after validating it.
func (f *SimulatorFactory) UpdateConfig(config interfaces.FaultConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid fault config: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function":       "UpdateConfig",
		"old_chunk_size": f.defaultConfig.ChunkSize,
		"new_chunk_size": config.ChunkSize,
		"old_seed":       f.defaultConfig.Seed,
		"new_seed":       config.Seed,
	}).Info("Updating factory configuration")

	f.defaultConfig = config
	return nil
}
