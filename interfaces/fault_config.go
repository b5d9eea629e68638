package interfaces

import (
	"errors"
	"fmt"

	"github.com/opd-ai/filenode/limits"
)

// ErrInvalidChunkSize indicates a chunk size outside [1, limits.MaxChunkSize].
var ErrInvalidChunkSize = errors.New("chunk size out of range")

// ErrInvalidProbability indicates a fault probability outside [0, 1].
var ErrInvalidProbability = errors.New("probability must be between 0 and 1")

// FaultConfig holds the fault injection settings of the chaos harness.
type FaultConfig struct {
	// ChunkSize is the number of bytes delivered per simulated chunk.
	ChunkSize uint64 `yaml:"chunk_size"`

	// DropEvery drops every Nth chunk. Zero disables drops.
	DropEvery uint64 `yaml:"drop_every"`

	// WrongOffsetProbability is the chance a chunk arrives at the wrong offset.
	WrongOffsetProbability float64 `yaml:"wrong_offset_probability"`

	// DisconnectProbability is the chance the link drops before a chunk.
	DisconnectProbability float64 `yaml:"disconnect_probability"`

	// CorruptProbability is the chance a delivered chunk has a flipped byte.
	CorruptProbability float64 `yaml:"corrupt_probability"`

	// Seed makes a run reproducible. Zero picks a random seed.
	Seed uint64 `yaml:"seed"`
}

// DefaultFaultConfig returns a fault-free configuration with the default chunk size.
func DefaultFaultConfig() FaultConfig {
	return FaultConfig{ChunkSize: limits.DefaultChunkSize}
}

// Validate checks the configuration bounds.
func (c FaultConfig) Validate() error {
	if err := limits.ValidateChunkSize(c.ChunkSize); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChunkSize, err)
	}
	probabilities := map[string]float64{
		"wrong_offset_probability": c.WrongOffsetProbability,
		"disconnect_probability":   c.DisconnectProbability,
		"corrupt_probability":      c.CorruptProbability,
	}
	for name, p := range probabilities {
		if p < 0 || p > 1 || p != p {
			return fmt.Errorf("%w: %s=%v", ErrInvalidProbability, name, p)
		}
	}
	return nil
}
