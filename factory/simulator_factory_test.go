package factory

import (
	"testing"

	"github.com/opd-ai/filenode/chaos"
	"github.com/opd-ai/filenode/interfaces"
)

// TestNewSimulatorFactory verifies default factory creation
func TestNewSimulatorFactory(t *testing.T) {
	factory := NewSimulatorFactory()
	if factory == nil {
		t.Fatal("NewSimulatorFactory returned nil")
	}

	config := factory.GetCurrentConfig()
	if config.ChunkSize != 1024 {
		t.Errorf("expected default ChunkSize 1024, got %d", config.ChunkSize)
	}
	if config.DropEvery != 0 || config.WrongOffsetProbability != 0 || config.DisconnectProbability != 0 {
		t.Errorf("expected a fault-free default config, got %+v", config)
	}
}

// TestEnvironmentVariableParsing verifies environment variable handling
func TestEnvironmentVariableParsing(t *testing.T) {
	tests := []struct {
		name        string
		envKey      string
		envValue    string
		checkFunc   func(interfaces.FaultConfig) bool
		description string
	}{
		{
			name:        "valid_chunk_size",
			envKey:      EnvChunkSize,
			envValue:    "4096",
			checkFunc:   func(c interfaces.FaultConfig) bool { return c.ChunkSize == 4096 },
			description: "ChunkSize should be 4096",
		},
		{
			name:        "chunk_size_zero",
			envKey:      EnvChunkSize,
			envValue:    "0",
			checkFunc:   func(c interfaces.FaultConfig) bool { return c.ChunkSize == 1024 },
			description: "ChunkSize should fall back to default when below minimum",
		},
		{
			name:        "chunk_size_above_maximum",
			envKey:      EnvChunkSize,
			envValue:    "70000",
			checkFunc:   func(c interfaces.FaultConfig) bool { return c.ChunkSize == 1024 },
			description: "ChunkSize should fall back to default when above maximum",
		},
		{
			name:        "chunk_size_at_maximum",
			envKey:      EnvChunkSize,
			envValue:    "65536",
			checkFunc:   func(c interfaces.FaultConfig) bool { return c.ChunkSize == 65536 },
			description: "ChunkSize should accept value at maximum boundary",
		},
		{
			name:        "invalid_chunk_size",
			envKey:      EnvChunkSize,
			envValue:    "big",
			checkFunc:   func(c interfaces.FaultConfig) bool { return c.ChunkSize == 1024 },
			description: "ChunkSize should fall back to default on invalid value",
		},
		{
			name:        "valid_drop_every",
			envKey:      EnvDropEvery,
			envValue:    "3",
			checkFunc:   func(c interfaces.FaultConfig) bool { return c.DropEvery == 3 },
			description: "DropEvery should be 3",
		},
		{
			name:        "negative_drop_every",
			envKey:      EnvDropEvery,
			envValue:    "-3",
			checkFunc:   func(c interfaces.FaultConfig) bool { return c.DropEvery == 0 },
			description: "DropEvery should fall back to default when negative",
		},
		{
			name:        "valid_wrong_offset",
			envKey:      EnvWrongOffsetProbability,
			envValue:    "0.25",
			checkFunc:   func(c interfaces.FaultConfig) bool { return c.WrongOffsetProbability == 0.25 },
			description: "WrongOffsetProbability should be 0.25",
		},
		{
			name:        "wrong_offset_above_one",
			envKey:      EnvWrongOffsetProbability,
			envValue:    "1.5",
			checkFunc:   func(c interfaces.FaultConfig) bool { return c.WrongOffsetProbability == 0 },
			description: "WrongOffsetProbability should fall back to default above one",
		},
		{
			name:        "disconnect_nan",
			envKey:      EnvDisconnectProbability,
			envValue:    "NaN",
			checkFunc:   func(c interfaces.FaultConfig) bool { return c.DisconnectProbability == 0 },
			description: "DisconnectProbability should reject NaN",
		},
		{
			name:        "valid_disconnect",
			envKey:      EnvDisconnectProbability,
			envValue:    "1",
			checkFunc:   func(c interfaces.FaultConfig) bool { return c.DisconnectProbability == 1 },
			description: "DisconnectProbability should accept the upper boundary",
		},
		{
			name:        "invalid_corrupt",
			envKey:      EnvCorruptProbability,
			envValue:    "often",
			checkFunc:   func(c interfaces.FaultConfig) bool { return c.CorruptProbability == 0 },
			description: "CorruptProbability should fall back to default on invalid value",
		},
		{
			name:        "valid_seed",
			envKey:      EnvSeed,
			envValue:    "18446744073709551615",
			checkFunc:   func(c interfaces.FaultConfig) bool { return c.Seed == 18446744073709551615 },
			description: "Seed should accept the full uint64 range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.envKey, tt.envValue)

			config := NewSimulatorFactory().GetCurrentConfig()
			if !tt.checkFunc(config) {
				t.Errorf("%s, got %+v", tt.description, config)
			}
		})
	}
}

// TestEnvironmentOverridesFileConfig verifies the environment wins over a base config
func TestEnvironmentOverridesFileConfig(t *testing.T) {
	t.Setenv(EnvDropEvery, "7")

	base := interfaces.FaultConfig{ChunkSize: 2048, DropEvery: 2, DisconnectProbability: 0.2}
	config := NewSimulatorFactoryWithConfig(base).GetCurrentConfig()

	if config.DropEvery != 7 {
		t.Errorf("expected DropEvery 7 from environment, got %d", config.DropEvery)
	}
	if config.ChunkSize != 2048 || config.DisconnectProbability != 0.2 {
		t.Errorf("expected base values to survive, got %+v", config)
	}
}

// TestCreateTransferSimulator verifies simulators follow the factory configuration
func TestCreateTransferSimulator(t *testing.T) {
	factory := NewSimulatorFactoryWithConfig(interfaces.FaultConfig{ChunkSize: 512, DropEvery: 2, Seed: 9})

	sim, err := factory.CreateTransferSimulator(4096)
	if err != nil {
		t.Fatalf("CreateTransferSimulator failed: %v", err)
	}
	if sim.Seed() != 9 {
		t.Errorf("expected seed 9, got %d", sim.Seed())
	}
	if _, ok := sim.ReceiveChunk().(chaos.Success); !ok {
		t.Error("expected the first chunk to succeed")
	}
	if _, ok := sim.ReceiveChunk().(chaos.Dropped); !ok {
		t.Error("expected the second chunk to be dropped")
	}
	if sim.Offset() != 512 {
		t.Errorf("expected offset 512, got %d", sim.Offset())
	}

	_, err = factory.CreateTransferSimulatorWithConfig(4096, interfaces.FaultConfig{ChunkSize: 512, CorruptProbability: 2})
	if err == nil {
		t.Error("expected an invalid config to be rejected")
	}
}

// TestCreateSimulationForTesting verifies test simulations are reproducible
func TestCreateSimulationForTesting(t *testing.T) {
	t.Setenv(EnvDropEvery, "2")
	factory := NewSimulatorFactory()

	sim := factory.CreateSimulationForTesting(10000, WithChunkSize(2000), WithDisconnect(0))
	if sim.Seed() != TestSeed {
		t.Errorf("expected seed %d, got %d", TestSeed, sim.Seed())
	}
	for i := 0; i < 4; i++ {
		if _, ok := sim.ReceiveChunk().(chaos.Success); !ok {
			t.Fatalf("chunk %d: environment faults must not leak into test simulations", i+1)
		}
	}
	if _, ok := sim.ReceiveChunk().(chaos.Complete); !ok {
		t.Error("expected the fifth chunk to complete the transfer")
	}

	dropping := factory.CreateSimulationForTesting(10000, WithDropEvery(1), WithSeed(5), WithWrongOffset(0), WithCorruption(0))
	if _, ok := dropping.ReceiveChunk().(chaos.Dropped); !ok {
		t.Error("expected every chunk to be dropped")
	}
}

// TestCreateSimulationForTestingPanicsOnInvalidConfig verifies misuse is loud
func TestCreateSimulationForTestingPanicsOnInvalidConfig(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected a panic for an invalid chunk size")
		}
	}()
	NewSimulatorFactory().CreateSimulationForTesting(100, WithChunkSize(1<<20))
}

// TestCreateConnectionSimulator verifies connection simulators are configured
func TestCreateConnectionSimulator(t *testing.T) {
	sim := NewSimulatorFactory().CreateConnectionSimulator(1, 2)
	if sim.TryConnect().OK {
		t.Error("expected the first attempt to fail")
	}
	if !sim.TryConnect().OK {
		t.Error("expected the second attempt to succeed")
	}
	sim.Heartbeat()
	if !sim.Heartbeat().Disconnected {
		t.Error("expected a disconnect on the second heartbeat")
	}
}

// TestUpdateConfig verifies configuration replacement
func TestUpdateConfig(t *testing.T) {
	factory := NewSimulatorFactoryWithConfig(interfaces.FaultConfig{ChunkSize: 1024})

	if err := factory.UpdateConfig(interfaces.FaultConfig{ChunkSize: 0}); err == nil {
		t.Error("expected an invalid config to be rejected")
	}
	if factory.GetCurrentConfig().ChunkSize != 1024 {
		t.Error("rejected update must not change the config")
	}

	update := interfaces.FaultConfig{ChunkSize: 256, DropEvery: 4, Seed: 3}
	if err := factory.UpdateConfig(update); err != nil {
		t.Fatalf("UpdateConfig failed: %v", err)
	}
	if got := factory.GetCurrentConfig(); got != update {
		t.Errorf("expected %+v, got %+v", update, got)
	}
}

// TestConcurrentAccess verifies the factory is safe for concurrent use
func TestConcurrentAccess(t *testing.T) {
	factory := NewSimulatorFactoryWithConfig(interfaces.FaultConfig{ChunkSize: 1024, Seed: 1})
	done := make(chan struct{})

	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			if i%2 == 0 {
				_ = factory.UpdateConfig(interfaces.FaultConfig{ChunkSize: uint64(512 + i), Seed: 1})
				return
			}
			if _, err := factory.CreateTransferSimulator(1000); err != nil {
				t.Errorf("CreateTransferSimulator failed: %v", err)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
