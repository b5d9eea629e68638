// Package factory builds chaos simulators from a fault configuration that can
// be adjusted through the environment.
//
// # Configuration
//
// The factory starts from interfaces.DefaultFaultConfig (or a configuration
// loaded from a file) and applies these environment variables on top:
//   - FILENODE_CHAOS_CHUNK_SIZE: chunk size in bytes, 1 to limits.MaxChunkSize
//   - FILENODE_CHAOS_DROP_EVERY: drop every Nth chunk, 0 disables
//   - FILENODE_CHAOS_WRONG_OFFSET_PROBABILITY: 0.0 to 1.0
//   - FILENODE_CHAOS_DISCONNECT_PROBABILITY: 0.0 to 1.0
//   - FILENODE_CHAOS_CORRUPT_PROBABILITY: 0.0 to 1.0
//   - FILENODE_CHAOS_SEED: fixed seed, 0 picks a random one
//
// A value that does not parse or is out of bounds is logged and ignored.
//
// # Usage
//
//	f := factory.NewSimulatorFactory()
//	sim, err := f.CreateTransferSimulator(50000)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := chaos.RunTransfer(ctx, sim, chaos.NewLocalTransfer(nil, nil), chaos.TransferOptions{})
//
// # Testing Support
//
// CreateSimulationForTesting ignores the environment and starts from a
// fault-free, fixed-seed configuration so tests are reproducible:
//
//	sim := f.CreateSimulationForTesting(10000, factory.WithDropEvery(3))
package factory
