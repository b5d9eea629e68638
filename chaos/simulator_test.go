package chaos

import (
	"testing"

	"github.com/opd-ai/filenode/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"
)

func newSim(t *testing.T, total uint64, cfg interfaces.FaultConfig) *TransferSimulator {
	t.Helper()
	sim, err := NewTransferSimulator(total, cfg)
	require.NoError(t, err)
	return sim
}

func TestSimulatorFaultFreeDelivery(t *testing.T) {
	sim := newSim(t, 2500, interfaces.FaultConfig{ChunkSize: 1024, Seed: 1})

	first, ok := sim.ReceiveChunk().(Success)
	require.True(t, ok)
	assert.Equal(t, uint64(1024), first.Offset)
	assert.Equal(t, uint64(1024), first.Bytes)
	assert.Equal(t, blake2b.Sum256(first.Data), first.Digest)

	second, ok := sim.ReceiveChunk().(Success)
	require.True(t, ok)
	assert.Equal(t, uint64(2048), second.Offset)

	last, ok := sim.ReceiveChunk().(Complete)
	require.True(t, ok)
	assert.Equal(t, uint64(2500), last.TotalBytes)
	assert.Len(t, last.Data, 452)
	assert.Equal(t, uint64(3), sim.Packets())
}

func TestSimulatorDropEvery(t *testing.T) {
	sim := newSim(t, 100000, interfaces.FaultConfig{ChunkSize: 1024, DropEvery: 3, Seed: 1})

	var dropped []uint64
	for i := 0; i < 9; i++ {
		if d, ok := sim.ReceiveChunk().(Dropped); ok {
			dropped = append(dropped, d.PacketNumber)
		}
	}
	assert.Equal(t, []uint64{3, 6, 9}, dropped)
	assert.Equal(t, uint64(6*1024), sim.Offset())
}

func TestSimulatorWrongOffsetAlwaysDiffers(t *testing.T) {
	sim := newSim(t, 1<<20, interfaces.FaultConfig{ChunkSize: 512, WrongOffsetProbability: 1, Seed: 9})

	for _, cursor := range []uint64{0, 512, 1024, 4096, 100000} {
		sim.ResumeFrom(cursor)
		for i := 0; i < 20; i++ {
			wrong, ok := sim.ReceiveChunk().(WrongOffset)
			require.True(t, ok)
			assert.Equal(t, cursor, wrong.Expected)
			assert.NotEqual(t, wrong.Expected, wrong.Received)
			if wrong.Received < wrong.Expected {
				assert.Equal(t, cursor-1024, wrong.Received)
			} else {
				assert.Equal(t, cursor+1536, wrong.Received)
			}
		}
		assert.Equal(t, cursor, sim.Offset(), "wrong offset faults must not move the cursor")
	}
}

func TestSimulatorDisconnect(t *testing.T) {
	sim := newSim(t, 4096, interfaces.FaultConfig{ChunkSize: 1024, DisconnectProbability: 1, Seed: 3})
	sim.ResumeFrom(2048)

	d, ok := sim.ReceiveChunk().(Disconnected)
	require.True(t, ok)
	assert.Equal(t, uint64(2048), d.AtOffset)
}

func TestSimulatorCorruption(t *testing.T) {
	sim := newSim(t, 4096, interfaces.FaultConfig{ChunkSize: 1024, CorruptProbability: 1, Seed: 5})

	s, ok := sim.ReceiveChunk().(Success)
	require.True(t, ok)
	assert.NotEqual(t, blake2b.Sum256(s.Data), s.Digest)
	assert.Equal(t, blake2b.Sum256(payload(0, 1024)), s.Digest)
}

func TestSimulatorResumeFromClamps(t *testing.T) {
	sim := newSim(t, 1000, interfaces.FaultConfig{Seed: 1})
	sim.ResumeFrom(5000)
	assert.Equal(t, uint64(1000), sim.Offset())

	c, ok := sim.ReceiveChunk().(Complete)
	require.True(t, ok)
	assert.Empty(t, c.Data)
}

func TestSimulatorEmptyPayload(t *testing.T) {
	sim := newSim(t, 0, interfaces.FaultConfig{Seed: 1})
	c, ok := sim.ReceiveChunk().(Complete)
	require.True(t, ok)
	assert.Zero(t, c.TotalBytes)
	assert.Equal(t, blake2b.Sum256(nil), sim.SourceDigest())
}

func TestSimulatorSourceDigest(t *testing.T) {
	const total = 200000
	sim := newSim(t, total, interfaces.FaultConfig{Seed: 1})
	assert.Equal(t, blake2b.Sum256(payload(0, total)), sim.SourceDigest())
}

func TestSimulatorConfigNormalization(t *testing.T) {
	sim := newSim(t, 10, interfaces.FaultConfig{WrongOffsetProbability: 3, DisconnectProbability: -1})
	cfg := sim.Config()
	assert.Equal(t, uint64(1024), cfg.ChunkSize)
	assert.Equal(t, 1.0, cfg.WrongOffsetProbability)
	assert.Equal(t, 0.0, cfg.DisconnectProbability)
	assert.NotZero(t, sim.Seed(), "a zero seed is replaced")

	_, err := NewTransferSimulator(10, interfaces.FaultConfig{ChunkSize: 1 << 20})
	assert.ErrorIs(t, err, interfaces.ErrInvalidChunkSize)

	_, err = NewTransferSimulator(1<<27, interfaces.FaultConfig{})
	assert.Error(t, err)
}

func TestSimulatorSeedReproducible(t *testing.T) {
	cfg := interfaces.FaultConfig{ChunkSize: 256, WrongOffsetProbability: 0.3, DisconnectProbability: 0.3, Seed: 77}
	a := newSim(t, 50000, cfg)
	b := newSim(t, 50000, cfg)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.ReceiveChunk().String(), b.ReceiveChunk().String())
	}
}
