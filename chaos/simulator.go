package chaos

import (
	"math/rand/v2"
	"time"

	"github.com/opd-ai/filenode/interfaces"
	"github.com/opd-ai/filenode/limits"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// TransferSimulator serves a synthetic payload chunk by chunk and injects the
// faults described by its FaultConfig. It is not safe for concurrent use; one
// driver owns one simulator.
type TransferSimulator struct {
	config  interfaces.FaultConfig
	seed    uint64
	rng     *rand.Rand
	total   uint64
	offset  uint64
	packets uint64
}

// NewTransferSimulator creates a simulator for a payload of total bytes.
// Probabilities are clamped to [0, 1] and a zero chunk size selects
// limits.DefaultChunkSize. A zero seed is replaced by a time-derived one,
// available through Seed so the run can be reproduced.
func NewTransferSimulator(total uint64, config interfaces.FaultConfig) (*TransferSimulator, error) {
	if config.ChunkSize == 0 {
		config.ChunkSize = limits.DefaultChunkSize
	}
	config.WrongOffsetProbability = clamp(config.WrongOffsetProbability)
	config.DisconnectProbability = clamp(config.DisconnectProbability)
	config.CorruptProbability = clamp(config.CorruptProbability)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := limits.ValidateSimulatedSize(total); err != nil {
		return nil, err
	}

	seed := config.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	logrus.WithFields(logrus.Fields{
		"function":     "NewTransferSimulator",
		"total_bytes":  total,
		"chunk_size":   config.ChunkSize,
		"drop_every":   config.DropEvery,
		"wrong_offset": config.WrongOffsetProbability,
		"disconnect":   config.DisconnectProbability,
		"corrupt":      config.CorruptProbability,
		"seed":         seed,
	}).Debug("Creating transfer simulator")

	return &TransferSimulator{
		config: config,
		seed:   seed,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		total:  total,
	}, nil
}

func clamp(p float64) float64 {
	switch {
	case p != p || p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}

// Seed returns the seed driving the fault schedule.
func (s *TransferSimulator) Seed() uint64 { return s.seed }

// TotalBytes returns the payload size.
func (s *TransferSimulator) TotalBytes() uint64 { return s.total }

// Offset returns the simulated cursor.
func (s *TransferSimulator) Offset() uint64 { return s.offset }

// Packets returns the number of chunks requested so far, faults included.
func (s *TransferSimulator) Packets() uint64 { return s.packets }

// Config returns the effective fault configuration.
func (s *TransferSimulator) Config() interfaces.FaultConfig { return s.config }

// ResumeFrom moves the cursor to offset, clamped to the payload size.
func (s *TransferSimulator) ResumeFrom(offset uint64) {
	if offset > s.total {
		offset = s.total
	}
	s.offset = offset
}

// ReceiveChunk simulates one chunk request. Faults are checked in a fixed
// order: periodic drop, disconnect, wrong offset, then corruption of an
// otherwise good chunk.
func (s *TransferSimulator) ReceiveChunk() ChunkResult {
	s.packets++

	if s.config.DropEvery > 0 && s.packets%s.config.DropEvery == 0 {
		return Dropped{PacketNumber: s.packets}
	}

	if s.hit(s.config.DisconnectProbability) {
		return Disconnected{AtOffset: s.offset}
	}

	if s.hit(s.config.WrongOffsetProbability) {
		return WrongOffset{Expected: s.offset, Received: s.wrongOffset()}
	}

	n := s.config.ChunkSize
	if remaining := s.total - s.offset; remaining < n {
		n = remaining
	}
	data := payload(s.offset, n)
	digest := blake2b.Sum256(data)
	if n > 0 && s.hit(s.config.CorruptProbability) {
		data[s.rng.Uint64N(n)] ^= 0xff
	}
	s.offset += n

	if s.offset >= s.total {
		return Complete{TotalBytes: s.total, Data: data, Digest: digest}
	}
	return Success{Offset: s.offset, Bytes: n, Data: data, Digest: digest}
}

// wrongOffset reports a start two chunks behind or three ahead. Behind is
// only possible once the cursor has moved two chunks, so the result always
// differs from the expected offset.
func (s *TransferSimulator) wrongOffset() uint64 {
	back := 2 * s.config.ChunkSize
	if s.offset >= back && s.rng.Float64() < 0.5 {
		return s.offset - back
	}
	return s.offset + 3*s.config.ChunkSize
}

func (s *TransferSimulator) hit(p float64) bool {
	return p > 0 && s.rng.Float64() < p
}

// SourceDigest returns the BLAKE2b-256 digest of the whole payload.
func (s *TransferSimulator) SourceDigest() [32]byte {
	h, _ := blake2b.New256(nil)
	const block = 64 * 1024
	for off := uint64(0); off < s.total; off += block {
		n := uint64(block)
		if s.total-off < n {
			n = s.total - off
		}
		h.Write(payload(off, n))
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum
}

// payload returns n bytes of the synthetic file starting at offset. The
// content depends only on the position.
func payload(offset, n uint64) []byte {
	data := make([]byte, n)
	for i := range data {
		p := offset + uint64(i)
		data[i] = byte(p*131 + p>>8 + p>>16)
	}
	return data
}
