package chaos

import "fmt"

// ChunkResult is the outcome of one simulated chunk delivery.
type ChunkResult interface {
	fmt.Stringer
	isChunkResult()
}

// Success is a delivered chunk. Offset is the cursor after the chunk.
type Success struct {
	Offset uint64
	Bytes  uint64
	Data   []byte
	Digest [32]byte
}

// Dropped is a chunk lost to the periodic drop fault.
type Dropped struct {
	PacketNumber uint64
}

// Disconnected reports the link going down before the chunk was sent.
type Disconnected struct {
	AtOffset uint64
}

// WrongOffset is a chunk that claims to start somewhere other than expected.
type WrongOffset struct {
	Expected uint64
	Received uint64
}

// Complete is the final chunk of the transfer.
type Complete struct {
	TotalBytes uint64
	Data       []byte
	Digest     [32]byte
}

func (r Success) String() string {
	return fmt.Sprintf("Success{offset=%d bytes=%d}", r.Offset, r.Bytes)
}

func (r Dropped) String() string {
	return fmt.Sprintf("Dropped{packet=%d}", r.PacketNumber)
}

func (r Disconnected) String() string {
	return fmt.Sprintf("Disconnected{at_offset=%d}", r.AtOffset)
}

func (r WrongOffset) String() string {
	return fmt.Sprintf("WrongOffset{expected=%d received=%d}", r.Expected, r.Received)
}

func (r Complete) String() string {
	return fmt.Sprintf("Complete{total_bytes=%d}", r.TotalBytes)
}

func (Success) isChunkResult()      {}
func (Dropped) isChunkResult()      {}
func (Disconnected) isChunkResult() {}
func (WrongOffset) isChunkResult()  {}
func (Complete) isChunkResult()     {}
