package protocol

import (
	"fmt"

	"github.com/leeminho/acoustic-modem/internal/fec"
)

// OuterBlock batches up to fec.DefaultDataShards physical-layer frame
// payloads and computes fec.DefaultParityShards parity shards across
// them with Reed-Solomon, so a run of lost frames within one block can
// be reconstructed rather than retransmitted. Grounded on the
// teacher's internal/fec/reed_solomon.go, repurposed from a per-frame
// inner code into this outer, multi-frame erasure code (see
// DESIGN.md).
type OuterBlock struct {
	rs        *fec.RSEncoder
	shardSize int
	frames    [][]byte
}

// NewOuterBlock constructs an empty block ready to accept up to
// fec.DefaultDataShards frame payloads, each padded/truncated to
// shardSize bytes (MaxPayloadSize is the natural choice).
func NewOuterBlock(shardSize int) (*OuterBlock, error) {
	rs, err := fec.NewRSEncoder()
	if err != nil {
		return nil, fmt.Errorf("new outer block: %w", err)
	}
	return &OuterBlock{rs: rs, shardSize: shardSize}, nil
}

// Add appends one frame payload to the block, padding it to
// shardSize. It returns true once the block holds a full
// DefaultDataShards frames and is ready for Parity.
func (b *OuterBlock) Add(payload []byte) bool {
	shard := make([]byte, b.shardSize)
	copy(shard, payload)
	b.frames = append(b.frames, shard)
	return len(b.frames) == b.rs.DataShards()
}

// Len reports how many data frames the block currently holds.
func (b *OuterBlock) Len() int { return len(b.frames) }

// Parity computes the parity shards for the current (possibly
// short, zero-padded) block and resets it for the next block.
func (b *OuterBlock) Parity() ([][]byte, error) {
	for len(b.frames) < b.rs.DataShards() {
		b.frames = append(b.frames, make([]byte, b.shardSize))
	}
	shards, err := b.rs.EncodeShards(b.frames)
	if err != nil {
		return nil, fmt.Errorf("outer block parity: %w", err)
	}
	parity := shards[b.rs.DataShards():]
	b.frames = nil
	return parity, nil
}

// OuterDecoder reassembles a block of data+parity shards, some of
// which may be missing (nil), into the original data frame payloads.
type OuterDecoder struct {
	rs *fec.RSEncoder
}

// NewOuterDecoder constructs a decoder matching NewOuterBlock's shard
// layout.
func NewOuterDecoder() (*OuterDecoder, error) {
	rs, err := fec.NewRSEncoder()
	if err != nil {
		return nil, fmt.Errorf("new outer decoder: %w", err)
	}
	return &OuterDecoder{rs: rs}, nil
}

// Reconstruct takes a full-width shard slice (length
// DataShards+ParityShards, missing entries nil) and returns the
// DataShards data frame payloads with any missing ones recovered.
func (d *OuterDecoder) Reconstruct(shards [][]byte) ([][]byte, error) {
	data, err := d.rs.ReconstructShards(shards)
	if err != nil {
		return nil, fmt.Errorf("outer decode: %w", err)
	}
	return data, nil
}
