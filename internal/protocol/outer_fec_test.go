package protocol

import (
	"bytes"
	"testing"

	"github.com/leeminho/acoustic-modem/internal/fec"
)

func TestOuterBlockFillsAtDataShards(t *testing.T) {
	b, err := NewOuterBlock(MaxPayloadSize)
	if err != nil {
		t.Fatalf("NewOuterBlock: %v", err)
	}

	for i := 0; i < fec.DefaultDataShards-1; i++ {
		if b.Add([]byte("frame")) {
			t.Fatalf("Add reported full after %d frames, want full at %d", i+1, fec.DefaultDataShards)
		}
	}
	if !b.Add([]byte("frame")) {
		t.Fatalf("Add did not report full at %d frames", fec.DefaultDataShards)
	}
	if b.Len() != fec.DefaultDataShards {
		t.Errorf("Len() = %d, want %d", b.Len(), fec.DefaultDataShards)
	}
}

func TestOuterBlockParityRoundTrip(t *testing.T) {
	enc, err := NewOuterBlock(MaxPayloadSize)
	if err != nil {
		t.Fatalf("NewOuterBlock: %v", err)
	}

	frames := make([][]byte, fec.DefaultDataShards)
	for i := range frames {
		frame := make([]byte, MaxPayloadSize)
		frame[0] = byte(i)
		frames[i] = frame
		enc.Add(frame)
	}

	parity, err := enc.Parity()
	if err != nil {
		t.Fatalf("Parity: %v", err)
	}
	if len(parity) != fec.DefaultParityShards {
		t.Fatalf("got %d parity shards, want %d", len(parity), fec.DefaultParityShards)
	}
	if enc.Len() != 0 {
		t.Errorf("block should reset after Parity, Len() = %d", enc.Len())
	}

	dec, err := NewOuterDecoder()
	if err != nil {
		t.Fatalf("NewOuterDecoder: %v", err)
	}

	shards := make([][]byte, fec.DefaultDataShards+fec.DefaultParityShards)
	copy(shards, frames)
	copy(shards[fec.DefaultDataShards:], parity)

	// Erase a couple of data shards; the parity shards should recover them.
	shards[3] = nil
	shards[100] = nil

	recovered, err := dec.Reconstruct(shards)
	if err != nil {
		t.Fatalf("Reconstruct: %v", err)
	}
	if len(recovered) != fec.DefaultDataShards {
		t.Fatalf("recovered %d shards, want %d", len(recovered), fec.DefaultDataShards)
	}
	if !bytes.Equal(recovered[3], frames[3]) {
		t.Errorf("shard 3 not recovered correctly")
	}
	if !bytes.Equal(recovered[100], frames[100]) {
		t.Errorf("shard 100 not recovered correctly")
	}
}

func TestOuterBlockParityPadsShortBlock(t *testing.T) {
	b, err := NewOuterBlock(MaxPayloadSize)
	if err != nil {
		t.Fatalf("NewOuterBlock: %v", err)
	}
	b.Add([]byte("only one frame"))

	parity, err := b.Parity()
	if err != nil {
		t.Fatalf("Parity on short block: %v", err)
	}
	if len(parity) != fec.DefaultParityShards {
		t.Errorf("got %d parity shards, want %d", len(parity), fec.DefaultParityShards)
	}
}
