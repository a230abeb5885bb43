package modem

import (
	"math"
	"math/rand"
	"testing"
)

func TestDemodOrEraseZeroPrev(t *testing.T) {
	if got := demodOrErase(complex(1, 1), 0); got != 0 {
		t.Fatalf("demodOrErase with zero prev = %v, want 0", got)
	}
}

func TestDemodOrEraseNormalCase(t *testing.T) {
	got := demodOrErase(complex(2, 0), complex(1, 0))
	if got != complex(2, 0) {
		t.Fatalf("demodOrErase(2,1) = %v, want 2", got)
	}
}

func TestDemodOrEraseLargeRatioErased(t *testing.T) {
	got := demodOrErase(complex(100, 0), complex(1, 0))
	if got != 0 {
		t.Fatalf("demodOrErase with blown-up ratio = %v, want 0 (erased)", got)
	}
}

func TestCorSeqOnlyOccupiesUsedSubcarriers(t *testing.T) {
	r := corSeq()
	for i, v := range r {
		inRange := i >= FirstSubcarrier && i < FirstSubcarrier+SubcarrierCount
		if !inRange && v != 0 {
			t.Fatalf("bin %d outside used range is non-zero: %v", i, v)
		}
		if inRange && v == 0 {
			t.Fatalf("bin %d inside used range is zero", i)
		}
	}
}

func TestWrapPiStaysInRange(t *testing.T) {
	for _, x := range []float64{0, math.Pi, -math.Pi, 3 * math.Pi, -3 * math.Pi, 0.1, -0.1} {
		w := wrapPi(x)
		if w > math.Pi || w <= -math.Pi {
			t.Fatalf("wrapPi(%v) = %v, outside (-pi, pi]", x, w)
		}
	}
}

func TestCorrelatorStepOnNoiseDoesNotPanic(t *testing.T) {
	c := NewCorrelator()
	var r RingBuffer
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < BufferLength*3; i++ {
		r.Push(complex(rng.NormFloat64()*0.01, rng.NormFloat64()*0.01))
		if r.Full() {
			c.Step(r.View())
		}
	}
}
