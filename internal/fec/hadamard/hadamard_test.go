package hadamard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for msg := 0; msg < Len; msg++ {
		code := Encode(uint8(msg))
		soft := make([]int8, Len)
		for i, v := range code {
			switch {
			case v > 0:
				soft[i] = 100
			case v < 0:
				soft[i] = -100
			}
		}
		got := Decode(soft)
		require.Equalf(t, msg, int(got), "message %d", msg)
	}
}

func TestDecodeToleratesNoise(t *testing.T) {
	code := Encode(42)
	soft := make([]int8, Len)
	for i, v := range code {
		if v > 0 {
			soft[i] = 20
		} else {
			soft[i] = -20
		}
	}
	// Flip a handful of positions hard the wrong way; the transform's
	// majority vote across all 128 positions should still recover 42.
	for _, i := range []int{0, 5, 17, 33, 64, 100} {
		soft[i] = -soft[i]
	}
	require.EqualValues(t, 42, Decode(soft))
}
