package polar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodeFrozenSetSize(t *testing.T) {
	c := NewCode(0)
	var info int
	for _, f := range c.frozen {
		if !f {
			info++
		}
	}
	require.Equal(t, K, info)
}

func TestDecodeAllZerosOnStrongLLRs(t *testing.T) {
	c := NewCode(0)
	llr := make([]float64, N)
	for i := range llr {
		llr[i] = 50 // strongly favors bit=0 everywhere
	}
	info, ok := c.Decode(llr)
	require.True(t, ok)
	require.Len(t, info, K)
	for i, b := range info {
		assert.Equalf(t, byte(0), b, "info bit %d", i)
	}
}

func TestBoxPlusSignAndMagnitude(t *testing.T) {
	assert.Equal(t, 3.0, boxPlus(5, 3))
	assert.Equal(t, -3.0, boxPlus(-5, 3))
}
