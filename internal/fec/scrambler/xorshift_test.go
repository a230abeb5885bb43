package scrambler

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescrambleRoundTrip(t *testing.T) {
	plain := bytes.Repeat([]byte("hello acoustic modem"), 4)

	tx := NewXorshift32(1234)
	scrambled := tx.Descramble(plain)

	rx := NewXorshift32(1234)
	recovered := rx.Descramble(scrambled)

	require.True(t, bytes.Equal(plain, recovered))
}

func TestZeroSeedRemappedToOne(t *testing.T) {
	a := NewXorshift32(0)
	b := NewXorshift32(1)
	require.Equal(t, b.Next(), a.Next())
}

func TestNextIsDeterministic(t *testing.T) {
	a := NewXorshift32(99)
	b := NewXorshift32(99)
	for i := 0; i < 100; i++ {
		require.Equalf(t, b.Next(), a.Next(), "step %d", i)
	}
}
