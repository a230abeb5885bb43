package modem

import (
	"math"
	"testing"
)

func TestFrontendRemovesDCOffset(t *testing.T) {
	f := NewFrontend()
	const offset = 5.0
	var lastReal float64
	for i := 0; i < 2000; i++ {
		x := offset + math.Sin(2*math.Pi*0.05*float64(i))
		out := f.Process(x)
		lastReal = real(out)
	}
	if math.Abs(lastReal) > offset {
		t.Fatalf("block-DC removal left large residual: real part %v with offset %v", lastReal, offset)
	}
}

func TestFrontendProducesQuadrature(t *testing.T) {
	f := NewFrontend()
	const freq = 0.05
	var maxImag float64
	for i := 0; i < 2000; i++ {
		x := math.Sin(2 * math.Pi * freq * float64(i))
		out := f.Process(x)
		if math.Abs(imag(out)) > maxImag {
			maxImag = math.Abs(imag(out))
		}
	}
	if maxImag < 0.1 {
		t.Fatalf("Hilbert FIR produced negligible quadrature component: max |imag| = %v", maxImag)
	}
}
