package modem

import "math"

// hilbertCoeffs holds the odd-symmetric windowed-least-squares Hilbert
// FIR coefficients for FilterLength taps. Even-indexed taps are zero
// by construction (a Hilbert transformer has no even-order terms), so
// only the odd taps are populated.
var hilbertCoeffs = makeHilbertCoeffs(FilterLength)

func makeHilbertCoeffs(n int) []float64 {
	coeffs := make([]float64, n)
	center := (n - 1) / 2
	for i := 0; i < n; i++ {
		k := i - center
		if k%2 == 0 {
			continue
		}
		// Windowed ideal Hilbert response 2/(pi*k), Hamming-windowed.
		w := 0.54 - 0.46*math.Cos(2*piConst*float64(i)/float64(n-1))
		coeffs[i] = (2.0 / (piConst * float64(k))) * w
	}
	return coeffs
}

// Frontend converts a stream of real-valued audio samples into an
// analytic (complex) signal: a block-DC remover (moving mean over
// FilterLength samples) followed by a FilterLength-tap Hilbert FIR.
// Streaming, per-sample, constant latency, and allocation-free after
// construction.
type Frontend struct {
	dcWindow [FilterLength]float64
	dcIdx    int
	dcSum    float64
	hist     [FilterLength]float64
	histIdx  int
}

// NewFrontend returns a Frontend with its DC window initialized to
// FilterLength, matching the block-DC remover's required priming size.
func NewFrontend() *Frontend {
	return &Frontend{}
}

// Process consumes one real sample and returns the corresponding
// analytic complex sample.
func (f *Frontend) Process(x float64) complex128 {
	dc := f.blockDC(x)
	return f.hilbert(dc)
}

// blockDC subtracts the moving mean of the last FilterLength samples.
func (f *Frontend) blockDC(x float64) float64 {
	f.dcSum += x - f.dcWindow[f.dcIdx]
	f.dcWindow[f.dcIdx] = x
	f.dcIdx = (f.dcIdx + 1) % FilterLength
	return x - f.dcSum/float64(FilterLength)
}

// hilbert applies the FIR to produce a complex analytic sample whose
// imaginary part approximates the 90-degree-shifted real input, and
// whose real part is the matching delayed real sample (delay =
// center tap) so I/Q stay time-aligned.
func (f *Frontend) hilbert(x float64) complex128 {
	f.hist[f.histIdx] = x
	var acc float64
	center := (FilterLength - 1) / 2
	for k := 0; k < FilterLength; k++ {
		idx := (f.histIdx - k + FilterLength) % FilterLength
		acc += hilbertCoeffs[k] * f.hist[idx]
	}
	f.histIdx = (f.histIdx + 1) % FilterLength
	delayedIdx := (f.histIdx - 1 - center + 2*FilterLength) % FilterLength
	return complex(f.hist[delayedIdx], acc)
}

const piConst = 3.14159265358979323846
