package modem

import (
	"math"
	"math/cmplx"
)

// DetectResult reports the outcome of one Correlator.Step call.
type DetectResult struct {
	Detected  bool
	SymbolPos int     // index into the ring-buffer view where the symbol begins
	CFORad    float64 // residual carrier frequency offset, radians/sample
}

// corSeq builds the frequency-domain Schmidl-Cox reference: an MLS
// sequence of +-1 values placed on the used subcarrier bins
// [FirstSubcarrier, FirstSubcarrier+SubcarrierCount), zero elsewhere.
// NewCorrelator forward-FFTs this pattern to build the matched-filter
// kernel, per schmidl_cox.hh's kernel construction.
func corSeq() [SymbolLength]complex128 {
	var r [SymbolLength]complex128
	mls := generateMLS(SubcarrierCount)
	for i, v := range mls {
		r[FirstSubcarrier+i] = complex(v, 0)
	}
	return r
}

// demodOrErase performs differential demodulation of curr against
// prev, erasing (returning 0) when prev carries no energy or when the
// resulting constellation point has blown up past a sane radius —
// both signs of a subcarrier that is not part of the reference
// sequence. Grounded on decoder.hh's demod_or_erase.
func demodOrErase(curr, prev complex128) complex128 {
	if prev == 0 {
		return 0
	}
	cons := curr / prev
	if re, im := real(cons), imag(cons); re*re+im*im > 4 {
		return 0
	}
	return cons
}

// Correlator implements streaming Schmidl-Cox preamble timing and
// frequency-offset detection: a per-sample auto-correlation metric
// feeding a Schmitt trigger / falling-edge peak tracker, and — once a
// peak is confirmed — a double-FFT cross-correlation against corSeq's
// kernel to resolve exact symbol timing and residual carrier offset.
// Grounded line-for-line on schmidl_cox.hh's operator().
type Correlator struct {
	kern [SymbolLength]complex128

	cor   movingSumComplex128
	pwr   movingSumF64n4
	match movingSumF64
	align delayLineF64

	threshold *schmittTrigger
	falling   fallingEdgeTrigger

	timingMax float64
	phaseMax  float64
	indexMax  int

	tmp0 [SymbolLength]complex128
	tmp1 [SymbolLength]complex128
}

// NewCorrelator builds a Correlator with its kernel precomputed from
// corSeq and its Schmitt trigger thresholds set per schmidl_cox.hh
// (low=0.2*matchLength, high=0.3*matchLength).
func NewCorrelator() *Correlator {
	c := &Correlator{}
	r := corSeq()
	copy(c.kern[:], r[:])
	fftInPlace(c.kern[:])
	for i := range c.kern {
		c.kern[i] = complex(real(c.kern[i]), -imag(c.kern[i])) / complex(SymbolLength, 0)
	}
	c.threshold = newSchmittTrigger(0.2*float64(matchLength), 0.3*float64(matchLength))
	return c
}

// Step consumes the current ring-buffer view (oldest-first, length
// BufferLength) after a new sample has been pushed, and updates the
// internal peak tracker. It returns a DetectResult with Detected set
// true exactly on the sample where a confirmed preamble has been
// fully resolved.
func (c *Correlator) Step(view []complex128) DetectResult {
	s0 := view[SearchPosition]
	s1 := view[SearchPosition+SymbolLength]

	p := c.cor.push(s0 * cmplx.Conj(s1))
	r := 0.5 * c.pwr.push(norm(s0)+norm(s1))
	if minR := 0.00001 * float64(SymbolLength); r < minR {
		r = minR
	}
	timing := c.match.push(norm(p) / (r * r))
	phase := c.align.push(cmplx.Phase(p))

	collect := c.threshold.push(timing)
	process := c.falling.push(collect)

	if !collect && !process {
		return DetectResult{}
	}
	if c.timingMax < timing {
		c.timingMax = timing
		c.phaseMax = phase
		c.indexMax = matchDelay
	} else if c.indexMax < SymbolLength+GuardLength+matchDelay {
		c.indexMax++
	}
	if !process {
		return DetectResult{}
	}
	result := c.resolve(view)
	c.timingMax = 0
	c.indexMax = 0
	return result
}

// resolve performs the double-FFT cross-correlation that pins down
// exact symbol timing and residual carrier offset once a peak has
// been confirmed by the falling-edge trigger.
func (c *Correlator) resolve(view []complex128) DetectResult {
	fracCFO := c.phaseMax / float64(SymbolLength)
	testPos := SearchPosition - c.indexMax

	osc := newPhasor(fracCFO)
	for i := 0; i < SymbolLength; i++ {
		c.tmp0[i] = osc.mix(view[testPos+i])
	}
	fftInPlace(c.tmp0[:])

	for i := 0; i < SymbolLength; i++ {
		prev := c.tmp0[(i-1+SymbolLength)%SymbolLength]
		c.tmp1[i] = demodOrErase(c.tmp0[i], prev)
	}
	fftInPlace(c.tmp1[:])
	for i := range c.tmp1 {
		c.tmp1[i] *= c.kern[i]
	}
	ifftInPlace(c.tmp1[:])

	peak, next, shift := 0.0, 0.0, 0
	for i, v := range c.tmp1 {
		m := cmplx.Abs(v)
		if m > peak {
			next = peak
			peak = m
			shift = i
		} else if m > next {
			next = m
		}
	}
	if peak <= next*4 {
		return DetectResult{}
	}

	posErr := int(math.Round(cmplx.Phase(c.tmp1[shift]) * float64(SymbolLength) / (2 * math.Pi)))
	if posErr < 0 {
		if -posErr > GuardLength/2 {
			return DetectResult{}
		}
	} else if posErr > GuardLength/2 {
		return DetectResult{}
	}

	symbolPos := testPos - posErr
	cfoRad := float64(shift)*(2*math.Pi/float64(SymbolLength)) - fracCFO
	cfoRad = wrapPi(cfoRad)

	return DetectResult{Detected: true, SymbolPos: symbolPos, CFORad: cfoRad}
}

func norm(c complex128) float64 {
	re, im := real(c), imag(c)
	return re*re + im*im
}

// wrapPi wraps an angle into (-pi, pi].
func wrapPi(x float64) float64 {
	for x > math.Pi {
		x -= 2 * math.Pi
	}
	for x <= -math.Pi {
		x += 2 * math.Pi
	}
	return x
}
