package modem

// movingSumF64 is a fixed-length moving sum (SMA, "simple moving
// average" without the division) over float64 samples, grounded on
// schmidl_cox.hh's DSP::SMA4 field. Used for the Schmidl-Cox timing
// metric, which only ever needs the running sum, not the average.
type movingSumF64 struct {
	window [matchLength]float64
	idx    int
	sum    float64
}

func (m *movingSumF64) push(x float64) float64 {
	m.sum += x - m.window[m.idx]
	m.window[m.idx] = x
	m.idx = (m.idx + 1) % matchLength
	return m.sum
}

// movingSumComplex128 is the complex-valued counterpart of
// movingSumF64, used to accumulate the Schmidl-Cox correlation P.
type movingSumComplex128 struct {
	window [4]complex128
	idx    int
	sum    complex128
}

func (m *movingSumComplex128) push(x complex128) complex128 {
	m.sum += x - m.window[m.idx]
	m.window[m.idx] = x
	m.idx = (m.idx + 1) % 4
	return m.sum
}

// movingSumF64n4 accumulates a 4-tap moving sum of a real-valued
// signal (used for the Schmidl-Cox power metric R).
type movingSumF64n4 struct {
	window [4]float64
	idx    int
	sum    float64
}

func (m *movingSumF64n4) push(x float64) float64 {
	m.sum += x - m.window[m.idx]
	m.window[m.idx] = x
	m.idx = (m.idx + 1) % 4
	return m.sum
}

// delayLineF64 is a fixed-length delay of real-valued samples,
// grounded on schmidl_cox.hh's DSP::Delay field (used to align the
// phase estimate with the timing metric's peak).
type delayLineF64 struct {
	window [matchDelay + 1]float64
	idx    int
}

func (d *delayLineF64) push(x float64) float64 {
	out := d.window[d.idx]
	d.window[d.idx] = x
	d.idx = (d.idx + 1) % len(d.window)
	return out
}

// schmittTrigger implements a hysteresis comparator: once armed high
// it stays high until the input drops below low, and vice versa.
// Grounded on schmidl_cox.hh's DSP::SchmittTrigger field, used to
// turn the noisy timing metric into a clean high/low preamble-present
// flag.
type schmittTrigger struct {
	low, high float64
	state     bool
}

func newSchmittTrigger(low, high float64) *schmittTrigger {
	return &schmittTrigger{low: low, high: high}
}

func (s *schmittTrigger) push(x float64) bool {
	if x < s.low {
		s.state = false
	} else if x > s.high {
		s.state = true
	}
	return s.state
}

// fallingEdgeTrigger reports true exactly on the sample where its
// input transitions from true to false. Grounded on schmidl_cox.hh's
// DSP::FallingEdgeTrigger field, used to fire the peak-tracking
// decision once the Schmitt trigger releases.
type fallingEdgeTrigger struct {
	prev bool
}

func (f *fallingEdgeTrigger) push(x bool) bool {
	fired := f.prev && !x
	f.prev = x
	return fired
}
