package modem

import "math/cmplx"

// phasor is a unit-magnitude complex oscillator (NCO), grounded on
// decoder.hh/schmidl_cox.hh's DSP::Phasor<cmplx> field. Each call to
// mix multiplies the sample by the current rotor and advances the
// rotor by a fixed angular step, renormalizing periodically so
// repeated multiplication doesn't drift off the unit circle.
type phasor struct {
	rotor complex128
	step  complex128
	count int
}

// newPhasor constructs an oscillator starting at phase 0 with angular
// step omega radians per sample.
func newPhasor(omega float64) *phasor {
	return &phasor{
		rotor: complex(1, 0),
		step:  cmplx.Exp(complex(0, omega)),
	}
}

// mix multiplies x by the current rotor value and advances the
// oscillator by one step.
func (p *phasor) mix(x complex128) complex128 {
	y := x * p.rotor
	p.rotor *= p.step
	p.count++
	if p.count&1023 == 0 {
		p.rotor /= complex(cmplx.Abs(p.rotor), 0)
	}
	return y
}

// reset returns the oscillator to phase 0 without changing its step.
func (p *phasor) reset() {
	p.rotor = complex(1, 0)
	p.count = 0
}

// advance steps the oscillator forward n samples without mixing any
// data, used to keep phase continuous across a guard interval that is
// skipped rather than FFT'd (schmidl_cox.hh/decoder.hh step a local
// nco() through guard_length ticks between the two windows of a
// symbol pair without consuming a sample each time).
func (p *phasor) advance(n int) {
	for i := 0; i < n; i++ {
		p.rotor *= p.step
		p.count++
		if p.count&1023 == 0 {
			p.rotor /= complex(cmplx.Abs(p.rotor), 0)
		}
	}
}
