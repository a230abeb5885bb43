package modem

import "math"

// qpskPoints are the four QPSK constellation points, listed
// counter-clockwise from (1,1) and unit-average-power normalized.
// mapHard and demapHard address them by array position; demapSoft
// takes one bit from the sign of each axis, a Gray mapping. The wire format fixes
// QPSK as its only constellation (ModBits=2); there is no 16/64-QAM
// path to generalize to.
var qpskPoints = normalizeQPSK([4]complex128{
	complex(1, 1),
	complex(-1, 1),
	complex(-1, -1),
	complex(1, -1),
})

func normalizeQPSK(points [4]complex128) [4]complex128 {
	var avgPower float64
	for _, p := range points {
		avgPower += real(p)*real(p) + imag(p)*imag(p)
	}
	avgPower /= float64(len(points))
	scale := 1.0 / math.Sqrt(avgPower)
	var out [4]complex128
	for i, p := range points {
		out[i] = complex(real(p)*scale, imag(p)*scale)
	}
	return out
}

// mapHard returns the QPSK point for a 2-bit index (MSB first).
func mapHard(idx int) complex128 {
	return qpskPoints[idx&3]
}

// demapHard finds the nearest QPSK point to symbol and returns its
// 2-bit index.
func demapHard(symbol complex128) int {
	best, bestDist := 0, math.MaxFloat64
	for i, p := range qpskPoints {
		d := real(symbol-p)*real(symbol-p) + imag(symbol-p)*imag(symbol-p)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// demapSoft converts one demodulated QPSK symbol into two signed soft
// bits, each proportional to the symbol's I/Q projection and scaled
// by precision (the estimated reliability of this symbol, from
// Decoder.precision). The first soft bit corresponds to the in-phase
// axis, the second to quadrature — matching decoder.hh's mod_soft.
func demapSoft(symbol complex128, precision float64) (int8, int8) {
	return quantizeSoft(real(symbol) * precision), quantizeSoft(imag(symbol) * precision)
}

// quantizeSoft clamps a soft value to the int8 range used by the
// Hadamard/Polar decoders' LLR-like soft-bit buffers.
func quantizeSoft(v float64) int8 {
	const lim = 127
	if v > lim {
		return lim
	}
	if v < -lim {
		return -lim
	}
	return int8(math.Round(v))
}
