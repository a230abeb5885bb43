// Package hadamard implements a length-128 (order-7) Hadamard-code
// decoder via the fast Walsh-Hadamard transform, used to recover the
// modem's 7-bit frame-metadata codewords.
package hadamard

// Order is the base-2 log of the codeword length: Len = 1 << Order,
// and the decoded message carries Order bits.
const Order = 7

// Len is the Hadamard codeword length (128).
const Len = 1 << Order

// Decode takes Len signed soft-bit values (one per codeword position,
// positive meaning "more likely a 0", matching Encode's bit-0-to-+1
// mapping and the rest of the modem) and returns the most likely
// Order-bit message by fast Walsh-Hadamard transform: the transform
// coefficient with the largest magnitude corresponds to the
// transmitted row of the Hadamard matrix. The coefficient's sign is
// not used: the 128 codewords already enumerate the full 7-bit
// message space one-to-one.
func Decode(soft []int8) uint8 {
	var buf [Len]float64
	for i, v := range soft {
		if i >= Len {
			break
		}
		buf[i] = float64(v)
	}
	fwht(buf[:])

	best, bestMag := 0, -1.0
	for i, v := range buf {
		mag := v
		if mag < 0 {
			mag = -mag
		}
		if mag > bestMag {
			bestMag = mag
			best = i
		}
	}
	return uint8(best)
}

// Encode produces the Len-length bipolar codeword for an Order-bit
// message, used by tests to build round-trip vectors.
func Encode(message uint8) [Len]float64 {
	var buf [Len]float64
	buf[message&(Len-1)] = 1
	fwht(buf[:])
	return buf
}

// fwht performs an in-place fast Walsh-Hadamard transform of a
// power-of-two-length real sequence.
func fwht(a []float64) {
	n := len(a)
	for size := 1; size < n; size <<= 1 {
		for start := 0; start < n; start += size * 2 {
			for i := start; i < start+size; i++ {
				x, y := a[i], a[i+size]
				a[i] = x + y
				a[i+size] = x - y
			}
		}
	}
}
