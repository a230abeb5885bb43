// Package polar implements a rate-1/2 polar code (N=4096, K=2048) with
// Bhattacharyya-parameter frozen-bit construction and a recursive
// successive-cancellation decoder, used to recover the modem's
// payload frames.
package polar

import "math"

// Order is N's base-2 log; N = 1<<Order.
const Order = 12

// N is the polar codeword length (4096).
const N = 1 << Order

// K is the number of information bits (rate 1/2).
const K = N / 2

// Code holds a frozen-bit mask for a fixed (N, K) polar code,
// constructed once at a fixed design SNR and reused for every frame.
type Code struct {
	frozen [N]bool // true = frozen, fixed to 0
}

// NewCode constructs the polar code's frozen-bit set via the standard
// Bhattacharyya-parameter recursion (Z(2i)=2Z(i)-Z(i)^2,
// Z(2i+1)=Z(i)^2) evaluated at a fixed design SNR, keeping the K
// bit-channels with smallest Z as information bits. No reference
// construction was available to port bit-exact, so this uses the
// conventional textbook recursion.
func NewCode(designSNRdB float64) *Code {
	designSNR := math.Pow(10, designSNRdB/10)
	z0 := math.Exp(-designSNR)

	z := []float64{z0}
	for level := 0; level < Order; level++ {
		next := make([]float64, len(z)*2)
		for i, zi := range z {
			next[2*i] = 2*zi - zi*zi
			next[2*i+1] = zi * zi
		}
		z = next
	}

	type idxZ struct {
		idx int
		z   float64
	}
	ranked := make([]idxZ, N)
	for i, zi := range z {
		ranked[i] = idxZ{i, zi}
	}
	// Partial selection: the K smallest-Z channels become information
	// bits. A full sort is simplest here; N=4096 is small enough that
	// this runs once at startup, never on the decode hot path.
	for i := 0; i < len(ranked); i++ {
		for j := i + 1; j < len(ranked); j++ {
			if ranked[j].z < ranked[i].z {
				ranked[i], ranked[j] = ranked[j], ranked[i]
			}
		}
		if i > 4*K {
			break // information set is fully determined well before this
		}
	}

	c := &Code{}
	for i := range c.frozen {
		c.frozen[i] = true
	}
	for i := 0; i < K; i++ {
		c.frozen[ranked[i].idx] = false
	}
	return c
}

// Decode runs successive-cancellation decoding over N log-likelihood
// ratios (positive meaning "more likely a 0", following the channel
// LLR convention) and returns the K information bits (in increasing
// order of their non-frozen bit index) plus a success flag.
//
// No polar.hh reference was available to port the original success
// criterion bit-exact, so success here is a re-encode consistency
// check: the decoded bits are run back through the forward encoder,
// and decoding is declared successful only if every re-encoded
// codeword position agrees with the input LLR's hard decision.
func (c *Code) Decode(llr []float64) ([]byte, bool) {
	// scDecode yields the codeword estimate; the Arikan transform is its
	// own inverse, so encoding it once more recovers the bit vector u.
	codeword := scDecode(llr, c.frozen[:])
	u := polarEncode(codeword)
	info := make([]byte, 0, K)
	for i, bit := range u {
		if !c.frozen[i] {
			info = append(info, byte(bit))
		}
	}

	ok := true
	for i, bit := range codeword {
		hard := 0
		if llr[i] < 0 {
			hard = 1
		}
		if bit != hard {
			ok = false
			break
		}
	}
	return info, ok
}

// polarEncode is the forward Arikan polar transform: the structural
// inverse of scDecode's combine step. u is the full N-bit (possibly
// frozen) codeword; the result is the N-bit transmitted codeword.
func polarEncode(u []int) []int {
	n := len(u)
	if n == 1 {
		return []int{u[0]}
	}
	half := n / 2
	left := make([]int, half)
	for i := 0; i < half; i++ {
		left[i] = u[i] ^ u[i+half]
	}
	right := u[half:]

	encLeft := polarEncode(left)
	encRight := polarEncode(right)

	out := make([]int, n)
	copy(out[:half], encLeft)
	copy(out[half:], encRight)
	return out
}

// Encode maps K information bits (one byte each, 0 or 1) into the
// N-bit codeword: it places them at the non-frozen positions in
// increasing index order (frozen positions fixed to 0, the same
// convention Decode collects information bits in) and applies the
// forward Arikan transform. The structural counterpart to Decode.
func (c *Code) Encode(info []byte) []byte {
	u := make([]int, N)
	pos := 0
	for i := 0; i < N; i++ {
		if !c.frozen[i] {
			if pos < len(info) && info[pos] != 0 {
				u[i] = 1
			}
			pos++
		}
	}
	codeword := polarEncode(u)
	out := make([]byte, N)
	for i, bit := range codeword {
		out[i] = byte(bit)
	}
	return out
}

// LLRFromSoft converts the decoder's int8 soft-bit buffer into
// float64 LLRs at unit scale; the soft-bit values themselves already
// carry the precision-scaled reliability from Decoder.precision.
func LLRFromSoft(soft []int8) []float64 {
	out := make([]float64, len(soft))
	for i, v := range soft {
		out[i] = float64(v)
	}
	return out
}

func scDecode(llr []float64, frozen []bool) []int {
	n := len(llr)
	if n == 1 {
		if frozen[0] || llr[0] >= 0 {
			return []int{0}
		}
		return []int{1}
	}

	half := n / 2
	llrLeft := make([]float64, half)
	for i := 0; i < half; i++ {
		llrLeft[i] = boxPlus(llr[i], llr[i+half])
	}
	uLeft := scDecode(llrLeft, frozen[:half])

	llrRight := make([]float64, half)
	for i := 0; i < half; i++ {
		sign := 1.0
		if uLeft[i] == 1 {
			sign = -1.0
		}
		llrRight[i] = llr[i+half] + sign*llr[i]
	}
	uRight := scDecode(llrRight, frozen[half:])

	u := make([]int, n)
	for i := 0; i < half; i++ {
		u[i] = uLeft[i] ^ uRight[i]
		u[i+half] = uRight[i]
	}
	return u
}

// boxPlus is the min-sum approximation of the LLR check-node update.
func boxPlus(a, b float64) float64 {
	sign := 1.0
	if (a < 0) != (b < 0) {
		sign = -1.0
	}
	abs := math.Abs(a)
	if bb := math.Abs(b); bb < abs {
		abs = bb
	}
	return sign * abs
}
