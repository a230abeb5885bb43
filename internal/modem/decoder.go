package modem

import (
	"github.com/leeminho/acoustic-modem/internal/fec/hadamard"
	"github.com/leeminho/acoustic-modem/internal/fec/polar"
	"github.com/leeminho/acoustic-modem/internal/fec/scrambler"
)

// metaPrecision is the fixed soft-bit precision applied to the
// metadata symbol. Unlike payload symbols, metadata has no per-symbol
// SNR estimate to fall back on (it demodulates against its own first
// half rather than a persistent previous symbol), so decoder.hh uses
// a constant here.
const metaPrecision = 8.0

// frameSeed is the descrambler's fixed seed. decoder.hh's fetch()
// descrambles with a default-constructed CODE::Xorshift32, independent
// of anything decoded from the frame; it is not derived from metadata.
const frameSeed uint32 = 1

// Decoder is the public receive-side orchestration API: feed raw
// audio samples in, Feed/Process them through the streaming front
// end, preamble correlator and OFDM symbol extractor, and Fetch the
// decoded payload once a frame completes. Grounded on decoder.hh's
// feed/process/fetch/preamble methods.
//
// A Decoder owns every buffer it needs; after construction, Feed and
// Process never allocate.
type Decoder struct {
	frontend *Frontend
	ring     RingBuffer
	corr     *Correlator
	osc      *phasor

	accumulated int

	storedValid bool
	storedPos   int
	storedCFO   float64

	stagedValid bool
	stagedPos   int
	stagedCFO   float64

	framePos     int
	cfo          float64
	symbolNumber int // -1 = priming call, PayloadSymbols = idle

	prevFreq [SymbolLength]complex128
	symFreq  [SymbolLength]complex128

	metaSoft [MetaLen]int8
	codeSoft [CodeLen]int8

	polarCode *polar.Code
}

// NewDecoder constructs a Decoder ready to accept audio samples.
func NewDecoder() *Decoder {
	d := &Decoder{
		frontend:     NewFrontend(),
		corr:         NewCorrelator(),
		osc:          newPhasor(0),
		polarCode:    polar.NewCode(0),
		symbolNumber: PayloadSymbols,
	}
	return d
}

// Feed admits a block of real-valued audio samples (one host audio
// callback's worth — conventionally ExtendedLength samples) into the
// streaming front end and correlator. It returns true exactly when
// this call crossed an ExtendedLength sample boundary, the signal
// for the caller to invoke Process once.
//
// Internally this is the stored->staged two-stage latch: Feed is the
// single writer of "stored" (the latest raw detection), and promotes
// stored into "staged" only at a boundary crossing, so Process always
// observes a detection result from a fully-settled cycle rather than
// one that could still change mid-block.
func (d *Decoder) Feed(samples []float32) bool {
	crossed := false
	for _, s := range samples {
		analytic := d.frontend.Process(float64(s))
		d.ring.Push(analytic)

		if d.ring.Full() {
			if res := d.corr.Step(d.ring.View()); res.Detected {
				d.storedValid = true
				d.storedPos = res.SymbolPos + d.accumulated - ExtendedLength
				d.storedCFO = res.CFORad
			}
		}

		d.accumulated++
		if d.accumulated >= ExtendedLength {
			d.accumulated -= ExtendedLength
			d.stagedValid = d.storedValid
			d.stagedPos = d.storedPos
			d.stagedCFO = d.storedCFO
			d.storedValid = false
			crossed = true
		}
	}
	return crossed
}

// Process advances the frame state machine by exactly one
// ExtendedLength-sample cycle. Call it once per true return from
// Feed. It returns true exactly when a full payload frame has been
// accumulated and is ready for Fetch.
func (d *Decoder) Process() bool {
	if d.stagedValid {
		d.stagedValid = false
		if d.decodeMetaSymbol(d.stagedPos, d.stagedCFO) {
			d.framePos = d.stagedPos
			d.cfo = d.stagedCFO
			*d.osc = *newPhasor(-d.cfo)
			d.symbolNumber = -1
			return false
		}
	}

	if d.symbolNumber < PayloadSymbols {
		d.decodePayloadSymbol(d.symbolNumber)
		d.symbolNumber++
		if d.symbolNumber >= PayloadSymbols {
			return true
		}
	}
	return false
}

// extractSymbol mixes down and FFTs the SymbolLength samples starting
// at start through osc, then advances osc through the trailing
// GuardLength samples of the slot without mixing them, so the
// oscillator's phase stays continuous into the next symbol window.
func extractSymbol(view []complex128, osc *phasor, start int, dst *[SymbolLength]complex128) {
	for i := 0; i < SymbolLength; i++ {
		dst[i] = osc.mix(view[start+i])
	}
	fftInPlace(dst[:])
	osc.advance(GuardLength)
}

// precision estimates a symbol's reliability as the ratio of hard-
// decision signal power to hard-decision error power, summed over
// every subcarrier per decoder.hh's precision(): sp = sum|hard_i|^2,
// np = sum|cons_i-hard_i|^2, where hard_i is the nearest-constellation
// hard decision for cons_i. Per the Open Question resolution, np~0
// (an unusually clean symbol) is capped at a fixed precision of 8.0
// rather than dividing by zero.
func precision(cons []complex128) float64 {
	var sp, np float64
	for _, c := range cons {
		hard := mapHard(demapHard(c))
		sp += norm(hard)
		np += norm(c - hard)
	}
	if np < 1e-12 {
		return 8.0
	}
	return sp / np
}

// decodeMetaSymbol decodes the preamble's own metadata payload: the
// preamble's two ExtendedLength-spaced halves, read as two
// SymbolLength windows at position and position+ExtendedLength using
// a local oscillator seeded at -cfoRad (independent of the persistent
// payload oscillator), differentially demodulated window2-against-
// window1 at a fixed precision of 8, Hadamard-decoded across
// MetaLen=SubcarrierCount*ModBits soft bits. Returns true only when
// the decoded value is exactly 1, the frame's authorization marker.
func (d *Decoder) decodeMetaSymbol(position int, cfoRad float64) bool {
	view := d.ring.View()
	osc := newPhasor(-cfoRad)

	var window1 [SymbolLength]complex128
	extractSymbol(view, osc, position, &window1)
	extractSymbol(view, osc, position+ExtendedLength, &d.symFreq)

	bitIdx := 0
	for k := 0; k < SubcarrierCount; k++ {
		bin := FirstSubcarrier + k
		cons := demodOrErase(d.symFreq[bin], window1[bin])
		b0, b1 := demapSoft(cons, metaPrecision)
		d.metaSoft[bitIdx] = b0
		d.metaSoft[bitIdx+1] = b1
		bitIdx += ModBits
	}

	return hadamard.Decode(d.metaSoft[:]) == 1
}

// decodePayloadSymbol decodes payload OFDM symbol index into its
// share of the CodeLen polar-code soft-bit buffer, differentially
// demodulated against d.prevFreq (the previous call's symbol).
//
// index ranges over [-1, PayloadSymbols): -1 is a priming call that
// only seeds d.prevFreq from the first payload window (the same
// window metadata's second half already read) and produces no soft
// bits, matching decoder.hh's symbol_number convention.
//
// d.framePos is never advanced between symbols: Process is called
// exactly once per ExtendedLength-sample Feed cycle, and the ring
// buffer's view shifts forward by ExtendedLength samples every cycle,
// so the same relative offset that pointed at this frame's first
// symbol already points at the next symbol on the following call.
func (d *Decoder) decodePayloadSymbol(index int) {
	view := d.ring.View()
	extractSymbol(view, d.osc, d.framePos, &d.symFreq)

	if index >= 0 {
		base := index * SubcarrierCount * ModBits
		var cons [SubcarrierCount]complex128
		for k := 0; k < SubcarrierCount; k++ {
			bin := FirstSubcarrier + k
			cons[k] = demodOrErase(d.symFreq[bin], d.prevFreq[bin])
		}
		p := precision(cons[:])
		bitIdx := 0
		for k := 0; k < SubcarrierCount; k++ {
			b0, b1 := demapSoft(cons[k], p)
			d.codeSoft[base+bitIdx] = b0
			d.codeSoft[base+bitIdx+1] = b1
			bitIdx += ModBits
		}
	}

	copy(d.prevFreq[:], d.symFreq[:])
}

// Fetch decodes the accumulated polar codeword into out (which must
// be at least MesgBytes long) and descrambles it in place, returning
// the polar decoder's success flag. Call it only after Process has
// returned true. Per decoder.hh's fetch(), out is written (post-
// descrambling) even when decoding fails, so the caller may still
// inspect the bytes.
func (d *Decoder) Fetch(out []byte) bool {
	llr := polar.LLRFromSoft(d.codeSoft[:])
	infoBits, ok := d.polarCode.Decode(llr)

	for i := 0; i < MesgBytes; i++ {
		var b byte
		for bit := 0; bit < 8; bit++ {
			idx := i*8 + bit
			if idx < len(infoBits) && infoBits[idx] != 0 {
				b |= 1 << uint(7-bit)
			}
		}
		out[i] = b
	}

	descr := scrambler.NewXorshift32(frameSeed)
	copy(out[:MesgBytes], descr.Descramble(out[:MesgBytes]))
	return ok
}
