// Package modem implements the receive-side acoustic modem: streaming
// front end, Schmidl-Cox preamble detection, OFDM symbol extraction and
// differential QPSK demodulation.
package modem

// Fixed, bit-exact-with-the-transmitter frame geometry. None of these
// are configurable: the wire format supports exactly one constellation
// and one frame shape.
const (
	SymbolLength    = 256              // FFT size per OFDM symbol
	GuardLength     = SymbolLength / 8 // cyclic-prefix / guard margin
	ExtendedLength  = SymbolLength + GuardLength
	SubcarrierCount = 64  // data subcarriers per symbol
	FirstSubcarrier = 16  // lowest used FFT bin
	ModBits         = 2   // QPSK: 2 soft bits per subcarrier
	PayloadSymbols  = 32  // data OFDM symbols per frame
	MetaLen         = 128 // metadata bit count (Hadamard-coded)
	CodeOrder       = 12  // polar code length = 2^12
	CodeLen         = 1 << CodeOrder
	MesgBytes       = 256 // decoded payload size
	FilterLength    = 33  // Hilbert FIR taps / block-DC window
	BufferLength    = 5 * ExtendedLength
	SearchPosition  = 2 * ExtendedLength
	MLSPolynomial   = 0b1100111

	matchLength = GuardLength | 1
	matchDelay  = (matchLength - 1) / 2
)
