package protocol

// Transmitter is the transmit/encode side of the link: turning an outgoing
// Frame into acoustic samples and playing them out. Building that encoder
// (OFDM modulation, preamble insertion, Hadamard/Polar coding) is explicitly
// out of scope for this repository, so the receive-side Session and
// Transport depend on this interface rather than a concrete implementation.
type Transmitter interface {
	Transmit(frame *Frame) error
}

// NullTransmitter discards every frame. It satisfies Transmitter for a
// receive-only deployment, where ACK/NACK/PONG/parity frames have an ARQ
// state machine that still wants a sender to call even though this demo has
// nowhere acoustic to send them.
type NullTransmitter struct{}

// Transmit implements Transmitter.
func (NullTransmitter) Transmit(frame *Frame) error { return nil }
