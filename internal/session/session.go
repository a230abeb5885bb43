// Package session wires the audio capture layer to the modem decoder and
// exposes the result through the same session/status/event shape the
// protocol layer's ARQ Transport expects. Grounded on the teacher's
// protocol.Session type and state machine (SessionStatus/SessionEvent),
// rebuilt around modem.Decoder's Feed/Process/Fetch API instead of the
// teacher's one-shot Modulator/Demodulator pair.
package session

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/leeminho/acoustic-modem/internal/audio"
	"github.com/leeminho/acoustic-modem/internal/modem"
	"github.com/leeminho/acoustic-modem/internal/protocol"
)

// Status represents the session state.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusTransferring
	StatusCompleted
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusTransferring:
		return "transferring"
	case StatusCompleted:
		return "completed"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is sent to listeners when session state changes.
type Event struct {
	Status   Status
	Message  string
	Progress float64
	Error    error
}

// Session drives one side of an audio modem link: it owns the audio
// device(s), a modem.Decoder for the receive path, and a protocol.Transport
// built on top of it. Sending is delegated to a protocol.Transmitter since
// the encode/modulate side is out of this repository's scope.
type Session struct {
	audioIO     *audio.AudioIO
	decoder     *modem.Decoder
	transmitter protocol.Transmitter
	transport   *protocol.Transport

	status    Status
	eventChan chan Event
	log       zerolog.Logger

	hasInput  bool
	hasOutput bool
}

// New creates a session ready to Open. A nil transmitter is replaced with
// protocol.NullTransmitter, which is sufficient for a receive-only run.
func New(transmitter protocol.Transmitter, log zerolog.Logger) *Session {
	if transmitter == nil {
		transmitter = protocol.NullTransmitter{}
	}

	s := &Session{
		audioIO:     audio.NewAudioIO(),
		decoder:     modem.NewDecoder(),
		transmitter: transmitter,
		eventChan:   make(chan Event, 100),
		log:         log,
	}
	s.transport = protocol.NewTransportWithLogger(s.sendFrame, s.receiveFrame, log)

	return s
}

// Open initializes the audio input (required) and output (optional, used
// only for ACK/NACK/control replies) devices.
func (s *Session) Open() error {
	s.setStatus(StatusConnecting, "Opening audio devices...")

	if err := s.audioIO.OpenInput(); err != nil {
		s.setStatus(StatusError, fmt.Sprintf("audio input open failed: %v", err))
		return err
	}
	s.hasInput = true

	if err := s.audioIO.OpenOutput(); err != nil {
		s.log.Warn().Err(err).Msg("no output device available, control replies disabled")
		s.hasOutput = false
	} else {
		s.hasOutput = true
	}

	s.setStatus(StatusConnected, "Audio devices ready")
	return nil
}

// Close releases all resources.
func (s *Session) Close() error {
	s.setStatus(StatusDisconnected, "Session closed")
	return s.audioIO.Close()
}

// Events returns the event channel for monitoring session state.
func (s *Session) Events() <-chan Event {
	return s.eventChan
}

// Transport returns the ARQ transport layer for file transfer operations.
func (s *Session) Transport() *protocol.Transport {
	return s.transport
}

// sendFrame hands an outgoing frame to the transmitter. Control traffic
// (ACK, NACK, PONG, parity shards) still needs an output device per the
// session's half-duplex model even though this repository never builds the
// encoder behind protocol.Transmitter.
func (s *Session) sendFrame(frame *protocol.Frame) error {
	if !s.hasOutput {
		return fmt.Errorf("no output device available")
	}
	return s.transmitter.Transmit(frame)
}

// receiveFrame pumps audio blocks through the decoder's Feed/Process/Fetch
// cycle until one frame is recovered or timeout elapses. Every block read
// from the device is exactly audio.FramesPerBuf == modem.ExtendedLength
// samples, the size Feed expects per call.
func (s *Session) receiveFrame(timeout time.Duration) (*protocol.Frame, error) {
	if !s.hasInput {
		return nil, fmt.Errorf("no input device available")
	}

	if err := s.audioIO.StartInput(); err != nil {
		return nil, fmt.Errorf("start input: %w", err)
	}
	defer s.audioIO.StopInput()

	const agcTargetRMS = 0.3

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		block, err := s.audioIO.Read()
		if err != nil {
			return nil, fmt.Errorf("read audio: %w", err)
		}

		// Host-side AGC ahead of the decoder's own per-sample block-DC
		// removal, which assumes a roughly normalized input level.
		conditioned := modem.SamplesToFloat32(modem.ApplyAGC(modem.Float32ToSamples(block), agcTargetRMS))

		if !s.decoder.Feed(conditioned) {
			continue
		}
		if !s.decoder.Process() {
			continue
		}

		raw := make([]byte, modem.MesgBytes)
		if !s.decoder.Fetch(raw) {
			s.log.Warn().Msg("dropping frame that failed polar decode")
			continue
		}
		frame, err := protocol.DecodeFrame(raw)
		if err != nil {
			s.log.Warn().Err(err).Msg("dropping frame that failed CRC/decode")
			continue
		}
		return frame, nil
	}

	return nil, fmt.Errorf("timeout: no frame decoded within %s", timeout)
}

func (s *Session) setStatus(status Status, message string) {
	s.status = status
	event := Event{
		Status:  status,
		Message: message,
	}
	select {
	case s.eventChan <- event:
	default:
		s.log.Warn().Str("status", status.String()).Str("message", message).Msg("event channel full, dropping")
	}
}
