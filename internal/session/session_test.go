package session

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/leeminho/acoustic-modem/internal/protocol"
)

func TestStatusStrings(t *testing.T) {
	cases := map[Status]string{
		StatusDisconnected: "disconnected",
		StatusConnecting:   "connecting",
		StatusConnected:    "connected",
		StatusTransferring: "transferring",
		StatusCompleted:    "completed",
		StatusError:        "error",
		Status(99):         "unknown",
	}
	for status, want := range cases {
		if got := status.String(); got != want {
			t.Errorf("Status(%d).String() = %q, want %q", status, got, want)
		}
	}
}

func TestNewDefaultsToNullTransmitter(t *testing.T) {
	s := New(nil, zerolog.Nop())
	if s.transmitter == nil {
		t.Fatal("New(nil, ...) left transmitter nil")
	}
	if _, ok := s.transmitter.(protocol.NullTransmitter); !ok {
		t.Errorf("New(nil, ...) transmitter = %T, want protocol.NullTransmitter", s.transmitter)
	}
}

func TestSendFrameFailsWithoutOutputDevice(t *testing.T) {
	s := New(protocol.NullTransmitter{}, zerolog.Nop())
	// hasOutput is false until Open() successfully opens a device.
	if err := s.sendFrame(protocol.NewPingFrame()); err == nil {
		t.Error("sendFrame should fail when no output device has been opened")
	}
}

func TestReceiveFrameFailsWithoutInputDevice(t *testing.T) {
	s := New(protocol.NullTransmitter{}, zerolog.Nop())
	if _, err := s.receiveFrame(0); err == nil {
		t.Error("receiveFrame should fail when no input device has been opened")
	}
}

func TestEventsChannelDeliversSetStatus(t *testing.T) {
	s := New(protocol.NullTransmitter{}, zerolog.Nop())
	s.setStatus(StatusConnecting, "opening")

	select {
	case ev := <-s.Events():
		if ev.Status != StatusConnecting || ev.Message != "opening" {
			t.Errorf("got event %+v, want {Status:Connecting Message:opening}", ev)
		}
	default:
		t.Fatal("expected a buffered event on the channel")
	}
}
