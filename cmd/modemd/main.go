// Command modemd runs the acoustic modem's host demo: an HTTP/WebSocket
// front end over the receive-side decoder, for sending/receiving files
// through a sound card. The encode/transmit path is out of scope for this
// repository (see internal/protocol.Transmitter); modemd wires a
// NullTransmitter so outgoing control frames have somewhere to go without
// actually driving a speaker.
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/leeminho/acoustic-modem/internal/audio"
	"github.com/leeminho/acoustic-modem/internal/server"
)

func main() {
	addr := pflag.String("addr", "0.0.0.0:8080", "server address")
	uploadDir := pflag.String("upload-dir", "./uploads", "upload directory")
	receiveDir := pflag.String("receive-dir", "./received", "receive directory")
	staticDir := pflag.String("static-dir", "./web/static", "static web asset directory")
	listDevices := pflag.Bool("list-devices", false, "list audio devices and exit")
	verbose := pflag.BoolP("verbose", "v", false, "enable debug logging")
	pflag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	if err := audio.Init(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PortAudio")
	}
	defer audio.Terminate()

	if *listDevices {
		if err := audio.PrintDevices(); err != nil {
			log.Fatal().Err(err).Msg("failed to list devices")
		}
		return
	}

	os.MkdirAll(*uploadDir, 0755)
	os.MkdirAll(*receiveDir, 0755)

	handlers := server.NewHandlers(*uploadDir, *receiveDir, log)
	srv := server.NewServer(*addr, handlers, *staticDir, log)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Info().Msg("shutting down")
		audio.Terminate()
		os.Exit(0)
	}()

	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
