package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/octetta/gomidio/internal/logger"
	"github.com/octetta/gomidio/sdk/contracts"
	"github.com/octetta/gomidio/sdk/midi"
)

func main() {
	log := logger.NewZapLogger()

	ctx, err := midi.NewMIDIClient(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithClientName("gomidio example"),
	)
	if err != nil {
		log.Error("Failed to initialize MIDI client", log.Field().Error("error", err))
		return
	}
	defer ctx.Close()

	count, err := ctx.InputCount()
	if err != nil || count == 0 {
		log.Error("No MIDI inputs found or error listing devices", log.Field().Error("error", err))
		return
	}
	for i := 0; i < count; i++ {
		name, _ := ctx.InputName(i)
		fmt.Printf("Input %d: %s\n", i, name)
	}

	var mtc contracts.MtcState
	onMessage := func(msg contracts.Message) {
		switch msg.Kind {
		case contracts.NoteOn, contracts.NoteOff:
			log.Info("Note event",
				log.Field().String("kind", msg.Kind.String()),
				log.Field().Int("channel", int(msg.Channel)),
				log.Field().Int("note", int(msg.NoteNumber())),
				log.Field().Int("velocity", int(msg.Velocity())))
		case contracts.MtcQuarterFrame:
			if frame, ok := mtc.Push(msg.Data1); ok {
				log.Info("MTC frame", log.Field().Float64("seconds", frame.ToSeconds()))
			}
		case contracts.SysEx:
			log.Info("SysEx", log.Field().Int("bytes", len(msg.SysExData)))
		default:
			log.Debug("MIDI event", log.Field().String("kind", msg.Kind.String()))
		}
	}

	input, err := ctx.OpenInput(0, onMessage)
	if err != nil {
		log.Error("Failed to open MIDI input", log.Field().Error("error", err))
		return
	}
	if err := input.Start(); err != nil {
		log.Error("Failed to start MIDI capture", log.Field().Error("error", err))
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	closeOnce := sync.Once{}

	stopCapture := func(reason string) {
		log.Info(reason)
		input.Close()
		closeOnce.Do(func() { close(done) })
	}

	go func() {
		<-sigChan
		stopCapture("Received shutdown signal, stopping capture...")
	}()

	go func() {
		time.Sleep(5 * time.Second)
		stopCapture("Timeout reached, stopping capture...")
	}()

	fmt.Println("Capturing MIDI events... Press Ctrl+C to exit.")
	<-done
	log.Info("Program terminated gracefully.")
}
