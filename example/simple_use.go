package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/leandrodaf/midiroute/internal/logger"
	"github.com/leandrodaf/midiroute/sdk/contracts"
	"github.com/leandrodaf/midiroute/sdk/midi"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // used where no native transport exists
)

func main() {
	log := logger.NewZapLogger()
	messages := make(chan contracts.Message, 100)

	router, err := midi.NewMIDIRouter(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithSink(midi.ChannelSink(messages, log)),
		contracts.WithPortsListener(func(inputs, outputs []contracts.Port) {
			fmt.Println("Inputs:", inputs)
			fmt.Println("Outputs:", outputs)
		}),
	)
	if err != nil {
		log.Error("Failed to initialize MIDI router", log.Field().Error("error", err))
		return
	}
	defer router.Close()

	inputs, outputs, err := router.RefreshAndList()
	if err != nil || len(inputs) == 0 {
		log.Error("No MIDI inputs found or error listing ports", log.Field().Error("error", err))
		return
	}

	if err := router.BindInput(inputs[0]); err != nil {
		log.Error("Failed to bind MIDI input", log.Field().Error("error", err))
		return
	}
	if len(outputs) > 0 {
		if err := router.BindOutput(outputs[0]); err != nil {
			log.Warn("Failed to bind MIDI output; thru disabled", log.Field().Error("error", err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go router.Watch(ctx, 2*time.Second)

	fmt.Println("Routing MIDI messages... Press Ctrl+C to exit.")
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-messages:
			log.Info("MIDI message",
				log.Field().Uint64("timestamp", msg.Timestamp),
				log.Field().Bytes("data", msg.Data),
				log.Field().Bool("sysex", msg.SysEx),
			)
			if !msg.SysEx {
				if err := router.Send(msg.Data); err != nil {
					log.Warn("Thru send failed", log.Field().Error("error", err))
				}
			}
		}
	}
}
