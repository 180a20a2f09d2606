package midi

import (
	"github.com/leandrodaf/midiroute/internal/logger"
	"github.com/leandrodaf/midiroute/sdk/contracts"
)

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogFilePath != "" {
		options.Logger.SetDestination(contracts.FileLog, options.LogFilePath)
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "GO MIDI Router"}
	}
	if options.ListenConfig == nil {
		cfg := contracts.DefaultListenConfig
		options.ListenConfig = &cfg
	}

	// The zero LogLevel is InfoLevel.
	options.Logger.SetLevel(options.LogLevel)
	return *options, nil
}
