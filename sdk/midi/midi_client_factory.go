package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/midiroute/internal/midi/gomididrv"
	"github.com/leandrodaf/midiroute/internal/midi/mididarwin"
	"github.com/leandrodaf/midiroute/internal/midi/midiwindows"
	"github.com/leandrodaf/midiroute/sdk/contracts"
)

// transportInitializers maps OS names to their native transport.
var transportInitializers = map[string]func(*contracts.ClientOptions) (contracts.Transport, error){
	"darwin":  mididarwin.NewTransport,  // CoreMIDI
	"windows": midiwindows.NewTransport, // WinMM
}

// NewTransport returns the native transport for the running OS. Elsewhere it
// falls back to the registered gomidi driver, and fails with
// contracts.ErrUnsupportedOS when there is none.
func NewTransport(opts *contracts.ClientOptions) (contracts.Transport, error) {
	return newTransport(runtime.GOOS, opts)
}

func newTransport(goos string, opts *contracts.ClientOptions) (contracts.Transport, error) {
	if initializer, exists := transportInitializers[goos]; exists {
		return initializer(opts)
	}

	t, err := gomididrv.NewDefault(opts.Logger)
	if errors.Is(err, gomididrv.ErrNoDriver) {
		return nil, fmt.Errorf("%w: %s", contracts.ErrUnsupportedOS, goos)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}
