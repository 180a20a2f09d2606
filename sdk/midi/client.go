// Package midi builds a MIDI router bound to the platform's ports.
package midi

import (
	"github.com/leandrodaf/midiroute/internal/router"
	"github.com/leandrodaf/midiroute/sdk/contracts"
)

// NewMIDIRouter creates a router with the specified options. Defaults are
// applied first, then the transport is chosen for the running OS unless
// WithTransport was given. The port lists are scanned once before returning.
func NewMIDIRouter(opts ...contracts.Option) (contracts.Router, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	if options.Transport == nil {
		options.Transport, err = NewTransport(&options)
		if err != nil {
			return nil, err
		}
	}

	r := router.New(&options)
	if _, _, err := r.RefreshAndList(); err != nil {
		// A failed first scan leaves empty tables; Watch or a later refresh recovers.
		options.Logger.Warn("Initial MIDI port scan failed", options.Logger.Field().Error("error", err))
	}
	return r, nil
}
