//go:build !windows
// +build !windows

package midiwindows

import (
	"fmt"

	"github.com/leandrodaf/midiroute/sdk/contracts"
)

var errUnavailable = fmt.Errorf("%w: WinMM is only available on Windows", contracts.ErrUnsupportedOS)

type dummyTransport struct {
	logger contracts.Logger
}

// NewTransport initializes a dummy WinMM transport for non-Windows systems.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Info("Using dummy WinMM transport for non-Windows system")
	return &dummyTransport{logger: options.Logger}, nil
}

// PortCount logs a warning and returns an error indicating that MIDI functionality is unavailable on this platform.
func (m *dummyTransport) PortCount(contracts.Direction) (int, error) {
	m.logger.Warn("PortCount called on dummy WinMM transport")
	return 0, errUnavailable
}

// PortName logs a warning and returns an error indicating that MIDI functionality is unavailable on this platform.
func (m *dummyTransport) PortName(contracts.Direction, int) (string, error) {
	m.logger.Warn("PortName called on dummy WinMM transport")
	return "", errUnavailable
}

// OpenInput logs a warning and returns an error indicating that MIDI functionality is unavailable on this platform.
func (m *dummyTransport) OpenInput(int) (contracts.InputHandle, error) {
	m.logger.Warn("OpenInput called on dummy WinMM transport")
	return nil, errUnavailable
}

// OpenOutput logs a warning and returns an error indicating that MIDI functionality is unavailable on this platform.
func (m *dummyTransport) OpenOutput(int) (contracts.OutputHandle, error) {
	m.logger.Warn("OpenOutput called on dummy WinMM transport")
	return nil, errUnavailable
}

// Close does nothing.
func (m *dummyTransport) Close() error {
	return nil
}
