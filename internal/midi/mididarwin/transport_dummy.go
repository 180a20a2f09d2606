//go:build !darwin
// +build !darwin

package mididarwin

import (
	"fmt"

	"github.com/leandrodaf/midiroute/sdk/contracts"
)

var errUnavailable = fmt.Errorf("%w: CoreMIDI is only available on macOS", contracts.ErrUnsupportedOS)

// DummyTransport stands in for CoreMIDI on other systems. Every call fails.
type DummyTransport struct {
	logger contracts.Logger
}

// NewTransport returns a DummyTransport on non-macOS systems.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	options.Logger.Info("Using dummy CoreMIDI transport for non-macOS system")
	return &DummyTransport{logger: options.Logger}, nil
}

func (m *DummyTransport) PortCount(contracts.Direction) (int, error) {
	m.logger.Warn("PortCount called on dummy CoreMIDI transport")
	return 0, errUnavailable
}

func (m *DummyTransport) PortName(contracts.Direction, int) (string, error) {
	m.logger.Warn("PortName called on dummy CoreMIDI transport")
	return "", errUnavailable
}

func (m *DummyTransport) OpenInput(int) (contracts.InputHandle, error) {
	m.logger.Warn("OpenInput called on dummy CoreMIDI transport")
	return nil, errUnavailable
}

func (m *DummyTransport) OpenOutput(int) (contracts.OutputHandle, error) {
	m.logger.Warn("OpenOutput called on dummy CoreMIDI transport")
	return nil, errUnavailable
}

func (m *DummyTransport) Close() error {
	return nil
}
