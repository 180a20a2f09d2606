//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midiroute/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for CoreMIDI port handling.
var (
	ErrInvalidMIDIDevice = errors.New("invalid MIDI device")
	ErrCreateInputPort   = errors.New("error creating input port")
	ErrCreateOutputPort  = errors.New("error creating output port")
	ErrConnectSource     = errors.New("error connecting to MIDI source")
	ErrHandleClosed      = errors.New("MIDI port handle is closed")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// Transport implements contracts.Transport with CoreMIDI. Sources are input
// ports and destinations are output ports.
type Transport struct {
	logger contracts.Logger
	client coremidi.Client
}

// NewTransport creates the CoreMIDI client named in options.
func NewTransport(options *contracts.ClientOptions) (contracts.Transport, error) {
	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("CoreMIDI client successfully created",
		options.Logger.Field().String("client", options.CoreMIDIConfig.ClientName))

	return &Transport{logger: options.Logger, client: client}, nil
}

func (t *Transport) PortCount(dir contracts.Direction) (int, error) {
	if dir == contracts.Input {
		sources, err := coremidi.AllSources()
		if err != nil {
			return 0, fmt.Errorf("error listing MIDI sources: %w", err)
		}
		return len(sources), nil
	}
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return 0, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	return len(destinations), nil
}

func (t *Transport) PortName(dir contracts.Direction, index int) (string, error) {
	if dir == contracts.Input {
		source, err := t.source(index)
		if err != nil {
			return "", err
		}
		return source.Name(), nil
	}
	destination, err := t.destination(index)
	if err != nil {
		return "", err
	}
	return destination.Name(), nil
}

func (t *Transport) source(index int) (coremidi.Source, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return coremidi.Source{}, fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if index < 0 || index >= len(sources) {
		return coremidi.Source{}, fmt.Errorf("%w: source %d", ErrInvalidMIDIDevice, index)
	}
	return sources[index], nil
}

func (t *Transport) destination(index int) (coremidi.Destination, error) {
	destinations, err := coremidi.AllDestinations()
	if err != nil {
		return coremidi.Destination{}, fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	if index < 0 || index >= len(destinations) {
		return coremidi.Destination{}, fmt.Errorf("%w: destination %d", ErrInvalidMIDIDevice, index)
	}
	return destinations[index], nil
}

// OpenInput selects the source at index. The CoreMIDI input port is created
// and connected when Listen is called.
func (t *Transport) OpenInput(index int) (contracts.InputHandle, error) {
	source, err := t.source(index)
	if err != nil {
		return nil, err
	}
	t.logger.Info("MIDI source selected",
		t.logger.Field().Int("index", index),
		t.logger.Field().String("name", source.Name()),
		t.logger.Field().String("manufacturer", source.Entity().Manufacturer()))
	return &input{transport: t, source: source}, nil
}

func (t *Transport) OpenOutput(index int) (contracts.OutputHandle, error) {
	destination, err := t.destination(index)
	if err != nil {
		return nil, err
	}
	port, err := coremidi.NewOutputPort(t.client, "Output Port")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}
	return &output{port: port, destination: destination}, nil
}

// Close is a no-op: go-coremidi has no call to dispose a client.
func (t *Transport) Close() error {
	return nil
}

type input struct {
	transport *Transport
	source    coremidi.Source

	mu       sync.Mutex
	portConn internalPortConnection
	closed   bool
}

func (i *input) Listen(fn func(msg []byte), cfg contracts.ListenConfig) (func(), error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil, ErrHandleClosed
	}

	port, err := coremidi.NewInputPort(i.transport.client, "Input Port", func(_ coremidi.Source, packet coremidi.Packet) {
		if !cfg.Allows(packet.Data) {
			return
		}
		fn(append([]byte(nil), packet.Data...))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}

	conn, err := port.Connect(i.source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectSource, err)
	}
	i.portConn = conn

	return func() {
		i.mu.Lock()
		defer i.mu.Unlock()
		i.disconnect()
	}, nil
}

func (i *input) disconnect() {
	if i.portConn != nil {
		i.portConn.Disconnect()
		i.portConn = nil
	}
}

func (i *input) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.disconnect()
	i.closed = true
	return nil
}

type output struct {
	mu          sync.Mutex
	port        coremidi.OutputPort
	destination coremidi.Destination
	closed      bool
}

func (o *output) Send(msg []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrHandleClosed
	}
	packet := coremidi.NewPacket(msg, 0)
	return packet.Send(&o.port, &o.destination)
}

func (o *output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}
