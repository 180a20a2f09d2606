// Package binding owns the open input and output ports of a router.
package binding

import (
	"fmt"
	"sync"

	"github.com/leandrodaf/midiroute/sdk/contracts"
	"go.uber.org/multierr"
)

type inputBinding struct {
	port   contracts.Port
	handle contracts.InputHandle
	stop   func()
	gate   *gate
}

type outputBinding struct {
	port   contracts.Port
	handle contracts.OutputHandle
}

// Binding holds at most one open port per direction. Opening a port in a
// direction first closes the port already open there. Each direction has its
// own lock so a delivery callback may call Send while the input is rebound.
type Binding struct {
	transport contracts.Transport
	logger    contracts.Logger
	listenCfg contracts.ListenConfig

	inMu   sync.Mutex
	input  *inputBinding
	outMu  sync.Mutex
	output *outputBinding
}

// New creates a Binding with nothing open. cfg is applied to every input
// listener when the port is opened.
func New(transport contracts.Transport, logger contracts.Logger, cfg contracts.ListenConfig) *Binding {
	return &Binding{transport: transport, logger: logger, listenCfg: cfg}
}

// OpenInput closes the current input port, then opens port and registers
// deliver as its callback. On failure the input stays closed.
func (b *Binding) OpenInput(port contracts.Port, deliver func(msg []byte)) error {
	b.inMu.Lock()
	defer b.inMu.Unlock()

	if err := b.closeInputLocked(); err != nil {
		b.logger.Warn("Error closing previous MIDI input port", b.logger.Field().Error("error", err))
	}

	handle, err := b.transport.OpenInput(port.Index)
	if err != nil {
		b.logOpenFault(port, err)
		return fmt.Errorf("%w: input %q: %v", contracts.ErrOpenFault, port.Name, err)
	}

	g := newGate(deliver)
	stop, err := handle.Listen(g.deliver, b.listenCfg)
	if err != nil {
		g.close()
		if cerr := handle.Close(); cerr != nil {
			err = multierr.Append(err, cerr)
		}
		b.logOpenFault(port, err)
		return fmt.Errorf("%w: input %q: %v", contracts.ErrOpenFault, port.Name, err)
	}

	b.input = &inputBinding{port: port, handle: handle, stop: stop, gate: g}
	b.logger.Info("MIDI input port opened",
		b.logger.Field().String("port", port.Name),
		b.logger.Field().Int("index", port.Index))
	return nil
}

// OpenOutput closes the current output port, then opens port. On failure the
// output stays closed.
func (b *Binding) OpenOutput(port contracts.Port) error {
	b.outMu.Lock()
	defer b.outMu.Unlock()

	if err := b.closeOutputLocked(); err != nil {
		b.logger.Warn("Error closing previous MIDI output port", b.logger.Field().Error("error", err))
	}

	handle, err := b.transport.OpenOutput(port.Index)
	if err != nil {
		b.logOpenFault(port, err)
		return fmt.Errorf("%w: output %q: %v", contracts.ErrOpenFault, port.Name, err)
	}

	b.output = &outputBinding{port: port, handle: handle}
	b.logger.Info("MIDI output port opened",
		b.logger.Field().String("port", port.Name),
		b.logger.Field().Int("index", port.Index))
	return nil
}

// Close releases the port open in dir. Closing a direction with nothing open
// is a no-op.
func (b *Binding) Close(dir contracts.Direction) error {
	switch dir {
	case contracts.Input:
		b.inMu.Lock()
		defer b.inMu.Unlock()
		return b.closeInputLocked()
	case contracts.Output:
		b.outMu.Lock()
		defer b.outMu.Unlock()
		return b.closeOutputLocked()
	}
	return fmt.Errorf("%w: %d", contracts.ErrInvalidDirection, dir)
}

// CloseAll releases both directions.
func (b *Binding) CloseAll() error {
	return multierr.Combine(b.Close(contracts.Input), b.Close(contracts.Output))
}

// Send writes msg to the open output port. Without an output port the message
// is dropped and nil is returned.
func (b *Binding) Send(msg []byte) error {
	if len(msg) == 0 {
		return nil
	}

	b.outMu.Lock()
	defer b.outMu.Unlock()

	if b.output == nil {
		b.logger.Debug(contracts.ErrNoDestination.Error()+"; message dropped",
			b.logger.Field().Int("bytes", len(msg)))
		return nil
	}

	if err := b.output.handle.Send(msg); err != nil {
		b.logger.Error("Failed to send MIDI message",
			b.logger.Field().String("port", b.output.port.Name),
			b.logger.Field().Bytes("message", msg),
			b.logger.Field().Error("error", err))
		return fmt.Errorf("%w: %q: %v", contracts.ErrSendFault, b.output.port.Name, err)
	}
	return nil
}

// Active returns the port open in dir.
func (b *Binding) Active(dir contracts.Direction) (contracts.Port, bool) {
	switch dir {
	case contracts.Input:
		b.inMu.Lock()
		defer b.inMu.Unlock()
		if b.input != nil {
			return b.input.port, true
		}
	case contracts.Output:
		b.outMu.Lock()
		defer b.outMu.Unlock()
		if b.output != nil {
			return b.output.port, true
		}
	}
	return contracts.Port{}, false
}

// closeInputLocked cancels the delivery callback, waits for in-flight
// deliveries to return and only then closes the handle.
func (b *Binding) closeInputLocked() error {
	in := b.input
	if in == nil {
		return nil
	}
	b.input = nil

	in.stop()
	in.gate.close()
	if err := in.handle.Close(); err != nil {
		return fmt.Errorf("closing input %q: %w", in.port.Name, err)
	}
	b.logger.Info("MIDI input port closed", b.logger.Field().String("port", in.port.Name))
	return nil
}

func (b *Binding) closeOutputLocked() error {
	out := b.output
	if out == nil {
		return nil
	}
	b.output = nil

	if err := out.handle.Close(); err != nil {
		return fmt.Errorf("closing output %q: %w", out.port.Name, err)
	}
	b.logger.Info("MIDI output port closed", b.logger.Field().String("port", out.port.Name))
	return nil
}

func (b *Binding) logOpenFault(port contracts.Port, err error) {
	b.logger.Error(contracts.ErrOpenFault.Error(),
		b.logger.Field().String("direction", port.Direction.String()),
		b.logger.Field().String("port", port.Name),
		b.logger.Field().Int("index", port.Index),
		b.logger.Field().Error("error", err))
}

// gate forwards deliveries until closed. close blocks until every delivery
// already inside fn has returned.
type gate struct {
	mu     sync.RWMutex
	closed bool
	fn     func([]byte)
}

func newGate(fn func([]byte)) *gate {
	return &gate{fn: fn}
}

func (g *gate) deliver(msg []byte) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.closed {
		return
	}
	g.fn(msg)
}

func (g *gate) close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}
