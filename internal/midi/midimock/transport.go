// Package midimock is an in-memory contracts.Transport. Ports can be plugged
// and unplugged at runtime, faults can be injected per port, and messages can
// be delivered to open input ports from any goroutine.
package midimock

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midiroute/sdk/contracts"
)

var (
	ErrNameFault   = errors.New("mock: port name unavailable")
	ErrCountFault  = errors.New("mock: port count unavailable")
	ErrOpenRefused = errors.New("mock: open refused")
	ErrSendRefused = errors.New("mock: send refused")
	ErrNotOpen     = errors.New("mock: port not open")
	ErrOutOfRange  = errors.New("mock: port index out of range")
)

type port struct {
	name      string
	nameFault bool
	openFault bool
	sendFault bool
}

// Transport is a scriptable in-memory MIDI transport.
type Transport struct {
	mu         sync.Mutex
	ports      [2][]*port
	countFault [2]bool
	inputs     []*Input
	outputs    []*Output
	openIn     int
	maxOpenIn  int
	openOut    int
	maxOpenOut int
	closed     bool
}

// New returns a transport with the given input and output port names.
func New(inputs, outputs []string) *Transport {
	t := &Transport{}
	for _, name := range inputs {
		t.ports[contracts.Input] = append(t.ports[contracts.Input], &port{name: name})
	}
	for _, name := range outputs {
		t.ports[contracts.Output] = append(t.ports[contracts.Output], &port{name: name})
	}
	return t
}

// Plug appends a port, as when a device is connected.
func (t *Transport) Plug(dir contracts.Direction, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ports[dir] = append(t.ports[dir], &port{name: name})
}

// Unplug removes the first port with the given name. Later ports shift down
// by one index.
func (t *Transport) Unplug(dir contracts.Direction, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, p := range t.ports[dir] {
		if p.name == name {
			t.ports[dir] = append(t.ports[dir][:i:i], t.ports[dir][i+1:]...)
			return
		}
	}
}

// FailName makes PortName fail for the named port.
func (t *Transport) FailName(dir contracts.Direction, name string) {
	t.withPort(dir, name, func(p *port) { p.nameFault = true })
}

// FailOpen makes opening the named port fail.
func (t *Transport) FailOpen(dir contracts.Direction, name string) {
	t.withPort(dir, name, func(p *port) { p.openFault = true })
}

// FailSend makes sends to the named output port fail.
func (t *Transport) FailSend(name string) {
	t.withPort(contracts.Output, name, func(p *port) { p.sendFault = true })
}

// FailCount makes PortCount fail for dir until called again with false.
func (t *Transport) FailCount(dir contracts.Direction, fail bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.countFault[dir] = fail
}

func (t *Transport) withPort(dir contracts.Direction, name string, fn func(*port)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.ports[dir] {
		if p.name == name {
			fn(p)
		}
	}
}

func (t *Transport) PortCount(dir contracts.Direction) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.countFault[dir] {
		return 0, ErrCountFault
	}
	return len(t.ports[dir]), nil
}

func (t *Transport) PortName(dir contracts.Direction, index int) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if index < 0 || index >= len(t.ports[dir]) {
		return "", fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	p := t.ports[dir][index]
	if p.nameFault {
		return "", fmt.Errorf("%w: index %d", ErrNameFault, index)
	}
	return p.name, nil
}

func (t *Transport) OpenInput(index int) (contracts.InputHandle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.portAt(contracts.Input, index)
	if err != nil {
		return nil, err
	}
	in := &Input{transport: t, name: p.name}
	t.inputs = append(t.inputs, in)
	t.openIn++
	if t.openIn > t.maxOpenIn {
		t.maxOpenIn = t.openIn
	}
	return in, nil
}

func (t *Transport) OpenOutput(index int) (contracts.OutputHandle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, err := t.portAt(contracts.Output, index)
	if err != nil {
		return nil, err
	}
	out := &Output{transport: t, port: p}
	t.outputs = append(t.outputs, out)
	t.openOut++
	if t.openOut > t.maxOpenOut {
		t.maxOpenOut = t.openOut
	}
	return out, nil
}

func (t *Transport) portAt(dir contracts.Direction, index int) (*port, error) {
	if index < 0 || index >= len(t.ports[dir]) {
		return nil, fmt.Errorf("%w: %d", ErrOutOfRange, index)
	}
	p := t.ports[dir][index]
	if p.openFault {
		return nil, fmt.Errorf("%w: %s", ErrOpenRefused, p.name)
	}
	return p, nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Closed reports whether Close was called.
func (t *Transport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Inputs returns every input handle ever opened, oldest first.
func (t *Transport) Inputs() []*Input {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Input(nil), t.inputs...)
}

// Outputs returns every output handle ever opened, oldest first.
func (t *Transport) Outputs() []*Output {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Output(nil), t.outputs...)
}

// MaxOpen returns the largest number of handles that were open at the same
// time in dir.
func (t *Transport) MaxOpen(dir contracts.Direction) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if dir == contracts.Input {
		return t.maxOpenIn
	}
	return t.maxOpenOut
}

// Deliver hands msg to the listener of the most recently opened input port
// with the given name. It returns false when no listener is registered or the
// listen filter dropped the message.
func (t *Transport) Deliver(name string, msg []byte) bool {
	t.mu.Lock()
	var target *Input
	for i := len(t.inputs) - 1; i >= 0; i-- {
		if t.inputs[i].name == name {
			target = t.inputs[i]
			break
		}
	}
	t.mu.Unlock()
	if target == nil {
		return false
	}
	return target.deliver(msg)
}

// Input is an open mock input port.
type Input struct {
	transport *Transport
	name      string

	mu       sync.Mutex
	listener func([]byte)
	cfg      contracts.ListenConfig
	closed   bool
}

func (in *Input) Listen(fn func(msg []byte), cfg contracts.ListenConfig) (func(), error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil, ErrNotOpen
	}
	in.listener = fn
	in.cfg = cfg
	return func() {
		in.mu.Lock()
		in.listener = nil
		in.mu.Unlock()
	}, nil
}

func (in *Input) deliver(msg []byte) bool {
	in.mu.Lock()
	fn, cfg, closed := in.listener, in.cfg, in.closed
	in.mu.Unlock()
	if closed || fn == nil || !cfg.Allows(msg) {
		return false
	}
	fn(append([]byte(nil), msg...))
	return true
}

func (in *Input) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}
	in.closed = true
	in.listener = nil
	in.transport.mu.Lock()
	in.transport.openIn--
	in.transport.mu.Unlock()
	return nil
}

// Name returns the port name the handle was opened with.
func (in *Input) Name() string { return in.name }

// Closed reports whether the handle was closed.
func (in *Input) Closed() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.closed
}

// Listening reports whether a listener is registered.
func (in *Input) Listening() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.listener != nil
}

// Config returns the filter passed to Listen.
func (in *Input) Config() contracts.ListenConfig {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.cfg
}

// Output is an open mock output port.
type Output struct {
	transport *Transport
	port      *port

	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

func (out *Output) Send(msg []byte) error {
	out.mu.Lock()
	defer out.mu.Unlock()
	if out.closed {
		return ErrNotOpen
	}
	out.transport.mu.Lock()
	fault := out.port.sendFault
	out.transport.mu.Unlock()
	if fault {
		return fmt.Errorf("%w: %s", ErrSendRefused, out.port.name)
	}
	out.sent = append(out.sent, append([]byte(nil), msg...))
	return nil
}

func (out *Output) Close() error {
	out.mu.Lock()
	defer out.mu.Unlock()
	if out.closed {
		return nil
	}
	out.closed = true
	out.transport.mu.Lock()
	out.transport.openOut--
	out.transport.mu.Unlock()
	return nil
}

// Name returns the port name the handle was opened with.
func (out *Output) Name() string { return out.port.name }

// Sent returns a copy of every message sent through the handle.
func (out *Output) Sent() [][]byte {
	out.mu.Lock()
	defer out.mu.Unlock()
	return append([][]byte(nil), out.sent...)
}

// Closed reports whether the handle was closed.
func (out *Output) Closed() bool {
	out.mu.Lock()
	defer out.mu.Unlock()
	return out.closed
}
