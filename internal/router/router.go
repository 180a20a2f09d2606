// Package router binds MIDI ports by name and routes their traffic.
package router

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/midiroute/internal/binding"
	"github.com/leandrodaf/midiroute/internal/framer"
	"github.com/leandrodaf/midiroute/internal/registry"
	"github.com/leandrodaf/midiroute/sdk/contracts"
	"go.uber.org/multierr"
)

// Router implements contracts.Router on top of a registry, a binding and a
// framer. Control calls are serialized; the receive path runs on the
// transport's delivery goroutine.
type Router struct {
	transport contracts.Transport
	logger    contracts.Logger
	registry  *registry.Registry
	binding   *binding.Binding
	framer    *framer.Framer
	sink      contracts.Sink
	listener  contracts.PortsListener

	mu      sync.Mutex // serializes bind, refresh and close
	closed  atomic.Bool
	lastIn  []string
	lastOut []string
}

var discard = contracts.SinkFunc(func(contracts.Message) {})

// New creates a router from fully defaulted options. The port tables start
// empty; call RefreshAndList before binding.
func New(opts *contracts.ClientOptions) *Router {
	cfg := contracts.DefaultListenConfig
	if opts.ListenConfig != nil {
		cfg = *opts.ListenConfig
	}
	sink := opts.Sink
	if sink == nil {
		sink = discard
	}

	return &Router{
		transport: opts.Transport,
		logger:    opts.Logger,
		registry:  registry.New(opts.Transport, opts.Logger),
		binding:   binding.New(opts.Transport, opts.Logger, cfg),
		framer:    framer.New(),
		sink:      sink,
		listener:  opts.PortsListener,
	}
}

// BindInput resolves name against the current input table and opens it.
// An unknown name leaves the current input untouched.
func (r *Router) BindInput(name string) error {
	return r.bind(contracts.Input, name)
}

// BindOutput resolves name against the current output table and opens it.
// An unknown name leaves the current output untouched.
func (r *Router) BindOutput(name string) error {
	return r.bind(contracts.Output, name)
}

func (r *Router) bind(dir contracts.Direction, name string) error {
	if r.closed.Load() {
		return contracts.ErrRouterClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Close may have run while we waited for the lock.
	if r.closed.Load() {
		return contracts.ErrRouterClosed
	}

	index, err := r.registry.Lookup(dir, name)
	if err != nil {
		r.logger.Error("Port not found",
			r.logger.Field().String("direction", dir.String()),
			r.logger.Field().String("port", name))
		return err
	}

	port := contracts.Port{Name: name, Index: index, Direction: dir}
	if dir == contracts.Input {
		return r.binding.OpenInput(port, r.receive)
	}
	return r.binding.OpenOutput(port)
}

// Send writes msg to the bound output port.
func (r *Router) Send(msg []byte) error {
	if r.closed.Load() {
		return contracts.ErrRouterClosed
	}
	return r.binding.Send(msg)
}

// receive is the delivery callback of the bound input port.
func (r *Router) receive(msg []byte) {
	target, ok := r.framer.Route(msg)
	if !ok {
		return
	}
	r.sink.Receive(contracts.Message{
		Data:      msg,
		SysEx:     target == framer.SysEx,
		Timestamp: uint64(time.Now().UTC().UnixNano()),
	})
}

// InSysEx reports whether the input stream is inside a SysEx run.
func (r *Router) InSysEx() bool {
	return r.framer.InSysEx()
}

// RefreshAndList rescans both directions, notifies the ports listener and
// returns the names in enumeration order. A direction whose scan failed
// keeps its previous table; the error is returned alongside the lists.
func (r *Router) RefreshAndList() (inputs, outputs []string, err error) {
	if r.closed.Load() {
		return nil, nil, contracts.ErrRouterClosed
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed.Load() {
		return nil, nil, contracts.ErrRouterClosed
	}

	err = r.refreshLocked()
	r.notify()
	return slices.Clone(r.lastIn), slices.Clone(r.lastOut), err
}

func (r *Router) refreshLocked() error {
	err := multierr.Combine(
		r.registry.Refresh(contracts.Input),
		r.registry.Refresh(contracts.Output),
	)
	r.lastIn = r.registry.Names(contracts.Input)
	r.lastOut = r.registry.Names(contracts.Output)
	return err
}

func (r *Router) notify() {
	if r.listener == nil {
		return
	}
	r.listener(r.registry.List(contracts.Input), r.registry.List(contracts.Output))
}

// Ports returns the ports found by the last scan in dir.
func (r *Router) Ports(dir contracts.Direction) []contracts.Port {
	return r.registry.List(dir)
}

// Active returns the port currently bound in dir.
func (r *Router) Active(dir contracts.Direction) (contracts.Port, bool) {
	return r.binding.Active(dir)
}

// Watch rescans every interval until ctx is done and notifies the ports
// listener whenever either port list changed. Bound ports are not touched:
// a vanished device keeps its binding until the host rebinds.
func (r *Router) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if r.closed.Load() {
				return
			}
			r.poll()
		}
	}
}

func (r *Router) poll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed.Load() {
		return
	}

	prevIn, prevOut := r.lastIn, r.lastOut
	if err := r.refreshLocked(); err != nil {
		r.logger.Warn("MIDI port rescan failed", r.logger.Field().Error("error", err))
	}
	if slices.Equal(prevIn, r.lastIn) && slices.Equal(prevOut, r.lastOut) {
		return
	}
	r.logger.Info("MIDI ports changed",
		r.logger.Field().Int("inputs", len(r.lastIn)),
		r.logger.Field().Int("outputs", len(r.lastOut)))
	r.notify()
}

// Close cancels the input callback, closes both ports and releases the
// transport. Later calls return nil.
func (r *Router) Close() error {
	if r.closed.Swap(true) {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := multierr.Combine(r.binding.CloseAll(), r.transport.Close())
	if err != nil {
		r.logger.Error("Error closing MIDI router", r.logger.Field().Error("error", err))
		return err
	}
	r.logger.Info("MIDI router closed")
	return nil
}
