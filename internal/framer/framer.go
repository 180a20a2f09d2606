// Package framer separates SysEx runs from ordinary MIDI messages in the
// stream delivered by an input port.
//
// The stop sentinel is only recognised as the last byte of a delivery. When
// a transport appends padding after 0xF7 the framer stays in SysEx mode
// until a later delivery ends with 0xF7.
package framer

import (
	"sync/atomic"

	"github.com/leandrodaf/midiroute/sdk/contracts"
)

// State is the framer's memory between deliveries.
type State int

const (
	Normal State = iota
	InSysEx
)

func (s State) String() string {
	if s == InSysEx {
		return "sysex"
	}
	return "normal"
}

// Target names the sink a delivery is routed to.
type Target int

const (
	Ordinary Target = iota
	SysEx
)

// Classify picks the sink for msg and returns the state to use for the next
// delivery. Empty messages leave the state untouched and route nowhere
// meaningful; callers should skip them.
func Classify(msg []byte, state State) (Target, State) {
	if len(msg) == 0 {
		return Ordinary, state
	}
	if msg[0] == contracts.SysExStart {
		state = InSysEx
	}
	target := Ordinary
	if state == InSysEx {
		target = SysEx
	}
	if msg[len(msg)-1] == contracts.SysExStop {
		state = Normal
	}
	return target, state
}

// Framer holds the state for one input stream. Route must only be called
// from the delivery goroutine; InSysEx may be called from anywhere.
type Framer struct {
	inSysEx atomic.Bool
}

// New returns a framer in the Normal state.
func New() *Framer {
	return &Framer{}
}

// Route classifies msg and advances the state. The second result is false
// for empty messages, which must not be forwarded.
func (f *Framer) Route(msg []byte) (Target, bool) {
	if len(msg) == 0 {
		return Ordinary, false
	}
	target, next := Classify(msg, f.State())
	f.inSysEx.Store(next == InSysEx)
	return target, true
}

// State returns the current state.
func (f *Framer) State() State {
	if f.inSysEx.Load() {
		return InSysEx
	}
	return Normal
}

// InSysEx reports whether the framer is inside a SysEx run.
func (f *Framer) InSysEx() bool {
	return f.inSysEx.Load()
}
