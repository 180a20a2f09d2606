package contracts

import (
	"context"
	"time"
)

// SysEx sentinels.
const (
	SysExStart byte = 0xF0
	SysExStop  byte = 0xF7
)

// System real-time and common bytes the input filter may drop.
const (
	TimeCodeQuarterFrame byte = 0xF1
	TimingClock          byte = 0xF8
	ActiveSensing        byte = 0xFE
)

// Message is one delivery from the input port.
type Message struct {
	Data      []byte // Raw bytes as delivered by the transport.
	SysEx     bool   // True when the framer routed Data to the SysEx sink.
	Timestamp uint64 // UTC nanoseconds at delivery.
}

// Sink receives every non-empty message read from the bound input port.
// Receive runs on the transport delivery goroutine and must not call
// BindInput or Close synchronously.
type Sink interface {
	Receive(msg Message)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(msg Message)

// Receive calls f(msg).
func (f SinkFunc) Receive(msg Message) { f(msg) }

// DefaultSysExBufferSize is the SysEx input buffer, in bytes, used when a
// ListenConfig leaves SysExBufferSize at zero.
const DefaultSysExBufferSize uint32 = 64 << 10

// ListenConfig selects the message categories an input listener drops.
type ListenConfig struct {
	IgnoreSysEx       bool
	IgnoreTiming      bool
	IgnoreActiveSense bool

	// SysExBufferSize bounds one incoming SysEx message for transports that
	// assemble SysEx into a fixed buffer. Zero means DefaultSysExBufferSize.
	SysExBufferSize uint32
}

// DefaultListenConfig drops MIDI timing and active sensing but keeps SysEx.
var DefaultListenConfig = ListenConfig{
	IgnoreSysEx:       false,
	IgnoreTiming:      true,
	IgnoreActiveSense: true,
	SysExBufferSize:   DefaultSysExBufferSize,
}

// SysExBuffer returns SysExBufferSize, or DefaultSysExBufferSize when unset.
func (c ListenConfig) SysExBuffer() uint32 {
	if c.SysExBufferSize == 0 {
		return DefaultSysExBufferSize
	}
	return c.SysExBufferSize
}

// Allows reports whether msg passes the filter. It is used by transports that
// cannot filter natively.
func (c ListenConfig) Allows(msg []byte) bool {
	if len(msg) == 0 {
		return false
	}
	switch msg[0] {
	case SysExStart:
		return !c.IgnoreSysEx
	case TimingClock, TimeCodeQuarterFrame:
		return !c.IgnoreTiming
	case ActiveSensing:
		return !c.IgnoreActiveSense
	}
	return true
}

// InputHandle is an open input port.
type InputHandle interface {
	// Listen registers fn as the delivery callback. The returned stop function
	// cancels the registration.
	Listen(fn func(msg []byte), cfg ListenConfig) (stop func(), err error)
	Close() error
}

// OutputHandle is an open output port.
type OutputHandle interface {
	Send(msg []byte) error
	Close() error
}

// Transport is the platform MIDI layer the router is built on.
type Transport interface {
	// PortCount returns the number of ports currently available.
	PortCount(dir Direction) (int, error)
	// PortName returns the name of one port. It may fail for a single port,
	// for example when the device is unplugged mid-scan.
	PortName(dir Direction, index int) (string, error)
	OpenInput(index int) (InputHandle, error)
	OpenOutput(index int) (OutputHandle, error)
	Close() error
}

// Router routes MIDI between named ports and a Sink.
type Router interface {
	// BindInput opens the named input port, closing the previous one first.
	BindInput(name string) error
	// BindOutput opens the named output port, closing the previous one first.
	BindOutput(name string) error
	// Send writes msg to the bound output port. With no output bound the
	// message is dropped and Send returns nil.
	Send(msg []byte) error
	// RefreshAndList rescans both directions and returns the port names in
	// enumeration order.
	RefreshAndList() (inputs, outputs []string, err error)
	Ports(dir Direction) []Port
	Active(dir Direction) (Port, bool)
	// Watch rescans on every interval until ctx is done.
	Watch(ctx context.Context, interval time.Duration)
	Close() error
}
