// Package gomididrv adapts any gomidi driver (rtmididrv, portmididrv,
// webmididrv, testdrv) to contracts.Transport.
package gomididrv

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/midiroute/sdk/contracts"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// ErrNoDriver is returned when no gomidi driver has been registered.
var ErrNoDriver = errors.New("no gomidi driver registered")

// Transport wraps a gomidi driver.
type Transport struct {
	driver drivers.Driver
	logger contracts.Logger
}

// New wraps driver.
func New(driver drivers.Driver, logger contracts.Logger) *Transport {
	return &Transport{driver: driver, logger: logger}
}

// NewDefault wraps the driver registered with gomidi, usually through a blank
// import of gitlab.com/gomidi/midi/v2/drivers/rtmididrv.
func NewDefault(logger contracts.Logger) (*Transport, error) {
	driver := drivers.Get()
	if driver == nil {
		return nil, ErrNoDriver
	}
	logger.Info("Using gomidi driver", logger.Field().String("driver", driver.String()))
	return New(driver, logger), nil
}

func (t *Transport) PortCount(dir contracts.Direction) (int, error) {
	if dir == contracts.Input {
		ins, err := t.driver.Ins()
		return len(ins), err
	}
	outs, err := t.driver.Outs()
	return len(outs), err
}

func (t *Transport) PortName(dir contracts.Direction, index int) (string, error) {
	if dir == contracts.Input {
		in, err := t.in(index)
		if err != nil {
			return "", err
		}
		return in.String(), nil
	}
	out, err := t.out(index)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

func (t *Transport) in(index int) (drivers.In, error) {
	ins, err := t.driver.Ins()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(ins) {
		return nil, fmt.Errorf("input index %d out of range (%d ports)", index, len(ins))
	}
	return ins[index], nil
}

func (t *Transport) out(index int) (drivers.Out, error) {
	outs, err := t.driver.Outs()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(outs) {
		return nil, fmt.Errorf("output index %d out of range (%d ports)", index, len(outs))
	}
	return outs[index], nil
}

func (t *Transport) OpenInput(index int) (contracts.InputHandle, error) {
	in, err := t.in(index)
	if err != nil {
		return nil, err
	}
	if err := in.Open(); err != nil {
		return nil, err
	}
	t.logger.Debug("gomidi input opened", t.logger.Field().String("port", in.String()))
	return &input{in: in, logger: t.logger}, nil
}

func (t *Transport) OpenOutput(index int) (contracts.OutputHandle, error) {
	out, err := t.out(index)
	if err != nil {
		return nil, err
	}
	if err := out.Open(); err != nil {
		return nil, err
	}
	t.logger.Debug("gomidi output opened", t.logger.Field().String("port", out.String()))
	return &output{out: out}, nil
}

func (t *Transport) Close() error {
	return t.driver.Close()
}

type input struct {
	in     drivers.In
	logger contracts.Logger
}

// Listen starts the driver listener. gomidi assembles SysEx into a buffer of
// cfg.SysExBuffer() bytes allocated at every 0xF0 and does not bound-check
// it, so the buffer size must cover the largest SysEx the device sends.
func (i *input) Listen(fn func(msg []byte), cfg contracts.ListenConfig) (func(), error) {
	return i.in.Listen(func(msg []byte, _ int32) {
		// gomidi has no switch for the timing clock, so drop it here.
		if !cfg.Allows(msg) {
			return
		}
		fn(msg)
	}, drivers.ListenConfig{
		SysEx:           !cfg.IgnoreSysEx,
		TimeCode:        !cfg.IgnoreTiming,
		ActiveSense:     !cfg.IgnoreActiveSense,
		SysExBufferSize: cfg.SysExBuffer(),
		OnErr: func(err error) {
			i.logger.Warn("gomidi listener error",
				i.logger.Field().String("port", i.in.String()),
				i.logger.Field().Error("error", err))
		},
	})
}

func (i *input) Close() error {
	return i.in.Close()
}

type output struct {
	out drivers.Out
}

func (o *output) Send(msg []byte) error {
	return o.out.Send(msg)
}

func (o *output) Close() error {
	return o.out.Close()
}
