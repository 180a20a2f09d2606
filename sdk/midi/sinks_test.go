package midi

import (
	"testing"

	"github.com/leandrodaf/midiroute/internal/logger"
	"github.com/leandrodaf/midiroute/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestPerByte(t *testing.T) {
	type rx struct {
		b     byte
		sysEx bool
	}
	var got []rx
	sink := PerByte(func(b byte, sysEx bool) { got = append(got, rx{b, sysEx}) })

	sink.Receive(contracts.Message{Data: []byte{0x90, 0x40}})
	sink.Receive(contracts.Message{Data: []byte{0xF0, 0xF7}, SysEx: true})

	assert.Equal(t, []rx{{0x90, false}, {0x40, false}, {0xF0, true}, {0xF7, true}}, got)
}

func TestChannelSink_DropsWhenFull(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ch := make(chan contracts.Message, 1)
	sink := ChannelSink(ch, logger.Wrap(zap.New(core)))

	sink.Receive(contracts.Message{Data: []byte{0x90, 0x40, 0x7F}})
	sink.Receive(contracts.Message{Data: []byte{0x80, 0x40, 0x00}})

	assert.Len(t, ch, 1)
	assert.Equal(t, []byte{0x90, 0x40, 0x7F}, (<-ch).Data)
	assert.Equal(t, 1, logs.FilterMessage("MIDI message channel is full; message discarded").Len())
}
