package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListenConfig_SysExBuffer(t *testing.T) {
	assert.Equal(t, DefaultSysExBufferSize, ListenConfig{}.SysExBuffer())
	assert.Equal(t, DefaultSysExBufferSize, DefaultListenConfig.SysExBuffer())
	assert.Equal(t, uint32(4096), ListenConfig{SysExBufferSize: 4096}.SysExBuffer())
}

func TestListenConfig_Allows(t *testing.T) {
	cfg := DefaultListenConfig

	assert.True(t, cfg.Allows([]byte{SysExStart, 0x01, SysExStop}))
	assert.True(t, cfg.Allows([]byte{0x90, 0x40, 0x7F}))
	assert.False(t, cfg.Allows([]byte{TimingClock}))
	assert.False(t, cfg.Allows([]byte{TimeCodeQuarterFrame, 0x10}))
	assert.False(t, cfg.Allows([]byte{ActiveSensing}))
	assert.False(t, cfg.Allows(nil))
	assert.False(t, ListenConfig{IgnoreSysEx: true}.Allows([]byte{SysExStart}))
}

func TestDirection_Valid(t *testing.T) {
	assert.True(t, Input.Valid())
	assert.True(t, Output.Valid())
	assert.False(t, Direction(2).Valid())
	assert.Equal(t, "unknown", Direction(-1).String())
}
