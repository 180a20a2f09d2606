package framer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		msg        []byte
		state      State
		wantTarget Target
		wantState  State
	}{
		{"complete sysex", []byte{0xF0, 0x01, 0x02, 0xF7}, Normal, SysEx, Normal},
		{"sysex start", []byte{0xF0, 0x01}, Normal, SysEx, InSysEx},
		{"sysex continuation", []byte{0x03, 0x04}, InSysEx, SysEx, InSysEx},
		{"sysex end", []byte{0x02, 0xF7}, InSysEx, SysEx, Normal},
		{"note on", []byte{0x90, 0x40, 0x7F}, Normal, Ordinary, Normal},
		{"note on inside sysex run", []byte{0x90, 0x40, 0x7F}, InSysEx, SysEx, InSysEx},
		{"single stop byte in normal", []byte{0xF7}, Normal, Ordinary, Normal},
		{"padding after stop", []byte{0x02, 0xF7, 0x00}, InSysEx, SysEx, InSysEx},
		{"restart while in sysex", []byte{0xF0, 0x7E, 0xF7}, InSysEx, SysEx, Normal},
		{"empty", nil, InSysEx, Ordinary, InSysEx},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, state := Classify(tt.msg, tt.state)
			assert.Equal(t, tt.wantTarget, target)
			assert.Equal(t, tt.wantState, state)
		})
	}
}

func TestFramer_SplitSysEx(t *testing.T) {
	f := New()

	target, ok := f.Route([]byte{0xF0, 0x01})
	assert.True(t, ok)
	assert.Equal(t, SysEx, target)
	assert.Equal(t, InSysEx, f.State())
	assert.True(t, f.InSysEx())

	target, ok = f.Route([]byte{0x02, 0xF7})
	assert.True(t, ok)
	assert.Equal(t, SysEx, target)
	assert.Equal(t, Normal, f.State())

	target, ok = f.Route([]byte{0x90, 0x40, 0x7F})
	assert.True(t, ok)
	assert.Equal(t, Ordinary, target)
	assert.Equal(t, Normal, f.State())
}

func TestFramer_EmptyIsNoop(t *testing.T) {
	f := New()
	f.Route([]byte{0xF0})

	_, ok := f.Route([]byte{})
	assert.False(t, ok)
	assert.Equal(t, InSysEx, f.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "normal", Normal.String())
	assert.Equal(t, "sysex", InSysEx.String())
}
