package gomididrv

import (
	"testing"

	"github.com/leandrodaf/midiroute/internal/logger"
	"github.com/leandrodaf/midiroute/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2/drivers/testdrv"
)

func TestTransport_EnumeratesDriverPorts(t *testing.T) {
	drv := testdrv.New("router-test")
	tr := New(drv, logger.NewNopLogger())

	ins, err := drv.Ins()
	require.NoError(t, err)
	outs, err := drv.Outs()
	require.NoError(t, err)

	count, err := tr.PortCount(contracts.Input)
	require.NoError(t, err)
	assert.Equal(t, len(ins), count)

	count, err = tr.PortCount(contracts.Output)
	require.NoError(t, err)
	assert.Equal(t, len(outs), count)

	for i, in := range ins {
		name, err := tr.PortName(contracts.Input, i)
		require.NoError(t, err)
		assert.Equal(t, in.String(), name)
	}
}

func TestTransport_PortNameOutOfRange(t *testing.T) {
	tr := New(testdrv.New("router-test"), logger.NewNopLogger())

	_, err := tr.PortName(contracts.Input, 99)
	assert.Error(t, err)
	_, err = tr.OpenOutput(-1)
	assert.Error(t, err)
}

// loopback opens the test driver's only input and output. testdrv feeds
// whatever is sent on the output to the input's listener.
func loopback(t *testing.T, cfg contracts.ListenConfig) (contracts.OutputHandle, func() [][]byte, func()) {
	t.Helper()
	tr := New(testdrv.New("router-test"), logger.NewNopLogger())

	in, err := tr.OpenInput(0)
	require.NoError(t, err)
	var got [][]byte
	stop, err := in.Listen(func(msg []byte) {
		got = append(got, append([]byte(nil), msg...))
	}, cfg)
	require.NoError(t, err)

	out, err := tr.OpenOutput(0)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, out.Close())
		assert.NoError(t, in.Close())
	})
	return out, func() [][]byte { return got }, stop
}

func TestTransport_SendReachesListener(t *testing.T) {
	out, got, _ := loopback(t, contracts.DefaultListenConfig)

	require.NoError(t, out.Send([]byte{0x90, 0x40, 0x7F}))
	require.NoError(t, out.Send([]byte{0xF0, 0x01, 0x02, 0xF7}))

	assert.Equal(t, [][]byte{{0x90, 0x40, 0x7F}, {0xF0, 0x01, 0x02, 0xF7}}, got())
}

func TestTransport_AppliesListenConfig(t *testing.T) {
	out, got, _ := loopback(t, contracts.ListenConfig{IgnoreSysEx: true, IgnoreTiming: true, IgnoreActiveSense: true})

	require.NoError(t, out.Send([]byte{contracts.TimingClock}))
	require.NoError(t, out.Send([]byte{contracts.ActiveSensing}))
	require.NoError(t, out.Send([]byte{0xF0, 0x7E, 0xF7}))
	require.NoError(t, out.Send([]byte{0x80, 0x40, 0x00}))

	assert.Equal(t, [][]byte{{0x80, 0x40, 0x00}}, got())
}

func TestTransport_LongSysEx(t *testing.T) {
	tests := []struct {
		name string
		cfg  contracts.ListenConfig
		size int
	}{
		{"default config", contracts.DefaultListenConfig, 2000},
		{"zero buffer size uses default", contracts.ListenConfig{}, 2000},
		{"near default limit", contracts.DefaultListenConfig, int(contracts.DefaultSysExBufferSize)},
		{"explicit buffer", contracts.ListenConfig{SysExBufferSize: 1 << 20}, 300000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, got, _ := loopback(t, tt.cfg)

			msg := make([]byte, tt.size)
			msg[0] = 0xF0
			for i := 1; i < len(msg)-1; i++ {
				msg[i] = 0x11
			}
			msg[len(msg)-1] = 0xF7

			require.NotPanics(t, func() { require.NoError(t, out.Send(msg)) })
			require.Len(t, got(), 1)
			assert.Equal(t, msg, got()[0])
		})
	}
}

func TestTransport_StopEndsDelivery(t *testing.T) {
	out, got, stop := loopback(t, contracts.DefaultListenConfig)

	require.NoError(t, out.Send([]byte{0x90, 0x40, 0x7F}))
	stop()
	require.NoError(t, out.Send([]byte{0x80, 0x40, 0x00}))

	assert.Equal(t, [][]byte{{0x90, 0x40, 0x7F}}, got())
}
