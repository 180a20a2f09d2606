package midi

import (
	"testing"

	"github.com/leandrodaf/midiroute/internal/logger"
	"github.com/leandrodaf/midiroute/internal/midi/midimock"
	"github.com/leandrodaf/midiroute/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransport_UnsupportedWithoutDriver(t *testing.T) {
	// No gomidi driver is registered in this test binary.
	_, err := newTransport("plan9", &contracts.ClientOptions{Logger: logger.NewNopLogger()})
	assert.ErrorIs(t, err, contracts.ErrUnsupportedOS)
}

func TestNewMIDIRouter_WithTransport(t *testing.T) {
	tr := midimock.New([]string{"Keys"}, []string{"Synth"})
	var got []contracts.Message

	r, err := NewMIDIRouter(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithTransport(tr),
		contracts.WithSink(contracts.SinkFunc(func(msg contracts.Message) { got = append(got, msg) })),
	)
	require.NoError(t, err)
	defer r.Close()

	// The first scan ran inside the constructor.
	require.Len(t, r.Ports(contracts.Input), 1)
	require.NoError(t, r.BindInput("Keys"))
	require.NoError(t, r.BindOutput("Synth"))

	tr.Deliver("Keys", []byte{0x90, 0x40, 0x7F})
	require.Len(t, got, 1)
	assert.Equal(t, []byte{0x90, 0x40, 0x7F}, got[0].Data)

	require.NoError(t, r.Send([]byte{0x80, 0x40, 0x00}))
	assert.Equal(t, [][]byte{{0x80, 0x40, 0x00}}, tr.Outputs()[0].Sent())
}

func TestNewMIDIRouter_InitialScanFaultIsNotFatal(t *testing.T) {
	tr := midimock.New([]string{"Keys"}, nil)
	tr.FailCount(contracts.Input, true)

	r, err := NewMIDIRouter(contracts.WithLogger(logger.NewNopLogger()), contracts.WithTransport(tr))
	require.NoError(t, err)
	assert.Empty(t, r.Ports(contracts.Input))

	tr.FailCount(contracts.Input, false)
	ins, _, err := r.RefreshAndList()
	require.NoError(t, err)
	assert.Equal(t, []string{"Keys"}, ins)
}
