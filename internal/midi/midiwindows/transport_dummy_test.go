//go:build !windows
// +build !windows

package midiwindows

import (
	"testing"

	"github.com/leandrodaf/midiroute/internal/logger"
	"github.com/leandrodaf/midiroute/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDummyTransport_Unavailable(t *testing.T) {
	tr, err := NewTransport(&contracts.ClientOptions{Logger: logger.NewNopLogger()})
	require.NoError(t, err)

	_, err = tr.PortCount(contracts.Input)
	assert.ErrorIs(t, err, contracts.ErrUnsupportedOS)
	_, err = tr.OpenOutput(0)
	assert.ErrorIs(t, err, contracts.ErrUnsupportedOS)
	assert.NoError(t, tr.Close())
}
