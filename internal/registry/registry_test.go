package registry

import (
	"strings"
	"sync"
	"testing"

	"github.com/leandrodaf/midiroute/internal/logger"
	"github.com/leandrodaf/midiroute/internal/midi/midimock"
	"github.com/leandrodaf/midiroute/sdk/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRefresh_MatchesEnumeration(t *testing.T) {
	tr := midimock.New([]string{"Keys", "Pads"}, []string{"Synth"})
	r := New(tr, logger.NewNopLogger())

	require.NoError(t, r.Refresh(contracts.Input))
	require.NoError(t, r.Refresh(contracts.Output))

	assert.Equal(t, []contracts.Port{
		{Name: "Keys", Index: 0, Direction: contracts.Input},
		{Name: "Pads", Index: 1, Direction: contracts.Input},
	}, r.List(contracts.Input))
	assert.Equal(t, []string{"Synth"}, r.Names(contracts.Output))

	index, err := r.Lookup(contracts.Input, "Pads")
	require.NoError(t, err)
	assert.Equal(t, 1, index)
}

func TestRefresh_ReplacesTableWholesale(t *testing.T) {
	tr := midimock.New([]string{"A", "B", "C"}, nil)
	r := New(tr, logger.NewNopLogger())
	require.NoError(t, r.Refresh(contracts.Input))

	tr.Unplug(contracts.Input, "A")
	tr.Plug(contracts.Input, "D")
	require.NoError(t, r.Refresh(contracts.Input))

	assert.Equal(t, []string{"B", "C", "D"}, r.Names(contracts.Input))

	_, err := r.Lookup(contracts.Input, "A")
	assert.ErrorIs(t, err, contracts.ErrPortNotFound)

	index, err := r.Lookup(contracts.Input, "C")
	require.NoError(t, err)
	assert.Equal(t, 1, index, "index shifts after an earlier device is removed")
}

func TestRefresh_SkipsFaultedPort(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	tr := midimock.New([]string{"A", "Broken", "C"}, nil)
	tr.FailName(contracts.Input, "Broken")
	r := New(tr, logger.Wrap(zap.New(core)))

	require.NoError(t, r.Refresh(contracts.Input))

	assert.Equal(t, []contracts.Port{
		{Name: "A", Index: 0, Direction: contracts.Input},
		{Name: "C", Index: 2, Direction: contracts.Input},
	}, r.List(contracts.Input))
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestRefresh_CountFaultKeepsPreviousTable(t *testing.T) {
	tr := midimock.New(nil, []string{"Synth"})
	r := New(tr, logger.NewNopLogger())
	require.NoError(t, r.Refresh(contracts.Output))

	tr.FailCount(contracts.Output, true)
	err := r.Refresh(contracts.Output)

	assert.ErrorIs(t, err, contracts.ErrEnumerationFault)
	assert.Equal(t, []string{"Synth"}, r.Names(contracts.Output))
}

func TestRefresh_DuplicateNameLastWins(t *testing.T) {
	tr := midimock.New([]string{"Port", "Other", "Port"}, nil)
	r := New(tr, logger.NewNopLogger())
	require.NoError(t, r.Refresh(contracts.Input))

	index, err := r.Lookup(contracts.Input, "Port")
	require.NoError(t, err)
	assert.Equal(t, 2, index)
	assert.Len(t, r.List(contracts.Input), 3)
}

func TestRefresh_TruncatesLongNames(t *testing.T) {
	long := strings.Repeat("é", contracts.MaxPortNameLen)
	tr := midimock.New([]string{long}, nil)
	r := New(tr, logger.NewNopLogger())
	require.NoError(t, r.Refresh(contracts.Input))

	name := r.Names(contracts.Input)[0]
	assert.LessOrEqual(t, len(name), contracts.MaxPortNameLen)
	assert.True(t, strings.HasPrefix(long, name))
	assert.Equal(t, 0, len(name)%2, "cut on a rune boundary")
}

func TestLookup_UnknownDirectionTableEmpty(t *testing.T) {
	r := New(midimock.New(nil, nil), logger.NewNopLogger())

	_, err := r.Lookup(contracts.Output, "anything")
	assert.ErrorIs(t, err, contracts.ErrPortNotFound)
	assert.Empty(t, r.List(contracts.Output))
}

func TestInvalidDirection(t *testing.T) {
	r := New(midimock.New([]string{"Keys"}, nil), logger.NewNopLogger())
	require.NoError(t, r.Refresh(contracts.Input))
	bogus := contracts.Direction(7)

	assert.ErrorIs(t, r.Refresh(bogus), contracts.ErrInvalidDirection)
	_, err := r.Lookup(bogus, "Keys")
	assert.ErrorIs(t, err, contracts.ErrPortNotFound)
	assert.Empty(t, r.List(bogus))
	assert.Empty(t, r.Names(bogus))
	assert.Len(t, r.List(contracts.Input), 1)
}

func TestLookup_ConcurrentWithRefresh(t *testing.T) {
	tr := midimock.New([]string{"A", "B"}, nil)
	r := New(tr, logger.NewNopLogger())
	require.NoError(t, r.Refresh(contracts.Input))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = r.Refresh(contracts.Input)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			ports := r.List(contracts.Input)
			assert.Len(t, ports, 2)
		}
	}()
	wg.Wait()
}
