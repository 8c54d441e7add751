package symbols

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fix-gateway/internal/domain"
)

func newTestMapper(t *testing.T, derive bool) *Mapper {
	t.Helper()
	m, err := NewMapper("FXCM", []Mapping{
		{Broker: "AUD/USD", Internal: domain.NewSymbol("AUDUSD", "FXCM")},
		{Broker: "EUR/USD", Internal: domain.NewSymbol("EURUSD", "FXCM")},
		{Broker: "USD/JPY", Internal: domain.NewSymbol("USDJPY", "FXCM")},
	}, derive)
	require.NoError(t, err)
	return m
}

func TestMapper_RoundTrip(t *testing.T) {
	m := newTestMapper(t, false)

	for _, sym := range m.Symbols() {
		code, ok := m.ToBroker(sym)
		require.True(t, ok)
		back, ok := m.ToInternal(code)
		require.True(t, ok)
		assert.Equal(t, sym, back)
	}
	for _, code := range []string{"AUD/USD", "EUR/USD", "USD/JPY"} {
		sym, ok := m.ToInternal(code)
		require.True(t, ok)
		back, ok := m.ToBroker(sym)
		require.True(t, ok)
		assert.Equal(t, code, back)
	}
}

func TestMapper_NotFound(t *testing.T) {
	m := newTestMapper(t, false)

	_, ok := m.ToInternal("GBP/USD")
	assert.False(t, ok)
	_, ok = m.ToBroker(domain.NewSymbol("GBPUSD", "FXCM"))
	assert.False(t, ok)

	sym, ok := m.Resolve("GBP/USD")
	assert.False(t, ok)
	assert.True(t, sym.IsUnknown())
	assert.Equal(t, 3, m.Len())
}

func TestNewMapper_RejectsConflicts(t *testing.T) {
	_, err := NewMapper("FXCM", []Mapping{
		{Broker: "AUD/USD", Internal: domain.NewSymbol("AUDUSD", "FXCM")},
		{Broker: "AUD/USD", Internal: domain.NewSymbol("AUDUSD2", "FXCM")},
	}, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	_, err = NewMapper("FXCM", []Mapping{
		{Broker: "AUD/USD", Internal: domain.NewSymbol("AUDUSD", "FXCM")},
		{Broker: "AUDUSD", Internal: domain.NewSymbol("AUDUSD", "FXCM")},
	}, false)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = NewMapper("FXCM", []Mapping{
		{Broker: "AUD/USD", Internal: domain.NewSymbol("AUDUSD", "FXCM")},
		{Broker: "AUD/USD", Internal: domain.NewSymbol("AUDUSD", "FXCM")},
	}, false)
	assert.NoError(t, err)
}

func TestMapper_ResolveDerives(t *testing.T) {
	m := newTestMapper(t, true)

	sym, ok := m.Resolve("GBP/USD")
	require.True(t, ok)
	assert.Equal(t, domain.NewSymbol("GBPUSD", "FXCM"), sym)

	code, ok := m.ToBroker(sym)
	require.True(t, ok)
	assert.Equal(t, "GBP/USD", code)
	assert.Equal(t, sym, m.Symbols()[3])
}
