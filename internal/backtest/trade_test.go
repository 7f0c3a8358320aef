package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrade_CloseLong(t *testing.T) {
	entry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	exit := entry.AddDate(0, 0, 10)

	tr := NewTrade("AAPL", SideLong, 10, entry, 100)
	require.True(t, tr.Open)

	require.NoError(t, tr.Close(exit, 110, 1.5))
	assert.False(t, tr.Open)
	assert.InDelta(t, 10*(110-100)-1.5, tr.PnL, 1e-9)
	assert.InDelta(t, 0.10, tr.ReturnPct, 1e-9, "return tracks the price move, not the commission")
	assert.Equal(t, 10*24*time.Hour, tr.HoldingPeriod())
}

func TestTrade_ReturnPctIgnoresCommission(t *testing.T) {
	entry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tr := NewTrade("AAPL", SideLong, 10, entry, 100)
	require.NoError(t, tr.Close(entry.AddDate(0, 0, 5), 110, 50))

	assert.InDelta(t, 10*(110-100)-50.0, tr.PnL, 1e-9)
	assert.InDelta(t, 0.10, tr.ReturnPct, 1e-9)
}

func TestTrade_CloseShort(t *testing.T) {
	entry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tr := NewTrade("TSLA", SideShort, 5, entry, 200)
	require.NoError(t, tr.Close(entry.AddDate(0, 0, 3), 180, 0))
	assert.InDelta(t, 5*(200-180), tr.PnL, 1e-9)
	assert.InDelta(t, 0.10, tr.ReturnPct, 1e-9, "shorts gain when the price falls")
}

func TestTrade_DoubleCloseFails(t *testing.T) {
	entry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tr := NewTrade("AAPL", SideLong, 10, entry, 100)
	require.NoError(t, tr.Close(entry.AddDate(0, 0, 1), 101, 0))

	err := tr.Close(entry.AddDate(0, 0, 2), 102, 0)
	require.Error(t, err)
	assert.InDelta(t, 10.0, tr.PnL, 1e-9, "second close must not change the ledger")
	assert.Equal(t, 101.0, tr.ExitPrice)
}

func TestTrade_UnrealizedPnL(t *testing.T) {
	entry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	long := NewTrade("AAPL", SideLong, 10, entry, 100)
	assert.InDelta(t, 50.0, long.UnrealizedPnL(105), 1e-9)

	short := NewTrade("AAPL", SideShort, 10, entry, 100)
	assert.InDelta(t, -50.0, short.UnrealizedPnL(105), 1e-9)

	require.NoError(t, long.Close(entry.AddDate(0, 0, 1), 110, 2))
	assert.InDelta(t, long.PnL, long.UnrealizedPnL(999), 1e-9, "closed trades report realized P&L")
}
