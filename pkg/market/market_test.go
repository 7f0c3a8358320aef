package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func flatBar(t time.Time, px float64) Bar {
	return Bar{Timestamp: t, Open: px, High: px, Low: px, Close: px, Volume: 1000}
}

func TestValidateBars_Valid(t *testing.T) {
	bars := []Bar{
		{Timestamp: day(0), Open: 100, High: 105, Low: 99, Close: 104, Volume: 10},
		{Timestamp: day(1), Open: 104, High: 110, Low: 103, Close: 108, Volume: 12},
	}
	assert.NoError(t, ValidateBars(bars))
}

func TestValidateBars_RejectsUnorderedAndDuplicates(t *testing.T) {
	bars := []Bar{flatBar(day(1), 100), flatBar(day(0), 101)}
	assert.Error(t, ValidateBars(bars))

	dup := []Bar{flatBar(day(0), 100), flatBar(day(0), 101)}
	assert.Error(t, ValidateBars(dup))
}

func TestValidateBars_RejectsBadPrices(t *testing.T) {
	assert.Error(t, ValidateBars([]Bar{{Timestamp: day(0), Open: -1, High: 1, Low: 1, Close: 1}}))
	assert.Error(t, ValidateBars([]Bar{{Timestamp: day(0), Open: 10, High: 5, Low: 8, Close: 9}}))
}

func TestFilterRange_Inclusive(t *testing.T) {
	bars := []Bar{flatBar(day(0), 1), flatBar(day(1), 2), flatBar(day(2), 3), flatBar(day(3), 4)}

	got := FilterRange(bars, day(1), day(2))
	require.Len(t, got, 2)
	assert.Equal(t, day(1), got[0].Timestamp)
	assert.Equal(t, day(2), got[1].Timestamp)

	// Open-ended bounds keep everything on that side.
	assert.Len(t, FilterRange(bars, time.Time{}, day(1)), 2)
	assert.Len(t, FilterRange(bars, day(2), time.Time{}), 2)
}

func TestLatestSignalAt_StepFunction(t *testing.T) {
	signals := []Signal{
		{Timestamp: day(1), Direction: Buy, Strength: 1},
		{Timestamp: day(5), Direction: Sell, Strength: 0.5},
	}

	_, ok := LatestSignalAt(signals, day(0))
	assert.False(t, ok, "no signal known before the first one")

	sig, ok := LatestSignalAt(signals, day(1))
	require.True(t, ok)
	assert.Equal(t, Buy, sig.Direction)

	sig, ok = LatestSignalAt(signals, day(3))
	require.True(t, ok)
	assert.Equal(t, Buy, sig.Direction, "holds the last known signal, never looks ahead")

	sig, ok = LatestSignalAt(signals, day(9))
	require.True(t, ok)
	assert.Equal(t, Sell, sig.Direction)
}

func TestReturns(t *testing.T) {
	bars := []Bar{flatBar(day(0), 100), flatBar(day(1), 110), flatBar(day(2), 99)}
	rets := Returns(bars)
	require.Len(t, rets, 2)
	assert.InDelta(t, 0.10, rets[0], 1e-12)
	assert.InDelta(t, -0.10, rets[1], 1e-12)

	assert.Nil(t, Returns(bars[:1]))
}
