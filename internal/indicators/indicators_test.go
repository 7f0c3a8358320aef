package indicators

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}
	out, err := SMA(prices, 3)
	require.NoError(t, err)
	require.Len(t, out, 5)

	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-12)
	assert.InDelta(t, 3.0, out[3], 1e-12)
	assert.InDelta(t, 4.0, out[4], 1e-12)
}

func TestSMA_InsufficientData(t *testing.T) {
	_, err := SMA([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestEMA_SeededWithSMA(t *testing.T) {
	prices := []float64{10, 10, 10, 10, 20}
	out, err := EMA(prices, 4)
	require.NoError(t, err)

	assert.InDelta(t, 10.0, out[3], 1e-12)
	// multiplier = 2/5; next EMA = (20-10)*0.4 + 10 = 14.
	assert.InDelta(t, 14.0, out[4], 1e-12)
}

func TestRSI_Extremes(t *testing.T) {
	up := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	out, err := RSI(up, 5)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, out[len(out)-1], 1e-9, "monotonic gains pin RSI at 100")

	down := []float64{8, 7, 6, 5, 4, 3, 2, 1}
	out, err = RSI(down, 5)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, out[len(out)-1], 1e-9)
}

func TestRSI_WarmupIsNaN(t *testing.T) {
	prices := []float64{1, 2, 1, 2, 1, 2, 1}
	out, err := RSI(prices, 3)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(out[i]), "index %d", i)
	}
	assert.False(t, math.IsNaN(out[3]))
}

func TestBollinger(t *testing.T) {
	prices := []float64{2, 4, 6, 8, 10}
	bands, err := Bollinger(prices, 5, 2)
	require.NoError(t, err)

	// Mean 6, population stddev sqrt(8).
	sd := math.Sqrt(8)
	assert.InDelta(t, 6.0, bands.Middle[4], 1e-12)
	assert.InDelta(t, 6.0+2*sd, bands.Upper[4], 1e-12)
	assert.InDelta(t, 6.0-2*sd, bands.Lower[4], 1e-12)
	assert.True(t, math.IsNaN(bands.Upper[3]))
}
