package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `timestamp,open,high,low,close,volume
2024-01-02 00:00:00,100,105,99,104,1000
2024-01-03 00:00:00,104,108,103,107,1100
2024-01-04 00:00:00,107,109,101,102,900
bad line with too few cols
2024-01-05 00:00:00,102,106,100,105,1200
`

func writeSample(t *testing.T, dir, symbol, interval string) {
	t.Helper()
	path := filepath.Join(dir, symbol+"_"+interval+".csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))
}

func TestCSVSource_GetBars(t *testing.T) {
	dir := t.TempDir()
	writeSample(t, dir, "AAPL", "1d")

	src := NewCSVSource(dir)
	bars, err := src.GetBars(context.Background(), "AAPL", time.Time{}, time.Time{}, "1d")
	require.NoError(t, err)
	require.Len(t, bars, 4, "malformed line is skipped, not fatal")
	assert.Equal(t, 104.0, bars[0].Close)
	assert.True(t, bars[0].Timestamp.Before(bars[1].Timestamp))
}

func TestCSVSource_WindowFilter(t *testing.T) {
	dir := t.TempDir()
	writeSample(t, dir, "AAPL", "1d")

	src := NewCSVSource(dir)
	start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	bars, err := src.GetBars(context.Background(), "AAPL", start, end, "1d")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 107.0, bars[0].Close)
}

func TestCSVSource_EmptyWindowIsNoData(t *testing.T) {
	dir := t.TempDir()
	writeSample(t, dir, "AAPL", "1d")

	src := NewCSVSource(dir)
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := src.GetBars(context.Background(), "AAPL", start, time.Time{}, "1d")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCSVSource_MissingFile(t *testing.T) {
	src := NewCSVSource(t.TempDir())
	_, err := src.GetBars(context.Background(), "MISSING", time.Time{}, time.Time{}, "1d")
	assert.Error(t, err)
}

func TestCachedSource(t *testing.T) {
	dir := t.TempDir()
	writeSample(t, dir, "AAPL", "1d")

	cached := NewCachedSource(NewCSVSource(dir))
	first, err := cached.GetBars(context.Background(), "AAPL", time.Time{}, time.Time{}, "1d")
	require.NoError(t, err)
	assert.Equal(t, 1, cached.Size())

	// Remove the backing file: a second call must be served from cache.
	require.NoError(t, os.Remove(filepath.Join(dir, "AAPL_1d.csv")))
	second, err := cached.GetBars(context.Background(), "AAPL", time.Time{}, time.Time{}, "1d")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	cached.Clear()
	assert.Equal(t, 0, cached.Size())
}
