package market

import (
	"fmt"
	"sort"
	"time"
)

// Bar is a single OHLCV record for one symbol at one timestamp.
// Bars are immutable once loaded from a data source.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Direction is the sign of a trading signal: sell, flat, or buy.
type Direction int

const (
	Sell Direction = -1
	Flat Direction = 0
	Buy  Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Sell:
		return "SELL"
	case Buy:
		return "BUY"
	default:
		return "FLAT"
	}
}

// Signal is a per-timestamp directional intent produced by a strategy.
// Strength in (0, 1] scales position sizing; a zero strength with a
// non-flat direction is treated as full strength by the engine.
type Signal struct {
	Timestamp time.Time
	Direction Direction
	Strength  float64
}

// SortBars sorts bars in place by timestamp ascending.
func SortBars(bars []Bar) {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
}

// ValidateBars verifies that a bar series is ordered ascending with unique
// timestamps and sane price relationships.
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return fmt.Errorf("bar %d: prices must be positive", i)
		}
		if b.High < b.Low {
			return fmt.Errorf("bar %d: high %.4f below low %.4f", i, b.High, b.Low)
		}
		if b.High < b.Open || b.High < b.Close {
			return fmt.Errorf("bar %d: high %.4f below open/close", i, b.High)
		}
		if b.Low > b.Open || b.Low > b.Close {
			return fmt.Errorf("bar %d: low %.4f above open/close", i, b.Low)
		}
		if i > 0 && !bars[i-1].Timestamp.Before(b.Timestamp) {
			return fmt.Errorf("bar %d: timestamp %s not after previous %s",
				i, b.Timestamp.Format(time.RFC3339), bars[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}

// FilterRange returns the bars whose timestamps fall inside the inclusive
// [start, end] window. Zero-valued bounds are open on that side.
func FilterRange(bars []Bar, start, end time.Time) []Bar {
	out := make([]Bar, 0, len(bars))
	for _, b := range bars {
		if !start.IsZero() && b.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && b.Timestamp.After(end) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// LatestSignalAt returns the most recent signal whose timestamp is at or
// before t, or false when no signal is known yet. Signals must be ordered
// ascending; the lookup is a step function and never looks ahead.
func LatestSignalAt(signals []Signal, t time.Time) (Signal, bool) {
	idx := sort.Search(len(signals), func(i int) bool {
		return signals[i].Timestamp.After(t)
	})
	if idx == 0 {
		return Signal{}, false
	}
	return signals[idx-1], true
}

// CloseSeries extracts the close prices of a bar series.
func CloseSeries(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

// Returns computes simple per-bar returns of the close series. The first
// return is omitted (n bars produce n-1 returns).
func Returns(bars []Bar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	rets := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			rets = append(rets, 0)
			continue
		}
		rets = append(rets, (bars[i].Close-prev)/prev)
	}
	return rets
}
