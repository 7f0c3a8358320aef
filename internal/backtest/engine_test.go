package backtest

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bing4Ever/quant-trading-sub000/pkg/data"
	"github.com/Bing4Ever/quant-trading-sub000/pkg/market"
)

// scripted replays a fixed signal script regardless of the bars it sees.
type scripted struct {
	signals []market.Signal
	failFor float64 // fail when the first bar's close matches
}

func (s *scripted) Name() string                       { return "scripted" }
func (s *scripted) Parameters() map[string]float64     { return nil }
func (s *scripted) SetParameters(map[string]float64) error { return nil }

func (s *scripted) GenerateSignals(bars []market.Bar) ([]market.Signal, error) {
	if s.failFor != 0 && len(bars) > 0 && bars[0].Close == s.failFor {
		return nil, fmt.Errorf("no indicator coverage")
	}
	return s.signals, nil
}

func testDay(i int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func trendBars(n int, from, to float64) []market.Bar {
	bars := make([]market.Bar, n)
	for i := range bars {
		c := from + (to-from)*float64(i)/float64(n-1)
		bars[i] = market.Bar{Timestamp: testDay(i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

func frictionlessEngine(t *testing.T, capital float64) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.InitialCapital = capital
	cfg.CommissionRate = 0
	cfg.SlippageRate = 0
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func TestNewEngine_RejectsBadConfig(t *testing.T) {
	bad := []Config{
		{InitialCapital: 0},
		{InitialCapital: -5000},
		{InitialCapital: 1000, CommissionRate: -0.1},
		{InitialCapital: 1000, MarginRequirement: 0},
		{InitialCapital: 1000, MarginRequirement: 1, CloseCommissionFraction: 2},
	}
	for _, cfg := range bad {
		_, err := NewEngine(cfg)
		assert.Error(t, err)
	}
}

func TestRun_UptrendRoundTrip(t *testing.T) {
	// Buy on day 5, sell on day 45 of a 100 -> 110 grind with no costs.
	bars := trendBars(50, 100, 110)
	strat := &scripted{signals: []market.Signal{
		{Timestamp: testDay(5), Direction: market.Buy, Strength: 1},
		{Timestamp: testDay(45), Direction: market.Sell, Strength: 1},
	}}

	e := frictionlessEngine(t, 10000)
	res, err := e.RunSeries(strat, bars, RunOptions{})
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	tr := res.Trades[0]
	assert.Equal(t, SideLong, tr.Side)
	assert.Greater(t, tr.PnL, 0.0)
	assert.Equal(t, testDay(5), tr.EntryDate)
	assert.Equal(t, testDay(45), tr.ExitDate)

	assert.Greater(t, res.FinalCapital, res.InitialCapital)
	assert.InDelta(t, res.InitialCapital+tr.PnL, res.FinalCapital, 1e-9)
	assert.Greater(t, res.TotalReturn, 0.0)
	assert.Equal(t, 1.0, res.WinRate)
}

func TestRun_NoSignalsLeavesCapitalUntouched(t *testing.T) {
	e := frictionlessEngine(t, 10000)
	res, err := e.RunSeries(&scripted{}, trendBars(30, 100, 90), RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, res.TotalTrades)
	assert.InDelta(t, 10000.0, res.FinalCapital, 1e-9)
	assert.InDelta(t, 0.0, res.TotalReturn, 1e-9)
	assert.Equal(t, 0.0, res.WinRate)
	assert.True(t, math.IsInf(res.ProfitFactor, 1), "no losers means infinite profit factor")
	for _, snap := range res.Snapshots {
		assert.InDelta(t, 10000.0, snap.TotalValue, 1e-9)
	}
}

func TestRun_SnapshotIdentity(t *testing.T) {
	bars := trendBars(60, 50, 80)
	strat := &scripted{signals: []market.Signal{
		{Timestamp: testDay(3), Direction: market.Buy, Strength: 0.8},
		{Timestamp: testDay(20), Direction: market.Sell, Strength: 0.5},
		{Timestamp: testDay(30), Direction: market.Buy, Strength: 1},
	}}

	cfg := DefaultConfig()
	cfg.InitialCapital = 25000
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	res, err := e.RunSeries(strat, bars, RunOptions{})
	require.NoError(t, err)
	require.Len(t, res.Snapshots, 60)

	for _, snap := range res.Snapshots {
		assert.InDelta(t, snap.TotalValue, snap.Cash+snap.PositionsValue, 1e-9)
	}
	assert.Len(t, res.DailyReturns, len(res.Snapshots))
	assert.Equal(t, 0.0, res.DailyReturns[0])
}

func TestRun_CommissionAndSlippageHitCash(t *testing.T) {
	bars := trendBars(10, 100, 100) // flat market isolates the frictions
	strat := &scripted{signals: []market.Signal{
		{Timestamp: testDay(2), Direction: market.Buy, Strength: 1},
	}}

	cfg := DefaultConfig()
	cfg.InitialCapital = 10000
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	res, err := e.RunSeries(strat, bars, RunOptions{})
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)

	tr := res.Trades[0]
	assert.InDelta(t, 100*(1+cfg.SlippageRate), tr.EntryPrice, 1e-9, "buys fill above the quote")
	// Force close at the final date exits at the raw close with no commission.
	assert.Equal(t, testDay(9), tr.ExitDate)
	assert.InDelta(t, 100.0, tr.ExitPrice, 1e-9)
	assert.Equal(t, 0.0, tr.Commission)
	assert.Less(t, tr.PnL, 0.0, "slippage alone makes the flat round trip a loser")
	assert.Less(t, res.FinalCapital, res.InitialCapital)
}

func TestRun_SellWhileFlatIsNoop(t *testing.T) {
	bars := trendBars(20, 100, 105)
	strat := &scripted{signals: []market.Signal{
		{Timestamp: testDay(4), Direction: market.Sell, Strength: 1},
	}}

	e := frictionlessEngine(t, 10000)
	res, err := e.RunSeries(strat, bars, RunOptions{})
	require.NoError(t, err)

	assert.Empty(t, res.Trades, "shorting is off by default")
	assert.InDelta(t, 10000.0, res.FinalCapital, 1e-9)
}

func TestRun_NetShortWhenEnabled(t *testing.T) {
	bars := trendBars(20, 100, 80)
	strat := &scripted{signals: []market.Signal{
		{Timestamp: testDay(2), Direction: market.Sell, Strength: 1},
	}}

	cfg := DefaultConfig()
	cfg.InitialCapital = 10000
	cfg.CommissionRate = 0
	cfg.SlippageRate = 0
	cfg.AllowNetShort = true
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	res, err := e.RunSeries(strat, bars, RunOptions{})
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, SideShort, res.Trades[0].Side)
	assert.Greater(t, res.Trades[0].PnL, 0.0, "falling market pays the short")
}

func TestRun_BuyWhileShortReversesSameBar(t *testing.T) {
	bars := trendBars(20, 100, 80)
	strat := &scripted{signals: []market.Signal{
		{Timestamp: testDay(2), Direction: market.Sell, Strength: 1},
		{Timestamp: testDay(10), Direction: market.Buy, Strength: 1},
	}}

	cfg := DefaultConfig()
	cfg.InitialCapital = 10000
	cfg.CommissionRate = 0
	cfg.SlippageRate = 0
	cfg.AllowNetShort = true
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	res, err := e.RunSeries(strat, bars, RunOptions{})
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)

	short, long := res.Trades[0], res.Trades[1]
	assert.Equal(t, SideShort, short.Side)
	assert.Equal(t, testDay(2), short.EntryDate)
	assert.Equal(t, testDay(10), short.ExitDate)

	// The buy both covers the short and opens the long on the same bar.
	assert.Equal(t, SideLong, long.Side)
	assert.Equal(t, testDay(10), long.EntryDate)
	assert.Equal(t, testDay(19), long.ExitDate)
}

func TestRun_WindowFiltering(t *testing.T) {
	bars := trendBars(30, 100, 110)
	strat := &scripted{signals: []market.Signal{
		{Timestamp: testDay(1), Direction: market.Buy, Strength: 1},
	}}

	e := frictionlessEngine(t, 10000)
	res, err := e.RunSeries(strat, bars, RunOptions{
		StartDate: testDay(10),
		EndDate:   testDay(19),
	})
	require.NoError(t, err)

	require.Len(t, res.Snapshots, 10)
	assert.Equal(t, testDay(10), res.StartDate)
	assert.Equal(t, testDay(19), res.EndDate)
	// The buy signal predates the window but remains in force inside it.
	require.Len(t, res.Trades, 1)
	assert.Equal(t, testDay(10), res.Trades[0].EntryDate)
}

func TestRun_NoDataInWindow(t *testing.T) {
	e := frictionlessEngine(t, 10000)

	_, err := e.RunSeries(&scripted{}, trendBars(10, 100, 101), RunOptions{
		StartDate: testDay(100),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, data.ErrNoData))

	_, err = e.Run(&scripted{}, map[string][]market.Bar{}, RunOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, data.ErrNoData))
}

func TestRun_SignalErrorsAreCollected(t *testing.T) {
	good := trendBars(30, 100, 120)
	bad := trendBars(30, 55, 60) // first close 55 trips the scripted failure

	strat := &scripted{
		failFor: 55,
		signals: []market.Signal{
			{Timestamp: testDay(5), Direction: market.Buy, Strength: 1},
		},
	}

	e := frictionlessEngine(t, 10000)
	res, err := e.Run(strat, map[string][]market.Bar{
		"GOOD": good,
		"BAD":  bad,
	}, RunOptions{})
	require.NoError(t, err, "one broken symbol must not abort the run")

	require.Len(t, res.SignalErrors, 1)
	assert.Equal(t, "BAD", res.SignalErrors[0].Symbol)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, "GOOD", res.Trades[0].Symbol)
}

func TestRun_MultiSymbolMergedTimeline(t *testing.T) {
	// Second symbol starts ten days later; the timeline is the union.
	a := trendBars(30, 100, 110)
	b := make([]market.Bar, 0, 20)
	for i := 10; i < 30; i++ {
		c := 50 + float64(i-10)
		b = append(b, market.Bar{Timestamp: testDay(i), Open: c, High: c, Low: c, Close: c, Volume: 500})
	}

	strat := &scripted{signals: []market.Signal{
		{Timestamp: testDay(12), Direction: market.Buy, Strength: 0.5},
	}}

	e := frictionlessEngine(t, 20000)
	res, err := e.Run(strat, map[string][]market.Bar{"AAA": a, "BBB": b}, RunOptions{})
	require.NoError(t, err)

	assert.Len(t, res.Snapshots, 30)
	assert.Equal(t, 2, res.TotalTrades, "both symbols trade the shared script")
	for _, snap := range res.Snapshots {
		assert.InDelta(t, snap.TotalValue, snap.Cash+snap.PositionsValue, 1e-9)
	}
}

func TestRun_ForceCloseLeavesNoOpenTrades(t *testing.T) {
	bars := trendBars(15, 100, 130)
	strat := &scripted{signals: []market.Signal{
		{Timestamp: testDay(2), Direction: market.Buy, Strength: 1},
	}}

	e := frictionlessEngine(t, 10000)
	res, err := e.RunSeries(strat, bars, RunOptions{})
	require.NoError(t, err)

	require.Len(t, res.Trades, 1)
	for _, tr := range res.Trades {
		assert.False(t, tr.Open)
		assert.Equal(t, testDay(14), tr.ExitDate)
	}
	last := res.Snapshots[len(res.Snapshots)-1]
	assert.InDelta(t, last.TotalValue, res.FinalCapital, 1e-9)
}
