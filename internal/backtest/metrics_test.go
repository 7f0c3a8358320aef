package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bing4Ever/quant-trading-sub000/pkg/market"
)

func snapshotsFromValues(values []float64) []PortfolioSnapshot {
	snaps := make([]PortfolioSnapshot, len(values))
	for i, v := range values {
		snaps[i] = PortfolioSnapshot{Date: testDay(i), TotalValue: v, Cash: v}
	}
	return snaps
}

func TestMaxDrawdown(t *testing.T) {
	cases := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"monotonic rise", []float64{100, 110, 120}, 0},
		{"single dip", []float64{100, 120, 90, 110}, (90.0 - 120.0) / 120.0},
		{"full collapse", []float64{100, 50, 25}, -0.75},
		{"single point", []float64{100}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, maxDrawdown(snapshotsFromValues(tc.values)), 1e-12)
		})
	}
}

func TestStatHelpers(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, mean(xs), 1e-12)
	assert.InDelta(t, 4.0, variance(xs), 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7.0), stdevSample(xs), 1e-12)

	assert.Equal(t, 0.0, stdevSample([]float64{1}))
	assert.Equal(t, 0.0, variance(nil))
	assert.Equal(t, 0.0, covariance([]float64{1, 2}, []float64{1}))
}

func TestComputeMetrics_AnnualizationAndSharpe(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	// 252 snapshots doubling the account makes the annual return exactly 100%.
	values := make([]float64, tradingDaysPerYear)
	for i := range values {
		values[i] = 100000 * math.Pow(2, float64(i)/float64(tradingDaysPerYear-1))
	}
	r := &Results{
		InitialCapital: 100000,
		Snapshots:      snapshotsFromValues(values),
	}
	r.DailyReturns = make([]float64, len(values))
	for i := 1; i < len(values); i++ {
		r.DailyReturns[i] = values[i]/values[i-1] - 1
	}

	e.computeMetrics(r, nil)

	assert.InDelta(t, 1.0, r.TotalReturn, 1e-9)
	assert.InDelta(t, 1.0, r.AnnualReturn, 1e-9)
	assert.InDelta(t, 0.0, r.MaxDrawdown, 1e-12)
	assert.True(t, math.IsInf(r.CalmarRatio, 1), "no drawdown makes the Calmar ratio infinite")
	// Constant geometric growth still has a tiny arithmetic-return wobble,
	// so volatility is near zero and Sharpe explodes or is suppressed.
	if r.Volatility == 0 {
		assert.Equal(t, 0.0, r.SharpeRatio)
	} else {
		assert.Greater(t, r.SharpeRatio, 0.0)
	}
}

func TestComputeBenchmarkStats_BetaOneForMirroredReturns(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	closes := []float64{100, 101, 98.9, 102.3, 103.1, 102.6}
	bench := make([]market.Bar, len(closes))
	for i, px := range closes {
		bench[i] = market.Bar{Timestamp: testDay(i), Close: px, Open: px, High: px, Low: px}
	}
	// Portfolio returns mirror the benchmark's bit for bit.
	returns := returnsOf(bench)

	snaps := make([]PortfolioSnapshot, len(returns))
	for i := range returns {
		snaps[i] = PortfolioSnapshot{Date: testDay(i), TotalValue: 1, Cash: 1}
	}
	r := &Results{
		InitialCapital: 1,
		AnnualReturn:   0.10,
		Snapshots:      snaps,
		DailyReturns:   returns,
	}

	e.computeBenchmarkStats(r, bench)

	require.True(t, r.HasBenchmark)
	assert.InDelta(t, 1.0, r.Beta, 1e-9)
	assert.InDelta(t, 0.0, r.InformationRatio, 1e-12, "identical returns leave no tracking error")

	benchAnnual := mean(returnsOf(bench)) * tradingDaysPerYear
	wantAlpha := 0.10 - (e.cfg.RiskFreeRate + 1.0*(benchAnnual-e.cfg.RiskFreeRate))
	assert.InDelta(t, wantAlpha, r.Alpha, 1e-9)
}

func TestComputeBenchmarkStats_FlatBenchmarkZeroBeta(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	bench := make([]market.Bar, 5)
	for i := range bench {
		bench[i] = market.Bar{Timestamp: testDay(i), Close: 100, Open: 100, High: 100, Low: 100}
	}
	r := &Results{
		InitialCapital: 1,
		AnnualReturn:   0.05,
		Snapshots:      snapshotsFromValues([]float64{1, 1.1, 1.05, 1.2, 1.15}),
		DailyReturns:   []float64{0, 0.1, -0.045, 0.14, -0.04},
	}

	e.computeBenchmarkStats(r, bench)

	assert.Equal(t, 0.0, r.Beta, "zero benchmark variance pins beta at zero")
	assert.InDelta(t, 0.0, r.BenchmarkReturn, 1e-12)
}

func TestComputeBenchmarkStats_TooShortIsIgnored(t *testing.T) {
	e, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	r := &Results{InitialCapital: 1, Snapshots: snapshotsFromValues([]float64{1, 2})}
	e.computeBenchmarkStats(r, []market.Bar{{Timestamp: time.Now(), Close: 100}})

	assert.False(t, r.HasBenchmark)
}

// returnsOf mirrors the engine's benchmark return construction for tests.
func returnsOf(bars []market.Bar) []float64 {
	out := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		if prev := bars[i-1].Close; prev != 0 {
			out[i] = bars[i].Close/prev - 1
		}
	}
	return out
}
