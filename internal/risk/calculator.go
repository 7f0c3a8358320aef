package risk

import (
	"math"
	"sort"
)

// tradingDaysPerYear annualizes daily return statistics.
const tradingDaysPerYear = 252

// Calculator computes portfolio risk statistics. It is stateless and safe
// for concurrent use.
type Calculator struct{}

// NewCalculator creates a risk calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// ValueAtRisk is the historical-simulation VaR of a daily return series at
// the given confidence level: the (1 - confidence) percentile of returns.
// A loss threshold comes out negative. Fewer than two observations give 0.
func (c *Calculator) ValueAtRisk(returns []float64, confidence float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	return percentile(returns, (1-confidence)*100)
}

// MaxDrawdown is the deepest peak-to-trough loss of a value series,
// reported as a non-positive fraction. Fewer than two points give 0.
func (c *Calculator) MaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	worst := 0.0
	peak := values[0]
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (v - peak) / peak; dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// Volatility is the annualized standard deviation of daily returns.
func (c *Calculator) Volatility(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	return stdev(returns) * math.Sqrt(tradingDaysPerYear)
}

// SharpeRatio is the annualized mean excess return over its standard
// deviation. The annual risk-free rate is deflated to a daily rate. A zero
// standard deviation gives 0.
func (c *Calculator) SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	excess := excessReturns(returns, riskFreeRate)
	sd := stdev(excess)
	if sd == 0 {
		return 0
	}
	return mean(excess) / sd * math.Sqrt(tradingDaysPerYear)
}

// SortinoRatio is the Sharpe variant that penalizes only downside excess
// returns. With no downside observations the ratio is +Inf.
func (c *Calculator) SortinoRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	excess := excessReturns(returns, riskFreeRate)

	var downside []float64
	for _, r := range excess {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return math.Inf(1)
	}
	sd := stdev(downside)
	if sd == 0 {
		return math.Inf(1)
	}
	return mean(excess) / sd * math.Sqrt(tradingDaysPerYear)
}

// Beta measures sensitivity to market returns. Mismatched, short or
// flat-market series default to the neutral value 1.
func (c *Calculator) Beta(assetReturns, marketReturns []float64) float64 {
	if len(assetReturns) < 2 || len(assetReturns) != len(marketReturns) {
		return 1
	}
	marketVar := variance(marketReturns)
	if marketVar == 0 {
		return 1
	}
	return covariance(assetReturns, marketReturns) / marketVar
}

// Concentration maps each position to its fraction of total exposure. The
// fractions sum to 1; a non-positive total gives all zeros.
func (c *Calculator) Concentration(positions map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(positions))
	total := 0.0
	for _, v := range positions {
		total += v
	}
	if total <= 0 {
		for symbol := range positions {
			out[symbol] = 0
		}
		return out
	}
	for symbol, v := range positions {
		out[symbol] = v / total
	}
	return out
}

// ConcentrationIndex is the Herfindahl-Hirschman index of the position
// weights: 1 for a single position, 1/n for n equal positions.
func (c *Calculator) ConcentrationIndex(positions map[string]float64) float64 {
	hhi := 0.0
	for _, w := range c.Concentration(positions) {
		hhi += w * w
	}
	return hhi
}

func excessReturns(returns []float64, riskFreeRate float64) []float64 {
	daily := riskFreeRate / tradingDaysPerYear
	out := make([]float64, len(returns))
	for i, r := range returns {
		out[i] = r - daily
	}
	return out
}

// percentile linearly interpolates the q-th percentile of xs.
func percentile(xs []float64, q float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 100 {
		return sorted[len(sorted)-1]
	}

	rank := q / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	frac := rank - float64(lower)
	if lower+1 >= len(sorted) {
		return sorted[lower]
	}
	return sorted[lower] + frac*(sorted[lower+1]-sorted[lower])
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// variance is the population variance.
func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}

func stdev(xs []float64) float64 {
	return math.Sqrt(variance(xs))
}

// covariance is the population covariance of two equal-length series.
func covariance(xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0
	}
	mx, my := mean(xs), mean(ys)
	sum := 0.0
	for i := range xs {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(n)
}
