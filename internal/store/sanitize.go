package store

import (
	"math"

	"github.com/Bing4Ever/quant-trading-sub000/internal/backtest"
)

// sanitizeForJSON shallow-copies results with JSON-encodable metric values.
// A run without losing trades carries an infinite profit factor, and a run
// without a drawdown an infinite Calmar ratio, which encoding/json refuses.
func sanitizeForJSON(r *backtest.Results) *backtest.Results {
	out := *r
	out.ProfitFactor = clampNonFinite(out.ProfitFactor)
	out.CalmarRatio = clampNonFinite(out.CalmarRatio)
	return &out
}

// restoreFromJSON undoes the sanitize mapping after decoding.
func restoreFromJSON(r *backtest.Results) {
	r.ProfitFactor = unclampNonFinite(r.ProfitFactor)
	r.CalmarRatio = unclampNonFinite(r.CalmarRatio)
}

func clampNonFinite(v float64) float64 {
	switch {
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	case math.IsNaN(v):
		return 0
	}
	return v
}

func unclampNonFinite(v float64) float64 {
	switch v {
	case math.MaxFloat64:
		return math.Inf(1)
	case -math.MaxFloat64:
		return math.Inf(-1)
	}
	return v
}
