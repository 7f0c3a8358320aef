package strategy

import (
	"fmt"
	"math"

	"github.com/Bing4Ever/quant-trading-sub000/internal/indicators"
	"github.com/Bing4Ever/quant-trading-sub000/pkg/market"
)

func init() {
	Register("ma_cross", func() Strategy { return NewMACross(10, 30) })
}

// MACross emits a buy when the fast SMA crosses above the slow SMA and a
// sell on the opposite cross. Strength scales with the relative spread
// between the two averages, capped at 1.
type MACross struct {
	params map[string]float64
}

// NewMACross creates a moving-average crossover strategy.
func NewMACross(fast, slow int) *MACross {
	return &MACross{params: map[string]float64{
		"fast_period": float64(fast),
		"slow_period": float64(slow),
	}}
}

func (s *MACross) Name() string { return "ma_cross" }

func (s *MACross) Parameters() map[string]float64 {
	out := make(map[string]float64, len(s.params))
	for k, v := range s.params {
		out[k] = v
	}
	return out
}

func (s *MACross) SetParameters(params map[string]float64) error {
	if err := applyParams(s.params, params, s.Name()); err != nil {
		return err
	}
	if s.params["fast_period"] >= s.params["slow_period"] {
		return fmt.Errorf("strategy %s: fast_period must be below slow_period", s.Name())
	}
	return nil
}

func (s *MACross) GenerateSignals(bars []market.Bar) ([]market.Signal, error) {
	fast := int(s.params["fast_period"])
	slow := int(s.params["slow_period"])
	if fast >= slow {
		// Catches construction that bypassed SetParameters.
		return nil, fmt.Errorf("strategy %s: fast_period must be below slow_period", s.Name())
	}

	closes := market.CloseSeries(bars)
	fastMA, err := indicators.SMA(closes, fast)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", s.Name(), err)
	}
	slowMA, err := indicators.SMA(closes, slow)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", s.Name(), err)
	}

	var signals []market.Signal
	for i := 1; i < len(bars); i++ {
		if math.IsNaN(slowMA[i]) || math.IsNaN(slowMA[i-1]) {
			continue
		}
		prevDiff := fastMA[i-1] - slowMA[i-1]
		diff := fastMA[i] - slowMA[i]

		var dir market.Direction
		switch {
		case prevDiff <= 0 && diff > 0:
			dir = market.Buy
		case prevDiff >= 0 && diff < 0:
			dir = market.Sell
		default:
			continue
		}

		strength := 1.0
		if slowMA[i] != 0 {
			strength = math.Min(math.Abs(diff)/slowMA[i]*100, 1.0)
		}
		signals = append(signals, market.Signal{
			Timestamp: bars[i].Timestamp,
			Direction: dir,
			Strength:  strength,
		})
	}
	return signals, nil
}
