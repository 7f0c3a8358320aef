package strategy

import (
	"fmt"
	"math"

	"github.com/Bing4Ever/quant-trading-sub000/internal/indicators"
	"github.com/Bing4Ever/quant-trading-sub000/pkg/market"
)

func init() {
	Register("rsi_reversion", func() Strategy { return NewRSIReversion(14, 30, 70) })
}

// RSIReversion buys oversold and sells overbought conditions. Strength grows
// with how far the RSI sits beyond the threshold.
type RSIReversion struct {
	params map[string]float64
}

// NewRSIReversion creates an RSI mean-reversion strategy.
func NewRSIReversion(period int, oversold, overbought float64) *RSIReversion {
	return &RSIReversion{params: map[string]float64{
		"period":     float64(period),
		"oversold":   oversold,
		"overbought": overbought,
	}}
}

func (s *RSIReversion) Name() string { return "rsi_reversion" }

func (s *RSIReversion) Parameters() map[string]float64 {
	out := make(map[string]float64, len(s.params))
	for k, v := range s.params {
		out[k] = v
	}
	return out
}

func (s *RSIReversion) SetParameters(params map[string]float64) error {
	if err := applyParams(s.params, params, s.Name()); err != nil {
		return err
	}
	if s.params["oversold"] >= s.params["overbought"] {
		return fmt.Errorf("strategy %s: oversold must be below overbought", s.Name())
	}
	return nil
}

func (s *RSIReversion) GenerateSignals(bars []market.Bar) ([]market.Signal, error) {
	period := int(s.params["period"])
	oversold := s.params["oversold"]
	overbought := s.params["overbought"]

	rsi, err := indicators.RSI(market.CloseSeries(bars), period)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", s.Name(), err)
	}

	var signals []market.Signal
	for i, value := range rsi {
		if math.IsNaN(value) {
			continue
		}
		switch {
		case value <= oversold:
			signals = append(signals, market.Signal{
				Timestamp: bars[i].Timestamp,
				Direction: market.Buy,
				Strength:  reversionStrength(oversold-value, oversold),
			})
		case value >= overbought:
			signals = append(signals, market.Signal{
				Timestamp: bars[i].Timestamp,
				Direction: market.Sell,
				Strength:  reversionStrength(value-overbought, 100-overbought),
			})
		}
	}
	return signals, nil
}

// reversionStrength maps the excursion beyond a threshold into (0, 1].
func reversionStrength(excess, span float64) float64 {
	if span <= 0 {
		return 1
	}
	return math.Min(math.Max(excess/span, 0.1), 1.0)
}
