package strategy

import (
	"fmt"
	"math"

	"github.com/Bing4Ever/quant-trading-sub000/internal/indicators"
	"github.com/Bing4Ever/quant-trading-sub000/pkg/market"
)

func init() {
	Register("bollinger_reversion", func() Strategy { return NewBollingerReversion(20, 2.0) })
}

// BollingerReversion buys closes at or below the lower band and sells closes
// at or above the upper band. Strength is the distance from the middle band
// normalized by the band half-width (0 at the middle, 1 at a band).
type BollingerReversion struct {
	params map[string]float64
}

// NewBollingerReversion creates a Bollinger Band mean-reversion strategy.
func NewBollingerReversion(period int, stdDevs float64) *BollingerReversion {
	return &BollingerReversion{params: map[string]float64{
		"period":   float64(period),
		"std_devs": stdDevs,
	}}
}

func (s *BollingerReversion) Name() string { return "bollinger_reversion" }

func (s *BollingerReversion) Parameters() map[string]float64 {
	out := make(map[string]float64, len(s.params))
	for k, v := range s.params {
		out[k] = v
	}
	return out
}

func (s *BollingerReversion) SetParameters(params map[string]float64) error {
	if err := applyParams(s.params, params, s.Name()); err != nil {
		return err
	}
	if s.params["std_devs"] <= 0 {
		return fmt.Errorf("strategy %s: std_devs must be positive", s.Name())
	}
	return nil
}

func (s *BollingerReversion) GenerateSignals(bars []market.Bar) ([]market.Signal, error) {
	period := int(s.params["period"])
	stdDevs := s.params["std_devs"]

	bands, err := indicators.Bollinger(market.CloseSeries(bars), period, stdDevs)
	if err != nil {
		return nil, fmt.Errorf("strategy %s: %w", s.Name(), err)
	}

	var signals []market.Signal
	for i, bar := range bars {
		if math.IsNaN(bands.Middle[i]) {
			continue
		}
		halfWidth := bands.Upper[i] - bands.Middle[i]
		if halfWidth <= 0 {
			continue
		}
		strength := math.Min(math.Abs(bar.Close-bands.Middle[i])/halfWidth, 1.0)

		switch {
		case bar.Close <= bands.Lower[i]:
			signals = append(signals, market.Signal{
				Timestamp: bar.Timestamp,
				Direction: market.Buy,
				Strength:  strength,
			})
		case bar.Close >= bands.Upper[i]:
			signals = append(signals, market.Signal{
				Timestamp: bar.Timestamp,
				Direction: market.Sell,
				Strength:  strength,
			})
		}
	}
	return signals, nil
}
