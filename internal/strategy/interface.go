package strategy

import (
	"github.com/Bing4Ever/quant-trading-sub000/pkg/market"
)

// Strategy turns a bar series into a signal series. Implementations must be
// deterministic for a given parameter set and must never look ahead: the
// signal at index i may only depend on bars [0..i].
type Strategy interface {
	// GenerateSignals produces at most one signal per bar timestamp,
	// ordered ascending. Bars before the indicator warm-up produce no
	// signal rather than a flat one.
	GenerateSignals(bars []market.Bar) ([]market.Signal, error)

	// Name returns the registry identifier of the strategy.
	Name() string

	// Parameters exposes the tunable parameters for optimizers and reports.
	Parameters() map[string]float64

	// SetParameters overrides a subset of parameters; unknown keys are
	// rejected so configuration typos surface early.
	SetParameters(params map[string]float64) error
}
