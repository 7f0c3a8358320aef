package backtest

import "time"

// PortfolioSnapshot is the end-of-day state of the simulated portfolio.
// TotalValue always equals Cash plus PositionsValue.
type PortfolioSnapshot struct {
	Date           time.Time `json:"date"`
	TotalValue     float64   `json:"total_value"`
	Cash           float64   `json:"cash"`
	PositionsValue float64   `json:"positions_value"`
}

// SignalError records a symbol whose strategy signal generation failed.
// The simulation continues with the remaining symbols.
type SignalError struct {
	Symbol string
	Err    error
}

func (e SignalError) Error() string {
	return "signal generation failed for " + e.Symbol + ": " + e.Err.Error()
}

func (e SignalError) Unwrap() error { return e.Err }

// Results holds the full outcome of a backtest run.
type Results struct {
	Strategy       string    `json:"strategy"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	InitialCapital float64   `json:"initial_capital"`
	FinalCapital   float64   `json:"final_capital"`

	TotalReturn  float64 `json:"total_return"`
	AnnualReturn float64 `json:"annual_return"`
	Volatility   float64 `json:"volatility"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	CalmarRatio  float64 `json:"calmar_ratio"`
	MaxDrawdown  float64 `json:"max_drawdown"`

	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	AvgWin        float64 `json:"avg_win"`
	AvgLoss       float64 `json:"avg_loss"`
	ProfitFactor  float64 `json:"profit_factor"`

	HasBenchmark     bool    `json:"has_benchmark"`
	BenchmarkReturn  float64 `json:"benchmark_return,omitempty"`
	Alpha            float64 `json:"alpha,omitempty"`
	Beta             float64 `json:"beta,omitempty"`
	InformationRatio float64 `json:"information_ratio,omitempty"`

	Trades       []*Trade            `json:"trades"`
	Snapshots    []PortfolioSnapshot `json:"snapshots"`
	DailyReturns []float64           `json:"daily_returns"`

	// SignalErrors carries per-symbol strategy failures that did not abort
	// the run. Callers decide whether a partial run is acceptable.
	SignalErrors []SignalError `json:"-"`
}
