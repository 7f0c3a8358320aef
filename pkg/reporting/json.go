package reporting

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/Bing4Ever/quant-trading-sub000/internal/backtest"
)

// JSONReporter serializes backtest results to JSON. Non-finite metric
// values become the string sentinels "Infinity", "-Infinity" and "NaN",
// which encoding/json would otherwise refuse.
type JSONReporter struct{}

// NewJSONReporter creates a JSON reporter
func NewJSONReporter() *JSONReporter {
	return &JSONReporter{}
}

type jsonTrade struct {
	Symbol     string  `json:"symbol"`
	Side       string  `json:"side"`
	Quantity   int64   `json:"quantity"`
	EntryDate  string  `json:"entry_date"`
	ExitDate   string  `json:"exit_date"`
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Commission float64 `json:"commission"`
	PnL        float64 `json:"pnl"`
	ReturnPct  float64 `json:"return_pct"`
}

type jsonSnapshot struct {
	Date           string  `json:"date"`
	TotalValue     float64 `json:"total_value"`
	Cash           float64 `json:"cash"`
	PositionsValue float64 `json:"positions_value"`
}

type jsonReport struct {
	Strategy       string      `json:"strategy"`
	StartDate      string      `json:"start_date"`
	EndDate        string      `json:"end_date"`
	InitialCapital float64     `json:"initial_capital"`
	FinalCapital   float64     `json:"final_capital"`
	TotalReturn    float64     `json:"total_return"`
	AnnualReturn   float64     `json:"annual_return"`
	Volatility     float64     `json:"volatility"`
	SharpeRatio    interface{} `json:"sharpe_ratio"`
	CalmarRatio    interface{} `json:"calmar_ratio"`
	MaxDrawdown    float64     `json:"max_drawdown"`

	TotalTrades   int         `json:"total_trades"`
	WinningTrades int         `json:"winning_trades"`
	LosingTrades  int         `json:"losing_trades"`
	WinRate       float64     `json:"win_rate"`
	AvgWin        float64     `json:"avg_win"`
	AvgLoss       float64     `json:"avg_loss"`
	ProfitFactor  interface{} `json:"profit_factor"`

	Benchmark *jsonBenchmark `json:"benchmark,omitempty"`

	Trades    []jsonTrade    `json:"trades"`
	Snapshots []jsonSnapshot `json:"snapshots"`
}

type jsonBenchmark struct {
	Return           float64     `json:"return"`
	Alpha            float64     `json:"alpha"`
	Beta             float64     `json:"beta"`
	InformationRatio interface{} `json:"information_ratio"`
}

// Format renders the results as indented JSON
func (r *JSONReporter) Format(results *backtest.Results) ([]byte, error) {
	report := jsonReport{
		Strategy:       results.Strategy,
		StartDate:      results.StartDate.Format(time.RFC3339),
		EndDate:        results.EndDate.Format(time.RFC3339),
		InitialCapital: results.InitialCapital,
		FinalCapital:   results.FinalCapital,
		TotalReturn:    results.TotalReturn,
		AnnualReturn:   results.AnnualReturn,
		Volatility:     results.Volatility,
		SharpeRatio:    jsonNumber(results.SharpeRatio),
		CalmarRatio:    jsonNumber(results.CalmarRatio),
		MaxDrawdown:    results.MaxDrawdown,
		TotalTrades:    results.TotalTrades,
		WinningTrades:  results.WinningTrades,
		LosingTrades:   results.LosingTrades,
		WinRate:        results.WinRate,
		AvgWin:         results.AvgWin,
		AvgLoss:        results.AvgLoss,
		ProfitFactor:   jsonNumber(results.ProfitFactor),
		Trades:         make([]jsonTrade, 0, len(results.Trades)),
		Snapshots:      make([]jsonSnapshot, 0, len(results.Snapshots)),
	}

	if results.HasBenchmark {
		report.Benchmark = &jsonBenchmark{
			Return:           results.BenchmarkReturn,
			Alpha:            results.Alpha,
			Beta:             results.Beta,
			InformationRatio: jsonNumber(results.InformationRatio),
		}
	}

	for _, tr := range results.Trades {
		report.Trades = append(report.Trades, jsonTrade{
			Symbol:     tr.Symbol,
			Side:       string(tr.Side),
			Quantity:   tr.Quantity,
			EntryDate:  tr.EntryDate.Format(time.RFC3339),
			ExitDate:   tr.ExitDate.Format(time.RFC3339),
			EntryPrice: tr.EntryPrice,
			ExitPrice:  tr.ExitPrice,
			Commission: tr.Commission,
			PnL:        tr.PnL,
			ReturnPct:  tr.ReturnPct,
		})
	}
	for _, snap := range results.Snapshots {
		report.Snapshots = append(report.Snapshots, jsonSnapshot{
			Date:           snap.Date.Format(time.RFC3339),
			TotalValue:     snap.TotalValue,
			Cash:           snap.Cash,
			PositionsValue: snap.PositionsValue,
		})
	}

	return json.MarshalIndent(report, "", "  ")
}

// WriteFile writes the JSON report, creating parent directories as needed
func (r *JSONReporter) WriteFile(results *backtest.Results, path string) error {
	data, err := r.Format(results)
	if err != nil {
		return fmt.Errorf("failed to format results: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return os.WriteFile(path, data, 0644)
}

// jsonNumber maps non-finite floats to string sentinels
func jsonNumber(v float64) interface{} {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	default:
		return v
	}
}
