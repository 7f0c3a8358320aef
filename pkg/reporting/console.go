package reporting

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Bing4Ever/quant-trading-sub000/internal/backtest"
)

// ConsoleReporter renders backtest results as terminal tables
type ConsoleReporter struct {
	out io.Writer
}

// NewConsoleReporter creates a console reporter writing to stdout
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{out: os.Stdout}
}

// NewConsoleReporterTo creates a console reporter writing to w
func NewConsoleReporterTo(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

// OutputResults prints the backtest summary and trade statistics
func (r *ConsoleReporter) OutputResults(results *backtest.Results) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("BACKTEST RESULTS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"🧠 Strategy", results.Strategy},
		{"📅 Period", fmt.Sprintf("%s → %s",
			results.StartDate.Format("2006-01-02"), results.EndDate.Format("2006-01-02"))},
		{"💰 Initial Capital", fmt.Sprintf("$%.2f", results.InitialCapital)},
		{"💰 Final Capital", fmt.Sprintf("$%.2f", results.FinalCapital)},
		{"📈 Total Return", fmt.Sprintf("%.2f%%", results.TotalReturn*100)},
		{"📈 Annual Return", fmt.Sprintf("%.2f%%", results.AnnualReturn*100)},
		{"📊 Volatility", fmt.Sprintf("%.2f%%", results.Volatility*100)},
		{"📊 Sharpe Ratio", fmt.Sprintf("%.2f", results.SharpeRatio)},
		{"📊 Calmar Ratio", formatRatio(results.CalmarRatio)},
		{"📉 Max Drawdown", fmt.Sprintf("%.2f%%", results.MaxDrawdown*100)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, WidthMax: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 30, Align: text.AlignLeft},
	})

	t.Render()
	r.outputTradeStats(results)

	if results.HasBenchmark {
		r.outputBenchmarkStats(results)
	}
	if len(results.SignalErrors) > 0 {
		fmt.Fprintf(r.out, "\n⚠️  %d symbol(s) skipped:\n", len(results.SignalErrors))
		for _, e := range results.SignalErrors {
			fmt.Fprintf(r.out, "   %s: %v\n", e.Symbol, e.Err)
		}
	}
	fmt.Fprintln(r.out)
}

func (r *ConsoleReporter) outputTradeStats(results *backtest.Results) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("TRADE STATISTICS")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"🔄 Total Trades", fmt.Sprintf("%d", results.TotalTrades)},
		{"✅ Winning Trades", fmt.Sprintf("%d", results.WinningTrades)},
		{"❌ Losing Trades", fmt.Sprintf("%d", results.LosingTrades)},
		{"🎯 Win Rate", fmt.Sprintf("%.1f%%", results.WinRate*100)},
		{"💹 Avg Win", fmt.Sprintf("$%.2f", results.AvgWin)},
		{"💹 Avg Loss", fmt.Sprintf("$%.2f", results.AvgLoss)},
		{"💹 Profit Factor", formatRatio(results.ProfitFactor)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, WidthMax: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 30, Align: text.AlignLeft},
	})

	t.Render()
}

func (r *ConsoleReporter) outputBenchmarkStats(results *backtest.Results) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("VS BENCHMARK")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"📈 Benchmark Return", fmt.Sprintf("%.2f%%", results.BenchmarkReturn*100)},
		{"📊 Alpha", fmt.Sprintf("%.4f", results.Alpha)},
		{"📊 Beta", fmt.Sprintf("%.2f", results.Beta)},
		{"📊 Information Ratio", formatRatio(results.InformationRatio)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 20, WidthMax: 20, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 30, Align: text.AlignLeft},
	})

	t.Render()
}

// PrintTrades prints the closed trade ledger
func (r *ConsoleReporter) PrintTrades(results *backtest.Results) {
	if len(results.Trades) == 0 {
		fmt.Fprintln(r.out, "No trades executed.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetTitle("TRADES")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Symbol", "Side", "Qty", "Entry", "Exit", "Entry Px", "Exit Px", "P&L", "Return"})

	for i, tr := range results.Trades {
		t.AppendRow(table.Row{
			i + 1,
			tr.Symbol,
			tr.Side,
			tr.Quantity,
			tr.EntryDate.Format("2006-01-02"),
			tr.ExitDate.Format("2006-01-02"),
			fmt.Sprintf("%.4f", tr.EntryPrice),
			fmt.Sprintf("%.4f", tr.ExitPrice),
			fmt.Sprintf("%.2f", tr.PnL),
			fmt.Sprintf("%.2f%%", tr.ReturnPct*100),
		})
	}

	t.Render()
}

// formatRatio keeps infinite ratios readable in terminal output
func formatRatio(v float64) string {
	if math.IsInf(v, 1) {
		return "∞"
	}
	if math.IsInf(v, -1) {
		return "-∞"
	}
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
