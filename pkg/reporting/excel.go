package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/Bing4Ever/quant-trading-sub000/internal/backtest"
)

// ExcelReporter writes a backtest workbook with summary, trade ledger and
// equity curve sheets
type ExcelReporter struct{}

// NewExcelReporter creates a new Excel reporter
func NewExcelReporter() *ExcelReporter {
	return &ExcelReporter{}
}

// excelStyles holds the style ids shared across sheets
type excelStyles struct {
	header  int
	money   int
	percent int
}

// WriteWorkbook writes the full results workbook to path
func (r *ExcelReporter) WriteWorkbook(results *backtest.Results, path string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	fx := excelize.NewFile()
	defer fx.Close()

	const summarySheet = "Summary"
	const tradesSheet = "Trades"
	const equitySheet = "Equity Curve"

	fx.SetSheetName(fx.GetSheetName(0), summarySheet)
	if _, err := fx.NewSheet(tradesSheet); err != nil {
		return err
	}
	if _, err := fx.NewSheet(equitySheet); err != nil {
		return err
	}

	styles, err := r.createStyles(fx)
	if err != nil {
		return err
	}

	if err := r.writeSummarySheet(fx, summarySheet, results, styles); err != nil {
		return err
	}
	if err := r.writeTradesSheet(fx, tradesSheet, results, styles); err != nil {
		return err
	}
	if err := r.writeEquitySheet(fx, equitySheet, results, styles); err != nil {
		return err
	}

	return fx.SaveAs(path)
}

func (r *ExcelReporter) createStyles(fx *excelize.File) (excelStyles, error) {
	var styles excelStyles
	var err error

	styles.header, err = fx.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold:   true,
			Size:   11,
			Color:  "FFFFFF",
			Family: "Calibri",
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"2F5496"},
			Pattern: 1,
		},
	})
	if err != nil {
		return styles, err
	}

	moneyFmt := "#,##0.00"
	styles.money, err = fx.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return styles, err
	}

	percentFmt := "0.00%"
	styles.percent, err = fx.NewStyle(&excelize.Style{CustomNumFmt: &percentFmt})
	return styles, err
}

type summaryRow struct {
	label string
	value interface{}
	style int
}

func (r *ExcelReporter) writeSummarySheet(fx *excelize.File, sheet string, results *backtest.Results, styles excelStyles) error {
	rows := []summaryRow{
		{"Strategy", results.Strategy, 0},
		{"Start Date", results.StartDate.Format("2006-01-02"), 0},
		{"End Date", results.EndDate.Format("2006-01-02"), 0},
		{"Initial Capital", results.InitialCapital, styles.money},
		{"Final Capital", results.FinalCapital, styles.money},
		{"Total Return", results.TotalReturn, styles.percent},
		{"Annual Return", results.AnnualReturn, styles.percent},
		{"Volatility", results.Volatility, styles.percent},
		{"Sharpe Ratio", finiteOrString(results.SharpeRatio), 0},
		{"Calmar Ratio", finiteOrString(results.CalmarRatio), 0},
		{"Max Drawdown", results.MaxDrawdown, styles.percent},
		{"Total Trades", results.TotalTrades, 0},
		{"Win Rate", results.WinRate, styles.percent},
		{"Avg Win", results.AvgWin, styles.money},
		{"Avg Loss", results.AvgLoss, styles.money},
		{"Profit Factor", finiteOrString(results.ProfitFactor), 0},
	}
	if results.HasBenchmark {
		rows = append(rows,
			summaryRow{"Benchmark Return", results.BenchmarkReturn, styles.percent},
			summaryRow{"Alpha", results.Alpha, 0},
			summaryRow{"Beta", results.Beta, 0},
		)
	}

	if err := fx.SetCellValue(sheet, "A1", "Metric"); err != nil {
		return err
	}
	if err := fx.SetCellValue(sheet, "B1", "Value"); err != nil {
		return err
	}
	if err := fx.SetCellStyle(sheet, "A1", "B1", styles.header); err != nil {
		return err
	}

	for i, row := range rows {
		labelCell := fmt.Sprintf("A%d", i+2)
		valueCell := fmt.Sprintf("B%d", i+2)
		if err := fx.SetCellValue(sheet, labelCell, row.label); err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, valueCell, row.value); err != nil {
			return err
		}
		if row.style != 0 {
			if err := fx.SetCellStyle(sheet, valueCell, valueCell, row.style); err != nil {
				return err
			}
		}
	}
	return fx.SetColWidth(sheet, "A", "B", 22)
}

func (r *ExcelReporter) writeTradesSheet(fx *excelize.File, sheet string, results *backtest.Results, styles excelStyles) error {
	headers := []string{"#", "Symbol", "Side", "Quantity", "Entry Date", "Exit Date",
		"Entry Price", "Exit Price", "Commission", "P&L", "Return %"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := fx.SetCellStyle(sheet, "A1", last, styles.header); err != nil {
		return err
	}

	for i, tr := range results.Trades {
		row := i + 2
		values := []interface{}{
			i + 1, tr.Symbol, string(tr.Side), tr.Quantity,
			tr.EntryDate.Format("2006-01-02"), tr.ExitDate.Format("2006-01-02"),
			tr.EntryPrice, tr.ExitPrice, tr.Commission, tr.PnL, tr.ReturnPct,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := fx.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *ExcelReporter) writeEquitySheet(fx *excelize.File, sheet string, results *backtest.Results, styles excelStyles) error {
	headers := []string{"Date", "Total Value", "Cash", "Positions Value", "Daily Return"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := fx.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	if err := fx.SetCellStyle(sheet, "A1", "E1", styles.header); err != nil {
		return err
	}

	for i, snap := range results.Snapshots {
		row := i + 2
		dailyReturn := 0.0
		if i < len(results.DailyReturns) {
			dailyReturn = results.DailyReturns[i]
		}
		values := []interface{}{
			snap.Date.Format("2006-01-02"),
			snap.TotalValue, snap.Cash, snap.PositionsValue, dailyReturn,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := fx.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return fx.SetColWidth(sheet, "A", "E", 16)
}

// finiteOrString keeps non-finite ratios out of numeric cells
func finiteOrString(v float64) interface{} {
	if s, ok := jsonNumber(v).(string); ok {
		return s
	}
	return v
}
