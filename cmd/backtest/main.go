package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Bing4Ever/quant-trading-sub000/internal/backtest"
	"github.com/Bing4Ever/quant-trading-sub000/internal/config"
	"github.com/Bing4Ever/quant-trading-sub000/internal/logger"
	"github.com/Bing4Ever/quant-trading-sub000/internal/monitoring"
	"github.com/Bing4Ever/quant-trading-sub000/internal/store"
	"github.com/Bing4Ever/quant-trading-sub000/internal/strategy"
	"github.com/Bing4Ever/quant-trading-sub000/pkg/data"
	"github.com/Bing4Ever/quant-trading-sub000/pkg/market"
	"github.com/Bing4Ever/quant-trading-sub000/pkg/reporting"
)

const (
	AppName    = "Quant Backtest"
	AppVersion = "1.0.0"

	dateLayout = "2006-01-02"
)

func main() {
	configFile := flag.String("config", "", "path to a JSON or YAML config file")
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols to simulate (required)")
	strategyName := flag.String("strategy", "", "strategy name (overrides config)")
	paramsFlag := flag.String("params", "", "strategy parameter overrides, e.g. fast_period=5,slow_period=20")
	startFlag := flag.String("start", "", "simulation start date (2006-01-02)")
	endFlag := flag.String("end", "", "simulation end date (2006-01-02)")
	benchmarkFlag := flag.String("benchmark", "", "benchmark symbol for alpha/beta metrics")
	jsonOut := flag.String("output", "", "write a JSON report to this path")
	excelOut := flag.String("excel", "", "write an Excel workbook to this path")
	dbPath := flag.String("db", "", "persist the run to this SQLite database")
	printTrades := flag.Bool("trades", false, "print the closed trade ledger")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s v%s\n", AppName, AppVersion)
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}
	if *strategyName != "" {
		cfg.Backtest.Strategy = *strategyName
	}

	symbols := splitSymbols(*symbolsFlag)
	if len(symbols) == 0 {
		log.Fatalf("❌ At least one symbol is required (-symbols AAPL,MSFT)")
	}

	params := cfg.Backtest.StrategyParams
	if *paramsFlag != "" {
		if params, err = parseParams(*paramsFlag); err != nil {
			log.Fatalf("❌ Invalid -params: %v", err)
		}
	}

	opts, err := parseWindow(*startFlag, *endFlag)
	if err != nil {
		log.Fatalf("❌ Invalid date: %v", err)
	}

	fileLog, err := logger.NewLoggerInDir("backtest", cfg.LogDir)
	if err != nil {
		log.Fatalf("❌ Logger error: %v", err)
	}
	defer fileLog.Close()

	strat, err := strategy.New(cfg.Backtest.Strategy, params)
	if err != nil {
		log.Fatalf("❌ Strategy error: %v", err)
	}

	source := buildSource(cfg)
	ctx := context.Background()

	series := make(map[string][]market.Bar, len(symbols))
	for _, symbol := range symbols {
		bars, err := source.GetBars(ctx, symbol, opts.StartDate, opts.EndDate, cfg.Data.Interval)
		if err != nil {
			log.Fatalf("❌ Failed to load %s: %v", symbol, err)
		}
		series[symbol] = bars
		fileLog.Info("loaded %d bars for %s from %s", len(bars), symbol, source.Name())
	}

	if *benchmarkFlag != "" {
		bench, err := source.GetBars(ctx, *benchmarkFlag, opts.StartDate, opts.EndDate, cfg.Data.Interval)
		if err != nil {
			log.Fatalf("❌ Failed to load benchmark %s: %v", *benchmarkFlag, err)
		}
		opts.Benchmark = bench
	}

	engineCfg := backtest.Config{
		InitialCapital:          cfg.Backtest.InitialCapital,
		CommissionRate:          cfg.Backtest.CommissionRate,
		SlippageRate:            cfg.Backtest.SlippageRate,
		MarginRequirement:       cfg.Backtest.MarginRequirement,
		RiskFreeRate:            cfg.Backtest.RiskFreeRate,
		CloseCommissionFraction: cfg.Backtest.CloseCommissionFraction,
		AllowNetShort:           cfg.Backtest.AllowNetShort,
		Logger:                  fileLog,
	}
	engine, err := backtest.NewEngine(engineCfg)
	if err != nil {
		log.Fatalf("❌ Engine error: %v", err)
	}

	started := time.Now()
	results, err := engine.Run(strat, series, opts)
	if err != nil {
		monitoring.RecordBacktest(cfg.Backtest.Strategy, "error", time.Since(started).Seconds())
		log.Fatalf("❌ Backtest failed: %v", err)
	}
	monitoring.RecordBacktest(results.Strategy, "ok", time.Since(started).Seconds())
	for _, tr := range results.Trades {
		monitoring.RecordSimulatedTrade(tr.Symbol, string(tr.Side))
	}

	console := reporting.NewConsoleReporter()
	console.OutputResults(results)
	if *printTrades {
		console.PrintTrades(results)
	}

	if *jsonOut != "" {
		if err := reporting.NewJSONReporter().WriteFile(results, *jsonOut); err != nil {
			log.Fatalf("❌ Failed to write JSON report: %v", err)
		}
		fmt.Printf("📝 JSON report written to %s\n", *jsonOut)
	}
	if *excelOut != "" {
		if err := reporting.NewExcelReporter().WriteWorkbook(results, *excelOut); err != nil {
			log.Fatalf("❌ Failed to write Excel workbook: %v", err)
		}
		fmt.Printf("📊 Excel workbook written to %s\n", *excelOut)
	}
	if *dbPath != "" {
		runStore, err := store.NewSQLiteStore(*dbPath)
		if err != nil {
			log.Fatalf("❌ Failed to open run store: %v", err)
		}
		defer runStore.Close()

		id, err := runStore.SaveRun(ctx, results)
		if err != nil {
			log.Fatalf("❌ Failed to persist run: %v", err)
		}
		fmt.Printf("💾 Run saved as #%d in %s\n", id, *dbPath)
	}
}

// buildSource assembles the configured data source, wrapped in the memo
// cache when enabled.
func buildSource(cfg *config.Config) data.Source {
	var source data.Source
	switch cfg.Data.Provider {
	case "bybit":
		source = data.NewBybitSource("spot", cfg.Environment != "production")
	default:
		source = data.NewCSVSource(cfg.Data.CSVDir)
	}
	if cfg.Data.CacheEnabled {
		source = data.NewCachedSource(source)
	}
	return source
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, strings.ToUpper(trimmed))
		}
	}
	return out
}

// parseParams parses "key=value,key=value" strategy overrides.
func parseParams(s string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", key, err)
		}
		out[strings.TrimSpace(key)] = f
	}
	return out, nil
}

func parseWindow(start, end string) (backtest.RunOptions, error) {
	var opts backtest.RunOptions
	var err error
	if start != "" {
		if opts.StartDate, err = time.Parse(dateLayout, start); err != nil {
			return opts, err
		}
	}
	if end != "" {
		if opts.EndDate, err = time.Parse(dateLayout, end); err != nil {
			return opts, err
		}
	}
	if !opts.StartDate.IsZero() && !opts.EndDate.IsZero() && opts.EndDate.Before(opts.StartDate) {
		return opts, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return opts, nil
}
