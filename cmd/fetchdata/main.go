package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Bing4Ever/quant-trading-sub000/pkg/data"
	"github.com/Bing4Ever/quant-trading-sub000/pkg/market"
)

// fetchdata downloads historical klines from Bybit and writes them as
// per-symbol CSV files the backtest command can read.
func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols to download (required)")
	interval := flag.String("interval", "1d", "kline interval (1m, 5m, 15m, 1h, 4h, 1d)")
	category := flag.String("category", "spot", "bybit market category (spot, linear, inverse)")
	days := flag.Int("days", 365, "how many days of history to download")
	outDir := flag.String("out", "data", "output directory for CSV files")
	testnet := flag.Bool("testnet", false, "use the bybit testnet")
	flag.Parse()

	symbols := splitSymbols(*symbolsFlag)
	if len(symbols) == 0 {
		log.Fatalf("❌ At least one symbol is required (-symbols BTCUSDT,ETHUSDT)")
	}
	if *days <= 0 {
		log.Fatalf("❌ -days must be positive")
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("❌ Failed to create %s: %v", *outDir, err)
	}

	source := data.NewBybitSource(*category, *testnet)
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -*days)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	for _, symbol := range symbols {
		bars, err := source.GetBars(ctx, symbol, start, end, *interval)
		if err != nil {
			log.Fatalf("❌ Failed to download %s: %v", symbol, err)
		}

		path := filepath.Join(*outDir, fmt.Sprintf("%s_%s.csv", symbol, *interval))
		if err := writeCSV(path, bars); err != nil {
			log.Fatalf("❌ Failed to write %s: %v", path, err)
		}
		fmt.Printf("✅ %s: %d bars → %s\n", symbol, len(bars), path)
	}
}

// writeCSV writes bars in the layout the CSV source expects:
// timestamp,open,high,low,close,volume.
func writeCSV(path string, bars []market.Bar) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		record := []string{
			b.Timestamp.Format(data.DefaultCSVFormat.DateFormat),
			formatFloat(b.Open),
			formatFloat(b.High),
			formatFloat(b.Low),
			formatFloat(b.Close),
			formatFloat(b.Volume),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
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
