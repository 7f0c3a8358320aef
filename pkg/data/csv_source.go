package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Bing4Ever/quant-trading-sub000/pkg/market"
)

// ColumnMapping defines the column layout of an OHLCV CSV file.
type ColumnMapping struct {
	TimestampCol int
	OpenCol      int
	HighCol      int
	LowCol       int
	CloseCol     int
	VolumeCol    int
	MinColumns   int
	DateFormat   string
}

// DefaultCSVFormat matches the exchange-download layout:
// timestamp,open,high,low,close,volume.
var DefaultCSVFormat = ColumnMapping{
	TimestampCol: 0,
	OpenCol:      1,
	HighCol:      2,
	LowCol:       3,
	CloseCol:     4,
	VolumeCol:    5,
	MinColumns:   6,
	DateFormat:   "2006-01-02 15:04:05",
}

// CSVSource loads bars from per-symbol CSV files under a root directory.
// Files are resolved as <root>/<SYMBOL>_<interval>.csv.
type CSVSource struct {
	root   string
	format ColumnMapping
}

// NewCSVSource creates a CSV source with the default column format.
func NewCSVSource(root string) *CSVSource {
	return &CSVSource{root: root, format: DefaultCSVFormat}
}

// NewCSVSourceWithFormat creates a CSV source with a custom column format.
func NewCSVSourceWithFormat(root string, format ColumnMapping) *CSVSource {
	return &CSVSource{root: root, format: format}
}

func (s *CSVSource) Name() string { return "csv" }

// GetBars reads, validates, and window-filters the symbol's file.
func (s *CSVSource) GetBars(ctx context.Context, symbol string, start, end time.Time, interval string) ([]market.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.root, fmt.Sprintf("%s_%s.csv", symbol, interval))
	bars, err := s.loadFile(path)
	if err != nil {
		return nil, err
	}

	bars = market.FilterRange(bars, start, end)
	if len(bars) == 0 {
		return nil, noDataErr(s.Name(), symbol, start, end)
	}
	if err := market.ValidateBars(bars); err != nil {
		return nil, fmt.Errorf("csv: %s: %w", path, err)
	}
	return bars, nil
}

func (s *CSVSource) loadFile(path string) ([]market.Bar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	// Allow variable-length records so short rows reach the MinColumns
	// skip logic below instead of failing with csv.ErrFieldCount.
	reader.FieldsPerRecord = -1

	// Skip header.
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("csv: read header of %s: %w", path, err)
	}

	var bars []market.Bar
	lineNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %s line %d: %w", path, lineNum, err)
		}
		lineNum++

		if len(record) < s.format.MinColumns {
			log.Printf("csv: %s line %d: expected %d columns, got %d, skipping",
				path, lineNum, s.format.MinColumns, len(record))
			continue
		}

		bar, err := s.parseRecord(record)
		if err != nil {
			log.Printf("csv: %s line %d: %v, skipping", path, lineNum, err)
			continue
		}
		bars = append(bars, bar)
	}

	market.SortBars(bars)
	return bars, nil
}

func (s *CSVSource) parseRecord(record []string) (market.Bar, error) {
	ts, err := time.Parse(s.format.DateFormat, record[s.format.TimestampCol])
	if err != nil {
		return market.Bar{}, fmt.Errorf("invalid timestamp %q: %w", record[s.format.TimestampCol], err)
	}

	fields := []struct {
		name string
		col  int
		dst  *float64
	}{
		{"open", s.format.OpenCol, nil},
		{"high", s.format.HighCol, nil},
		{"low", s.format.LowCol, nil},
		{"close", s.format.CloseCol, nil},
		{"volume", s.format.VolumeCol, nil},
	}

	bar := market.Bar{Timestamp: ts}
	dsts := []*float64{&bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume}
	for i, f := range fields {
		v, err := strconv.ParseFloat(record[f.col], 64)
		if err != nil {
			return market.Bar{}, fmt.Errorf("invalid %s %q: %w", f.name, record[f.col], err)
		}
		*dsts[i] = v
	}

	if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
		return market.Bar{}, fmt.Errorf("non-positive price")
	}
	return bar, nil
}
