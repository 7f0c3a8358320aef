package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Bing4Ever/quant-trading-sub000/pkg/market"
)

// ErrNoData is returned when a source yields no bars for the requested
// symbol and window. Callers treat it as fatal only when every requested
// symbol fails.
var ErrNoData = errors.New("no market data available")

// Source loads historical bars for a symbol over an inclusive date window.
type Source interface {
	// GetBars returns bars ordered by timestamp ascending. An empty result
	// is reported as an error wrapping ErrNoData.
	GetBars(ctx context.Context, symbol string, start, end time.Time, interval string) ([]market.Bar, error)

	// Name identifies the source in logs and reports.
	Name() string
}

// noDataErr builds a consistent ErrNoData wrapper for a symbol/window.
func noDataErr(source, symbol string, start, end time.Time) error {
	return fmt.Errorf("%s: symbol %s window [%s, %s]: %w",
		source, symbol, fmtBound(start), fmtBound(end), ErrNoData)
}

func fmtBound(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return t.Format("2006-01-02")
}
