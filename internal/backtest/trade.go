package backtest

import (
	"fmt"
	"time"
)

// Side is the direction of an open position.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Trade is a single round trip in the simulation ledger. A trade is created
// open and closed exactly once; the close leg records the commission charged
// and the realized P&L.
type Trade struct {
	Symbol     string    `json:"symbol"`
	Side       Side      `json:"side"`
	Quantity   int64     `json:"quantity"`
	EntryDate  time.Time `json:"entry_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitDate   time.Time `json:"exit_date,omitempty"`
	ExitPrice  float64   `json:"exit_price,omitempty"`
	Commission float64   `json:"commission"`
	PnL        float64   `json:"pnl"`
	ReturnPct  float64   `json:"return_pct"`
	Open       bool      `json:"open"`
}

// NewTrade opens a trade at the given fill price.
func NewTrade(symbol string, side Side, quantity int64, entryDate time.Time, entryPrice float64) *Trade {
	return &Trade{
		Symbol:     symbol,
		Side:       side,
		Quantity:   quantity,
		EntryDate:  entryDate,
		EntryPrice: entryPrice,
		Open:       true,
	}
}

// Close settles the trade at the exit fill price. Long P&L is
// (exit - entry) * quantity, short is the reverse, both net of the close
// commission; ReturnPct is the raw price move relative to entry, before
// commission. Closing an already closed trade is a bookkeeping bug and
// returns an error.
func (t *Trade) Close(exitDate time.Time, exitPrice, commission float64) error {
	if !t.Open {
		return fmt.Errorf("trade %s %s: already closed at %s", t.Symbol, t.Side, t.ExitDate.Format("2006-01-02"))
	}

	t.ExitDate = exitDate
	t.ExitPrice = exitPrice
	t.Commission = commission
	t.Open = false

	qty := float64(t.Quantity)
	switch t.Side {
	case SideShort:
		t.PnL = (t.EntryPrice-exitPrice)*qty - commission
		if t.EntryPrice != 0 {
			t.ReturnPct = (t.EntryPrice - exitPrice) / t.EntryPrice
		}
	default:
		t.PnL = (exitPrice-t.EntryPrice)*qty - commission
		if t.EntryPrice != 0 {
			t.ReturnPct = (exitPrice - t.EntryPrice) / t.EntryPrice
		}
	}
	return nil
}

// UnrealizedPnL marks an open trade against the given price. Closed trades
// report their realized P&L.
func (t *Trade) UnrealizedPnL(price float64) float64 {
	if !t.Open {
		return t.PnL
	}
	qty := float64(t.Quantity)
	if t.Side == SideShort {
		return (t.EntryPrice - price) * qty
	}
	return (price - t.EntryPrice) * qty
}

// HoldingPeriod is the time between entry and exit for closed trades, or
// zero while the trade is open.
func (t *Trade) HoldingPeriod() time.Duration {
	if t.Open {
		return 0
	}
	return t.ExitDate.Sub(t.EntryDate)
}
