package backtest

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/Bing4Ever/quant-trading-sub000/internal/logger"
	"github.com/Bing4Ever/quant-trading-sub000/internal/strategy"
	"github.com/Bing4Ever/quant-trading-sub000/pkg/data"
	"github.com/Bing4Ever/quant-trading-sub000/pkg/market"
)

// SingleAssetSymbol is the symbol used when running against a bare bar series.
const SingleAssetSymbol = "ASSET"

// positionSizeFraction is the share of available cash committed per signal
// before scaling by signal strength.
const positionSizeFraction = 0.10

// Config holds the engine's simulation parameters.
type Config struct {
	InitialCapital    float64
	CommissionRate    float64
	SlippageRate      float64
	MarginRequirement float64
	RiskFreeRate      float64

	// CloseCommissionFraction scales the entry-sized commission on the
	// position-closing leg. The historical convention is half rate.
	CloseCommissionFraction float64

	// AllowNetShort permits opening short positions on sell signals while
	// flat. When false, sell signals only ever close existing longs.
	AllowNetShort bool

	Logger *logger.Logger
}

// DefaultConfig returns the standard simulation parameters.
func DefaultConfig() Config {
	return Config{
		InitialCapital:          100000,
		CommissionRate:          0.001,
		SlippageRate:            0.0005,
		MarginRequirement:       1.0,
		RiskFreeRate:            0.02,
		CloseCommissionFraction: 0.5,
		AllowNetShort:           false,
	}
}

// Engine simulates a strategy day by day over historical bars.
type Engine struct {
	cfg Config
}

// NewEngine validates the configuration and creates an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("backtest: initial capital must be positive, got %.2f", cfg.InitialCapital)
	}
	if cfg.CommissionRate < 0 {
		return nil, fmt.Errorf("backtest: commission rate must not be negative, got %f", cfg.CommissionRate)
	}
	if cfg.SlippageRate < 0 {
		return nil, fmt.Errorf("backtest: slippage rate must not be negative, got %f", cfg.SlippageRate)
	}
	if cfg.MarginRequirement <= 0 {
		return nil, fmt.Errorf("backtest: margin requirement must be positive, got %f", cfg.MarginRequirement)
	}
	if cfg.CloseCommissionFraction < 0 || cfg.CloseCommissionFraction > 1 {
		return nil, fmt.Errorf("backtest: close commission fraction must be within [0, 1], got %f", cfg.CloseCommissionFraction)
	}
	return &Engine{cfg: cfg}, nil
}

// RunOptions narrows the simulation window and attaches an optional
// benchmark series for relative metrics.
type RunOptions struct {
	StartDate time.Time
	EndDate   time.Time
	Benchmark []market.Bar
}

// position is the engine's running book for one symbol.
type position struct {
	quantity int64
}

// runState carries the mutable simulation state through a run.
type runState struct {
	cash      float64
	positions map[string]*position
	trades    []*Trade
	snapshots []PortfolioSnapshot
	returns   []float64
}

// RunSeries simulates a strategy over a single bar series.
func (e *Engine) RunSeries(strat strategy.Strategy, bars []market.Bar, opts RunOptions) (*Results, error) {
	return e.Run(strat, map[string][]market.Bar{SingleAssetSymbol: bars}, opts)
}

// Run simulates the strategy over every symbol's bars on a merged daily
// timeline. Per-symbol signal failures are collected in the results rather
// than aborting the run; an empty timeline returns data.ErrNoData.
func (e *Engine) Run(strat strategy.Strategy, seriesBySymbol map[string][]market.Bar, opts RunOptions) (*Results, error) {
	if strat == nil {
		return nil, fmt.Errorf("backtest: strategy is required")
	}

	bars := make(map[string][]market.Bar, len(seriesBySymbol))
	barIndex := make(map[string]map[time.Time]market.Bar, len(seriesBySymbol))
	signals := make(map[string][]market.Signal, len(seriesBySymbol))
	var signalErrs []SignalError

	symbols := make([]string, 0, len(seriesBySymbol))
	for symbol := range seriesBySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		windowed := market.FilterRange(seriesBySymbol[symbol], opts.StartDate, opts.EndDate)
		if len(windowed) == 0 {
			continue
		}
		bars[symbol] = windowed

		index := make(map[time.Time]market.Bar, len(windowed))
		for _, b := range windowed {
			index[b.Timestamp] = b
		}
		barIndex[symbol] = index

		sigs, err := strat.GenerateSignals(windowed)
		if err != nil {
			signalErrs = append(signalErrs, SignalError{Symbol: symbol, Err: err})
			if e.cfg.Logger != nil {
				e.cfg.Logger.Warning("signal generation failed for %s: %v", symbol, err)
			}
			delete(bars, symbol)
			delete(barIndex, symbol)
			continue
		}
		signals[symbol] = sigs
	}

	timeline := mergeTimeline(bars)
	if len(timeline) == 0 {
		return nil, fmt.Errorf("backtest: no bars in the requested window: %w", data.ErrNoData)
	}

	state := &runState{
		cash:      e.cfg.InitialCapital,
		positions: make(map[string]*position),
	}

	for _, date := range timeline {
		for _, symbol := range symbols {
			bar, ok := barIndex[symbol][date]
			if !ok {
				continue
			}
			sig, ok := market.LatestSignalAt(signals[symbol], date)
			if !ok || sig.Direction == market.Flat {
				continue
			}
			e.executeSignal(state, symbol, date, bar.Close, sig)
		}
		e.snapshot(state, barIndex, symbols, date)
	}

	e.closeAllPositions(state, bars, timeline[len(timeline)-1])

	results := &Results{
		Strategy:       strat.Name(),
		StartDate:      timeline[0],
		EndDate:        timeline[len(timeline)-1],
		InitialCapital: e.cfg.InitialCapital,
		Trades:         closedTrades(state.trades),
		Snapshots:      state.snapshots,
		DailyReturns:   state.returns,
		SignalErrors:   signalErrs,
	}
	e.computeMetrics(results, opts.Benchmark)

	if e.cfg.Logger != nil {
		e.cfg.Logger.LogRunSummary(results.Strategy, results.FinalCapital,
			results.TotalReturn, results.MaxDrawdown, results.TotalTrades)
	}
	return results, nil
}

// executeSignal turns one signal into at most one fill. Sizing commits
// strength * 10% of current cash; fills suffer adverse slippage and the
// commission is charged in full on entry and at the configured fraction on
// the closing leg.
func (e *Engine) executeSignal(state *runState, symbol string, date time.Time, closePrice float64, sig market.Signal) {
	execPrice := closePrice
	if sig.Direction == market.Buy {
		execPrice *= 1 + e.cfg.SlippageRate
	} else {
		execPrice *= 1 - e.cfg.SlippageRate
	}
	if execPrice <= 0 {
		return
	}

	notional := math.Abs(sig.Strength) * state.cash * positionSizeFraction
	quantity := int64(math.Floor(notional / execPrice))
	if quantity <= 0 {
		return
	}
	commission := float64(quantity) * execPrice * e.cfg.CommissionRate

	pos := state.positions[symbol]
	held := int64(0)
	if pos != nil {
		held = pos.quantity
	}

	switch sig.Direction {
	case market.Buy:
		if held > 0 {
			return // already long, accumulation is not modeled
		}
		if held < 0 {
			// Cover first, then the same bar's buy opens the long.
			e.closePosition(state, symbol, date, execPrice, commission*e.cfg.CloseCommissionFraction)
		}
		cost := float64(quantity)*execPrice*e.cfg.MarginRequirement + commission
		if cost > state.cash {
			return
		}
		state.cash -= cost
		state.positions[symbol] = &position{quantity: quantity}
		state.trades = append(state.trades, NewTrade(symbol, SideLong, quantity, date, execPrice))
		if e.cfg.Logger != nil {
			e.cfg.Logger.LogFill("BUY", symbol, quantity, execPrice, state.cash)
		}

	case market.Sell:
		if held > 0 {
			e.closePosition(state, symbol, date, execPrice, commission*e.cfg.CloseCommissionFraction)
			return
		}
		if held < 0 || !e.cfg.AllowNetShort {
			return // flat and shorting disabled, or already short
		}
		state.cash += float64(quantity)*execPrice - commission
		state.positions[symbol] = &position{quantity: -quantity}
		state.trades = append(state.trades, NewTrade(symbol, SideShort, quantity, date, execPrice))
		if e.cfg.Logger != nil {
			e.cfg.Logger.LogFill("SELL SHORT", symbol, quantity, execPrice, state.cash)
		}
	}
}

// closePosition settles the whole position for a symbol at the given fill
// price and releases the proceeds back to cash.
func (e *Engine) closePosition(state *runState, symbol string, date time.Time, execPrice, commission float64) {
	pos := state.positions[symbol]
	if pos == nil || pos.quantity == 0 {
		return
	}

	qty := pos.quantity
	if qty > 0 {
		state.cash += float64(qty)*execPrice - commission
	} else {
		// Short cover: buy back at the fill price.
		state.cash -= float64(-qty)*execPrice + commission
	}
	delete(state.positions, symbol)

	for i := len(state.trades) - 1; i >= 0; i-- {
		t := state.trades[i]
		if t.Symbol == symbol && t.Open {
			if err := t.Close(date, execPrice, commission); err == nil && e.cfg.Logger != nil {
				e.cfg.Logger.LogFill("CLOSE", symbol, t.Quantity, execPrice, state.cash)
			}
			break
		}
	}
}

// closeAllPositions force-closes every open position at the final date using
// each symbol's last close, with no commission or slippage.
func (e *Engine) closeAllPositions(state *runState, bars map[string][]market.Bar, finalDate time.Time) {
	symbols := make([]string, 0, len(state.positions))
	for symbol := range state.positions {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		series := bars[symbol]
		if len(series) == 0 {
			continue
		}
		lastClose := series[len(series)-1].Close
		e.closePosition(state, symbol, finalDate, lastClose, 0)
	}
}

// snapshot records end-of-day portfolio state. Positions are marked with the
// close of symbols that traded on this date.
func (e *Engine) snapshot(state *runState, barIndex map[string]map[time.Time]market.Bar, symbols []string, date time.Time) {
	positionsValue := 0.0
	for _, symbol := range symbols {
		pos := state.positions[symbol]
		if pos == nil || pos.quantity == 0 {
			continue
		}
		if bar, ok := barIndex[symbol][date]; ok {
			positionsValue += float64(pos.quantity) * bar.Close
		}
	}

	total := state.cash + positionsValue
	if n := len(state.snapshots); n == 0 {
		state.returns = append(state.returns, 0)
	} else if prev := state.snapshots[n-1].TotalValue; prev != 0 {
		state.returns = append(state.returns, total/prev-1)
	} else {
		state.returns = append(state.returns, 0)
	}

	state.snapshots = append(state.snapshots, PortfolioSnapshot{
		Date:           date,
		TotalValue:     total,
		Cash:           state.cash,
		PositionsValue: positionsValue,
	})
}

// mergeTimeline merges the bar timestamps of every symbol into one sorted,
// de-duplicated timeline.
func mergeTimeline(bars map[string][]market.Bar) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, series := range bars {
		for _, b := range series {
			seen[b.Timestamp] = struct{}{}
		}
	}
	timeline := make([]time.Time, 0, len(seen))
	for t := range seen {
		timeline = append(timeline, t)
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Before(timeline[j]) })
	return timeline
}

func closedTrades(trades []*Trade) []*Trade {
	out := make([]*Trade, 0, len(trades))
	for _, t := range trades {
		if !t.Open {
			out = append(out, t)
		}
	}
	return out
}
