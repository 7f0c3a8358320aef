package risk

import (
	"fmt"

	"github.com/Bing4Ever/quant-trading-sub000/internal/logger"
)

// Manager gates proposed trades against position limits. Checks run in a
// fixed order and the first breached limit decides the verdict.
type Manager struct {
	calc   *Calculator
	limits PositionLimits
	logger *logger.Logger
}

// NewManager creates a trade risk manager with the given limits.
func NewManager(limits PositionLimits, log *logger.Logger) *Manager {
	return &Manager{
		calc:   NewCalculator(),
		limits: limits,
		logger: log,
	}
}

// Limits returns the active position limits.
func (m *Manager) Limits() PositionLimits {
	return m.limits
}

// CheckTradeRisk decides whether a proposed trade may proceed. The checks
// run in order: per-position value limit, portfolio concentration, then
// total exposure. The returned reason names the first breached limit, or
// confirms approval.
func (m *Manager) CheckTradeRisk(symbol string, tradeValue, portfolioValue float64, positions map[string]float64) (bool, string) {
	if portfolioValue <= 0 {
		return m.reject(symbol, "portfolio value must be positive")
	}
	if tradeValue <= 0 {
		return m.reject(symbol, "trade value must be positive")
	}

	newPositionValue := positions[symbol] + tradeValue
	if newPositionValue > m.limits.MaxPositionValue {
		return m.reject(symbol, fmt.Sprintf(
			"position value %.2f would exceed limit %.2f",
			newPositionValue, m.limits.MaxPositionValue))
	}

	concentration := newPositionValue / portfolioValue
	if concentration > m.limits.MaxPortfolioConcentration {
		return m.reject(symbol, fmt.Sprintf(
			"concentration %.1f%% would exceed limit %.1f%%",
			concentration*100, m.limits.MaxPortfolioConcentration*100))
	}

	totalExposure := tradeValue
	for _, v := range positions {
		totalExposure += v
	}
	if totalExposure/portfolioValue > m.limits.MaxTotalExposure {
		return m.reject(symbol, fmt.Sprintf(
			"total exposure %.1f%% would exceed limit %.1f%%",
			totalExposure/portfolioValue*100, m.limits.MaxTotalExposure*100))
	}

	return true, "trade approved"
}

// ValidatePositionSize checks a single proposed position against the
// per-position value limit and the concentration limit, independent of the
// current book.
func (m *Manager) ValidatePositionSize(tradeValue, portfolioValue float64) (bool, string) {
	if portfolioValue <= 0 {
		return false, "portfolio value must be positive"
	}
	if tradeValue > m.limits.MaxPositionValue {
		return false, fmt.Sprintf("position value %.2f exceeds limit %.2f",
			tradeValue, m.limits.MaxPositionValue)
	}
	if tradeValue/portfolioValue > m.limits.MaxPortfolioConcentration {
		return false, fmt.Sprintf("position would be %.1f%% of the portfolio, limit is %.1f%%",
			tradeValue/portfolioValue*100, m.limits.MaxPortfolioConcentration*100)
	}
	return true, "position size acceptable"
}

// CheckDailyLossLimit reports whether the day's loss breaches the limit.
func (m *Manager) CheckDailyLossLimit(startOfDayValue, currentValue float64) (bool, string) {
	if startOfDayValue <= 0 {
		return true, "no start-of-day value recorded"
	}
	loss := currentValue/startOfDayValue - 1
	if loss <= -m.limits.MaxDailyLoss {
		msg := fmt.Sprintf("daily loss %.2f%% breaches limit %.2f%%",
			-loss*100, m.limits.MaxDailyLoss*100)
		if m.logger != nil {
			m.logger.Alert("%s", msg)
		}
		return false, msg
	}
	return true, "within daily loss limit"
}

func (m *Manager) reject(symbol, reason string) (bool, string) {
	if m.logger != nil {
		m.logger.Warning("trade rejected for %s: %s", symbol, reason)
	}
	return false, reason
}
