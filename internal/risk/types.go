package risk

import "time"

// RiskLevel grades the severity of an alert.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// RiskType identifies the metric that triggered an alert.
type RiskType string

const (
	RiskTypeDrawdown      RiskType = "drawdown"
	RiskTypeVolatility    RiskType = "volatility"
	RiskTypeVaR           RiskType = "var"
	RiskTypeConcentration RiskType = "concentration"
	RiskTypeDailyLoss     RiskType = "daily_loss"
	RiskTypeExposure      RiskType = "exposure"
)

// RiskAlert is a single limit breach observed by the monitor. Symbol is
// empty for portfolio-wide breaches. ActionRequired flags alerts severe
// enough to gate further trading.
type RiskAlert struct {
	Type           RiskType  `json:"type"`
	Level          RiskLevel `json:"level"`
	Symbol         string    `json:"symbol,omitempty"`
	Message        string    `json:"message"`
	Value          float64   `json:"value"`
	Threshold      float64   `json:"threshold"`
	ActionRequired bool      `json:"action_required"`
	Timestamp      time.Time `json:"timestamp"`
}

// PositionLimits bounds what the manager lets a portfolio take on.
type PositionLimits struct {
	MaxPositionValue          float64 `json:"max_position_value" yaml:"max_position_value"`
	MaxPortfolioConcentration float64 `json:"max_portfolio_concentration" yaml:"max_portfolio_concentration"`
	MaxSectorConcentration    float64 `json:"max_sector_concentration" yaml:"max_sector_concentration"`
	MaxDailyLoss              float64 `json:"max_daily_loss" yaml:"max_daily_loss"`
	MaxTotalExposure          float64 `json:"max_total_exposure" yaml:"max_total_exposure"`
}

// DefaultPositionLimits returns the standard retail-account limits.
func DefaultPositionLimits() PositionLimits {
	return PositionLimits{
		MaxPositionValue:          50000,
		MaxPortfolioConcentration: 0.20,
		MaxSectorConcentration:    0.30,
		MaxDailyLoss:              0.05,
		MaxTotalExposure:          1.0,
	}
}

// Metrics is one computed risk picture of the monitored portfolio.
type Metrics struct {
	Timestamp        time.Time `json:"timestamp"`
	PortfolioValue   float64   `json:"portfolio_value"`
	CurrentDrawdown  float64   `json:"current_drawdown"`
	MaxDrawdown      float64   `json:"max_drawdown"`
	Volatility       float64   `json:"volatility"`
	VaR95            float64   `json:"var_95"`
	VaR99            float64   `json:"var_99"`
	SharpeRatio      float64   `json:"sharpe_ratio"`
	SortinoRatio     float64   `json:"sortino_ratio"`
	ConcentrationHHI float64   `json:"concentration_hhi"`
}

// AlertThresholds configures when the monitor raises alerts. Drawdown
// thresholds are negative fractions, volatility and VaR are positive
// magnitudes.
type AlertThresholds struct {
	DrawdownHigh     float64 `json:"drawdown_high" yaml:"drawdown_high"`
	DrawdownCritical float64 `json:"drawdown_critical" yaml:"drawdown_critical"`
	VolatilityMedium float64 `json:"volatility_medium" yaml:"volatility_medium"`
	VolatilityHigh   float64 `json:"volatility_high" yaml:"volatility_high"`
	VaR95Medium      float64 `json:"var_95_medium" yaml:"var_95_medium"`
	VaR95High        float64 `json:"var_95_high" yaml:"var_95_high"`
}

// DefaultAlertThresholds returns the standard alerting levels.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		DrawdownHigh:     -0.15,
		DrawdownCritical: -0.25,
		VolatilityMedium: 0.40,
		VolatilityHigh:   0.60,
		VaR95Medium:      0.05,
		VaR95High:        0.08,
	}
}
