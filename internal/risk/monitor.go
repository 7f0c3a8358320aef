package risk

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Bing4Ever/quant-trading-sub000/internal/logger"
	"github.com/Bing4Ever/quant-trading-sub000/internal/monitoring"
	"github.com/Bing4Ever/quant-trading-sub000/internal/notifications"
)

// MonitorConfig wires a Monitor's collaborators and alerting levels.
type MonitorConfig struct {
	Thresholds   AlertThresholds
	RiskFreeRate float64
	Notifier     notifications.Notifier
	Logger       *logger.Logger
}

// DefaultMonitorConfig returns a monitor configuration with standard
// thresholds and no notifier.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Thresholds:   DefaultAlertThresholds(),
		RiskFreeRate: 0.02,
	}
}

// Monitor tracks a live portfolio's risk picture. Every update recomputes
// the metrics from the full value history and evaluates the alert
// thresholds; high and critical alerts are pushed to the notifier.
type Monitor struct {
	cfg  MonitorConfig
	calc *Calculator

	mu        sync.Mutex
	dates     []time.Time
	values    []float64
	positions map[string]float64
	latest    Metrics
	alerts    []RiskAlert
}

// NewMonitor creates a portfolio risk monitor.
func NewMonitor(cfg MonitorConfig) *Monitor {
	return &Monitor{
		cfg:       cfg,
		calc:      NewCalculator(),
		positions: make(map[string]float64),
	}
}

// UpdatePortfolio records a new portfolio observation and returns the
// alerts it raised, if any.
func (m *Monitor) UpdatePortfolio(date time.Time, value float64, positions map[string]float64) []RiskAlert {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.dates = append(m.dates, date)
	m.values = append(m.values, value)
	if positions != nil {
		m.positions = positions
	}

	m.recompute(date, value)
	raised := m.evaluateAlerts(date)

	monitoring.UpdatePortfolio(value, m.latest.CurrentDrawdown)
	m.dispatch(raised)
	return raised
}

// Metrics returns the latest computed risk metrics.
func (m *Monitor) Metrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest
}

// Alerts returns a copy of every alert raised so far.
func (m *Monitor) Alerts() []RiskAlert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RiskAlert(nil), m.alerts...)
}

// PollFunc fetches the current portfolio value and positions.
type PollFunc func(ctx context.Context) (float64, map[string]float64, error)

// Start polls the portfolio on the given interval until the context is
// cancelled. Poll failures are logged and the loop keeps going.
func (m *Monitor) Start(ctx context.Context, interval time.Duration, poll PollFunc) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				value, positions, err := poll(ctx)
				if err != nil {
					monitoring.RecordError("portfolio_poll")
					if m.cfg.Logger != nil {
						m.cfg.Logger.Error("portfolio poll failed: %v", err)
					}
					continue
				}
				m.UpdatePortfolio(now, value, positions)
			}
		}
	}()
}

// recompute rebuilds the risk metrics from the full value history.
// Callers hold the mutex.
func (m *Monitor) recompute(date time.Time, value float64) {
	returns := make([]float64, 0, len(m.values))
	for i := 1; i < len(m.values); i++ {
		if prev := m.values[i-1]; prev != 0 {
			returns = append(returns, m.values[i]/prev-1)
		}
	}

	peak := value
	for _, v := range m.values {
		if v > peak {
			peak = v
		}
	}
	currentDrawdown := 0.0
	if peak > 0 {
		currentDrawdown = (value - peak) / peak
	}

	m.latest = Metrics{
		Timestamp:        date,
		PortfolioValue:   value,
		CurrentDrawdown:  currentDrawdown,
		MaxDrawdown:      m.calc.MaxDrawdown(m.values),
		Volatility:       m.calc.Volatility(returns),
		VaR95:            m.calc.ValueAtRisk(returns, 0.95),
		VaR99:            m.calc.ValueAtRisk(returns, 0.99),
		SharpeRatio:      m.calc.SharpeRatio(returns, m.cfg.RiskFreeRate),
		SortinoRatio:     m.calc.SortinoRatio(returns, m.cfg.RiskFreeRate),
		ConcentrationHHI: m.calc.ConcentrationIndex(m.positions),
	}
}

// evaluateAlerts checks the latest metrics against the thresholds.
// Callers hold the mutex.
func (m *Monitor) evaluateAlerts(date time.Time) []RiskAlert {
	t := m.cfg.Thresholds
	var raised []RiskAlert

	add := func(a RiskAlert) {
		a.Timestamp = date
		a.ActionRequired = a.Level == RiskLevelHigh || a.Level == RiskLevelCritical
		raised = append(raised, a)
	}

	switch dd := m.latest.CurrentDrawdown; {
	case dd <= t.DrawdownCritical:
		add(RiskAlert{
			Type:      RiskTypeDrawdown,
			Level:     RiskLevelCritical,
			Message:   fmt.Sprintf("drawdown %.1f%% breached critical threshold %.1f%%", dd*100, t.DrawdownCritical*100),
			Value:     dd,
			Threshold: t.DrawdownCritical,
		})
	case dd <= t.DrawdownHigh:
		add(RiskAlert{
			Type:      RiskTypeDrawdown,
			Level:     RiskLevelHigh,
			Message:   fmt.Sprintf("drawdown %.1f%% breached threshold %.1f%%", dd*100, t.DrawdownHigh*100),
			Value:     dd,
			Threshold: t.DrawdownHigh,
		})
	}

	switch vol := m.latest.Volatility; {
	case vol >= t.VolatilityHigh:
		add(RiskAlert{
			Type:      RiskTypeVolatility,
			Level:     RiskLevelHigh,
			Message:   fmt.Sprintf("annualized volatility %.1f%% above %.1f%%", vol*100, t.VolatilityHigh*100),
			Value:     vol,
			Threshold: t.VolatilityHigh,
		})
	case vol >= t.VolatilityMedium:
		add(RiskAlert{
			Type:      RiskTypeVolatility,
			Level:     RiskLevelMedium,
			Message:   fmt.Sprintf("annualized volatility %.1f%% above %.1f%%", vol*100, t.VolatilityMedium*100),
			Value:     vol,
			Threshold: t.VolatilityMedium,
		})
	}

	switch magnitude := -m.latest.VaR95; {
	case magnitude >= t.VaR95High:
		add(RiskAlert{
			Type:      RiskTypeVaR,
			Level:     RiskLevelHigh,
			Message:   fmt.Sprintf("daily VaR(95) %.1f%% above %.1f%%", magnitude*100, t.VaR95High*100),
			Value:     m.latest.VaR95,
			Threshold: t.VaR95High,
		})
	case magnitude >= t.VaR95Medium:
		add(RiskAlert{
			Type:      RiskTypeVaR,
			Level:     RiskLevelMedium,
			Message:   fmt.Sprintf("daily VaR(95) %.1f%% above %.1f%%", magnitude*100, t.VaR95Medium*100),
			Value:     m.latest.VaR95,
			Threshold: t.VaR95Medium,
		})
	}

	m.alerts = append(m.alerts, raised...)
	return raised
}

// dispatch logs and records raised alerts and forwards severe ones.
// Callers hold the mutex.
func (m *Monitor) dispatch(raised []RiskAlert) {
	for _, a := range raised {
		monitoring.RecordRiskAlert(string(a.Type), string(a.Level))
		if m.cfg.Logger != nil {
			m.cfg.Logger.Alert("[%s] %s", a.Level, a.Message)
		}
		if a.Level != RiskLevelHigh && a.Level != RiskLevelCritical {
			continue
		}
		if m.cfg.Notifier != nil {
			if err := m.cfg.Notifier.SendAlert(string(a.Level), a.Message); err != nil {
				monitoring.RecordError("notify")
				if m.cfg.Logger != nil {
					m.cfg.Logger.Error("failed to send alert: %v", err)
				}
			}
		}
	}
}
