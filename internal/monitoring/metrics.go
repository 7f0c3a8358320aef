package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Simulation metrics
	backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quant_backtests_total",
			Help: "Total number of backtest runs",
		},
		[]string{"strategy", "outcome"},
	)

	backtestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quant_backtest_duration_seconds",
			Help:    "Wall-clock duration of backtest runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	simulatedTradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quant_simulated_trades_total",
			Help: "Total number of simulated fills",
		},
		[]string{"symbol", "side"},
	)

	// Risk metrics
	riskAlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quant_risk_alerts_total",
			Help: "Total number of risk alerts raised",
		},
		[]string{"type", "level"},
	)

	portfolioValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quant_portfolio_value",
			Help: "Latest monitored portfolio value",
		},
	)

	portfolioDrawdown = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quant_portfolio_drawdown",
			Help: "Current drawdown of the monitored portfolio",
		},
	)

	// Error metrics
	errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quant_errors_total",
			Help: "Total number of errors",
		},
		[]string{"type"},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(backtestsTotal)
	prometheus.MustRegister(backtestDuration)
	prometheus.MustRegister(simulatedTradesTotal)
	prometheus.MustRegister(riskAlertsTotal)
	prometheus.MustRegister(portfolioValue)
	prometheus.MustRegister(portfolioDrawdown)
	prometheus.MustRegister(errorsTotal)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordBacktest records a finished backtest run
func RecordBacktest(strategy, outcome string, durationSeconds float64) {
	backtestsTotal.WithLabelValues(strategy, outcome).Inc()
	backtestDuration.Observe(durationSeconds)
}

// RecordSimulatedTrade records a simulated fill
func RecordSimulatedTrade(symbol, side string) {
	simulatedTradesTotal.WithLabelValues(symbol, side).Inc()
}

// RecordRiskAlert records a raised risk alert
func RecordRiskAlert(alertType, level string) {
	riskAlertsTotal.WithLabelValues(alertType, level).Inc()
}

// UpdatePortfolio updates the monitored portfolio gauges
func UpdatePortfolio(value, drawdown float64) {
	portfolioValue.Set(value)
	portfolioDrawdown.Set(drawdown)
}

// RecordError records an error metric
func RecordError(errorType string) {
	errorsTotal.WithLabelValues(errorType).Inc()
}
