package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Bing4Ever/quant-trading-sub000/internal/config"
	"github.com/Bing4Ever/quant-trading-sub000/internal/logger"
	"github.com/Bing4Ever/quant-trading-sub000/internal/monitoring"
	"github.com/Bing4Ever/quant-trading-sub000/internal/notifications"
	"github.com/Bing4Ever/quant-trading-sub000/internal/risk"
)

const (
	AppName    = "Quant Risk Monitor"
	AppVersion = "1.0.0"
)

func main() {
	configFile := flag.String("config", "", "path to a JSON or YAML config file")
	checkSymbol := flag.String("check-symbol", "", "evaluate one proposed trade and exit")
	checkValue := flag.Float64("check-value", 0, "proposed trade value for -check-symbol")
	checkPortfolio := flag.Float64("check-portfolio", 0, "portfolio value for -check-symbol")
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

	if *checkSymbol != "" {
		runTradeCheck(cfg, *checkSymbol, *checkValue, *checkPortfolio)
		return
	}

	fileLog, err := logger.NewLoggerInDir("riskmonitor", cfg.LogDir)
	if err != nil {
		log.Fatalf("❌ Logger error: %v", err)
	}
	defer fileLog.Close()

	monitorCfg := risk.MonitorConfig{
		Thresholds:   cfg.Risk.Thresholds,
		RiskFreeRate: cfg.Backtest.RiskFreeRate,
		Notifier:     buildNotifier(cfg),
		Logger:       fileLog,
	}
	monitor := risk.NewMonitor(monitorCfg)

	pollInterval := time.Duration(cfg.Monitoring.PollIntervalSeconds) * time.Second
	health := monitoring.NewHealthChecker(3 * pollInterval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feed := newSimulatedFeed(cfg.Backtest.InitialCapital)
	monitor.Start(ctx, pollInterval, func(ctx context.Context) (float64, map[string]float64, error) {
		value, positions := feed.next()
		health.MarkUpdate(value)
		return value, positions, nil
	})

	startHTTP(cfg, health, fileLog)

	fmt.Printf("🛡️  %s v%s watching portfolio (poll every %s)\n", AppName, AppVersion, pollInterval)
	fmt.Printf("   metrics :%d/metrics | health :%d/health\n",
		cfg.Monitoring.PrometheusPort, cfg.Monitoring.HealthPort)

	<-ctx.Done()
	fileLog.Info("shutting down")

	metrics := monitor.Metrics()
	fmt.Printf("\n📊 Final picture: value $%.2f | drawdown %.2f%% | VaR95 %.2f%% | alerts %d\n",
		metrics.PortfolioValue, metrics.CurrentDrawdown*100, metrics.VaR95*100, len(monitor.Alerts()))
}

// runTradeCheck evaluates one proposed trade against the configured limits.
func runTradeCheck(cfg *config.Config, symbol string, tradeValue, portfolioValue float64) {
	manager := risk.NewManager(cfg.Risk.Limits, nil)

	ok, reason := manager.CheckTradeRisk(symbol, tradeValue, portfolioValue, nil)
	if ok {
		fmt.Printf("✅ %s for $%.2f: %s\n", symbol, tradeValue, reason)
		return
	}
	fmt.Printf("❌ %s for $%.2f: %s\n", symbol, tradeValue, reason)
	os.Exit(1)
}

func buildNotifier(cfg *config.Config) notifications.Notifier {
	if cfg.Notifications.TelegramToken != "" && cfg.Notifications.TelegramChatID != "" {
		return notifications.NewTelegramNotifier(
			cfg.Notifications.TelegramToken, cfg.Notifications.TelegramChatID)
	}
	if cfg.Notifications.WebhookURL != "" {
		return notifications.NewWebhookNotifier(cfg.Notifications.WebhookURL)
	}
	return nil
}

func startHTTP(cfg *config.Config, health *monitoring.HealthChecker, fileLog *logger.Logger) {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", monitoring.NewMetricsHandler())
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
		if err := http.ListenAndServe(addr, metricsMux); err != nil {
			fileLog.Error("metrics server stopped: %v", err)
		}
	}()

	healthMux := http.NewServeMux()
	healthMux.Handle("/health", health)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.HealthPort)
		if err := http.ListenAndServe(addr, healthMux); err != nil {
			fileLog.Error("health server stopped: %v", err)
		}
	}()
}

// simulatedFeed produces a random-walk portfolio for demo runs where no
// broker account is wired in.
type simulatedFeed struct {
	mu    sync.Mutex
	rng   *rand.Rand
	value float64
}

func newSimulatedFeed(initial float64) *simulatedFeed {
	return &simulatedFeed{
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		value: initial,
	}
}

// next advances the walk one step. Daily-scale drift and noise keep the
// series realistic enough to exercise the alert thresholds.
func (f *simulatedFeed) next() (float64, map[string]float64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.value *= 1 + f.rng.NormFloat64()*0.01
	positions := map[string]float64{
		"AAPL": f.value * 0.30,
		"MSFT": f.value * 0.25,
		"SPY":  f.value * 0.25,
	}
	return f.value, positions
}
