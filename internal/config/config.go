package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Bing4Ever/quant-trading-sub000/internal/risk"
)

// Config is the top-level configuration for the research toolkit.
type Config struct {
	Environment string `json:"environment" yaml:"environment"`
	LogDir      string `json:"log_dir" yaml:"log_dir"`

	Backtest      BacktestConfig      `json:"backtest" yaml:"backtest"`
	Risk          RiskConfig          `json:"risk" yaml:"risk"`
	Data          DataConfig          `json:"data" yaml:"data"`
	Monitoring    MonitoringConfig    `json:"monitoring" yaml:"monitoring"`
	Notifications NotificationsConfig `json:"notifications" yaml:"notifications"`
}

// BacktestConfig holds the simulation parameters.
type BacktestConfig struct {
	InitialCapital          float64            `json:"initial_capital" yaml:"initial_capital"`
	CommissionRate          float64            `json:"commission_rate" yaml:"commission_rate"`
	SlippageRate            float64            `json:"slippage_rate" yaml:"slippage_rate"`
	MarginRequirement       float64            `json:"margin_requirement" yaml:"margin_requirement"`
	RiskFreeRate            float64            `json:"risk_free_rate" yaml:"risk_free_rate"`
	CloseCommissionFraction float64            `json:"close_commission_fraction" yaml:"close_commission_fraction"`
	AllowNetShort           bool               `json:"allow_net_short" yaml:"allow_net_short"`
	Strategy                string             `json:"strategy" yaml:"strategy"`
	StrategyParams          map[string]float64 `json:"strategy_params" yaml:"strategy_params"`
}

// RiskConfig holds the limit and alerting configuration.
type RiskConfig struct {
	Limits     risk.PositionLimits  `json:"limits" yaml:"limits"`
	Thresholds risk.AlertThresholds `json:"thresholds" yaml:"thresholds"`
}

// DataConfig selects and parameterizes the market data source.
type DataConfig struct {
	Provider     string `json:"provider" yaml:"provider"`
	CSVDir       string `json:"csv_dir" yaml:"csv_dir"`
	Interval     string `json:"interval" yaml:"interval"`
	CacheEnabled bool   `json:"cache_enabled" yaml:"cache_enabled"`
}

// MonitoringConfig configures the metrics and health endpoints.
type MonitoringConfig struct {
	PrometheusPort      int `json:"prometheus_port" yaml:"prometheus_port"`
	HealthPort          int `json:"health_port" yaml:"health_port"`
	PollIntervalSeconds int `json:"poll_interval_seconds" yaml:"poll_interval_seconds"`
}

// NotificationsConfig configures the alert sinks.
type NotificationsConfig struct {
	TelegramToken  string `json:"telegram_token" yaml:"telegram_token"`
	TelegramChatID string `json:"telegram_chat_id" yaml:"telegram_chat_id"`
	WebhookURL     string `json:"webhook_url" yaml:"webhook_url"`
}

// Default returns the standard configuration.
func Default() *Config {
	return &Config{
		Environment: "development",
		LogDir:      "logs",
		Backtest: BacktestConfig{
			InitialCapital:          100000,
			CommissionRate:          0.001,
			SlippageRate:            0.0005,
			MarginRequirement:       1.0,
			RiskFreeRate:            0.02,
			CloseCommissionFraction: 0.5,
			Strategy:                "ma_cross",
		},
		Risk: RiskConfig{
			Limits:     risk.DefaultPositionLimits(),
			Thresholds: risk.DefaultAlertThresholds(),
		},
		Data: DataConfig{
			Provider:     "csv",
			CSVDir:       "data",
			Interval:     "1d",
			CacheEnabled: true,
		},
		Monitoring: MonitoringConfig{
			PrometheusPort:      8080,
			HealthPort:          8081,
			PollIntervalSeconds: 60,
		},
	}
}

// Load builds the configuration by layering, in order: defaults, an
// optional JSON or YAML file picked by extension, then environment
// variables. A .env file in the working directory is honored.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		switch ext := filepath.Ext(path); ext {
		case ".json":
			if err := json.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case ".yaml", ".yml":
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		default:
			return nil, fmt.Errorf("unsupported config extension %q", ext)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides config fields from the environment.
func (c *Config) applyEnv() {
	c.Environment = getEnv("ENV", c.Environment)
	c.LogDir = getEnv("LOG_DIR", c.LogDir)

	c.Backtest.InitialCapital = getEnvFloat("INITIAL_CAPITAL", c.Backtest.InitialCapital)
	c.Backtest.CommissionRate = getEnvFloat("COMMISSION_RATE", c.Backtest.CommissionRate)
	c.Backtest.SlippageRate = getEnvFloat("SLIPPAGE_RATE", c.Backtest.SlippageRate)
	c.Backtest.Strategy = getEnv("STRATEGY", c.Backtest.Strategy)

	c.Data.Provider = getEnv("DATA_PROVIDER", c.Data.Provider)
	c.Data.CSVDir = getEnv("DATA_DIR", c.Data.CSVDir)
	c.Data.Interval = getEnv("DATA_INTERVAL", c.Data.Interval)

	c.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", c.Monitoring.PrometheusPort)
	c.Monitoring.HealthPort = getEnvInt("HEALTH_PORT", c.Monitoring.HealthPort)

	c.Notifications.TelegramToken = getEnv("TELEGRAM_TOKEN", c.Notifications.TelegramToken)
	c.Notifications.TelegramChatID = getEnv("TELEGRAM_CHAT_ID", c.Notifications.TelegramChatID)
	c.Notifications.WebhookURL = getEnv("WEBHOOK_URL", c.Notifications.WebhookURL)
}

// Validate rejects configurations the engines would refuse anyway, so the
// failure happens at startup.
func (c *Config) Validate() error {
	if c.Backtest.InitialCapital <= 0 {
		return fmt.Errorf("config: initial_capital must be positive, got %.2f", c.Backtest.InitialCapital)
	}
	if c.Backtest.CommissionRate < 0 {
		return fmt.Errorf("config: commission_rate must not be negative")
	}
	if c.Backtest.SlippageRate < 0 {
		return fmt.Errorf("config: slippage_rate must not be negative")
	}
	switch c.Data.Provider {
	case "csv", "bybit":
	default:
		return fmt.Errorf("config: unknown data provider %q", c.Data.Provider)
	}
	if c.Monitoring.PrometheusPort <= 0 || c.Monitoring.HealthPort <= 0 {
		return fmt.Errorf("config: monitoring ports must be positive")
	}
	if c.Risk.Limits.MaxPositionValue <= 0 {
		return fmt.Errorf("config: max_position_value must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
