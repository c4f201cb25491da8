// Package config loads rebalancer configuration from YAML with built-in
// defaults so the pipeline can run without a config file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PortfolioConfig identifies the managed portfolio and its basis value.
type PortfolioConfig struct {
	ID    string  `yaml:"id"`
	Basis float64 `yaml:"basis"`
}

// Thresholds holds every drift/risk threshold used by the decision ladders.
type Thresholds struct {
	DriftCritical      float64 `yaml:"drift_critical"`
	DriftHigh          float64 `yaml:"drift_high"`
	DriftMedium        float64 `yaml:"drift_medium"`
	DriftAlert         float64 `yaml:"drift_alert"`
	SectorDriftTrigger float64 `yaml:"sector_drift_trigger"`
	SectorDriftAlert   float64 `yaml:"sector_drift_alert"`
	VaRWarning         float64 `yaml:"var_warning"`
	VaRAlert           float64 `yaml:"var_alert"`
	SharpeWarning      float64 `yaml:"sharpe_warning"`
	MaxTurnover        float64 `yaml:"max_turnover"`
	CooldownDays       int     `yaml:"cooldown_days"`
	AdaptiveCap        float64 `yaml:"adaptive_cap"`
	AdaptiveGrowth     float64 `yaml:"adaptive_growth"`
}

// RiskDefaults is the benign preset substituted when no risk snapshot is
// available upstream. Monitoring never halts on missing risk data.
type RiskDefaults struct {
	VaR95             float64 `yaml:"var_95"`
	ExpectedShortfall float64 `yaml:"expected_shortfall"`
	SharpeRatio       float64 `yaml:"sharpe_ratio"`
	Beta              float64 `yaml:"beta"`
	Volatility        float64 `yaml:"volatility"`
}

// DataSourceConfig selects and tunes the market data collaborator.
type DataSourceConfig struct {
	PostgresDSN         string `yaml:"postgres_dsn"`
	QueryTimeoutSeconds int    `yaml:"query_timeout_seconds"`
	RedisAddr           string `yaml:"redis_addr"`
	QuoteTTLSeconds     int    `yaml:"quote_ttl_seconds"`
	RateLimitRPS        int    `yaml:"rate_limit_rps"`
	BreakerMaxFailures  int    `yaml:"breaker_max_failures"`
}

// ServerConfig holds the read-only HTTP API settings.
type ServerConfig struct {
	Host                 string `yaml:"host"`
	Port                 int    `yaml:"port"`
	CycleIntervalMinutes int    `yaml:"cycle_interval_minutes"`
}

// Config is the full rebalancer configuration.
type Config struct {
	Portfolio        PortfolioConfig    `yaml:"portfolio"`
	TargetAllocation map[string]float64 `yaml:"target_allocation"`
	SectorMapping    map[string]string  `yaml:"sector_mapping"`
	SectorAllocation map[string]float64 `yaml:"sector_allocation"`
	SectorETFs       []string           `yaml:"sector_etfs"`
	Thresholds       Thresholds         `yaml:"thresholds"`
	RiskDefaults     RiskDefaults       `yaml:"risk_defaults"`
	HighBetaTicker   string             `yaml:"high_beta_ticker"`
	DataSource       DataSourceConfig   `yaml:"datasource"`
	Server           ServerConfig       `yaml:"server"`
}

// Load reads configuration from path, applying defaults for omitted fields.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Default returns the built-in configuration mirroring config/rebalancer.yaml.
// Used directly by tests and as the fallback when no file is given.
func Default() *Config {
	return &Config{
		Portfolio: PortfolioConfig{
			ID:    "PORT_A_TechGrowth",
			Basis: 1_000_000,
		},
		TargetAllocation: map[string]float64{
			"AAPL": 0.10, "MSFT": 0.10, "GOOGL": 0.10, "NVDA": 0.08,
			"META": 0.07, "XLK": 0.10, "XOM": 0.04, "CVX": 0.04,
			"COP": 0.02, "XLE": 0.02, "SPY": 0.15, "QQQ": 0.13, "IWM": 0.05,
		},
		SectorMapping: map[string]string{
			"AAPL": "Technology", "MSFT": "Technology", "GOOGL": "Technology",
			"NVDA": "Technology", "META": "Technology", "XLK": "Technology",
			"XOM": "Energy", "CVX": "Energy", "COP": "Energy", "XLE": "Energy",
			"SPY": "Benchmarks", "QQQ": "Benchmarks", "IWM": "Benchmarks",
		},
		SectorAllocation: map[string]float64{
			"Technology": 0.55,
			"Energy":     0.12,
			"Benchmarks": 0.33,
		},
		SectorETFs: []string{"XLK", "XLE", "SPY", "QQQ", "IWM"},
		Thresholds: Thresholds{
			DriftCritical:      0.03,
			DriftHigh:          0.025,
			DriftMedium:        0.015,
			DriftAlert:         0.02,
			SectorDriftTrigger: 0.05,
			SectorDriftAlert:   0.03,
			VaRWarning:         -0.03,
			VaRAlert:           -0.025,
			SharpeWarning:      1.0,
			MaxTurnover:        0.20,
			CooldownDays:       3,
			AdaptiveCap:        0.05,
			AdaptiveGrowth:     1.2,
		},
		RiskDefaults: RiskDefaults{
			VaR95:             -0.02,
			ExpectedShortfall: -0.03,
			SharpeRatio:       1.5,
			Beta:              1.0,
			Volatility:        0.015,
		},
		HighBetaTicker: "NVDA",
		DataSource: DataSourceConfig{
			QueryTimeoutSeconds: 5,
			QuoteTTLSeconds:     60,
			RateLimitRPS:        10,
			BreakerMaxFailures:  5,
		},
		Server: ServerConfig{
			Host:                 "127.0.0.1",
			Port:                 8080,
			CycleIntervalMinutes: 60,
		},
	}
}

// Validate checks structural invariants the pipeline depends on.
func (c *Config) Validate() error {
	if c.Portfolio.Basis <= 0 {
		return fmt.Errorf("portfolio basis must be positive, got %f", c.Portfolio.Basis)
	}

	if len(c.TargetAllocation) == 0 {
		return fmt.Errorf("target allocation is empty")
	}

	var sum float64
	for ticker, weight := range c.TargetAllocation {
		if weight < 0 {
			return fmt.Errorf("negative target weight for %s: %f", ticker, weight)
		}
		sum += weight
	}
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("target weights must sum to 1.0, got %f", sum)
	}

	if c.Thresholds.MaxTurnover <= 0 {
		return fmt.Errorf("max turnover must be positive, got %f", c.Thresholds.MaxTurnover)
	}

	if c.Thresholds.CooldownDays < 0 {
		return fmt.Errorf("cooldown days must be non-negative, got %d", c.Thresholds.CooldownDays)
	}

	return nil
}
