package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/analyzer"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/config"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/datasource"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/datasource/guard"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/datasource/postgres"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/datasource/rediscache"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/decider"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/metrics"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/monitor"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/orchestrator"
)

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

// buildSource assembles the market data collaborator: Postgres holdings and
// risk metrics when a DSN is configured, a Redis quote cache when an address
// is configured, demo fixtures otherwise. The whole source is wrapped in a
// circuit breaker and rate limiter.
func buildSource(cfg *config.Config) (datasource.MarketData, error) {
	demo := datasource.NewDemo()

	composite := datasource.Composite{
		HoldingSource: demo,
		QuoteSource:   demo,
		RiskSource:    demo,
	}

	if dsn := cfg.DataSource.PostgresDSN; dsn != "" {
		store, err := postgres.Connect(dsn, time.Duration(cfg.DataSource.QueryTimeoutSeconds)*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to build postgres source: %w", err)
		}
		composite.HoldingSource = store
		composite.RiskSource = store
		log.Info().Msg("using postgres holdings and risk metrics")
	}

	if addr := cfg.DataSource.RedisAddr; addr != "" {
		cache, err := rediscache.Connect(addr, composite.QuoteSource,
			time.Duration(cfg.DataSource.QuoteTTLSeconds)*time.Second)
		if err != nil {
			return nil, fmt.Errorf("failed to build quote cache: %w", err)
		}
		composite.QuoteSource = cache
		log.Info().Str("addr", addr).Msg("using redis quote cache")
	}

	guardCfg := guard.DefaultConfig("market-data")
	if cfg.DataSource.RateLimitRPS > 0 {
		guardCfg.RPS = cfg.DataSource.RateLimitRPS
	}
	if cfg.DataSource.BreakerMaxFailures > 0 {
		guardCfg.MaxFailures = uint32(cfg.DataSource.BreakerMaxFailures)
	}

	return guard.New(composite, guardCfg), nil
}

func buildPipeline(cfg *config.Config) (*orchestrator.Orchestrator, *metrics.Registry, error) {
	source, err := buildSource(cfg)
	if err != nil {
		return nil, nil, err
	}

	reg := metrics.New()
	orch := orchestrator.New(
		monitor.New(cfg, source),
		analyzer.New(cfg),
		decider.New(cfg),
		reg,
	)
	return orch, reg, nil
}
