// Package guard wraps a market data collaborator with a circuit breaker and
// a rate limiter so upstream outages trip fast instead of stalling cycles.
package guard

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/datasource"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/portfolio"
)

// Config tunes the guard.
type Config struct {
	Name        string
	MaxFailures uint32        // consecutive failures before the breaker opens
	OpenTimeout time.Duration // how long the breaker stays open
	RPS         int           // requests per second allowed to the source
}

// DefaultConfig returns conservative guard settings.
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		MaxFailures: 5,
		OpenTimeout: 30 * time.Second,
		RPS:         10,
	}
}

// Guarded decorates a MarketData source. All three reads share one breaker
// and one limiter since they hit the same upstream.
type Guarded struct {
	inner   datasource.MarketData
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// New builds a guarded source.
func New(inner datasource.MarketData, cfg Config) *Guarded {
	settings := gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
	}

	return &Guarded{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS),
	}
}

func (g *Guarded) execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return g.breaker.Execute(fn)
}

// Holdings fetches holdings through the guard.
func (g *Guarded) Holdings(ctx context.Context) ([]datasource.Holding, error) {
	res, err := g.execute(ctx, func() (interface{}, error) {
		return g.inner.Holdings(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.([]datasource.Holding), nil
}

// Quote fetches a quote through the guard.
func (g *Guarded) Quote(ctx context.Context, ticker string) (datasource.Quote, error) {
	res, err := g.execute(ctx, func() (interface{}, error) {
		return g.inner.Quote(ctx, ticker)
	})
	if err != nil {
		return datasource.Quote{}, err
	}
	return res.(datasource.Quote), nil
}

// RiskSnapshot fetches the risk snapshot through the guard.
func (g *Guarded) RiskSnapshot(ctx context.Context) (*portfolio.RiskSnapshot, error) {
	res, err := g.execute(ctx, func() (interface{}, error) {
		return g.inner.RiskSnapshot(ctx)
	})
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, nil
	}
	return res.(*portfolio.RiskSnapshot), nil
}

// State reports the breaker state for health endpoints.
func (g *Guarded) State() string {
	return g.breaker.State().String()
}
