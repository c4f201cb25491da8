package datasource

import (
	"context"
	"fmt"
	"time"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/portfolio"
)

// Static is a fixture-backed MarketData used for demos and tests.
type Static struct {
	holdings []Holding
	quotes   map[string]float64
	risk     *portfolio.RiskSnapshot
	now      time.Time
}

// NewStatic builds a static source from fixed holdings, quotes and an
// optional risk snapshot.
func NewStatic(holdings []Holding, quotes map[string]float64, risk *portfolio.RiskSnapshot) *Static {
	return &Static{
		holdings: holdings,
		quotes:   quotes,
		risk:     risk,
		now:      time.Now(),
	}
}

// NewDemo returns a static source with a mildly drifted tech-growth book,
// matching the demo portfolio in config/rebalancer.yaml.
func NewDemo() *Static {
	stored := map[string]float64{
		"AAPL": 185.0, "MSFT": 410.0, "GOOGL": 150.0, "NVDA": 120.0,
		"META": 480.0, "XLK": 210.0, "XOM": 110.0, "CVX": 155.0,
		"COP": 115.0, "XLE": 90.0, "SPY": 520.0, "QQQ": 440.0, "IWM": 200.0,
	}
	// Tech has run up, energy sold off: produces visible position drift.
	live := map[string]float64{
		"AAPL": 195.2, "MSFT": 438.7, "GOOGL": 161.3, "NVDA": 139.8,
		"META": 512.4, "XLK": 226.1, "XOM": 104.5, "CVX": 147.2,
		"COP": 108.9, "XLE": 85.3, "SPY": 531.0, "QQQ": 455.6, "IWM": 198.1,
	}

	now := time.Now()
	holdings := make([]Holding, 0, len(stored))
	for ticker, price := range stored {
		holdings = append(holdings, Holding{Ticker: ticker, Price: price, AsOf: now.AddDate(0, 0, -7)})
	}

	return NewStatic(holdings, live, &portfolio.RiskSnapshot{
		AsOf:              now,
		VaR95:             -0.022,
		ExpectedShortfall: -0.031,
		SharpeRatio:       1.4,
		Beta:              1.1,
		Volatility:        0.017,
	})
}

// Holdings returns the fixed holdings list.
func (s *Static) Holdings(_ context.Context) ([]Holding, error) {
	return s.holdings, nil
}

// Quote returns the fixed quote for ticker.
func (s *Static) Quote(_ context.Context, ticker string) (Quote, error) {
	price, ok := s.quotes[ticker]
	if !ok {
		return Quote{}, fmt.Errorf("no quote for %s", ticker)
	}
	return Quote{Ticker: ticker, Price: price, AsOf: s.now}, nil
}

// RiskSnapshot returns the fixed snapshot, or nil when none was configured.
func (s *Static) RiskSnapshot(_ context.Context) (*portfolio.RiskSnapshot, error) {
	return s.risk, nil
}
