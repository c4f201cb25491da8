// Package datasource defines the market data collaborator consumed by the
// rebalancing pipeline. The core treats these reads as black boxes so every
// implementation stays swappable and mockable.
package datasource

import (
	"context"
	"time"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/portfolio"
)

// Holding is a stored portfolio holding with its reference price.
type Holding struct {
	Ticker string
	Price  float64
	AsOf   time.Time
}

// Quote is a live price for one ticker.
type Quote struct {
	Ticker string
	Price  float64
	AsOf   time.Time
}

// HoldingSource fetches the current stored holdings.
type HoldingSource interface {
	Holdings(ctx context.Context) ([]Holding, error)
}

// QuoteSource fetches a live quote per ticker.
type QuoteSource interface {
	Quote(ctx context.Context, ticker string) (Quote, error)
}

// RiskSource fetches the most recent risk snapshot. A nil snapshot with a
// nil error means no snapshot exists; callers substitute defaults.
type RiskSource interface {
	RiskSnapshot(ctx context.Context) (*portfolio.RiskSnapshot, error)
}

// MarketData is the full collaborator capability.
type MarketData interface {
	HoldingSource
	QuoteSource
	RiskSource
}

// Composite assembles a MarketData from independent sources, so holdings can
// come from a store while quotes come from a feed.
type Composite struct {
	HoldingSource
	QuoteSource
	RiskSource
}
