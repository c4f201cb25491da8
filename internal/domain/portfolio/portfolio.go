// Package portfolio holds the portfolio state model shared by the
// monitoring and analysis pipeline.
package portfolio

import (
	"sort"
	"time"
)

// Position is a single holding tracked against its target weight.
type Position struct {
	Ticker        string
	TargetWeight  float64
	CurrentWeight float64
	StoredPrice   float64
	LivePrice     float64
	Drift         float64 // always non-negative
	Sector        string
	Value         float64
}

// Portfolio is the complete portfolio state for one assessment cycle.
// Built once per cycle by the monitor and read-only downstream.
type Portfolio struct {
	ID            string
	BasisValue    float64
	Positions     map[string]Position
	LastRebalance time.Time // zero when unknown
}

// New returns an empty portfolio with the given identity and basis.
func New(id string, basis float64) *Portfolio {
	return &Portfolio{
		ID:         id,
		BasisValue: basis,
		Positions:  make(map[string]Position),
	}
}

// Add inserts or replaces a position keyed by ticker.
func (p *Portfolio) Add(pos Position) {
	p.Positions[pos.Ticker] = pos
}

// Position returns the position for ticker, reporting whether it exists.
func (p *Portfolio) Position(ticker string) (Position, bool) {
	pos, ok := p.Positions[ticker]
	return pos, ok
}

// MaxDrift returns the ticker and drift of the most drifted position.
func (p *Portfolio) MaxDrift() (string, float64) {
	var maxTicker string
	var maxDrift float64
	for ticker, pos := range p.Positions {
		if pos.Drift > maxDrift || maxTicker == "" {
			maxTicker = ticker
			maxDrift = pos.Drift
		}
	}
	return maxTicker, maxDrift
}

// SectorWeights aggregates current weights by sector tag. Positions without
// a sector are skipped.
func (p *Portfolio) SectorWeights() map[string]float64 {
	weights := make(map[string]float64)
	for _, pos := range p.Positions {
		if pos.Sector != "" {
			weights[pos.Sector] += pos.CurrentWeight
		}
	}
	return weights
}

// PositionsByDrift returns positions with drift >= minDrift, sorted by drift
// descending. Ties are broken by ticker for deterministic ordering.
func (p *Portfolio) PositionsByDrift(minDrift float64) []Position {
	var out []Position
	for _, pos := range p.Positions {
		if pos.Drift >= minDrift {
			out = append(out, pos)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Drift != out[j].Drift {
			return out[i].Drift > out[j].Drift
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

// CurrentWeights returns the ticker -> current weight view.
func (p *Portfolio) CurrentWeights() map[string]float64 {
	weights := make(map[string]float64, len(p.Positions))
	for ticker, pos := range p.Positions {
		weights[ticker] = pos.CurrentWeight
	}
	return weights
}

// LivePrices returns the ticker -> live price view.
func (p *Portfolio) LivePrices() map[string]float64 {
	prices := make(map[string]float64, len(p.Positions))
	for ticker, pos := range p.Positions {
		prices[ticker] = pos.LivePrice
	}
	return prices
}

// RiskSnapshot is a point-in-time set of externally computed risk metrics.
// Immutable once constructed.
type RiskSnapshot struct {
	AsOf              time.Time
	VaR95             float64
	ExpectedShortfall float64
	SharpeRatio       float64
	Beta              float64
	Volatility        float64
}
