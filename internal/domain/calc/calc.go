// Package calc holds the pure calculation library for portfolio drift
// analysis. Every function is stateless and total over its declared domain.
package calc

import "math"

// Regime is a coarse market-condition classification derived from the
// Sharpe ratio and 95% Value-at-Risk.
type Regime string

const (
	RegimeLowVol   Regime = "LOW_VOL"
	RegimeModerate Regime = "MODERATE"
	RegimeHighVol  Regime = "HIGH_VOL"
	RegimeCrisis   Regime = "CRISIS"
)

// Priority is a trade urgency tier assigned from drift magnitude.
type Priority string

const (
	PriorityCritical Priority = "CRITICAL"
	PriorityHigh     Priority = "HIGH"
	PriorityMedium   Priority = "MEDIUM"
	PriorityLow      Priority = "LOW"
)

// Rank orders priorities for execution plans, CRITICAL first.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// TradePlan is one computed rebalancing trade for a single ticker.
// Shares is always positive; Action carries the direction.
type TradePlan struct {
	Ticker        string
	Action        string // BUY or SELL
	Shares        int
	Value         float64 // absolute monetary value
	Price         float64
	CurrentWeight float64
	TargetWeight  float64
	Drift         float64
	Priority      Priority
}

// WeightDrift returns |current-target| per target ticker. A ticker missing
// from current is treated as weight zero.
func WeightDrift(current, target map[string]float64) map[string]float64 {
	drift := make(map[string]float64, len(target))
	for ticker, tw := range target {
		drift[ticker] = math.Abs(current[ticker] - tw)
	}
	return drift
}

// SectorWeights sums position weights into sector buckets. Tickers without a
// sector mapping are ignored.
func SectorWeights(positionWeights map[string]float64, sectors map[string]string) map[string]float64 {
	weights := make(map[string]float64)
	for ticker, w := range positionWeights {
		if sector, ok := sectors[ticker]; ok && sector != "" {
			weights[sector] += w
		}
	}
	return weights
}

// SectorDrift returns |current-target| per target sector.
func SectorDrift(current, target map[string]float64) map[string]float64 {
	drift := make(map[string]float64, len(target))
	for sector, tw := range target {
		drift[sector] = math.Abs(current[sector] - tw)
	}
	return drift
}

// ImpliedWeights derives current weights from target weights and per-ticker
// price change ratios: each notional is target*(1+change), normalized by the
// total. If the total notional is non-positive every weight is zero, which
// guards the division.
func ImpliedWeights(target, priceChanges map[string]float64) map[string]float64 {
	notionals := make(map[string]float64, len(target))
	var total float64
	for ticker, tw := range target {
		n := tw * (1 + priceChanges[ticker])
		notionals[ticker] = n
		total += n
	}

	implied := make(map[string]float64, len(target))
	for ticker, n := range notionals {
		if total > 0 {
			implied[ticker] = n / total
		} else {
			implied[ticker] = 0
		}
	}
	return implied
}

// RebalancingTrades computes the trades needed to move current weights to
// target weights. Share counts use round-half-away-from-zero (math.Round);
// zero-share trades are omitted, as are tickers without a positive live price.
func RebalancingTrades(current, target, livePrices map[string]float64, portfolioValue float64) map[string]TradePlan {
	trades := make(map[string]TradePlan)

	for ticker, tw := range target {
		cw := current[ticker]
		drift := math.Abs(cw - tw)
		tradeValue := portfolioValue * (tw - cw)

		price := livePrices[ticker]
		if price <= 0 {
			continue // cannot size a trade without a price
		}

		shares := int(math.Round(tradeValue / price))
		if shares == 0 {
			continue
		}

		action := "BUY"
		if tradeValue < 0 {
			action = "SELL"
		}

		trades[ticker] = TradePlan{
			Ticker:        ticker,
			Action:        action,
			Shares:        abs(shares),
			Value:         math.Abs(tradeValue),
			Price:         price,
			CurrentWeight: cw,
			TargetWeight:  tw,
			Drift:         drift,
			Priority:      TradePriority(drift),
		}
	}

	return trades
}

// TradePriority assigns the urgency tier for a drift magnitude.
func TradePriority(drift float64) Priority {
	switch {
	case drift >= 0.03:
		return PriorityCritical
	case drift >= 0.02:
		return PriorityHigh
	case drift >= 0.015:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// regimeRule is one tier of the classification ladder. Both floors must hold
// for the tier to match.
type regimeRule struct {
	regime    Regime
	minSharpe float64
	minVaR    float64
}

// Ladder evaluated top-down, first match wins. CRISIS is the fallthrough.
var regimeLadder = []regimeRule{
	{RegimeLowVol, 2.0, -0.02},
	{RegimeModerate, 1.0, -0.025},
	{RegimeHighVol, 0.5, -0.035},
}

// ClassifyRegime maps Sharpe ratio and VaR(95) to a market regime.
func ClassifyRegime(sharpe, var95 float64) Regime {
	for _, rule := range regimeLadder {
		if sharpe >= rule.minSharpe && var95 >= rule.minVaR {
			return rule.regime
		}
	}
	return RegimeCrisis
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
