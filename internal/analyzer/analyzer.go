// Package analyzer implements the scenario evaluation stage: given a
// triggered monitor assessment it constructs, scores and ranks the four
// competing rebalancing strategies.
package analyzer

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/config"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/calc"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/decision"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/portfolio"
)

// Analyzer evaluates rebalancing scenarios. Stateless across cycles.
type Analyzer struct {
	cfg *config.Config
	log zerolog.Logger
}

// New builds an analyzer.
func New(cfg *config.Config) *Analyzer {
	return &Analyzer{
		cfg: cfg,
		log: log.With().Str("component", "analyzer").Logger(),
	}
}

// Evaluate constructs exactly four scenarios, scores them and selects the
// recommendation. A CRISIS regime forces the DEFER scenario regardless of
// scores; otherwise the highest score wins with ties broken by insertion
// order (FULL, PARTIAL, SECTOR, DEFER).
func (a *Analyzer) Evaluate(mr *decision.MonitorResult, pf *portfolio.Portfolio) (*decision.AnalyzerResult, error) {
	if pf == nil {
		return nil, fmt.Errorf("cannot evaluate scenarios without a portfolio")
	}

	plans := calc.RebalancingTrades(
		pf.CurrentWeights(),
		a.cfg.TargetAllocation,
		pf.LivePrices(),
		a.cfg.Portfolio.Basis,
	)

	scenarios := []*decision.Scenario{
		a.fullRebalance(pf, plans),
		a.partialRebalance(pf, plans),
		a.sectorRebalance(pf, plans),
		a.deferScenario(mr),
	}

	recommended := a.selectBest(scenarios, mr)
	confidence := a.confidence(scenarios, mr)

	for _, s := range scenarios {
		a.log.Debug().
			Str("scenario", string(s.Type)).
			Int("trades", s.NumTrades).
			Float64("capital", s.TotalCapital).
			Float64("score", s.Score).
			Msg("scenario scored")
	}
	a.log.Info().
		Str("recommended", string(recommended.Type)).
		Float64("confidence", confidence).
		Msg("scenarios evaluated")

	return &decision.AnalyzerResult{
		Scenarios:   scenarios,
		Recommended: recommended,
		Confidence:  confidence,
		Regime:      mr.Regime,
		Timestamp:   time.Now(),
	}, nil
}

// fullRebalance corrects every position with a non-zero computed trade.
func (a *Analyzer) fullRebalance(pf *portfolio.Portfolio, plans map[string]calc.TradePlan) *decision.Scenario {
	var trades []decision.Trade
	for _, pos := range pf.PositionsByDrift(0) {
		plan, ok := plans[pos.Ticker]
		if !ok {
			continue
		}
		trades = append(trades, a.tradeFromPlan(plan, pos.Sector,
			fmt.Sprintf("Full rebalance to target %.1f%%", plan.TargetWeight*100)))
	}

	totalCapital := sumValue(trades)
	score := a.scoreFullRebalance(len(trades), totalCapital)

	return &decision.Scenario{
		Type:                 decision.FullRebalance,
		Trades:               trades,
		TotalCapital:         totalCapital,
		NumTrades:            len(trades),
		ExpectedMaxDrift:     0.0,
		ExpectedSharpeImpact: 0.05,
		ExpectedVaRImpact:    -0.002,
		Score:                score,
		Tradeoffs:            "High turnover, immediate correction, risk-neutral",
	}
}

// partialRebalance corrects only positions at or above the medium drift
// threshold, worst offenders first.
func (a *Analyzer) partialRebalance(pf *portfolio.Portfolio, plans map[string]calc.TradePlan) *decision.Scenario {
	var trades []decision.Trade
	traded := make(map[string]bool)
	for _, pos := range pf.PositionsByDrift(a.cfg.Thresholds.DriftMedium) {
		plan, ok := plans[pos.Ticker]
		if !ok {
			continue
		}
		trades = append(trades, a.tradeFromPlan(plan, pos.Sector,
			fmt.Sprintf("Drift %.1f%% exceeds threshold", pos.Drift*100)))
		traded[pos.Ticker] = true
	}

	var remainingMaxDrift float64
	for _, pos := range pf.Positions {
		if !traded[pos.Ticker] && pos.Drift > remainingMaxDrift {
			remainingMaxDrift = pos.Drift
		}
	}

	totalCapital := sumValue(trades)
	score := a.scorePartialRebalance(totalCapital, remainingMaxDrift)

	return &decision.Scenario{
		Type:                 decision.PartialRebalance,
		Trades:               trades,
		TotalCapital:         totalCapital,
		NumTrades:            len(trades),
		ExpectedMaxDrift:     remainingMaxDrift,
		ExpectedSharpeImpact: 0.02,
		ExpectedVaRImpact:    -0.001,
		Score:                score,
		Tradeoffs:            "Lower cost, incomplete fix, addresses worst offenders",
	}
}

// sectorRebalance trades only the benchmark and sector ETF subset.
func (a *Analyzer) sectorRebalance(pf *portfolio.Portfolio, plans map[string]calc.TradePlan) *decision.Scenario {
	var trades []decision.Trade
	for _, ticker := range a.cfg.SectorETFs {
		plan, ok := plans[ticker]
		if !ok {
			continue
		}
		sector := ""
		if pos, ok := pf.Position(ticker); ok {
			sector = pos.Sector
		}
		trades = append(trades, a.tradeFromPlan(plan, sector, "Sector allocation rebalance"))
	}

	totalCapital := sumValue(trades)
	score := 6.0 - float64(len(trades))*0.2

	return &decision.Scenario{
		Type:                 decision.SectorRebalance,
		Trades:               trades,
		TotalCapital:         totalCapital,
		NumTrades:            len(trades),
		ExpectedMaxDrift:     0.02,
		ExpectedSharpeImpact: 0.01,
		ExpectedVaRImpact:    0.0,
		Score:                score,
		Tradeoffs:            "Maintains stock picks, corrects macro allocation",
	}
}

// deferScenario trades nothing and is scored from current conditions.
func (a *Analyzer) deferScenario(mr *decision.MonitorResult) *decision.Scenario {
	var score float64
	switch {
	case mr.Regime == calc.RegimeCrisis:
		score = 8.0
	case mr.Regime == calc.RegimeHighVol:
		score = 6.0
	case mr.MaxPositionDrift > a.cfg.Thresholds.DriftCritical:
		score = 2.0
	default:
		score = 5.0
	}

	return &decision.Scenario{
		Type:             decision.Defer,
		Trades:           nil,
		TotalCapital:     0,
		NumTrades:        0,
		ExpectedMaxDrift: mr.MaxPositionDrift,
		Score:            score,
		Tradeoffs:        "Drift continues, avoid trading into volatility",
	}
}

func (a *Analyzer) tradeFromPlan(plan calc.TradePlan, sector, rationale string) decision.Trade {
	return decision.Trade{
		Ticker:        plan.Ticker,
		Action:        plan.Action,
		Shares:        plan.Shares,
		Value:         plan.Value,
		Price:         plan.Price,
		CurrentWeight: plan.CurrentWeight,
		TargetWeight:  plan.TargetWeight,
		Drift:         plan.Drift,
		Priority:      plan.Priority,
		Rationale:     rationale,
		Sector:        sector,
	}
}

// scoreFullRebalance caps the score at 4.0 once turnover exceeds the
// configured maximum.
func (a *Analyzer) scoreFullRebalance(numTrades int, totalCapital float64) float64 {
	turnover := totalCapital / a.cfg.Portfolio.Basis
	if turnover > a.cfg.Thresholds.MaxTurnover {
		return 4.0
	}
	return 7.0 - float64(numTrades)*0.1
}

func (a *Analyzer) scorePartialRebalance(totalCapital, remainingDrift float64) float64 {
	turnover := totalCapital / a.cfg.Portfolio.Basis

	score := 8.0
	if remainingDrift > a.cfg.Thresholds.DriftHigh {
		score -= 2.0
	}
	if turnover > a.cfg.Thresholds.MaxTurnover*0.5 {
		score -= 1.0
	}
	if score < 1.0 {
		score = 1.0
	}
	return score
}

func (a *Analyzer) selectBest(scenarios []*decision.Scenario, mr *decision.MonitorResult) *decision.Scenario {
	if mr.Regime == calc.RegimeCrisis {
		for _, s := range scenarios {
			if s.Type == decision.Defer {
				return s
			}
		}
	}

	best := scenarios[0]
	for _, s := range scenarios[1:] {
		if s.Score > best.Score {
			best = s
		}
	}
	return best
}

// confidence grows with the gap between the top two scores, nudged by the
// regime and clamped to [0.5, 1.0].
func (a *Analyzer) confidence(scenarios []*decision.Scenario, mr *decision.MonitorResult) float64 {
	var top, second float64
	for _, s := range scenarios {
		if s.Score > top {
			second = top
			top = s.Score
		} else if s.Score > second {
			second = s.Score
		}
	}

	confidence := 0.6 + (top-second)*0.1
	if confidence > 0.95 {
		confidence = 0.95
	}

	switch mr.Regime {
	case calc.RegimeLowVol:
		confidence += 0.05
	case calc.RegimeCrisis:
		confidence -= 0.10
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0.5 {
		confidence = 0.5
	}
	return confidence
}

func sumValue(trades []decision.Trade) float64 {
	var total float64
	for _, t := range trades {
		total += t.Value
	}
	return total
}
