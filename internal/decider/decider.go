// Package decider implements the final decision synthesis stage. The
// Synthesizer is the only pipeline component carrying cross-cycle state: an
// adaptive drift threshold and a monotonically increasing decision counter.
package decider

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/config"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/calc"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/decision"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/portfolio"
)

// Synthesizer makes autonomous rebalancing decisions. Updates to its
// adaptive threshold and counter are mutex-serialized so a shared instance
// stays consistent even if cycles ever overlap.
type Synthesizer struct {
	mu                sync.Mutex
	cfg               *config.Config
	decisionCount     int
	adaptiveThreshold float64
	now               func() time.Time
	log               zerolog.Logger
}

// New builds a synthesizer with the adaptive threshold initialized to the
// critical drift threshold.
func New(cfg *config.Config) *Synthesizer {
	return &Synthesizer{
		cfg:               cfg,
		adaptiveThreshold: cfg.Thresholds.DriftCritical,
		now:               time.Now,
		log:               log.With().Str("component", "decider").Logger(),
	}
}

// AdaptiveThreshold returns the current adaptive drift threshold.
func (s *Synthesizer) AdaptiveThreshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adaptiveThreshold
}

// MakeDecision synthesizes the final decision for a cycle. When the monitor
// status does not warrant analysis (or no analyzer result is available) it
// short-circuits into a pure deferral with full confidence.
func (s *Synthesizer) MakeDecision(mr *decision.MonitorResult, ar *decision.AnalyzerResult, pf *portfolio.Portfolio) *decision.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decisionCount++
	id := fmt.Sprintf("REB-%s-%03d", s.now().Format("2006-01-02"), s.decisionCount)

	if !mr.ShouldTriggerAnalyzer() || ar == nil {
		return s.pureDefer(id, "Monitor status does not warrant action", mr)
	}

	chosen := s.chooseScenario(ar, mr)

	status := decision.StatusExecute
	if chosen.Type == decision.Defer {
		status = decision.StatusDefer
	}

	d := &decision.Decision{
		ID:                   id,
		Status:               status,
		Scenario:             chosen,
		Reasoning:            s.reasoning(chosen, mr),
		ExecutionTiming:      executionTiming(chosen, mr),
		AdaptiveAdjustments:  s.adaptiveAdjustments(chosen, mr),
		Confidence:           ar.Confidence,
		ExpectedSharpeImpact: chosen.ExpectedSharpeImpact,
		ExpectedVaRImpact:    chosen.ExpectedVaRImpact,
		TotalTurnover:        chosen.Turnover(s.cfg.Portfolio.Basis),
		Timestamp:            s.now(),
	}

	s.log.Info().
		Str("decision_id", d.ID).
		Str("status", string(d.Status)).
		Str("scenario", string(chosen.Type)).
		Float64("confidence", d.Confidence).
		Msg("decision synthesized")

	return d
}

// MonitorDefer records a deferral for a cycle where the evaluator was never
// invoked. Does not consume a decision sequence number.
func (s *Synthesizer) MonitorDefer(mr *decision.MonitorResult) *decision.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := fmt.Sprintf("MON-%s", s.now().Format("20060102150405"))
	return s.pureDefer(id, mr.TriggerReason, mr)
}

// pureDefer builds a no-trade deferral decision. Callers hold s.mu.
func (s *Synthesizer) pureDefer(id, reason string, mr *decision.MonitorResult) *decision.Decision {
	scenario := &decision.Scenario{
		Type:             decision.Defer,
		ExpectedMaxDrift: mr.MaxPositionDrift,
		Tradeoffs:        "Monitoring continues",
	}

	return &decision.Decision{
		ID:              id,
		Status:          decision.StatusDefer,
		Scenario:        scenario,
		Reasoning:       reason,
		ExecutionTiming: "N/A",
		Confidence:      1.0,
		TotalTurnover:   0,
		Timestamp:       s.now(),
	}
}

// overrideRule is one tier of the scenario override policy. Rules run in
// order; the first rule that returns a scenario wins.
type overrideRule struct {
	name  string
	apply func(ar *decision.AnalyzerResult, mr *decision.MonitorResult) (*decision.Scenario, bool)
}

// chooseScenario applies the ordered override policy. An expected scenario
// type missing from the analyzer result falls back to the recommendation
// rather than failing. Callers hold s.mu.
func (s *Synthesizer) chooseScenario(ar *decision.AnalyzerResult, mr *decision.MonitorResult) *decision.Scenario {
	th := s.cfg.Thresholds

	rules := []overrideRule{
		{
			name: "crisis_defer",
			apply: func(ar *decision.AnalyzerResult, mr *decision.MonitorResult) (*decision.Scenario, bool) {
				if mr.Regime != calc.RegimeCrisis {
					return nil, false
				}
				return s.deferOrRecommended(ar), true
			},
		},
		{
			name: "cooldown_defer",
			apply: func(ar *decision.AnalyzerResult, mr *decision.MonitorResult) (*decision.Scenario, bool) {
				if mr.DaysSinceRebalance >= th.CooldownDays {
					return nil, false
				}
				return s.deferOrRecommended(ar), true
			},
		},
		{
			name: "turnover_fallback",
			apply: func(ar *decision.AnalyzerResult, mr *decision.MonitorResult) (*decision.Scenario, bool) {
				if ar.Recommended.Turnover(s.cfg.Portfolio.Basis) <= th.MaxTurnover {
					return nil, false
				}
				if partial, ok := ar.ScenarioOfType(decision.PartialRebalance); ok {
					return partial, true
				}
				return ar.Recommended, true
			},
		},
		{
			name: "adaptive_highvol_defer",
			apply: func(ar *decision.AnalyzerResult, mr *decision.MonitorResult) (*decision.Scenario, bool) {
				if mr.MaxPositionDrift >= s.adaptiveThreshold || mr.Regime != calc.RegimeHighVol {
					return nil, false
				}
				return s.deferOrRecommended(ar), true
			},
		},
	}

	for _, rule := range rules {
		if chosen, ok := rule.apply(ar, mr); ok {
			s.log.Debug().Str("rule", rule.name).Str("scenario", string(chosen.Type)).Msg("override applied")
			return chosen
		}
	}

	return ar.Recommended
}

// deferOrRecommended finds the DEFER scenario, falling back to the
// recommendation if the analyzer somehow omitted it.
func (s *Synthesizer) deferOrRecommended(ar *decision.AnalyzerResult) *decision.Scenario {
	if deferScenario, ok := ar.ScenarioOfType(decision.Defer); ok {
		return deferScenario
	}
	return ar.Recommended
}

// reasoning concatenates every applicable explanatory clause; deferrals
// carry only their cause. Callers hold s.mu.
func (s *Synthesizer) reasoning(chosen *decision.Scenario, mr *decision.MonitorResult) string {
	th := s.cfg.Thresholds

	if chosen.Type == decision.Defer {
		switch {
		case mr.Regime == calc.RegimeCrisis:
			return "Crisis regime detected - avoiding forced selling"
		case mr.DaysSinceRebalance < th.CooldownDays:
			return fmt.Sprintf("Last rebalance was %d days ago", mr.DaysSinceRebalance)
		default:
			return "Drift within acceptable ranges"
		}
	}

	var reasons []string

	if mr.MaxPositionDrift >= th.DriftCritical {
		reasons = append(reasons,
			fmt.Sprintf("Max drift (%.1f%%) exceeds critical threshold", mr.MaxPositionDrift*100))
	}

	switch mr.Regime {
	case calc.RegimeModerate:
		reasons = append(reasons, "Market regime is MODERATE (favorable for rebalancing)")
	case calc.RegimeLowVol:
		reasons = append(reasons, "Low volatility environment supports action")
	}

	if mr.DaysSinceRebalance >= th.CooldownDays {
		reasons = append(reasons,
			fmt.Sprintf("Last rebalance was %d days ago", mr.DaysSinceRebalance))
	}

	switch chosen.Type {
	case decision.FullRebalance:
		reasons = append(reasons, "Full correction warranted across all positions")
	case decision.PartialRebalance:
		reasons = append(reasons, "Partial rebalance optimal: correct worst offenders, minimize turnover")
	case decision.SectorRebalance:
		reasons = append(reasons, "Sector allocation correction prioritized")
	}

	if turnover := chosen.Turnover(s.cfg.Portfolio.Basis); turnover > th.MaxTurnover*0.5 {
		reasons = append(reasons,
			fmt.Sprintf("Turnover %.1f%% justified by drift severity", turnover*100))
	}

	return strings.Join(reasons, " | ")
}

// executionTiming is regime-dependent; deferrals always report N/A.
func executionTiming(chosen *decision.Scenario, mr *decision.MonitorResult) string {
	if chosen.Type == decision.Defer {
		return "N/A"
	}

	switch mr.Regime {
	case calc.RegimeLowVol:
		return "EXECUTE IMMEDIATELY (market conditions favorable)"
	case calc.RegimeModerate:
		return "EXECUTE IMMEDIATELY (normal conditions)"
	case calc.RegimeHighVol:
		return "GRADUAL EXECUTION over 2-3 sessions (reduce market impact)"
	default:
		return "DEFER pending market stabilization"
	}
}

// adaptiveAdjustments mutates the adaptive threshold after execute-class
// decisions and records the notes. Callers hold s.mu.
func (s *Synthesizer) adaptiveAdjustments(chosen *decision.Scenario, mr *decision.MonitorResult) []string {
	th := s.cfg.Thresholds
	var notes []string

	if chosen.Type != decision.Defer {
		s.adaptiveThreshold = s.adaptiveThreshold * th.AdaptiveGrowth
		if s.adaptiveThreshold > th.AdaptiveCap {
			s.adaptiveThreshold = th.AdaptiveCap
		}
		notes = append(notes, fmt.Sprintf("Increased threshold to %.1f%% for next %d days",
			s.adaptiveThreshold*100, th.CooldownDays))
	}

	if mr.Regime == calc.RegimeHighVol {
		notes = append(notes, fmt.Sprintf("Monitoring %s closely (high beta, volatile)", s.cfg.HighBetaTicker))
	}

	if mr.VaR95 < th.VaRWarning {
		notes = append(notes, "Risk monitoring intensified due to elevated VaR")
	}

	if chosen.NumTrades > 5 {
		notes = append(notes, "Consider splitting execution across multiple sessions")
	}

	return notes
}
