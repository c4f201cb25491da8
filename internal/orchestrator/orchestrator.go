// Package orchestrator sequences the Monitor -> Evaluator -> Synthesizer
// pipeline and owns the in-memory decision history.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/decision"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/portfolio"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/export"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/metrics"
)

// Assessor is the situation monitoring stage.
type Assessor interface {
	Assess(ctx context.Context) (*decision.MonitorResult, *portfolio.Portfolio, error)
}

// Evaluator is the scenario evaluation stage.
type Evaluator interface {
	Evaluate(mr *decision.MonitorResult, pf *portfolio.Portfolio) (*decision.AnalyzerResult, error)
}

// Synthesizer is the final decision stage.
type Synthesizer interface {
	MakeDecision(mr *decision.MonitorResult, ar *decision.AnalyzerResult, pf *portfolio.Portfolio) *decision.Decision
	MonitorDefer(mr *decision.MonitorResult) *decision.Decision
}

// Orchestrator runs complete rebalancing cycles. A failed cycle records
// nothing; a successful cycle records exactly one decision.
type Orchestrator struct {
	assessor    Assessor
	evaluator   Evaluator
	synthesizer Synthesizer
	history     *decision.Log
	metrics     *metrics.Registry

	mu          sync.RWMutex
	lastMonitor *decision.MonitorResult

	log zerolog.Logger
}

// New wires the three pipeline stages together. The metrics registry may be
// nil when instrumentation is not wanted.
func New(assessor Assessor, evaluator Evaluator, synthesizer Synthesizer, reg *metrics.Registry) *Orchestrator {
	return &Orchestrator{
		assessor:    assessor,
		evaluator:   evaluator,
		synthesizer: synthesizer,
		history:     decision.NewLog(),
		metrics:     reg,
		log:         log.With().Str("component", "orchestrator").Logger(),
	}
}

// RunCycle executes one complete cycle: assess, conditionally evaluate,
// decide, record. The evaluator is never invoked when the monitor reports
// MONITORING.
func (o *Orchestrator) RunCycle(ctx context.Context) (*decision.Decision, error) {
	start := time.Now()

	mr, pf, err := o.assessor.Assess(ctx)
	if err != nil {
		if o.metrics != nil {
			o.metrics.CycleErrors.Inc()
		}
		return nil, fmt.Errorf("cycle aborted: %w", err)
	}

	o.mu.Lock()
	o.lastMonitor = mr
	o.mu.Unlock()

	var d *decision.Decision
	if !mr.ShouldTriggerAnalyzer() {
		o.log.Info().Str("status", string(mr.Status)).Msg("no action needed, continuing monitoring")
		d = o.synthesizer.MonitorDefer(mr)
	} else {
		ar, err := o.evaluator.Evaluate(mr, pf)
		if err != nil {
			if o.metrics != nil {
				o.metrics.CycleErrors.Inc()
			}
			return nil, fmt.Errorf("cycle aborted: %w", err)
		}
		d = o.synthesizer.MakeDecision(mr, ar, pf)
	}

	o.history.Add(d)
	o.observe(mr, d, time.Since(start))

	o.log.Info().
		Str("decision_id", d.ID).
		Str("status", string(d.Status)).
		Dur("elapsed", time.Since(start)).
		Msg("cycle complete")

	return d, nil
}

// History returns up to limit decisions, most recent first.
func (o *Orchestrator) History(limit int) []*decision.Decision {
	return o.history.Recent(limit)
}

// LastAssessment returns the most recent monitor result, if any cycle ran.
func (o *Orchestrator) LastAssessment() *decision.MonitorResult {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.lastMonitor
}

// Export writes a decision as a structured JSON document to dest.
func (o *Orchestrator) Export(d *decision.Decision, dest string) error {
	if err := export.ToFile(d, dest); err != nil {
		return err
	}
	o.log.Info().Str("decision_id", d.ID).Str("dest", dest).Msg("decision exported")
	return nil
}

func (o *Orchestrator) observe(mr *decision.MonitorResult, d *decision.Decision, elapsed time.Duration) {
	if o.metrics == nil {
		return
	}

	o.metrics.CyclesTotal.WithLabelValues(string(mr.Status)).Inc()
	o.metrics.CycleDuration.Observe(elapsed.Seconds())
	o.metrics.MaxDrift.Set(mr.MaxPositionDrift)
	o.metrics.MaxSectorDrift.Set(mr.MaxSectorDrift)
	o.metrics.SetRegime(string(mr.Regime))

	scenario := ""
	if d.Scenario != nil {
		scenario = string(d.Scenario.Type)
	}
	o.metrics.DecisionsTotal.WithLabelValues(string(d.Status), scenario).Inc()
}
