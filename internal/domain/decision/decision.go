// Package decision holds the result types flowing through the three-stage
// pipeline: monitor assessment, scenario evaluation, and the final decision.
package decision

import (
	"sort"
	"sync"
	"time"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/calc"
)

// Status classifies a monitor assessment or a final decision.
type Status string

const (
	StatusMonitoring Status = "MONITORING"
	StatusAlert      Status = "ALERT"
	StatusTrigger    Status = "TRIGGER"
	StatusExecute    Status = "EXECUTE"
	StatusDefer      Status = "DEFER"
)

// ScenarioType is the closed set of rebalancing strategy variants.
type ScenarioType string

const (
	FullRebalance    ScenarioType = "FULL_REBALANCE"
	PartialRebalance ScenarioType = "PARTIAL_REBALANCE"
	SectorRebalance  ScenarioType = "SECTOR_REBALANCE"
	Defer            ScenarioType = "DEFER"
)

// Trade is a single trade recommendation within a scenario.
type Trade struct {
	Ticker        string
	Action        string // BUY or SELL
	Shares        int
	Value         float64
	Price         float64
	CurrentWeight float64
	TargetWeight  float64
	Drift         float64
	Priority      calc.Priority
	Rationale     string
	Sector        string
}

// Scenario is one candidate rebalancing strategy. Immutable after scoring.
type Scenario struct {
	Type                 ScenarioType
	Trades               []Trade
	TotalCapital         float64
	NumTrades            int
	ExpectedMaxDrift     float64
	ExpectedSharpeImpact float64
	ExpectedVaRImpact    float64
	Score                float64 // 0-10
	Tradeoffs            string
}

// Turnover is total capital moved divided by the portfolio basis.
func (s *Scenario) Turnover(basis float64) float64 {
	if basis <= 0 {
		return 0
	}
	var total float64
	for _, t := range s.Trades {
		total += t.Value
	}
	return total / basis
}

// MonitorResult is the monitor's per-cycle situation assessment.
// Created once per cycle and read-only downstream.
type MonitorResult struct {
	Status             Status
	TriggerReason      string
	MaxPositionDrift   float64
	MaxPositionTicker  string
	MaxSectorDrift     float64
	MaxSector          string
	VaR95              float64
	SharpeRatio        float64
	Beta               float64
	Regime             calc.Regime
	DaysSinceRebalance int
	Timestamp          time.Time
}

// ShouldTriggerAnalyzer reports whether scenario evaluation is warranted.
func (m *MonitorResult) ShouldTriggerAnalyzer() bool {
	return m.Status == StatusTrigger || m.Status == StatusAlert
}

// AnalyzerResult is the evaluator's scored scenario set for one cycle.
type AnalyzerResult struct {
	Scenarios   []*Scenario
	Recommended *Scenario
	Confidence  float64 // 0-1
	Regime      calc.Regime
	Timestamp   time.Time
}

// ScenarioOfType returns the first scenario of the given type, if present.
func (a *AnalyzerResult) ScenarioOfType(st ScenarioType) (*Scenario, bool) {
	for _, s := range a.Scenarios {
		if s.Type == st {
			return s, true
		}
	}
	return nil, false
}

// Decision is the synthesizer's final output for one cycle.
type Decision struct {
	ID                   string
	Status               Status
	Scenario             *Scenario // nil for pure defers
	Reasoning            string
	ExecutionTiming      string
	AdaptiveAdjustments  []string
	Confidence           float64
	ExpectedSharpeImpact float64
	ExpectedVaRImpact    float64
	TotalTurnover        float64
	Timestamp            time.Time
}

// Log is the in-memory append-only decision history, owned by the
// orchestrator for the process lifetime. Safe for concurrent readers.
type Log struct {
	mu        sync.RWMutex
	decisions []*Decision
}

// NewLog returns an empty decision log.
func NewLog() *Log {
	return &Log{}
}

// Add appends a decision to the log.
func (l *Log) Add(d *Decision) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decisions = append(l.decisions, d)
}

// Len returns the number of logged decisions.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.decisions)
}

// Recent returns up to limit decisions ordered most-recent-first.
func (l *Log) Recent(limit int) []*Decision {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]*Decision, len(l.decisions))
	copy(out, l.decisions)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}
