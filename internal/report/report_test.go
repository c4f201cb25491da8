package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/calc"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/decision"
)

func executeDecision() *decision.Decision {
	return &decision.Decision{
		ID:     "REB-2026-08-15-001",
		Status: decision.StatusExecute,
		Scenario: &decision.Scenario{
			Type:         decision.PartialRebalance,
			NumTrades:    3,
			TotalCapital: 80_000,
			Trades: []decision.Trade{
				{Ticker: "BBB", Action: "BUY", Shares: 400, Value: 20_000, Priority: calc.PriorityHigh, Rationale: "Drift 2.0% exceeds threshold"},
				{Ticker: "AAA", Action: "SELL", Shares: 400, Value: 40_000, Priority: calc.PriorityCritical, Rationale: "Drift 4.0% exceeds threshold"},
				{Ticker: "CCC", Action: "BUY", Shares: 100, Value: 20_000, Priority: calc.PriorityHigh, Rationale: "Drift 2.0% exceeds threshold"},
			},
		},
		Reasoning:            "Max drift (4.0%) exceeds critical threshold | Partial rebalance optimal: correct worst offenders, minimize turnover",
		ExecutionTiming:      "EXECUTE IMMEDIATELY (normal conditions)",
		AdaptiveAdjustments:  []string{"Increased threshold to 3.6% for next 3 days"},
		Confidence:           0.73,
		ExpectedSharpeImpact: 0.02,
		TotalTurnover:        0.08,
		Timestamp:            time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC),
	}
}

func TestWriteDecisionExecuteReport(t *testing.T) {
	var sb strings.Builder
	WriteDecision(&sb, executeDecision(), &decision.MonitorResult{MaxPositionDrift: 0.04}, nil)
	out := sb.String()

	assert.Contains(t, out, "FINAL DECISION REPORT")
	assert.Contains(t, out, "Decision ID: REB-2026-08-15-001")
	assert.Contains(t, out, "Confidence: 73%")
	assert.Contains(t, out, "Chosen Scenario: PARTIAL_REBALANCE")
	assert.Contains(t, out, "Portfolio Turnover: 8.0%")
	assert.Contains(t, out, "  - Max drift (4.0%) exceeds critical threshold")
	assert.Contains(t, out, "  - Partial rebalance optimal: correct worst offenders, minimize turnover")
	assert.Contains(t, out, "EXECUTION PLAN")
	assert.Contains(t, out, "Adaptive Adjustments:")
	assert.Contains(t, out, "AGENT STATUS: EXECUTE - AWAITING EXECUTION")
}

func TestWriteDecisionOrdersTradesByPriority(t *testing.T) {
	var sb strings.Builder
	WriteDecision(&sb, executeDecision(), nil, nil)
	out := sb.String()

	critical := strings.Index(out, "AAA")
	bbb := strings.Index(out, "| BBB")
	ccc := strings.Index(out, "| CCC")
	assert.Less(t, critical, bbb, "CRITICAL tier before HIGH tier")
	assert.Less(t, bbb, ccc, "equal value HIGH trades keep stable order")
}

func TestWriteDecisionPreviousDeferRecap(t *testing.T) {
	previous := &decision.Decision{
		ID:        "MON-20260814103000",
		Status:    decision.StatusDefer,
		Timestamp: time.Date(2026, 8, 14, 10, 30, 0, 0, time.UTC),
	}

	var sb strings.Builder
	WriteDecision(&sb, executeDecision(), &decision.MonitorResult{MaxPositionDrift: 0.04}, previous)
	out := sb.String()

	assert.Contains(t, out, "Previous Decision: DEFER (2026-08-14)")
	assert.Contains(t, out, "Outcome: drift now at 4.0% after deferring")
}

func TestWriteDecisionPureDefer(t *testing.T) {
	d := &decision.Decision{
		ID:              "MON-20260815103000",
		Status:          decision.StatusDefer,
		Scenario:        &decision.Scenario{Type: decision.Defer},
		Reasoning:       "All metrics within normal ranges",
		ExecutionTiming: "N/A",
		Confidence:      1.0,
		Timestamp:       time.Date(2026, 8, 15, 10, 30, 0, 0, time.UTC),
	}

	var sb strings.Builder
	WriteDecision(&sb, d, nil, nil)
	out := sb.String()

	assert.Contains(t, out, "Decision ID: MON-20260815103000")
	assert.Contains(t, out, "Execution Timing: N/A")
	assert.NotContains(t, out, "EXECUTION PLAN", "no trades for a deferral")
	assert.Contains(t, out, "AGENT STATUS: DEFER - MONITORING")
}
