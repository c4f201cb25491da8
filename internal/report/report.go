// Package report renders plain-text decision reports for the CLI layer.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/decision"
)

const ruleWidth = 63

// WriteDecision renders the final decision report to w. previous may be nil
// when no earlier decision exists.
func WriteDecision(w io.Writer, d *decision.Decision, mr *decision.MonitorResult, previous *decision.Decision) {
	line := strings.Repeat("=", ruleWidth)
	thin := strings.Repeat("-", ruleWidth)

	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "FINAL DECISION REPORT")
	fmt.Fprintln(w, line)

	fmt.Fprintf(w, "\nDecision ID: %s\n", d.ID)
	fmt.Fprintf(w, "Status: %s\n", d.Status)
	fmt.Fprintf(w, "Confidence: %.0f%%\n", d.Confidence*100)

	if d.Scenario != nil {
		fmt.Fprintf(w, "\nChosen Scenario: %s\n", d.Scenario.Type)
		fmt.Fprintf(w, "Number of Trades: %d\n", d.Scenario.NumTrades)
		fmt.Fprintf(w, "Total Capital: $%.0f\n", d.Scenario.TotalCapital)
		fmt.Fprintf(w, "Portfolio Turnover: %.1f%%\n", d.TotalTurnover*100)
	}

	fmt.Fprintln(w, "\nReasoning:")
	for _, reason := range strings.Split(d.Reasoning, " | ") {
		fmt.Fprintf(w, "  - %s\n", reason)
	}

	fmt.Fprintf(w, "\nExecution Timing: %s\n", d.ExecutionTiming)

	if len(d.AdaptiveAdjustments) > 0 {
		fmt.Fprintln(w, "\nAdaptive Adjustments:")
		for _, note := range d.AdaptiveAdjustments {
			fmt.Fprintf(w, "  - %s\n", note)
		}
	}

	if d.Scenario != nil && len(d.Scenario.Trades) > 0 {
		writeExecutionPlan(w, d, thin)
	}

	fmt.Fprintf(w, "\n%s\n", thin)
	fmt.Fprintln(w, "EXPECTED IMPACT")
	fmt.Fprintln(w, thin)
	fmt.Fprintf(w, "Sharpe Ratio Impact: %+.2f\n", d.ExpectedSharpeImpact)
	fmt.Fprintf(w, "VaR Impact: %+.3f%%\n", d.ExpectedVaRImpact*100)
	if d.Scenario != nil {
		fmt.Fprintf(w, "Expected Max Drift Post-Rebalance: %.1f%%\n", d.Scenario.ExpectedMaxDrift*100)
	}

	if previous != nil {
		fmt.Fprintf(w, "\nPrevious Decision: %s (%s)\n",
			previous.Status, previous.Timestamp.Format("2006-01-02"))
		if previous.Status == decision.StatusDefer && mr != nil {
			fmt.Fprintf(w, "Outcome: drift now at %.1f%% after deferring\n", mr.MaxPositionDrift*100)
		}
	}

	fmt.Fprintf(w, "\nLogged for Future Adaptation: [%s]\n", d.ID)

	fmt.Fprintln(w, line)
	agentState := "MONITORING"
	if d.Status == decision.StatusExecute {
		agentState = "AWAITING EXECUTION"
	}
	fmt.Fprintf(w, "AGENT STATUS: %s - %s\n", d.Status, agentState)
	fmt.Fprintln(w, line)
}

// writeExecutionPlan prints trades sorted by priority tier, then value
// descending within a tier.
func writeExecutionPlan(w io.Writer, d *decision.Decision, thin string) {
	fmt.Fprintf(w, "\n%s\n", thin)
	fmt.Fprintln(w, "EXECUTION PLAN")
	fmt.Fprintln(w, thin)
	fmt.Fprintf(w, "%-9s | %-6s | %-4s | %6s | %10s | Rationale\n",
		"Priority", "Ticker", "Action", "Shares", "Value")
	fmt.Fprintln(w, thin)

	trades := make([]decision.Trade, len(d.Scenario.Trades))
	copy(trades, d.Scenario.Trades)
	sort.SliceStable(trades, func(i, j int) bool {
		if trades[i].Priority.Rank() != trades[j].Priority.Rank() {
			return trades[i].Priority.Rank() < trades[j].Priority.Rank()
		}
		return trades[i].Value > trades[j].Value
	})

	for _, t := range trades {
		fmt.Fprintf(w, "%-9s | %-6s | %-4s | %6d | $%9.0f | %s\n",
			t.Priority, t.Ticker, t.Action, t.Shares, t.Value, t.Rationale)
	}

	fmt.Fprintln(w, thin)
	fmt.Fprintf(w, "Total: %d trades, $%.0f turnover (%.2f%% of portfolio)\n",
		len(trades), d.Scenario.TotalCapital, d.TotalTurnover*100)
}
