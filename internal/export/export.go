// Package export writes decisions as structured JSON documents.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/decision"
)

// Document is the exported shape of a decision.
type Document struct {
	DecisionID      string  `json:"decision_id"`
	Status          string  `json:"status"`
	ScenarioType    string  `json:"scenario_type,omitempty"`
	NumTrades       int     `json:"num_trades"`
	TotalCapital    float64 `json:"total_capital"`
	Reasoning       string  `json:"reasoning"`
	ExecutionTiming string  `json:"execution_timing"`
	Confidence      float64 `json:"confidence"`
	Timestamp       string  `json:"timestamp"`
}

// NewDocument flattens a decision into its export shape.
func NewDocument(d *decision.Decision) Document {
	doc := Document{
		DecisionID:      d.ID,
		Status:          string(d.Status),
		Reasoning:       d.Reasoning,
		ExecutionTiming: d.ExecutionTiming,
		Confidence:      d.Confidence,
		Timestamp:       d.Timestamp.Format(time.RFC3339),
	}
	if d.Scenario != nil {
		doc.ScenarioType = string(d.Scenario.Type)
		doc.NumTrades = d.Scenario.NumTrades
		doc.TotalCapital = d.Scenario.TotalCapital
	}
	return doc
}

// ToFile writes the decision document to path as indented JSON.
func ToFile(d *decision.Decision, path string) error {
	data, err := json.MarshalIndent(NewDocument(d), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal decision %s: %w", d.ID, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to export decision %s: %w", d.ID, err)
	}

	return nil
}
