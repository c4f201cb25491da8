package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/decision"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/export"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/metrics"
)

const defaultHistoryLimit = 10

// Pipeline is the orchestrator view the API reads from.
type Pipeline interface {
	History(limit int) []*decision.Decision
	LastAssessment() *decision.MonitorResult
}

// Handlers serves the read-only API endpoints.
type Handlers struct {
	pipeline Pipeline
	reg      *metrics.Registry
	started  time.Time
}

// NewHandlers builds the handler set.
func NewHandlers(pipeline Pipeline, reg *metrics.Registry) *Handlers {
	return &Handlers{
		pipeline: pipeline,
		reg:      reg,
		started:  time.Now(),
	}
}

// Health reports liveness and the latest drift reading.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	}
	if h.reg != nil {
		payload["max_position_drift"] = metrics.GaugeValue(h.reg.MaxDrift)
		payload["max_sector_drift"] = metrics.GaugeValue(h.reg.MaxSectorDrift)
	}
	writeJSON(w, http.StatusOK, payload)
}

// Decisions returns recent decisions, most recent first. Accepts ?limit=N.
func (h *Handlers) Decisions(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	history := h.pipeline.History(limit)
	docs := make([]export.Document, 0, len(history))
	for _, d := range history {
		docs = append(docs, export.NewDocument(d))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(docs),
		"decisions": docs,
	})
}

// Regime returns the latest monitor assessment.
func (h *Handlers) Regime(w http.ResponseWriter, r *http.Request) {
	mr := h.pipeline.LastAssessment()
	if mr == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no assessment has run yet"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":               string(mr.Status),
		"regime":               string(mr.Regime),
		"trigger_reason":       mr.TriggerReason,
		"max_position_drift":   mr.MaxPositionDrift,
		"max_position_ticker":  mr.MaxPositionTicker,
		"max_sector_drift":     mr.MaxSectorDrift,
		"max_sector":           mr.MaxSector,
		"var_95":               mr.VaR95,
		"sharpe_ratio":         mr.SharpeRatio,
		"days_since_rebalance": mr.DaysSinceRebalance,
		"timestamp":            mr.Timestamp.Format(time.RFC3339),
	})
}

// NotFound is the JSON 404 handler.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
