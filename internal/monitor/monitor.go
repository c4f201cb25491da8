// Package monitor implements the situation assessment stage: it converts raw
// holdings, live prices and risk metrics into a status classification that
// decides whether deeper scenario analysis is warranted.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/config"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/datasource"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/calc"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/decision"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/portfolio"
)

// daysSinceRebalanceDefault is assumed when the last rebalance is unknown.
const daysSinceRebalanceDefault = 7

// Monitor assesses the portfolio situation once per cycle. It holds no
// cross-cycle state besides the last assessment timestamp.
type Monitor struct {
	cfg            *config.Config
	source         datasource.MarketData
	lastAssessment time.Time
	now            func() time.Time
	log            zerolog.Logger
}

// New builds a monitor over the given data collaborator.
func New(cfg *config.Config, source datasource.MarketData) *Monitor {
	return &Monitor{
		cfg:    cfg,
		source: source,
		now:    time.Now,
		log:    log.With().Str("component", "monitor").Logger(),
	}
}

// Assess builds the current portfolio view, classifies the situation and
// returns both so downstream stages reuse the same snapshot. Collaborator
// failures propagate and abort the cycle; missing risk data is substituted
// with the configured benign defaults.
func (m *Monitor) Assess(ctx context.Context) (*decision.MonitorResult, *portfolio.Portfolio, error) {
	pf, err := m.buildPortfolio(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("situation assessment failed: %w", err)
	}

	risk, err := m.fetchRisk(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("situation assessment failed: %w", err)
	}

	maxTicker, maxDrift := pf.MaxDrift()

	sectorDrift := calc.SectorDrift(pf.SectorWeights(), m.cfg.SectorAllocation)
	maxSector, maxSectorDrift := maxEntry(sectorDrift)

	regime := calc.ClassifyRegime(risk.SharpeRatio, risk.VaR95)
	days := m.daysSinceRebalance(pf)

	status, reason := m.classify(maxDrift, maxSectorDrift, risk, regime)

	result := &decision.MonitorResult{
		Status:             status,
		TriggerReason:      reason,
		MaxPositionDrift:   maxDrift,
		MaxPositionTicker:  maxTicker,
		MaxSectorDrift:     maxSectorDrift,
		MaxSector:          maxSector,
		VaR95:              risk.VaR95,
		SharpeRatio:        risk.SharpeRatio,
		Beta:               risk.Beta,
		Regime:             regime,
		DaysSinceRebalance: days,
		Timestamp:          m.now(),
	}

	m.lastAssessment = result.Timestamp

	m.log.Info().
		Str("status", string(status)).
		Str("regime", string(regime)).
		Float64("max_drift", maxDrift).
		Str("max_ticker", maxTicker).
		Float64("max_sector_drift", maxSectorDrift).
		Msg("situation assessed")

	return result, pf, nil
}

// buildPortfolio constructs the per-cycle portfolio from holdings and live
// quotes. A missing or non-positive stored price zeroes that ticker's price
// change contribution rather than failing.
func (m *Monitor) buildPortfolio(ctx context.Context) (*portfolio.Portfolio, error) {
	holdings, err := m.source.Holdings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch holdings: %w", err)
	}

	stored := make(map[string]float64, len(holdings))
	for _, h := range holdings {
		stored[h.Ticker] = h.Price
	}

	livePrices := make(map[string]float64, len(m.cfg.TargetAllocation))
	priceChanges := make(map[string]float64, len(m.cfg.TargetAllocation))
	for ticker := range m.cfg.TargetAllocation {
		quote, err := m.source.Quote(ctx, ticker)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch quote for %s: %w", ticker, err)
		}
		livePrices[ticker] = quote.Price

		if sp := stored[ticker]; sp > 0 && quote.Price > 0 {
			priceChanges[ticker] = (quote.Price - sp) / sp
		} else {
			priceChanges[ticker] = 0
		}
	}

	implied := calc.ImpliedWeights(m.cfg.TargetAllocation, priceChanges)
	drift := calc.WeightDrift(implied, m.cfg.TargetAllocation)

	pf := portfolio.New(m.cfg.Portfolio.ID, m.cfg.Portfolio.Basis)
	for ticker, target := range m.cfg.TargetAllocation {
		pf.Add(portfolio.Position{
			Ticker:        ticker,
			TargetWeight:  target,
			CurrentWeight: implied[ticker],
			StoredPrice:   stored[ticker],
			LivePrice:     livePrices[ticker],
			Drift:         drift[ticker],
			Sector:        m.cfg.SectorMapping[ticker],
			Value:         m.cfg.Portfolio.Basis * implied[ticker],
		})
	}

	return pf, nil
}

func (m *Monitor) fetchRisk(ctx context.Context) (*portfolio.RiskSnapshot, error) {
	risk, err := m.source.RiskSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch risk snapshot: %w", err)
	}
	if risk == nil {
		d := m.cfg.RiskDefaults
		m.log.Warn().Msg("no risk snapshot available, substituting defaults")
		return &portfolio.RiskSnapshot{
			AsOf:              m.now(),
			VaR95:             d.VaR95,
			ExpectedShortfall: d.ExpectedShortfall,
			SharpeRatio:       d.SharpeRatio,
			Beta:              d.Beta,
			Volatility:        d.Volatility,
		}, nil
	}
	return risk, nil
}

func (m *Monitor) daysSinceRebalance(pf *portfolio.Portfolio) int {
	if pf.LastRebalance.IsZero() {
		return daysSinceRebalanceDefault
	}
	return int(m.now().Sub(pf.LastRebalance).Hours() / 24)
}

// triggerCondition is one hard trigger in the classification ladder. Each
// fired condition contributes its clause to the trigger reason.
type triggerCondition struct {
	fires  func(maxDrift, maxSectorDrift float64, risk *portfolio.RiskSnapshot, regime calc.Regime) bool
	reason func(maxDrift, maxSectorDrift float64, risk *portfolio.RiskSnapshot) string
}

// classify runs the status ladder: hard triggers first, then the softer
// alert disjunction, else MONITORING.
func (m *Monitor) classify(maxDrift, maxSectorDrift float64, risk *portfolio.RiskSnapshot, regime calc.Regime) (decision.Status, string) {
	th := m.cfg.Thresholds

	hard := []triggerCondition{
		{
			fires: func(d, _ float64, _ *portfolio.RiskSnapshot, _ calc.Regime) bool {
				return d >= th.DriftCritical
			},
			reason: func(d, _ float64, _ *portfolio.RiskSnapshot) string {
				return fmt.Sprintf("Max drift %.1f%% exceeds %.1f%% threshold", d*100, th.DriftCritical*100)
			},
		},
		{
			fires: func(_, sd float64, _ *portfolio.RiskSnapshot, _ calc.Regime) bool {
				return sd >= th.SectorDriftTrigger
			},
			reason: func(_, sd float64, _ *portfolio.RiskSnapshot) string {
				return fmt.Sprintf("Sector drift %.1f%% exceeds %.0f%% threshold", sd*100, th.SectorDriftTrigger*100)
			},
		},
		{
			fires: func(_, _ float64, r *portfolio.RiskSnapshot, _ calc.Regime) bool {
				return r.VaR95 < th.VaRWarning
			},
			reason: func(_, _ float64, r *portfolio.RiskSnapshot) string {
				return fmt.Sprintf("VaR %.2f%% below warning threshold", r.VaR95*100)
			},
		},
		{
			fires: func(_, _ float64, r *portfolio.RiskSnapshot, _ calc.Regime) bool {
				return r.SharpeRatio < th.SharpeWarning
			},
			reason: func(_, _ float64, r *portfolio.RiskSnapshot) string {
				return fmt.Sprintf("Sharpe %.2f below warning threshold", r.SharpeRatio)
			},
		},
		{
			fires: func(_, _ float64, _ *portfolio.RiskSnapshot, rg calc.Regime) bool {
				return rg == calc.RegimeCrisis
			},
			reason: func(_, _ float64, _ *portfolio.RiskSnapshot) string {
				return "Crisis market regime detected"
			},
		},
	}

	var reasons []string
	for _, cond := range hard {
		if cond.fires(maxDrift, maxSectorDrift, risk, regime) {
			reasons = append(reasons, cond.reason(maxDrift, maxSectorDrift, risk))
		}
	}
	if len(reasons) > 0 {
		return decision.StatusTrigger, strings.Join(reasons, " + ")
	}

	if maxDrift >= th.DriftAlert || maxSectorDrift >= th.SectorDriftAlert || risk.VaR95 < th.VaRAlert {
		return decision.StatusAlert, "Elevated risk metrics"
	}

	return decision.StatusMonitoring, "All metrics within normal ranges"
}

func maxEntry(m map[string]float64) (string, float64) {
	var maxKey string
	var maxVal float64
	for k, v := range m {
		if v > maxVal || maxKey == "" {
			maxKey = k
			maxVal = v
		}
	}
	return maxKey, maxVal
}
