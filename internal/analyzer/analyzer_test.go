package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/config"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/calc"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/decision"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/portfolio"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Portfolio.Basis = 1_000_000
	cfg.TargetAllocation = map[string]float64{"AAA": 0.5, "BBB": 0.3, "CCC": 0.2}
	cfg.SectorMapping = map[string]string{"AAA": "Technology", "BBB": "Technology", "CCC": "Energy"}
	cfg.SectorAllocation = map[string]float64{"Technology": 0.8, "Energy": 0.2}
	cfg.SectorETFs = []string{"CCC"}
	return cfg
}

// driftedPortfolio: AAA ran up to 54% while BBB and CCC shrank, so a full
// correction sells $40k of AAA and buys $20k of each laggard.
func driftedPortfolio() *portfolio.Portfolio {
	p := portfolio.New("PORT_TEST", 1_000_000)
	p.Add(portfolio.Position{Ticker: "AAA", TargetWeight: 0.5, CurrentWeight: 0.54, Drift: 0.04, Sector: "Technology", LivePrice: 100})
	p.Add(portfolio.Position{Ticker: "BBB", TargetWeight: 0.3, CurrentWeight: 0.28, Drift: 0.02, Sector: "Technology", LivePrice: 50})
	p.Add(portfolio.Position{Ticker: "CCC", TargetWeight: 0.2, CurrentWeight: 0.18, Drift: 0.02, Sector: "Energy", LivePrice: 200})
	return p
}

func moderateTrigger() *decision.MonitorResult {
	return &decision.MonitorResult{
		Status:             decision.StatusTrigger,
		MaxPositionDrift:   0.04,
		MaxPositionTicker:  "AAA",
		Regime:             calc.RegimeModerate,
		DaysSinceRebalance: 7,
	}
}

func TestEvaluateProducesFourScenariosInOrder(t *testing.T) {
	a := New(testConfig())

	ar, err := a.Evaluate(moderateTrigger(), driftedPortfolio())
	require.NoError(t, err)
	require.Len(t, ar.Scenarios, 4)

	assert.Equal(t, decision.FullRebalance, ar.Scenarios[0].Type)
	assert.Equal(t, decision.PartialRebalance, ar.Scenarios[1].Type)
	assert.Equal(t, decision.SectorRebalance, ar.Scenarios[2].Type)
	assert.Equal(t, decision.Defer, ar.Scenarios[3].Type)
}

func TestEvaluateScoresAndRecommendation(t *testing.T) {
	a := New(testConfig())

	ar, err := a.Evaluate(moderateTrigger(), driftedPortfolio())
	require.NoError(t, err)

	full := ar.Scenarios[0]
	assert.Equal(t, 3, full.NumTrades)
	assert.InDelta(t, 80_000, full.TotalCapital, 1e-6)
	assert.InDelta(t, 6.7, full.Score, 1e-9) // 7.0 - 3*0.1, turnover 8% under cap

	partial := ar.Scenarios[1]
	assert.Equal(t, 3, partial.NumTrades, "all three positions breach the medium threshold")
	assert.InDelta(t, 0.0, partial.ExpectedMaxDrift, 1e-9)
	assert.InDelta(t, 8.0, partial.Score, 1e-9)

	sector := ar.Scenarios[2]
	assert.Equal(t, 1, sector.NumTrades)
	assert.Equal(t, "CCC", sector.Trades[0].Ticker)
	assert.InDelta(t, 5.8, sector.Score, 1e-9)

	deferred := ar.Scenarios[3]
	assert.Equal(t, 0, deferred.NumTrades)
	assert.InDelta(t, 2.0, deferred.Score, 1e-9, "drift past critical punishes waiting")

	assert.Equal(t, decision.PartialRebalance, ar.Recommended.Type)
	assert.InDelta(t, 0.73, ar.Confidence, 1e-9) // 0.6 + (8.0-6.7)*0.1
}

func TestEvaluateFullRebalanceTradeDetail(t *testing.T) {
	a := New(testConfig())

	ar, err := a.Evaluate(moderateTrigger(), driftedPortfolio())
	require.NoError(t, err)

	full := ar.Scenarios[0]
	require.Len(t, full.Trades, 3)
	// Trades follow drift-descending position order.
	assert.Equal(t, "AAA", full.Trades[0].Ticker)
	assert.Equal(t, "SELL", full.Trades[0].Action)
	assert.Equal(t, 400, full.Trades[0].Shares)
	assert.Equal(t, calc.PriorityCritical, full.Trades[0].Priority)
	assert.Equal(t, "Technology", full.Trades[0].Sector)

	for _, trade := range full.Trades[1:] {
		assert.Equal(t, "BUY", trade.Action)
		assert.Equal(t, calc.PriorityHigh, trade.Priority)
	}
}

func TestEvaluateCrisisForcesDefer(t *testing.T) {
	a := New(testConfig())
	mr := moderateTrigger()
	mr.Regime = calc.RegimeCrisis

	ar, err := a.Evaluate(mr, driftedPortfolio())
	require.NoError(t, err)

	assert.Equal(t, decision.Defer, ar.Recommended.Type)
	assert.InDelta(t, 8.0, ar.Recommended.Score, 1e-9)
}

func TestEvaluateTurnoverCapDegradesFullScore(t *testing.T) {
	cfg := testConfig()
	a := New(cfg)

	// Half the book out of place: full correction turns over 50% of basis.
	p := portfolio.New("PORT_TEST", 1_000_000)
	p.Add(portfolio.Position{Ticker: "AAA", TargetWeight: 0.5, CurrentWeight: 0.0, Drift: 0.5, Sector: "Technology", LivePrice: 100})
	p.Add(portfolio.Position{Ticker: "BBB", TargetWeight: 0.3, CurrentWeight: 0.8, Drift: 0.5, Sector: "Technology", LivePrice: 50})
	p.Add(portfolio.Position{Ticker: "CCC", TargetWeight: 0.2, CurrentWeight: 0.2, Drift: 0.0, Sector: "Energy", LivePrice: 200})

	mr := moderateTrigger()
	mr.MaxPositionDrift = 0.5

	ar, err := a.Evaluate(mr, p)
	require.NoError(t, err)

	full := ar.Scenarios[0]
	assert.Greater(t, full.Turnover(cfg.Portfolio.Basis), cfg.Thresholds.MaxTurnover)
	assert.InDelta(t, 4.0, full.Score, 1e-9, "turnover breach caps the score")
}

func TestEvaluateConfidenceRegimeAdjustments(t *testing.T) {
	a := New(testConfig())

	lowVol := moderateTrigger()
	lowVol.Regime = calc.RegimeLowVol
	ar, err := a.Evaluate(lowVol, driftedPortfolio())
	require.NoError(t, err)
	assert.InDelta(t, 0.78, ar.Confidence, 1e-9, "low vol adds 0.05")

	crisis := moderateTrigger()
	crisis.Regime = calc.RegimeCrisis
	ar, err = a.Evaluate(crisis, driftedPortfolio())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, ar.Confidence, 0.5, "clamped at the floor")
	assert.LessOrEqual(t, ar.Confidence, 1.0)
}

func TestEvaluateNilPortfolio(t *testing.T) {
	a := New(testConfig())
	_, err := a.Evaluate(moderateTrigger(), nil)
	assert.Error(t, err)
}
