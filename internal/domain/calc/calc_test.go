package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightDrift(t *testing.T) {
	t.Run("drift is non-negative and zero for equal weights", func(t *testing.T) {
		current := map[string]float64{"AAPL": 0.12, "MSFT": 0.08, "SPY": 0.15}
		target := map[string]float64{"AAPL": 0.10, "MSFT": 0.10, "SPY": 0.15}

		drift := WeightDrift(current, target)

		assert.InDelta(t, 0.02, drift["AAPL"], 1e-9)
		assert.InDelta(t, 0.02, drift["MSFT"], 1e-9)
		assert.Equal(t, 0.0, drift["SPY"])
		for ticker, d := range drift {
			assert.GreaterOrEqual(t, d, 0.0, "drift for %s must be non-negative", ticker)
		}
	})

	t.Run("missing current weight treated as zero", func(t *testing.T) {
		drift := WeightDrift(map[string]float64{}, map[string]float64{"NVDA": 0.08})
		assert.InDelta(t, 0.08, drift["NVDA"], 1e-9)
	})
}

func TestSectorWeights(t *testing.T) {
	sectors := map[string]string{"AAPL": "Technology", "XOM": "Energy", "MSFT": "Technology"}
	weights := map[string]float64{"AAPL": 0.10, "MSFT": 0.12, "XOM": 0.04, "ZZZ": 0.05}

	got := SectorWeights(weights, sectors)

	assert.InDelta(t, 0.22, got["Technology"], 1e-9)
	assert.InDelta(t, 0.04, got["Energy"], 1e-9)
	_, ok := got[""]
	assert.False(t, ok, "unmapped tickers must be ignored, not bucketed")
	assert.Len(t, got, 2)
}

func TestImpliedWeights(t *testing.T) {
	t.Run("weights sum to one with positive notionals", func(t *testing.T) {
		target := map[string]float64{"AAA": 0.5, "BBB": 0.3, "CCC": 0.2}
		changes := map[string]float64{"AAA": 0.20, "BBB": 0.0, "CCC": -0.05}

		implied := ImpliedWeights(target, changes)

		var sum float64
		for _, w := range implied {
			sum += w
		}
		assert.InDelta(t, 1.0, sum, 1e-6)
		assert.Greater(t, implied["AAA"], 0.5, "appreciated ticker gains weight")
	})

	t.Run("all weights zero when total notional non-positive", func(t *testing.T) {
		target := map[string]float64{"AAA": 0.5, "BBB": 0.5}
		changes := map[string]float64{"AAA": -2.0, "BBB": -2.0}

		implied := ImpliedWeights(target, changes)

		for ticker, w := range implied {
			assert.Equal(t, 0.0, w, "weight for %s", ticker)
		}
	})

	t.Run("missing price change treated as zero", func(t *testing.T) {
		implied := ImpliedWeights(map[string]float64{"AAA": 0.6, "BBB": 0.4}, map[string]float64{})
		assert.InDelta(t, 0.6, implied["AAA"], 1e-9)
		assert.InDelta(t, 0.4, implied["BBB"], 1e-9)
	})
}

func TestRebalancingTrades(t *testing.T) {
	t.Run("overweight position sells to target", func(t *testing.T) {
		trades := RebalancingTrades(
			map[string]float64{"X": 0.12},
			map[string]float64{"X": 0.10},
			map[string]float64{"X": 300.0},
			1_000_000,
		)

		require.Contains(t, trades, "X")
		trade := trades["X"]
		assert.Equal(t, "SELL", trade.Action)
		assert.Equal(t, 67, trade.Shares) // round(20000/300)
		assert.InDelta(t, 20_000, trade.Value, 1e-6)
		assert.InDelta(t, 0.02, trade.Drift, 1e-9)
		assert.Equal(t, PriorityHigh, trade.Priority)
	})

	t.Run("action matches sign of target minus current", func(t *testing.T) {
		trades := RebalancingTrades(
			map[string]float64{"A": 0.05, "B": 0.15},
			map[string]float64{"A": 0.10, "B": 0.10},
			map[string]float64{"A": 50.0, "B": 50.0},
			1_000_000,
		)

		assert.Equal(t, "BUY", trades["A"].Action)
		assert.Equal(t, "SELL", trades["B"].Action)
	})

	t.Run("zero-share trades omitted", func(t *testing.T) {
		// Trade value $100 against a $1000 price rounds to zero shares.
		trades := RebalancingTrades(
			map[string]float64{"A": 0.1001},
			map[string]float64{"A": 0.1000},
			map[string]float64{"A": 1000.0},
			1_000_000,
		)
		assert.NotContains(t, trades, "A")
	})

	t.Run("non-positive live price skipped", func(t *testing.T) {
		trades := RebalancingTrades(
			map[string]float64{"A": 0.05},
			map[string]float64{"A": 0.10},
			map[string]float64{"A": 0.0},
			1_000_000,
		)
		assert.Empty(t, trades)
	})

	t.Run("no trade emits zero shares ever", func(t *testing.T) {
		trades := RebalancingTrades(
			map[string]float64{"A": 0.08, "B": 0.09, "C": 0.12},
			map[string]float64{"A": 0.10, "B": 0.10, "C": 0.10},
			map[string]float64{"A": 120.0, "B": 80.0, "C": 250.0},
			500_000,
		)
		for ticker, trade := range trades {
			assert.Greater(t, trade.Shares, 0, "trade for %s", ticker)
			assert.Greater(t, trade.Value, 0.0, "trade for %s", ticker)
		}
	})
}

func TestTradePriority(t *testing.T) {
	tests := []struct {
		drift float64
		want  Priority
	}{
		{0.035, PriorityCritical},
		{0.03, PriorityCritical},
		{0.025, PriorityHigh},
		{0.02, PriorityHigh},
		{0.018, PriorityMedium},
		{0.015, PriorityMedium},
		{0.01, PriorityLow},
		{0.0, PriorityLow},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TradePriority(tt.drift), "drift %.3f", tt.drift)
	}
}

func TestClassifyRegime(t *testing.T) {
	tests := []struct {
		name   string
		sharpe float64
		var95  float64
		want   Regime
	}{
		{"strong sharpe shallow var", 2.5, -0.01, RegimeLowVol},
		{"exactly at low vol floors", 2.0, -0.02, RegimeLowVol},
		{"good sharpe but deep var drops tier", 2.5, -0.022, RegimeModerate},
		{"moderate", 1.5, -0.022, RegimeModerate},
		{"high vol", 0.8, -0.03, RegimeHighVol},
		{"failing both floors", 0.2, -0.05, RegimeCrisis},
		{"sharpe ok var catastrophic", 2.5, -0.08, RegimeCrisis},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRegime(tt.sharpe, tt.var95))
		})
	}
}

func TestPriorityRank(t *testing.T) {
	assert.True(t, PriorityCritical.Rank() < PriorityHigh.Rank())
	assert.True(t, PriorityHigh.Rank() < PriorityMedium.Rank())
	assert.True(t, PriorityMedium.Rank() < PriorityLow.Rank())
}

func TestRoundingIsHalfAwayFromZero(t *testing.T) {
	// Documented rounding rule: math.Round, half away from zero.
	assert.Equal(t, 67.0, math.Round(20000.0/300.0))
	assert.Equal(t, -67.0, math.Round(-20000.0/300.0))
}
