package datasource

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticQuoteLookup(t *testing.T) {
	s := NewStatic(nil, map[string]float64{"AAPL": 195.20}, nil)

	q, err := s.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 195.20, q.Price)

	_, err = s.Quote(context.Background(), "MISSING")
	assert.Error(t, err)
}

func TestStaticNilRiskSnapshot(t *testing.T) {
	s := NewStatic(nil, nil, nil)

	snap, err := s.RiskSnapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestDemoCoversConfiguredUniverse(t *testing.T) {
	demo := NewDemo()

	holdings, err := demo.Holdings(context.Background())
	require.NoError(t, err)
	assert.Len(t, holdings, 13)

	for _, h := range holdings {
		q, err := demo.Quote(context.Background(), h.Ticker)
		require.NoError(t, err, "quote for %s", h.Ticker)
		assert.Greater(t, q.Price, 0.0)
	}

	snap, err := demo.RiskSnapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Negative(t, snap.VaR95)
}

func TestCompositeDelegates(t *testing.T) {
	holdingsOnly := NewStatic([]Holding{{Ticker: "AAPL", Price: 185}}, nil, nil)
	quotesOnly := NewStatic(nil, map[string]float64{"AAPL": 195.20}, nil)

	var md MarketData = Composite{
		HoldingSource: holdingsOnly,
		QuoteSource:   quotesOnly,
		RiskSource:    holdingsOnly,
	}

	holdings, err := md.Holdings(context.Background())
	require.NoError(t, err)
	assert.Len(t, holdings, 1)

	q, err := md.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 195.20, q.Price)
}
