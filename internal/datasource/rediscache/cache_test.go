package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/datasource"
)

type countingSource struct {
	quotes map[string]datasource.Quote
	err    error
	calls  int
}

func (c *countingSource) Quote(_ context.Context, ticker string) (datasource.Quote, error) {
	c.calls++
	if c.err != nil {
		return datasource.Quote{}, c.err
	}
	return c.quotes[ticker], nil
}

func TestQuoteCacheHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cached := datasource.Quote{Ticker: "AAPL", Price: 195.20, AsOf: time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)
	mock.ExpectGet("quote:AAPL").SetVal(string(payload))

	inner := &countingSource{}
	cache := New(db, inner, time.Minute)

	q, err := cache.Quote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, cached, q)
	assert.Equal(t, 0, inner.calls, "hit must not touch the inner source")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteCacheMissPopulates(t *testing.T) {
	db, mock := redismock.NewClientMock()
	fresh := datasource.Quote{Ticker: "MSFT", Price: 428.50}
	payload, err := json.Marshal(fresh)
	require.NoError(t, err)

	mock.ExpectGet("quote:MSFT").RedisNil()
	mock.ExpectSet("quote:MSFT", payload, time.Minute).SetVal("OK")

	inner := &countingSource{quotes: map[string]datasource.Quote{"MSFT": fresh}}
	cache := New(db, inner, time.Minute)

	q, err := cache.Quote(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, fresh, q)
	assert.Equal(t, 1, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteCacheWriteFailureNotFatal(t *testing.T) {
	db, mock := redismock.NewClientMock()
	fresh := datasource.Quote{Ticker: "NVDA", Price: 131.40}
	payload, err := json.Marshal(fresh)
	require.NoError(t, err)

	mock.ExpectGet("quote:NVDA").RedisNil()
	mock.ExpectSet("quote:NVDA", payload, time.Minute).SetErr(errors.New("OOM"))

	inner := &countingSource{quotes: map[string]datasource.Quote{"NVDA": fresh}}
	cache := New(db, inner, time.Minute)

	q, err := cache.Quote(context.Background(), "NVDA")
	require.NoError(t, err, "stale cache must never abort a cycle")
	assert.Equal(t, fresh, q)
}

func TestQuoteCacheCorruptEntryRefreshes(t *testing.T) {
	db, mock := redismock.NewClientMock()
	fresh := datasource.Quote{Ticker: "XOM", Price: 112.80}
	payload, err := json.Marshal(fresh)
	require.NoError(t, err)

	mock.ExpectGet("quote:XOM").SetVal("{not json")
	mock.ExpectSet("quote:XOM", payload, time.Minute).SetVal("OK")

	inner := &countingSource{quotes: map[string]datasource.Quote{"XOM": fresh}}
	cache := New(db, inner, time.Minute)

	q, err := cache.Quote(context.Background(), "XOM")
	require.NoError(t, err)
	assert.Equal(t, fresh, q)
	assert.Equal(t, 1, inner.calls, "corrupt entry falls through to the source")
}

func TestQuoteCacheInnerFailurePropagates(t *testing.T) {
	db, mock := redismock.NewClientMock()
	mock.ExpectGet("quote:SPY").RedisNil()

	inner := &countingSource{err: errors.New("feed unavailable")}
	cache := New(db, inner, time.Minute)

	_, err := cache.Quote(context.Background(), "SPY")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed unavailable")
}
