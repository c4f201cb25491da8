// Package rediscache provides a read-through Redis cache for live quotes,
// decorating any QuoteSource with a per-quote TTL.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/datasource"
)

const keyPrefix = "quote:"

// QuoteCache caches quotes from an inner source in Redis.
type QuoteCache struct {
	inner  datasource.QuoteSource
	client *redis.Client
	ttl    time.Duration
}

// Connect dials Redis and wraps inner with a quote cache.
func Connect(addr string, inner datasource.QuoteSource, ttl time.Duration) (*QuoteCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return New(client, inner, ttl), nil
}

// New wraps an existing client, mainly for tests.
func New(client *redis.Client, inner datasource.QuoteSource, ttl time.Duration) *QuoteCache {
	return &QuoteCache{inner: inner, client: client, ttl: ttl}
}

// Quote serves from cache when possible, falling back to the inner source.
// Cache write failures are logged, not fatal: a stale cache must never abort
// a monitoring cycle.
func (c *QuoteCache) Quote(ctx context.Context, ticker string) (datasource.Quote, error) {
	key := keyPrefix + ticker

	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var q datasource.Quote
		if err := json.Unmarshal([]byte(val), &q); err == nil {
			return q, nil
		}
		// Unparseable entry: fall through and refresh.
	} else if err != redis.Nil {
		return datasource.Quote{}, fmt.Errorf("redis get %s: %w", key, err)
	}

	q, err := c.inner.Quote(ctx, ticker)
	if err != nil {
		return datasource.Quote{}, err
	}

	payload, err := json.Marshal(q)
	if err != nil {
		return datasource.Quote{}, fmt.Errorf("failed to marshal quote %s: %w", ticker, err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("quote cache write failed")
	}

	return q, nil
}
