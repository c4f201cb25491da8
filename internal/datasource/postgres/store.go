// Package postgres implements the holdings and risk metric reads of the
// market data collaborator against PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/datasource"
	"github.com/AndreChuabio/autonomous-portfolio-rebalancer/internal/domain/portfolio"
)

// Store serves holdings and risk snapshots from Postgres. It does not serve
// live quotes; compose it with a quote feed via datasource.Composite.
type Store struct {
	db      *sqlx.DB
	timeout time.Duration
}

// Connect opens a Postgres connection and verifies it.
func Connect(dsn string, timeout time.Duration) (*Store, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return NewStore(db, timeout), nil
}

// NewStore wraps an existing connection, mainly for tests.
func NewStore(db *sqlx.DB, timeout time.Duration) *Store {
	return &Store{db: db, timeout: timeout}
}

// Holdings returns the latest stored row per ticker.
func (s *Store) Holdings(ctx context.Context) ([]datasource.Holding, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT DISTINCT ON (ticker) ticker, price, as_of
		FROM portfolio_holdings
		ORDER BY ticker, as_of DESC`

	rows, err := s.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	var holdings []datasource.Holding
	for rows.Next() {
		var h datasource.Holding
		if err := rows.Scan(&h.Ticker, &h.Price, &h.AsOf); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// RiskSnapshot returns the most recent risk metrics row, or nil when the
// table is empty so the monitor can substitute its benign defaults.
func (s *Store) RiskSnapshot(ctx context.Context) (*portfolio.RiskSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT as_of, var_95, expected_shortfall, sharpe_ratio, beta, volatility
		FROM risk_metrics
		ORDER BY as_of DESC
		LIMIT 1`

	var snap portfolio.RiskSnapshot
	row := s.db.QueryRowxContext(ctx, query)
	err := row.Scan(&snap.AsOf, &snap.VaR95, &snap.ExpectedShortfall,
		&snap.SharpeRatio, &snap.Beta, &snap.Volatility)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query risk snapshot: %w", err)
	}

	return &snap, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
