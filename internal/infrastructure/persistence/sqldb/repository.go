package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
)

type Repository struct {
	db *DB
}

func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// ReplaceAll swaps the whole portfolio in one transaction.
func (r *Repository) ReplaceAll(ctx context.Context, holdings []domain.Holding) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteHoldingsQuery); err != nil {
			slog.ErrorContext(ctx, "Failed to clear holdings", "dialect", r.db.Dialect.Name(), "error", err)
			return fmt.Errorf("clear holdings: %w", err)
		}

		for i, h := range holdings {
			if err := r.db.Dialect.InsertHolding(ctx, tx, i, h); err != nil {
				slog.ErrorContext(ctx, "Failed to save holding", "seq", i, "ticker", h.Ticker, "error", err)
				return fmt.Errorf("insert holding %s: %w", h.Ticker, err)
			}
		}
		return nil
	})
}

func (r *Repository) List(ctx context.Context) ([]domain.Holding, error) {
	rows, err := r.db.QueryContext(ctx, selectHoldingsQuery)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to query holdings", "error", err)
		return nil, fmt.Errorf("querying holdings: %w", err)
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			slog.Error("Failed to close rows", "error", err)
		}
	}(rows)

	holdings := make([]domain.Holding, 0)
	for rows.Next() {
		var (
			seq                     int
			h                       domain.Holding
			exchange                sql.NullString
			cashValue, defaultPrice sql.NullString
		)
		if err := rows.Scan(&seq, &h.Name, &h.Ticker, &exchange, &h.Shares, &cashValue, &defaultPrice); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		h.Exchange = exchange.String

		if h.Value, err = parseNullable(cashValue); err != nil {
			return nil, fmt.Errorf("cash value of %s: %w", h.Ticker, err)
		}
		if h.DefaultPrice, err = parseNullable(defaultPrice); err != nil {
			return nil, fmt.Errorf("default price of %s: %w", h.Ticker, err)
		}
		holdings = append(holdings, h)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return holdings, nil
}

func parseNullable(s sql.NullString) (*domain.Decimal, error) {
	if !s.Valid {
		return nil, nil
	}
	d, err := domain.NewDecimalFromString(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
