package sqldb

import (
	"context"
	"database/sql"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
)

// Dialect isolates the SQL that differs between databases.
type Dialect interface {
	Name() string
	Migrate(ctx context.Context, db *sql.DB) error
	InsertHolding(ctx context.Context, tx *sql.Tx, seq int, h domain.Holding) error
}

const (
	selectHoldingsQuery = `SELECT seq, name, ticker, exchange_code, shares, cash_value, default_price FROM holdings ORDER BY seq`
	deleteHoldingsQuery = `DELETE FROM holdings`
)

// nullableDecimal binds an optional decimal as NULL or its plain string form.
func nullableDecimal(d *domain.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}
