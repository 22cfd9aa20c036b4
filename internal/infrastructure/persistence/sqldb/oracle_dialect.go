package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jmanzanog/holdings-valuer/internal/domain"
	"github.com/jmanzanog/holdings-valuer/internal/infrastructure/persistence/sqldb/migrations"
)

type OracleDialect struct{}

func (d *OracleDialect) Name() string { return "oracle" }

// Migrate runs every embedded Oracle script. Goose has no go-ora dialect, so
// statements are split on '/' and objects that already exist are skipped.
func (d *OracleDialect) Migrate(ctx context.Context, db *sql.DB) error {
	files, err := fs.Glob(migrations.OracleFS, "oracle/*.sql")
	if err != nil {
		return fmt.Errorf("listing migration files: %w", err)
	}
	sort.Strings(files)

	for _, name := range files {
		content, err := migrations.OracleFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("reading migration file: %w", err)
		}

		for _, stmt := range strings.Split(string(content), "/") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}

			if _, err := db.ExecContext(ctx, stmt); err != nil {
				// ORA-00955: name is already used by an existing object
				if !strings.Contains(err.Error(), "ORA-00955") {
					return fmt.Errorf("migrating %s: %s: %w", name, stmt, err)
				}
			}
		}
	}
	return nil
}

// InsertHolding binds positionally. Oracle stores '' as NULL, so an empty
// exchange reads back as NULL and is scanned through sql.NullString.
func (d *OracleDialect) InsertHolding(ctx context.Context, tx *sql.Tx, seq int, h domain.Holding) error {
	query := `INSERT INTO holdings (seq, name, ticker, exchange_code, shares, cash_value, default_price)
             VALUES (:1, :2, :3, :4, :5, :6, :7)`

	_, err := tx.ExecContext(ctx, query,
		seq, h.Name, h.Ticker, h.Exchange, h.Shares,
		nullableDecimal(h.Value), nullableDecimal(h.DefaultPrice),
	)
	return err
}
