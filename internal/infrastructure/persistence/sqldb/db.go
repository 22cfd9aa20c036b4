package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type DB struct {
	*sql.DB
	Dialect Dialect
}

func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{
		DB:      db,
		Dialect: dialect,
	}
}

// DialectFor maps a store driver name to its database/sql driver and dialect.
func DialectFor(driver string) (string, Dialect, error) {
	switch driver {
	case "postgres":
		return "pgx", &PostgresDialect{}, nil
	case "oracle":
		return "oracle", &OracleDialect{}, nil
	default:
		return "", nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// Open connects, pings and migrates. The caller registers the database/sql
// driver with a blank import.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	sqlDriver, dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := dialect.Migrate(migrateCtx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return New(db, dialect), nil
}

func (db *DB) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
