package utils

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PgxDriver is the database/sql driver name registered by pgx/v5/stdlib.
const PgxDriver = "pgx"

// PostgresPoolConfig sizes the database/sql pool. Run history writes one
// row per provisioning run, so the defaults are small.
type PostgresPoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

func (c PostgresPoolConfig) withDefaults() PostgresPoolConfig {
	out := c
	if out.MaxOpenConns <= 0 {
		out.MaxOpenConns = 4
	}
	if out.MaxIdleConns <= 0 || out.MaxIdleConns > out.MaxOpenConns {
		out.MaxIdleConns = min(2, out.MaxOpenConns)
	}
	if out.ConnMaxLifetime <= 0 {
		out.ConnMaxLifetime = 15 * time.Minute
	}
	if out.PingTimeout <= 0 {
		out.PingTimeout = 3 * time.Second
	}
	return out
}

// OpenPostgres opens a pgx-backed *sql.DB and pings it.
// dsn must not be logged; it contains secrets.
func OpenPostgres(ctx context.Context, dsn string, pool PostgresPoolConfig) (*sql.DB, error) {
	pool = pool.withDefaults()

	db, err := sql.Open(PgxDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}
	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	if err := HealthCheck(ctx, db, pool.PingTimeout); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// HealthCheck pings the DB with a timeout.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	return nil
}

// TxFunc is the unit of work executed inside a transaction.
type TxFunc func(ctx context.Context, tx *sql.Tx) error

// WithTx runs fn inside a transaction. The tx is rolled back when fn
// returns an error or panics, and committed otherwise.
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn TxFunc) (err error) {
	if db == nil {
		return fmt.Errorf("postgres: nil db")
	}
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(ctx, tx)
}

// ApplySchema executes idempotent DDL statements in one transaction.
func ApplySchema(ctx context.Context, db *sql.DB, statements ...string) error {
	return WithTx(ctx, db, nil, func(ctx context.Context, tx *sql.Tx) error {
		for i, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("schema statement %d: %w", i, err)
			}
		}
		return nil
	})
}
