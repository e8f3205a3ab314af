// Package store persists companies, accounts, positions and price history
// in a SQL database through sqlx. SQLite is the embedded default; PostgreSQL
// is reachable through the pgx stdlib driver.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/efreitasn/toymarket/internal/domain"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// DefaultTimeout bounds every store call when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Querier is satisfied by both *sqlx.DB and *sqlx.Tx, so row functions run
// unchanged inside or outside a transaction.
type Querier interface {
	sqlx.ExtContext
}

// DB wraps a sqlx handle with a per-call timeout.
type DB struct {
	db      *sqlx.DB
	driver  string
	timeout time.Duration
	logger  *zap.Logger
}

// Open connects to the database, verifies the connection and creates the
// schema if needed.
func Open(ctx context.Context, driver, dsn string, timeout time.Duration, logger *zap.Logger) (*DB, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, unavailable("open", err)
	}
	d, err := New(ctx, db, timeout, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

// New wraps an existing sqlx handle, pings it and applies the schema.
func New(ctx context.Context, db *sqlx.DB, timeout time.Duration, logger *zap.Logger) (*DB, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	driver := db.DriverName()
	if driver == DriverSQLite {
		// SQLite has a single writer; one connection also keeps an
		// in-memory database alive for the lifetime of the handle.
		db.SetMaxOpenConns(1)
	}
	d := &DB{db: db, driver: driver, timeout: timeout, logger: logger}
	if err := d.Ping(ctx); err != nil {
		return nil, err
	}
	if err := d.Migrate(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Ping checks that the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Migrate creates the tables and indexes if they do not exist.
func (d *DB) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	stmts := postgresSchema
	if d.driver == DriverSQLite {
		stmts = append(append([]string{}, sqlitePragmas...), sqliteSchema...)
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return unavailable("migrate", err)
		}
	}
	d.logger.Debug("schema ready", zap.String("driver", d.driver))
	return nil
}

// Close releases the underlying connections.
func (d *DB) Close() error {
	return d.db.Close()
}

// Driver returns the database/sql driver name.
func (d *DB) Driver() string {
	return d.driver
}

// Read runs fn against the database outside of a transaction, bounded by
// the store timeout.
func (d *DB) Read(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return fn(ctx, d.db)
}

// InTx runs fn inside a transaction bounded by the store timeout. The
// transaction commits only if fn returns nil; any error from fn is
// returned unchanged after rollback. Begin and commit failures are
// reported as domain.ErrPersistenceUnavailable.
//
// fn must only use the Querier it is given.
func (d *DB) InTx(ctx context.Context, fn func(ctx context.Context, q Querier) error) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return unavailable("begin", err)
	}
	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			d.logger.Warn("rollback failed", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return unavailable("commit", err)
	}
	return nil
}

// unavailable wraps a driver error as a retryable persistence failure.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrPersistenceUnavailable, op, err)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
