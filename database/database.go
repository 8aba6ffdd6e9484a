// Package database provides the connection pool and forward-only schema migrations.
package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/platforma-dev/yatb/config"
	"github.com/platforma-dev/yatb/log"
)

// Database is the shared connection pool.
// Every operation checks out one connection and returns it when done.
type Database struct {
	conn *sqlx.DB
}

// New opens the pool described by cfg without dialing the store.
// Use Ping to check connectivity.
func New(cfg config.Database) (*Database, error) {
	db, err := sqlx.Open(cfg.Driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &Database{conn: db}, nil
}

// NewWithConnection wraps an already opened pool.
func NewWithConnection(conn *sqlx.DB) *Database {
	return &Database{conn: conn}
}

// Connection returns the underlying sqlx database connection.
func (db *Database) Connection() *sqlx.DB {
	return db.conn
}

// Ping checks that a connection to the store can be established.
func (db *Database) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// Close closes the pool.
func (db *Database) Close() error {
	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// Stats returns pool statistics.
func (db *Database) Stats() sql.DBStats {
	return db.conn.Stats()
}

// Store returns the migration Store backed by the given tracking table.
func (db *Database) Store(table string) Store {
	return newRepository(db, table)
}

// withConn checks out a single connection for fn and releases it on every path.
func (db *Database) withConn(ctx context.Context, fn func(conn *sqlx.Conn) error) error {
	conn, err := db.conn.Connx(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return fn(conn)
}

// Exec runs a statement that returns no rows.
// Queries use ? placeholders and are rebound for the driver.
func (db *Database) Exec(ctx context.Context, query string, args ...any) error {
	return db.withConn(ctx, func(conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, conn.Rebind(query), args...)
		if err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		return nil
	})
}

// Get scans a single row into dest.
func (db *Database) Get(ctx context.Context, dest any, query string, args ...any) error {
	return db.withConn(ctx, func(conn *sqlx.Conn) error {
		err := conn.GetContext(ctx, dest, conn.Rebind(query), args...)
		if err != nil {
			return fmt.Errorf("failed to get row: %w", err)
		}
		return nil
	})
}

// Select scans all rows into dest, which must be a pointer to a slice.
func (db *Database) Select(ctx context.Context, dest any, query string, args ...any) error {
	return db.withConn(ctx, func(conn *sqlx.Conn) error {
		err := conn.SelectContext(ctx, dest, conn.Rebind(query), args...)
		if err != nil {
			return fmt.Errorf("failed to select rows: %w", err)
		}
		return nil
	})
}

// LogStats logs a snapshot of the pool statistics.
func (db *Database) LogStats(ctx context.Context) error {
	stats := db.conn.Stats()

	log.InfoContext(ctx, "connection pool stats",
		"open", stats.OpenConnections,
		"inUse", stats.InUse,
		"idle", stats.Idle,
		"waitCount", stats.WaitCount,
		"waitDuration", stats.WaitDuration,
		"maxLifetimeClosed", stats.MaxLifetimeClosed,
	)

	return nil
}
