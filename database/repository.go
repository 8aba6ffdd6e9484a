package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// repository is the SQL-backed Store. The tracking table has a single integer
// column id.
type repository struct {
	db    *Database
	table string
}

func newRepository(db *Database, table string) *repository {
	return &repository{db: db, table: pq.QuoteIdentifier(table)}
}

func (r *repository) EnsureTable(ctx context.Context) error {
	err := r.db.withConn(ctx, func(conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY)", r.table))
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create migration tracking table: %w", err)
	}
	return nil
}

func (r *repository) HighestApplied(ctx context.Context) (int, error) {
	var version int
	err := r.db.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, &version, fmt.Sprintf("SELECT COALESCE(MAX(id), 0) FROM %s", r.table))
	})
	if err != nil {
		return 0, fmt.Errorf("failed to select highest applied migration: %w", err)
	}
	return version, nil
}

func (r *repository) RecordApplied(ctx context.Context, version int) error {
	err := r.db.withConn(ctx, func(conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, conn.Rebind(fmt.Sprintf("INSERT INTO %s (id) VALUES (?)", r.table)), version)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to record migration %d: %w", version, err)
	}
	return nil
}

func (r *repository) Apply(ctx context.Context, payload string) error {
	err := r.db.withConn(ctx, func(conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, payload)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to apply migration: %w", err)
	}
	return nil
}
