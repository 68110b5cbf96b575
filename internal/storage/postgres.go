package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// PostgresStore implements Store interface for PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store and applies the schema
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return s, nil
}

// SetPool applies connection pool limits; zero values keep the driver defaults
func (s *PostgresStore) SetPool(maxOpen, maxIdle int, maxLifetime time.Duration) {
	if maxOpen > 0 {
		s.db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		s.db.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime > 0 {
		s.db.SetConnMaxLifetime(maxLifetime)
	}
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tenants (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		name TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		owner TEXT NOT NULL DEFAULT '',
		plmn_id BIGINT NOT NULL DEFAULT 0,
		bssid_type TEXT NOT NULL DEFAULT 'unique' CHECK(bssid_type IN ('unique', 'shared')),
		prefix TEXT NOT NULL DEFAULT '',
		vbses TEXT[] NOT NULL DEFAULT '{}',
		vaps TEXT[] NOT NULL DEFAULT '{}',
		is_active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_tenants_plmn ON tenants(plmn_id) WHERE plmn_id <> 0;

	CREATE TABLE IF NOT EXISTS vbses (
		addr TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		supports JSONB NOT NULL DEFAULT '[]'
	);

	CREATE TABLE IF NOT EXISTS event_logs (
		id UUID PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		tenant_id UUID,
		vbs TEXT NOT NULL DEFAULT '',
		ue TEXT NOT NULL DEFAULT '',
		type TEXT NOT NULL,
		level TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		details JSONB
	);

	CREATE INDEX IF NOT EXISTS idx_event_logs_created_at ON event_logs(created_at);
	CREATE INDEX IF NOT EXISTS idx_event_logs_vbs ON event_logs(vbs);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// isUniqueViolation reports a postgres unique_violation (23505)
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

// sqlLimit maps a non-positive limit to NULL, which postgres treats as no limit
func sqlLimit(limit int) interface{} {
	if limit <= 0 {
		return nil
	}
	return limit
}
