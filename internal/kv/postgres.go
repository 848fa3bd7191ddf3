package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores items as rows of the storage_items table created by the
// embedded goose migrations.
type Postgres struct {
	db      db
	closeFn func()
}

// NewPostgres constructs a Postgres store over the provided connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
// The caller keeps ownership of db; Close is a no-op.
func NewPostgres(db db) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	const q = `SELECT value FROM storage_items WHERE key = @key`

	var v string
	err := p.db.QueryRow(ctx, q, pgx.NamedArgs{"key": key}).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv.Postgres.Get: %w", err)
	}
	return v, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	const q = `
		INSERT INTO storage_items (key, value)
		VALUES (@key, @value)
		ON CONFLICT (key) DO UPDATE
		SET value      = EXCLUDED.value,
		    updated_at = now()`

	if _, err := p.db.Exec(ctx, q, pgx.NamedArgs{"key": key, "value": value}); err != nil {
		return fmt.Errorf("kv.Postgres.Set: %w", err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	const q = `DELETE FROM storage_items WHERE key = @key`

	if _, err := p.db.Exec(ctx, q, pgx.NamedArgs{"key": key}); err != nil {
		return fmt.Errorf("kv.Postgres.Delete: %w", err)
	}
	return nil
}

func (p *Postgres) Driver() Driver { return DriverPostgres }

func (p *Postgres) Close() error {
	if p.closeFn != nil {
		p.closeFn()
	}
	return nil
}
