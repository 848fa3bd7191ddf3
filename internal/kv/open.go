package kv

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/shumpiss/pinlog/migrations"
)

// Config selects and configures a backend for Open.
type Config struct {
	Driver Driver

	// SQLitePath is the database file when Driver is sqlite.
	SQLitePath string

	// DatabaseURL is the Postgres connection string when Driver is postgres.
	DatabaseURL string

	// RedisURL and RedisPrefix configure the redis driver.
	RedisURL    string
	RedisPrefix string

	// S3 configures the s3 driver.
	S3 S3Config
}

// Open constructs the Store named by cfg.Driver. An empty driver means memory.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(ctx, cfg.SQLitePath)
	case DriverPostgres:
		return openPostgres(ctx, cfg.DatabaseURL, log)
	case DriverRedis:
		return OpenRedis(ctx, cfg.RedisURL, cfg.RedisPrefix)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("kv.Open: unknown driver %q", cfg.Driver)
	}
}

// openPostgres opens a pool, verifies the database is reachable and applies
// the embedded migrations before handing out the store.
func openPostgres(ctx context.Context, dsn string, log *slog.Logger) (*Postgres, error) {
	// pgxpool manages a pool of Postgres connections.
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("kv.openPostgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("kv.openPostgres: ping: %w", err)
	}

	// goose needs database/sql; borrow connections from the same pool.
	sqlDB := stdlib.OpenDBFromPool(pool)
	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, migrations.FS)
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return nil, fmt.Errorf("kv.openPostgres: create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return nil, fmt.Errorf("kv.openPostgres: run migrations: %w", err)
	}
	log.Info("postgres item store ready", "migrations_applied", len(results))

	p := NewPostgres(pool)
	p.closeFn = func() {
		_ = sqlDB.Close()
		pool.Close()
	}
	return p, nil
}
