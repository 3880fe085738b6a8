package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-ingest/pkg/logging"
	"github.com/ekaya-inc/ekaya-ingest/pkg/retry"
)

// Pool defaults applied when the corresponding Config field is zero.
const (
	defaultMaxConnections  int32 = 25
	defaultMaxConnLifetime       = time.Hour
	defaultMaxConnIdleTime       = 30 * time.Minute
)

// DB is the ingestion store's connection pool.
type DB struct {
	*pgxpool.Pool
}

// Config holds database connection configuration.
type Config struct {
	URL             string
	MaxConnections  int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

func (c *Config) poolConfig() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(c.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	pc.MaxConns = orDefault(c.MaxConnections, defaultMaxConnections)
	pc.MaxConnLifetime = orDefault(c.MaxConnLifetime, defaultMaxConnLifetime)
	pc.MaxConnIdleTime = orDefault(c.MaxConnIdleTime, defaultMaxConnIdleTime)
	return pc, nil
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// NewConnection opens the pool and verifies it with a ping.
func NewConnection(ctx context.Context, cfg *Config) (*DB, error) {
	pc, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	db := &DB{Pool: pool}
	if err := db.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// ConnectWithRetry opens the pool, retrying with backoff while the database comes up.
// Only startup goes through here; ingestion requests never retry.
func ConnectWithRetry(ctx context.Context, cfg *Config, retryCfg *retry.Config, logger *zap.Logger) (*DB, error) {
	attempt := 0
	return retry.DoWithResult(ctx, retryCfg, func() (*DB, error) {
		attempt++
		db, err := NewConnection(ctx, cfg)
		if err != nil {
			logger.Warn("Database not ready",
				zap.Int("attempt", attempt),
				zap.String("error", logging.SanitizeError(err)))
		}
		return db, err
	})
}

// Ping reports whether the database answers. It backs the readiness probe.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
