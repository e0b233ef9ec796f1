package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rinniizz/crudapi/internal/config"
)

type DB struct {
	Pool           *pgxpool.Pool
	logger         *slog.Logger
	acquireTimeout time.Duration
}

func NewConnection(cfg *config.DatabaseConfig, logger *slog.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	// Configure connection pool
	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod

	// Create connection pool with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	logger.Info("database connection established",
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Name),
		slog.Int("max_conns", int(cfg.MaxConns)),
		slog.Int("min_conns", int(cfg.MinConns)),
		slog.Duration("acquire_timeout", cfg.AcquireTimeout),
	)

	return &DB{Pool: pool, logger: logger, acquireTimeout: cfg.AcquireTimeout}, nil
}

// NewFromPool wraps an existing pool, e.g. one created by a test harness
func NewFromPool(pool *pgxpool.Pool, logger *slog.Logger, acquireTimeout time.Duration) *DB {
	if logger == nil {
		logger = slog.Default()
	}
	return &DB{Pool: pool, logger: logger, acquireTimeout: acquireTimeout}
}

// OpContext bounds a single repository operation by the configured acquire
// timeout. With no timeout configured it returns ctx unchanged.
func (db *DB) OpContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if db.acquireTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, db.acquireTimeout)
}

func (db *DB) Close() {
	db.logger.Info("closing database connection pool")
	db.Pool.Close()
}

func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

func (db *DB) Stats() *pgxpool.Stat {
	return db.Pool.Stat()
}
