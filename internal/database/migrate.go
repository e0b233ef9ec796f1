package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/rinniizz/crudapi/internal/database/migrations"
)

// Migrator applies the embedded schema migrations through goose
type Migrator struct {
	provider *goose.Provider
	logger   *slog.Logger
}

// NewMigrator builds a migrator over any database/sql handle to Postgres
func NewMigrator(db *sql.DB, logger *slog.Logger) (*Migrator, error) {
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{provider: provider, logger: logger}, nil
}

// Up applies every pending migration
func (m *Migrator) Up(ctx context.Context) error {
	results, err := m.provider.Up(ctx)
	for _, r := range results {
		m.logger.Info("migration applied",
			slog.String("source", r.Source.Path),
			slog.Duration("duration", r.Duration),
		)
	}
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

// Down rolls back the most recent migration
func (m *Migrator) Down(ctx context.Context) error {
	result, err := m.provider.Down(ctx)
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	if result != nil {
		m.logger.Info("migration rolled back", slog.String("source", result.Source.Path))
	}
	return nil
}

// Status logs the applied state of every known migration
func (m *Migrator) Status(ctx context.Context) error {
	statuses, err := m.provider.Status(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	for _, s := range statuses {
		attrs := []any{
			slog.Int64("version", s.Source.Version),
			slog.String("source", s.Source.Path),
			slog.String("state", string(s.State)),
		}
		if !s.AppliedAt.IsZero() {
			attrs = append(attrs, slog.Time("applied_at", s.AppliedAt))
		}
		m.logger.Info("migration", attrs...)
	}
	return nil
}
