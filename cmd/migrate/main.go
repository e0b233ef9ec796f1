package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/rinniizz/crudapi/internal/config"
	"github.com/rinniizz/crudapi/internal/database"
	"github.com/rinniizz/crudapi/internal/observability"
	pkgauth "github.com/rinniizz/crudapi/pkg/auth"
)

const usage = `Usage: migrate [flags] <command>

Commands:
  up      apply all pending migrations
  down    roll back the most recent migration
  status  list migrations and whether they are applied
  seed    insert the sample users (existing emails are skipped)

Flags:
`

func main() {
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall time limit for the command")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	logger := observability.NewLogger(*logLevel)

	cfg, err := config.LoadDatabase()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	cmd := flag.Arg(0)
	switch cmd {
	case "up", "down", "status":
		err = runMigration(ctx, cfg, logger, cmd)
	case "seed":
		err = runSeed(ctx, cfg, logger)
	default:
		flag.Usage()
		cancel()
		os.Exit(2)
	}

	if err != nil {
		logger.Error("command failed", slog.String("command", cmd), slog.Any("error", err))
		cancel()
		os.Exit(1)
	}
}

func runMigration(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger, cmd string) error {
	db, err := sql.Open("postgres", cfg.URL())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	migrator, err := database.NewMigrator(db, logger)
	if err != nil {
		return err
	}

	switch cmd {
	case "up":
		return migrator.Up(ctx)
	case "down":
		return migrator.Down(ctx)
	default:
		return migrator.Status(ctx)
	}
}

func runSeed(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) error {
	db, err := database.NewConnection(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	hasher := pkgauth.NewPasswordHasher(pkgauth.DefaultBcryptCost)
	inserted, err := db.Seed(ctx, hasher, database.DefaultSeedUsers)
	if err != nil {
		return err
	}

	logger.Info("seed completed",
		slog.Int("inserted", inserted),
		slog.Int("skipped", len(database.DefaultSeedUsers)-inserted),
	)
	return nil
}
