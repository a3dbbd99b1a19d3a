// Package main is the entry point for the nutrimatch service.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lueurxax/nutrimatch/internal/platform/config"
	db "github.com/lueurxax/nutrimatch/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "nutrimatch",
	Short: "Evidence-backed supplement recommendations",
	Long: `nutrimatch drafts supplement recommendations for a health goal and backs each one
with PubMed citations selected for relevance.

Subcommands: serve runs the HTTP API, migrate applies database migrations and
papers runs a single citation lookup.`,
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the process logger.
func setup() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	return cfg, newLogger(cfg.AppEnv, cfg.LogLevel), nil
}

func newLogger(appEnv, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(lvl).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}

// connect opens the database when a DSN is configured. It returns nil
// without error otherwise.
func connect(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*db.DB, error) {
	if !cfg.CacheEnabled() {
		return nil, nil
	}

	poolOpts := db.PoolOptions{
		MaxConns:          cfg.Database.MaxConnections,
		MinConns:          cfg.Database.MinConnections,
		MaxConnIdleTime:   cfg.Database.MaxConnIdleTime,
		MaxConnLifetime:   cfg.Database.MaxConnLifetime,
		HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
	}

	database, err := db.NewWithOptions(ctx, cfg.Database.PostgresDSN, poolOpts, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return database, nil
}
