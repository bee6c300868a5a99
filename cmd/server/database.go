package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/phrazzld/taskhub-api/internal/platform/postgres"
	"github.com/phrazzld/taskhub-api/internal/platform/sqlite"
	"gorm.io/gorm"
)

const pingTimeout = 5 * time.Second

// openPostgres opens the pgx-backed pool and verifies the server answers.
func openPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established", "driver", config.DriverPostgres)
	return db, nil
}

func openSQLite(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*gorm.DB, error) {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	db, err := sqlite.Open(pingCtx, cfg.URL, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established", "driver", config.DriverSQLite)
	return db, nil
}

// runMigrations applies command to the configured database. PostgreSQL
// supports every goose command; SQLite only supports up.
func runMigrations(ctx context.Context, cfg *config.Config, logger *slog.Logger, command string) error {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := openPostgres(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, command, logger)

	case config.DriverSQLite:
		if command != "up" {
			return fmt.Errorf("sqlite only supports the up migration command, got %q", command)
		}
		db, err := openSQLite(ctx, cfg.Database, logger)
		if err != nil {
			return err
		}
		defer func() { _ = sqlite.Close(db) }()
		if err := sqlite.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("sqlite schema migrated")
		return nil

	default:
		return fmt.Errorf("driver %q has no migrations", cfg.Database.Driver)
	}
}
