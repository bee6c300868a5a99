// Package main implements the entry point for the taskhub API server,
// which manages users and the tasks they own.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
)

func main() {
	migrateCmd := flag.String("migrate", "",
		"run a migration command (up, down, reset, status, version) and exit")
	flag.Parse()

	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	if err := run(context.Background(), *migrateCmd); err != nil {
		slog.Error("taskhub exited with error", "error", err)
		os.Exit(1)
	}
}

// run loads configuration, then either applies a migration command or
// serves HTTP until SIGINT or SIGTERM.
func run(ctx context.Context, migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"driver", cfg.Database.Driver,
		"cache_enabled", cfg.Cache.Enabled)

	if migrateCmd != "" {
		return runMigrations(ctx, cfg, log, migrateCmd)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return app.Run(ctx)
}
