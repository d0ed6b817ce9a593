package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"listify_echo/internal/config"
	"listify_echo/internal/logging"
	"listify_echo/internal/services"
	"listify_echo/internal/tasks"
)

const pollInterval = 5 * time.Minute

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL not set")
		os.Exit(1)
	}

	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	// shares the server's cache so payments created here clear stale balances
	cache := services.OpenCache(cfg.RedisURL)
	defer cache.Close()

	balances := services.NewBalanceService(db, cache, cfg.BalanceCacheTTL)
	registry := tasks.NewRegistry()
	tasks.DefineTasks(registry, tasks.Deps{
		Payments: services.NewPaymentService(db, balances),
		Balances: balances,
		Items:    services.NewItemService(db),
		Mailer:   services.NewEmailService(cfg.SMTP),
		WhatsApp: services.NewWahaService(cfg.Waha),
	})
	runner := tasks.NewRunner(db, registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("worker started", "tasks", registry.Names(), "interval", pollInterval)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	// one pass at startup, then every tick
	runOnce(ctx, runner)
	for {
		select {
		case <-ticker.C:
			runOnce(ctx, runner)
		case <-ctx.Done():
			slog.Info("shutting down worker")
			return
		}
	}
}

func runOnce(ctx context.Context, runner *tasks.Runner) {
	if _, err := runner.RunDue(ctx); err != nil && ctx.Err() == nil {
		slog.Error("failed to process scheduled tasks", "error", err)
	}
}
