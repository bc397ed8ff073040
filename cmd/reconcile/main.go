// Command reconcile removes records left behind by assessment deletion,
// which does not cascade. It is intended to be invoked by an external cron
// job, not as an in-process goroutine.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/attestiq/compliance-backend/internal/app"
	"github.com/attestiq/compliance-backend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Reconcile.Timeout)
	defer cancel()

	core, err := app.NewCore(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer core.Close()

	stats, err := core.Reconcile.Sweep(ctx)
	if err != nil {
		logger.Error("sweep failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("sweep completed",
		slog.Int("assessments", stats.Assessments),
		slog.Int64("attestations", stats.Attestations),
	)
	for entityType, n := range stats.Records {
		logger.Info("records swept",
			slog.String("entity", string(entityType)),
			slog.Int64("deleted", n),
		)
	}
}
