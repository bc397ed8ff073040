//go:build e2e

package e2e_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/attestiq/compliance-backend/internal/adapter/postgres/testhelper"
	"github.com/attestiq/compliance-backend/internal/app"
	"github.com/attestiq/compliance-backend/internal/config"
	"github.com/attestiq/compliance-backend/pkg/ctxutil"
)

// setupCore wires the full application against a containerized database.
func setupCore(t *testing.T) *app.Core {
	t.Helper()

	pool := testhelper.SetupTestDB(t)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg := &config.Config{
		Analysis: config.AnalysisConfig{
			Timeout:        time.Minute,
			MaxDocuments:   50,
			MaxPromptPacks: 10,
		},
		Reconcile: config.ReconcileConfig{
			BatchSize: 500,
			Timeout:   time.Minute,
		},
	}
	return app.NewCoreWithPool(pool, cfg, logger)
}

// callerCtx returns a context carrying a fresh tenant and the given actor.
func callerCtx(actor string) (context.Context, uuid.UUID) {
	tenantID := uuid.New()
	ctx := ctxutil.WithTenantID(context.Background(), tenantID)
	return ctxutil.WithActor(ctx, actor), tenantID
}
