package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attestiq/compliance-backend/internal/adapter/postgres"
	"github.com/attestiq/compliance-backend/internal/adapter/postgres/testhelper"
)

// documentExists checks whether a document row with the given ID exists.
func documentExists(t *testing.T, pool *pgxpool.Pool, id uuid.UUID) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(
		context.Background(),
		`SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		t.Fatalf("documentExists query: %v", err)
	}
	return exists
}

func insertDocument(ctx context.Context, q postgres.Querier, id uuid.UUID) error {
	_, err := q.Exec(ctx,
		`INSERT INTO documents (id, tenant_id, name, doc_type, size_bytes, status, created_at, updated_at)
		 VALUES ($1, $2, $3, 'policy', 1024, 'ready', now(), now())`,
		id, uuid.New(), "tx-test.pdf",
	)
	return err
}

func TestRunInTx_Commit(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	docID := uuid.New()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		return insertDocument(ctx, postgres.QuerierFromCtx(ctx, pool), docID)
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	if !documentExists(t, pool, docID) {
		t.Fatal("expected document to exist after committed transaction")
	}
}

func TestRunInTx_RollbackOnError(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	docID := uuid.New()
	sentinel := errors.New("business logic error")

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if execErr := insertDocument(ctx, postgres.QuerierFromCtx(ctx, pool), docID); execErr != nil {
			t.Fatalf("insert inside tx failed: %v", execErr)
		}
		return sentinel
	})

	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got: %v", err)
	}

	if documentExists(t, pool, docID) {
		t.Fatal("expected document NOT to exist after rolled-back transaction")
	}
}

func TestRunInTx_RollbackOnPanic(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	docID := uuid.New()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic to be re-raised")
		}
		if r != "test panic" {
			t.Fatalf("expected panic value %q, got %v", "test panic", r)
		}

		// Verify data was rolled back.
		if documentExists(t, pool, docID) {
			t.Fatal("expected document NOT to exist after panic-rolled-back transaction")
		}
	}()

	_ = tm.RunInTx(context.Background(), func(ctx context.Context) error {
		if err := insertDocument(ctx, postgres.QuerierFromCtx(ctx, pool), docID); err != nil {
			t.Fatalf("insert inside tx failed: %v", err)
		}
		panic("test panic")
	})
}

func TestRunInTx_QuerierFromCtx_UsesTx(t *testing.T) {
	pool := testhelper.SetupTestDB(t)
	tm := postgres.NewTxManager(pool)

	docID := uuid.New()

	err := tm.RunInTx(context.Background(), func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, pool)
		if err := insertDocument(ctx, q, docID); err != nil {
			return err
		}

		// Should be visible within the transaction.
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM documents WHERE id = $1)`, docID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			t.Fatal("expected document to be visible within the transaction")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("RunInTx returned error: %v", err)
	}

	// After commit, also visible outside.
	if !documentExists(t, pool, docID) {
		t.Fatal("expected document to exist after committed transaction")
	}
}
