package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestWithTenantID_And_TenantIDFromCtx(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	ctx := WithTenantID(context.Background(), id)

	got, ok := TenantIDFromCtx(ctx)
	if !ok {
		t.Fatal("expected ok=true for valid UUID")
	}
	if got != id {
		t.Fatalf("expected %s, got %s", id, got)
	}
}

func TestTenantIDFromCtx_EmptyContext(t *testing.T) {
	t.Parallel()

	got, ok := TenantIDFromCtx(context.Background())
	if ok {
		t.Fatal("expected ok=false for empty context")
	}
	if got != uuid.Nil {
		t.Fatalf("expected uuid.Nil, got %s", got)
	}
}

func TestTenantIDFromCtx_NilUUID(t *testing.T) {
	t.Parallel()

	ctx := WithTenantID(context.Background(), uuid.Nil)

	got, ok := TenantIDFromCtx(ctx)
	if ok {
		t.Fatal("expected ok=false for uuid.Nil")
	}
	if got != uuid.Nil {
		t.Fatalf("expected uuid.Nil, got %s", got)
	}
}

func TestTenantIDFromCtx_WrongType(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), ctxKey("tenant_id"), "not-a-uuid")

	got, ok := TenantIDFromCtx(ctx)
	if ok {
		t.Fatal("expected ok=false for wrong type")
	}
	if got != uuid.Nil {
		t.Fatalf("expected uuid.Nil, got %s", got)
	}
}

func TestWithActor_And_ActorFromCtx(t *testing.T) {
	t.Parallel()

	ctx := WithActor(context.Background(), "reviewer@example.com")

	got, ok := ActorFromCtx(ctx)
	if !ok {
		t.Fatal("expected ok=true for non-empty actor")
	}
	if got != "reviewer@example.com" {
		t.Fatalf("expected reviewer@example.com, got %s", got)
	}
}

func TestActorFromCtx_EmptyContext(t *testing.T) {
	t.Parallel()

	got, ok := ActorFromCtx(context.Background())
	if ok {
		t.Fatal("expected ok=false for empty context")
	}
	if got != "" {
		t.Fatalf("expected empty string, got %s", got)
	}
}

func TestWithRequestID_And_RequestIDFromCtx(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "req-123")

	got := RequestIDFromCtx(ctx)
	if got != "req-123" {
		t.Fatalf("expected req-123, got %s", got)
	}
}

func TestRequestIDFromCtx_WrongType(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), ctxKey("request_id"), 12345)

	got := RequestIDFromCtx(ctx)
	if got != "" {
		t.Fatalf("expected empty string, got %s", got)
	}
}
