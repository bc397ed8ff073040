package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/attestiq/compliance-backend/internal/domain"
)

func TestMapError_Nil(t *testing.T) {
	t.Parallel()

	got := MapError(nil, "requirement", uuid.New())
	if got != nil {
		t.Errorf("MapError(nil) = %v, want nil", got)
	}
}

func TestMapError_NoRows(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	got := MapError(pgx.ErrNoRows, "requirement", id)

	if got == nil {
		t.Fatal("MapError(ErrNoRows) = nil, want error")
	}
	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
	if want := fmt.Sprintf("requirement %s: not found", id); got.Error() != want {
		t.Errorf("MapError(ErrNoRows).Error() = %q, want %q", got.Error(), want)
	}
}

func TestMapError_WrappedNoRows(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	wrapped := fmt.Errorf("scan row: %w", pgx.ErrNoRows)
	got := MapError(wrapped, "assessment", id)

	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(wrapped ErrNoRows) does not wrap domain.ErrNotFound: %v", got)
	}
}

func TestMapError_UniqueViolation(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key"}
	got := MapError(pgErr, "attestation", uuid.New())

	if !errors.Is(got, domain.ErrAlreadyExists) {
		t.Errorf("MapError(23505) does not wrap domain.ErrAlreadyExists: %v", got)
	}
}

func TestMapError_ForeignKeyViolation(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "23503", Message: "fk violation"}
	got := MapError(pgErr, "requirement", uuid.New())

	if !errors.Is(got, domain.ErrNotFound) {
		t.Errorf("MapError(23503) does not wrap domain.ErrNotFound: %v", got)
	}
}

func TestMapError_CheckViolation(t *testing.T) {
	t.Parallel()

	pgErr := &pgconn.PgError{Code: "23514", Message: "check violation"}
	got := MapError(pgErr, "assessment", uuid.New())

	if !errors.Is(got, domain.ErrValidation) {
		t.Errorf("MapError(23514) does not wrap domain.ErrValidation: %v", got)
	}
}

func TestMapError_ContextCanceled_PassesThrough(t *testing.T) {
	t.Parallel()

	got := MapError(context.Canceled, "assessment", uuid.New())

	if !errors.Is(got, context.Canceled) {
		t.Errorf("MapError(context.Canceled) does not preserve context.Canceled: %v", got)
	}
	if errors.Is(got, domain.ErrStorage) {
		t.Errorf("MapError(context.Canceled) should not wrap domain.ErrStorage: %v", got)
	}
}

func TestMapError_UnknownError_WrapsStorage(t *testing.T) {
	t.Parallel()

	underlying := errors.New("connection reset by peer")
	got := MapError(underlying, "finding", uuid.New())

	if !errors.Is(got, domain.ErrStorage) {
		t.Errorf("MapError(unknown) does not wrap domain.ErrStorage: %v", got)
	}
	if !errors.Is(got, underlying) {
		t.Errorf("MapError(unknown) does not preserve the underlying error: %v", got)
	}
}
