package attestation_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/attestiq/compliance-backend/internal/adapter/postgres/attestation"
	"github.com/attestiq/compliance-backend/internal/adapter/postgres/testhelper"
	"github.com/attestiq/compliance-backend/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestRepo_Upsert_CreatesThenOverwrites(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := attestation.New(pool)
	ctx := context.Background()

	tenantID := uuid.New()
	subjectID := uuid.New()

	first, err := repo.Upsert(ctx, domain.Attestation{
		TenantID:    tenantID,
		SubjectID:   subjectID,
		SubjectType: domain.SubjectTypeRequirement,
		Status:      domain.AttestationStatusNo,
		Owner:       strPtr("alice"),
	})
	if err != nil {
		t.Fatalf("Upsert[1]: unexpected error: %v", err)
	}
	if first.ID == uuid.Nil {
		t.Fatal("Upsert[1]: expected assigned id")
	}
	if first.Status != domain.AttestationStatusNo {
		t.Errorf("Status mismatch: got %s, want %s", first.Status, domain.AttestationStatusNo)
	}

	second, err := repo.Upsert(ctx, domain.Attestation{
		TenantID:    tenantID,
		SubjectID:   subjectID,
		SubjectType: domain.SubjectTypeRequirement,
		Status:      domain.AttestationStatusHave,
		Owner:       strPtr("bob"),
		EvidenceURI: strPtr("https://evidence.example/123"),
	})
	if err != nil {
		t.Fatalf("Upsert[2]: unexpected error: %v", err)
	}

	// Same logical attestation: the row is overwritten, not duplicated.
	if second.ID != first.ID {
		t.Errorf("ID changed on upsert: got %s, want %s", second.ID, first.ID)
	}
	if second.Status != domain.AttestationStatusHave {
		t.Errorf("Status mismatch: got %s, want %s", second.Status, domain.AttestationStatusHave)
	}
	if second.Owner == nil || *second.Owner != "bob" {
		t.Errorf("Owner mismatch: got %v, want bob", second.Owner)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed on upsert: got %s, want %s", second.CreatedAt, first.CreatedAt)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("UpdatedAt not advanced: got %s, previous %s", second.UpdatedAt, first.UpdatedAt)
	}
}

func TestRepo_Upsert_DistinctSubjectTypes(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := attestation.New(pool)
	ctx := context.Background()

	tenantID := uuid.New()
	subjectID := uuid.New()

	asRequirement, err := repo.Upsert(ctx, domain.Attestation{
		TenantID:    tenantID,
		SubjectID:   subjectID,
		SubjectType: domain.SubjectTypeRequirement,
		Status:      domain.AttestationStatusPartial,
	})
	if err != nil {
		t.Fatalf("Upsert requirement: unexpected error: %v", err)
	}

	asFinding, err := repo.Upsert(ctx, domain.Attestation{
		TenantID:    tenantID,
		SubjectID:   subjectID,
		SubjectType: domain.SubjectTypeFinding,
		Status:      domain.AttestationStatusNo,
	})
	if err != nil {
		t.Fatalf("Upsert finding: unexpected error: %v", err)
	}

	if asRequirement.ID == asFinding.ID {
		t.Error("expected distinct rows for distinct subject types")
	}
}

func TestRepo_GetBySubject(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := attestation.New(pool)
	ctx := context.Background()

	tenantID := uuid.New()
	subjectID := uuid.New()

	_, err := repo.Upsert(ctx, domain.Attestation{
		TenantID:    tenantID,
		SubjectID:   subjectID,
		SubjectType: domain.SubjectTypeFinding,
		Status:      domain.AttestationStatusPartial,
	})
	if err != nil {
		t.Fatalf("Upsert: unexpected error: %v", err)
	}

	got, err := repo.GetBySubject(ctx, tenantID, subjectID, domain.SubjectTypeFinding)
	if err != nil {
		t.Fatalf("GetBySubject: unexpected error: %v", err)
	}
	if got.Status != domain.AttestationStatusPartial {
		t.Errorf("Status mismatch: got %s, want %s", got.Status, domain.AttestationStatusPartial)
	}

	_, err = repo.GetBySubject(ctx, tenantID, uuid.New(), domain.SubjectTypeFinding)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetBySubject missing: got %v, want domain.ErrNotFound", err)
	}
}

func TestRepo_ListBySubjects(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := attestation.New(pool)
	ctx := context.Background()

	tenantID := uuid.New()
	attested := uuid.New()
	unattested := uuid.New()

	_, err := repo.Upsert(ctx, domain.Attestation{
		TenantID:    tenantID,
		SubjectID:   attested,
		SubjectType: domain.SubjectTypeRequirement,
		Status:      domain.AttestationStatusHave,
	})
	if err != nil {
		t.Fatalf("Upsert: unexpected error: %v", err)
	}

	got, err := repo.ListBySubjects(ctx, tenantID, domain.SubjectTypeRequirement,
		[]uuid.UUID{attested, unattested})
	if err != nil {
		t.Fatalf("ListBySubjects: unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListBySubjects: got %d, want 1", len(got))
	}
	if got[0].SubjectID != attested {
		t.Errorf("SubjectID mismatch: got %s, want %s", got[0].SubjectID, attested)
	}

	empty, err := repo.ListBySubjects(ctx, tenantID, domain.SubjectTypeRequirement, nil)
	if err != nil {
		t.Fatalf("ListBySubjects empty: unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("ListBySubjects empty: got %d, want 0", len(empty))
	}
}

func TestRepo_GetByID_Delete(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := attestation.New(pool)
	ctx := context.Background()

	tenantID := uuid.New()
	created, err := repo.Upsert(ctx, domain.Attestation{
		TenantID:    tenantID,
		SubjectID:   uuid.New(),
		SubjectType: domain.SubjectTypeFinding,
		Status:      domain.AttestationStatusPartial,
	})
	if err != nil {
		t.Fatalf("Upsert: unexpected error: %v", err)
	}

	got, err := repo.GetByID(ctx, tenantID, created.ID)
	if err != nil {
		t.Fatalf("GetByID: unexpected error: %v", err)
	}
	if got.SubjectID != created.SubjectID {
		t.Errorf("SubjectID mismatch: got %s, want %s", got.SubjectID, created.SubjectID)
	}

	// Wrong tenant must not see the row, let alone delete it.
	if _, err := repo.GetByID(ctx, uuid.New(), created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID[other tenant]: got %v, want domain.ErrNotFound", err)
	}
	if err := repo.Delete(ctx, uuid.New(), created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Delete[other tenant]: got %v, want domain.ErrNotFound", err)
	}

	if err := repo.Delete(ctx, tenantID, created.ID); err != nil {
		t.Fatalf("Delete: unexpected error: %v", err)
	}
	if _, err := repo.GetByID(ctx, tenantID, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID after delete: got %v, want domain.ErrNotFound", err)
	}
	if err := repo.Delete(ctx, tenantID, created.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Delete[again]: got %v, want domain.ErrNotFound", err)
	}
}
