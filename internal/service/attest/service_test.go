package attest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/attestiq/compliance-backend/internal/domain"
	"github.com/attestiq/compliance-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Test mocks (minimal, inline)
// ---------------------------------------------------------------------------

type mockAttestationRepo struct {
	upsertFunc         func(ctx context.Context, a domain.Attestation) (*domain.Attestation, error)
	getByIDFunc        func(ctx context.Context, tenantID, id uuid.UUID) (*domain.Attestation, error)
	getBySubjectFunc   func(ctx context.Context, tenantID, subjectID uuid.UUID, subjectType domain.SubjectType) (*domain.Attestation, error)
	listBySubjectsFunc func(ctx context.Context, tenantID uuid.UUID, subjectType domain.SubjectType, subjectIDs []uuid.UUID) ([]domain.Attestation, error)
	deleted            []uuid.UUID
}

func (m *mockAttestationRepo) Upsert(ctx context.Context, a domain.Attestation) (*domain.Attestation, error) {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, a)
	}
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	return &a, nil
}

func (m *mockAttestationRepo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Attestation, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, tenantID, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockAttestationRepo) GetBySubject(ctx context.Context, tenantID, subjectID uuid.UUID, subjectType domain.SubjectType) (*domain.Attestation, error) {
	if m.getBySubjectFunc != nil {
		return m.getBySubjectFunc(ctx, tenantID, subjectID, subjectType)
	}
	return nil, domain.ErrNotFound
}

func (m *mockAttestationRepo) ListBySubjects(ctx context.Context, tenantID uuid.UUID, subjectType domain.SubjectType, subjectIDs []uuid.UUID) ([]domain.Attestation, error) {
	if m.listBySubjectsFunc != nil {
		return m.listBySubjectsFunc(ctx, tenantID, subjectType, subjectIDs)
	}
	return []domain.Attestation{}, nil
}

func (m *mockAttestationRepo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockAuditRepo struct {
	entries []domain.AuditEntry
}

func (m *mockAuditRepo) Append(ctx context.Context, entry domain.AuditEntry) (*domain.AuditEntry, error) {
	entry.ID = uuid.New()
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, entry)
	return &entry, nil
}

type mockTxManager struct{}

func (m *mockTxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(repo *mockAttestationRepo, audit *mockAuditRepo) *Service {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewService(logger, repo, audit, &mockTxManager{})
}

func callerCtx(tenantID uuid.UUID) context.Context {
	ctx := ctxutil.WithTenantID(context.Background(), tenantID)
	return ctxutil.WithActor(ctx, "reviewer")
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestUpsertForSubject_FirstWrite(t *testing.T) {
	repo := &mockAttestationRepo{}
	audit := &mockAuditRepo{}
	svc := newTestService(repo, audit)

	subjectID := uuid.New()
	attested, err := svc.UpsertForSubject(callerCtx(uuid.New()), UpsertInput{
		SubjectID:   subjectID,
		SubjectType: domain.SubjectTypeRequirement,
		Status:      domain.AttestationStatusHave,
	})
	if err != nil {
		t.Fatalf("UpsertForSubject: unexpected error: %v", err)
	}
	if attested.Status != domain.AttestationStatusHave {
		t.Errorf("Status: got %s, want HAVE", attested.Status)
	}

	if len(audit.entries) != 1 {
		t.Fatalf("audit entries: got %d, want 1", len(audit.entries))
	}
	entry := audit.entries[0]
	if entry.Action != domain.AuditActionAttest {
		t.Errorf("Action: got %s, want ATTEST", entry.Action)
	}
	details, ok := entry.Details.(domain.AttestDetails)
	if !ok {
		t.Fatalf("Details: got %T, want domain.AttestDetails", entry.Details)
	}
	if details.Before != nil {
		t.Error("first attestation must have no before snapshot")
	}
	if len(details.After) == 0 {
		t.Error("after snapshot missing")
	}
}

func TestUpsertForSubject_OverwriteCarriesBefore(t *testing.T) {
	tenantID := uuid.New()
	subjectID := uuid.New()

	repo := &mockAttestationRepo{
		getBySubjectFunc: func(_ context.Context, _, _ uuid.UUID, _ domain.SubjectType) (*domain.Attestation, error) {
			return &domain.Attestation{
				ID:          uuid.New(),
				TenantID:    tenantID,
				SubjectID:   subjectID,
				SubjectType: domain.SubjectTypeRequirement,
				Status:      domain.AttestationStatusNo,
			}, nil
		},
	}
	audit := &mockAuditRepo{}
	svc := newTestService(repo, audit)

	_, err := svc.UpsertForSubject(callerCtx(tenantID), UpsertInput{
		SubjectID:   subjectID,
		SubjectType: domain.SubjectTypeRequirement,
		Status:      domain.AttestationStatusPartial,
	})
	if err != nil {
		t.Fatalf("UpsertForSubject: unexpected error: %v", err)
	}

	details := audit.entries[0].Details.(domain.AttestDetails)
	if len(details.Before) == 0 {
		t.Error("overwrite must carry the previous attestation as before snapshot")
	}
	if len(details.After) == 0 {
		t.Error("after snapshot missing")
	}
}

func TestUpsertForSubject_InvalidInput(t *testing.T) {
	audit := &mockAuditRepo{}
	svc := newTestService(&mockAttestationRepo{}, audit)

	_, err := svc.UpsertForSubject(callerCtx(uuid.New()), UpsertInput{
		SubjectType: domain.SubjectType("cluster"),
		Status:      domain.AttestationStatus("MAYBE"),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("UpsertForSubject: got %v, want domain.ErrValidation", err)
	}
	if len(audit.entries) != 0 {
		t.Errorf("audit entries: got %d, want 0", len(audit.entries))
	}
}

func TestUpsertForSubject_NoTenant(t *testing.T) {
	svc := newTestService(&mockAttestationRepo{}, &mockAuditRepo{})

	_, err := svc.UpsertForSubject(context.Background(), UpsertInput{
		SubjectID:   uuid.New(),
		SubjectType: domain.SubjectTypeFinding,
		Status:      domain.AttestationStatusNo,
	})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("UpsertForSubject: got %v, want domain.ErrUnauthorized", err)
	}
}

func TestListForSubjects(t *testing.T) {
	tenantID := uuid.New()
	subjectIDs := []uuid.UUID{uuid.New(), uuid.New()}

	repo := &mockAttestationRepo{
		listBySubjectsFunc: func(_ context.Context, gotTenant uuid.UUID, subjectType domain.SubjectType, gotSubjects []uuid.UUID) ([]domain.Attestation, error) {
			if gotTenant != tenantID {
				t.Errorf("tenant: got %v, want %v", gotTenant, tenantID)
			}
			if subjectType != domain.SubjectTypeRequirement {
				t.Errorf("subject type: got %s, want requirement", subjectType)
			}
			return []domain.Attestation{{ID: uuid.New(), SubjectID: gotSubjects[0]}}, nil
		},
	}
	svc := newTestService(repo, &mockAuditRepo{})

	attestations, err := svc.ListForSubjects(callerCtx(tenantID), domain.SubjectTypeRequirement, subjectIDs)
	if err != nil {
		t.Fatalf("ListForSubjects: unexpected error: %v", err)
	}
	if len(attestations) != 1 {
		t.Errorf("attestations: got %d, want 1", len(attestations))
	}
}

func TestListForSubjects_InvalidSubjectType(t *testing.T) {
	svc := newTestService(&mockAttestationRepo{}, &mockAuditRepo{})

	_, err := svc.ListForSubjects(callerCtx(uuid.New()), domain.SubjectType("cluster"), []uuid.UUID{uuid.New()})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("ListForSubjects: got %v, want domain.ErrValidation", err)
	}
}

func TestDelete(t *testing.T) {
	tenantID := uuid.New()
	existing := &domain.Attestation{
		ID:          uuid.New(),
		TenantID:    tenantID,
		SubjectID:   uuid.New(),
		SubjectType: domain.SubjectTypeRequirement,
		Status:      domain.AttestationStatusHave,
	}

	repo := &mockAttestationRepo{
		getByIDFunc: func(_ context.Context, _, id uuid.UUID) (*domain.Attestation, error) {
			if id != existing.ID {
				return nil, domain.ErrNotFound
			}
			return existing, nil
		},
	}
	audit := &mockAuditRepo{}
	svc := newTestService(repo, audit)

	if err := svc.Delete(callerCtx(tenantID), existing.ID); err != nil {
		t.Fatalf("Delete: unexpected error: %v", err)
	}

	if len(repo.deleted) != 1 || repo.deleted[0] != existing.ID {
		t.Errorf("deleted: got %v, want [%v]", repo.deleted, existing.ID)
	}
	if len(audit.entries) != 1 {
		t.Fatalf("audit entries: got %d, want 1", len(audit.entries))
	}
	entry := audit.entries[0]
	if entry.Action != domain.AuditActionDelete {
		t.Errorf("Action: got %s, want DELETE", entry.Action)
	}
	if entry.TargetType != domain.EntityTypeAttestation {
		t.Errorf("TargetType: got %s, want ATTESTATION", entry.TargetType)
	}
	if entry.TargetID != existing.ID {
		t.Errorf("TargetID: got %v, want %v", entry.TargetID, existing.ID)
	}
	details, ok := entry.Details.(domain.DeleteDetails)
	if !ok || len(details.Record) == 0 {
		t.Errorf("Details: got %#v, want a DELETE snapshot", entry.Details)
	}
}

func TestDelete_NotFound(t *testing.T) {
	audit := &mockAuditRepo{}
	repo := &mockAttestationRepo{}
	svc := newTestService(repo, audit)

	err := svc.Delete(callerCtx(uuid.New()), uuid.New())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Delete: got %v, want domain.ErrNotFound", err)
	}
	if len(repo.deleted) != 0 || len(audit.entries) != 0 {
		t.Error("nothing may be deleted or audited when the attestation is missing")
	}
}
