package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attestiq/compliance-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedDocument inserts a ready document for the given tenant and returns it.
func SeedDocument(t *testing.T, pool *pgxpool.Pool, tenantID uuid.UUID) domain.Document {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	pages := 12
	doc := domain.Document{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Name:      "regulation-" + suffix + ".pdf",
		Type:      domain.DocumentTypeRegulation,
		SizeBytes: 64 * 1024,
		Status:    domain.DocumentStatusReady,
		PageCount: &pages,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO documents (id, tenant_id, name, doc_type, size_bytes, status, page_count, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.TenantID, doc.Name, string(doc.Type), doc.SizeBytes, string(doc.Status), doc.PageCount, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedDocument insert: %v", err)
	}

	return doc
}

// SeedAssessment inserts a draft assessment referencing the given documents.
func SeedAssessment(t *testing.T, pool *pgxpool.Pool, tenantID uuid.UUID, documentIDs ...uuid.UUID) domain.Assessment {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	a := domain.Assessment{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        "assessment-" + suffix,
		PromptPacks: []string{"gdpr"},
		DocumentIDs: documentIDs,
		Status:      domain.AssessmentStatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO assessments (id, tenant_id, name, prompt_packs, document_ids, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.TenantID, a.Name, a.PromptPacks, a.DocumentIDs, string(a.Status), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedAssessment insert: %v", err)
	}

	return a
}

// SeedRequirement inserts a requirement owned by the given assessment.
func SeedRequirement(t *testing.T, pool *pgxpool.Pool, a domain.Assessment, family domain.ControlFamily) domain.Requirement {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	r := domain.Requirement{
		ID:           uuid.New(),
		TenantID:     a.TenantID,
		AssessmentID: a.ID,
		ControlFamily: family,
		Statement:    "Access to records must be restricted (" + uniqueSuffix() + ")",
		Level:        domain.RequirementLevelMust,
		Status:       domain.RequirementStatusKnown,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO requirements (id, tenant_id, assessment_id, control_family, statement, level, test_procedures, citations, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, '[]'::jsonb, $8, $9, $10)`,
		r.ID, r.TenantID, r.AssessmentID, string(r.ControlFamily), r.Statement, string(r.Level), []string{}, string(r.Status), r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedRequirement insert: %v", err)
	}

	return r
}
