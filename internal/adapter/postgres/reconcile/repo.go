// Package reconcile provides the cross-table orphan scans used by the
// reconciliation job. Assessment-scoped record tables carry no foreign key to
// assessments, so deleting an assessment leaves its records behind until this
// sweep collects them.
package reconcile

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attestiq/compliance-backend/internal/adapter/postgres"
	"github.com/attestiq/compliance-backend/internal/domain"
)

// Ref identifies one orphaned assessment scope.
type Ref struct {
	TenantID     uuid.UUID `db:"tenant_id"`
	AssessmentID uuid.UUID `db:"assessment_id"`
}

// Repo runs the orphan scans.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a reconcile repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// The UNION over six record tables is plain SQL; squirrel has no clean way to
// express it.
const orphanAssessmentsQuery = `
SELECT DISTINCT refs.tenant_id, refs.assessment_id
FROM (
	SELECT tenant_id, assessment_id FROM requirements
	UNION SELECT tenant_id, assessment_id FROM findings
	UNION SELECT tenant_id, assessment_id FROM penalties
	UNION SELECT tenant_id, assessment_id FROM obligations
	UNION SELECT tenant_id, assessment_id FROM timeline_events
	UNION SELECT tenant_id, assessment_id FROM clarifications
) refs
WHERE NOT EXISTS (
	SELECT 1 FROM assessments a WHERE a.id = refs.assessment_id
)
LIMIT $1`

// OrphanAssessments returns up to limit assessment scopes whose assessment
// row no longer exists but which still have records.
func (r *Repo) OrphanAssessments(ctx context.Context, limit int) ([]Ref, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var refs []Ref
	if err := pgxscan.Select(ctx, q, &refs, orphanAssessmentsQuery, limit); err != nil {
		return nil, postgres.MapError(err, "orphan scan", uuid.Nil)
	}
	if refs == nil {
		refs = []Ref{}
	}
	return refs, nil
}

const orphanAttestationPredicate = `
	(att.subject_type = 'requirement'
		AND NOT EXISTS (SELECT 1 FROM requirements r WHERE r.id = att.subject_id))
	OR (att.subject_type = 'finding'
		AND NOT EXISTS (SELECT 1 FROM findings f WHERE f.id = att.subject_id))`

const orphanAttestationTenantsQuery = `
SELECT DISTINCT att.tenant_id
FROM attestations att
WHERE` + orphanAttestationPredicate

const deleteOrphanAttestationsQuery = `
DELETE FROM attestations att
WHERE att.tenant_id = $1 AND (` + orphanAttestationPredicate + `)
RETURNING att.id, att.tenant_id, att.subject_id, att.subject_type, att.status,
	att.owner, att.evidence_uri, att.notes, att.created_at, att.updated_at`

type attestationRow struct {
	ID          uuid.UUID `db:"id"`
	TenantID    uuid.UUID `db:"tenant_id"`
	SubjectID   uuid.UUID `db:"subject_id"`
	SubjectType string    `db:"subject_type"`
	Status      string    `db:"status"`
	Owner       *string   `db:"owner"`
	EvidenceURI *string   `db:"evidence_uri"`
	Notes       *string   `db:"notes"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// OrphanAttestationTenants returns the tenants that still hold attestations
// whose subject row is gone.
func (r *Repo) OrphanAttestationTenants(ctx context.Context) ([]uuid.UUID, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var tenants []uuid.UUID
	if err := pgxscan.Select(ctx, q, &tenants, orphanAttestationTenantsQuery); err != nil {
		return nil, postgres.MapError(err, "orphan scan", uuid.Nil)
	}
	return tenants, nil
}

// DeleteOrphanAttestations removes the tenant's attestations whose subject
// row is gone and returns the deleted rows, so callers can audit each one.
func (r *Repo) DeleteOrphanAttestations(ctx context.Context, tenantID uuid.UUID) ([]domain.Attestation, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var rows []attestationRow
	if err := pgxscan.Select(ctx, q, &rows, deleteOrphanAttestationsQuery, tenantID); err != nil {
		return nil, postgres.MapError(err, "attestation", uuid.Nil)
	}

	deleted := make([]domain.Attestation, len(rows))
	for i, row := range rows {
		deleted[i] = domain.Attestation{
			ID:          row.ID,
			TenantID:    row.TenantID,
			SubjectID:   row.SubjectID,
			SubjectType: domain.SubjectType(row.SubjectType),
			Status:      domain.AttestationStatus(row.Status),
			Owner:       row.Owner,
			EvidenceURI: row.EvidenceURI,
			Notes:       row.Notes,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		}
	}
	return deleted, nil
}
