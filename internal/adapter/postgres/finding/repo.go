// Package finding implements the Finding repository using PostgreSQL.
package finding

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attestiq/compliance-backend/internal/adapter/postgres/crud"
	"github.com/attestiq/compliance-backend/internal/domain"
)

const table = "findings"

var columns = []string{
	"id", "tenant_id", "assessment_id", "kind", "title", "description", "severity",
	"likelihood", "impact_area", "confidence", "evidence", "created_at", "updated_at",
}

type row struct {
	ID           uuid.UUID `db:"id"`
	TenantID     uuid.UUID `db:"tenant_id"`
	AssessmentID uuid.UUID `db:"assessment_id"`
	Kind         string    `db:"kind"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	Severity     string    `db:"severity"`
	Likelihood   *string   `db:"likelihood"`
	ImpactArea   string    `db:"impact_area"`
	Confidence   float64   `db:"confidence"`
	Evidence     []byte    `db:"evidence"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Repo provides finding persistence backed by PostgreSQL.
type Repo struct {
	base *crud.Base[row]
}

// New creates a new finding repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{base: crud.NewBase[row](pool, table, "finding", columns)}
}

// Create inserts a new finding. ID and timestamps are assigned by the database.
func (r *Repo) Create(ctx context.Context, f domain.Finding) (*domain.Finding, error) {
	evidence, err := marshalEvidence(f.Evidence)
	if err != nil {
		return nil, fmt.Errorf("finding: %w", err)
	}

	insert := r.base.InsertBuilder().
		Columns("tenant_id", "assessment_id", "kind", "title", "description",
			"severity", "likelihood", "impact_area", "confidence", "evidence").
		Values(f.TenantID, f.AssessmentID, string(f.Kind), f.Title, f.Description,
			string(f.Severity), likelihoodPtr(f.Likelihood), f.ImpactArea, f.Confidence, evidence)

	persisted, err := r.base.InsertReturning(ctx, insert, uuid.Nil)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// GetByID returns the finding with the given id within the tenant.
func (r *Repo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Finding, error) {
	query := r.base.SelectBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	persisted, err := r.base.One(ctx, query, id)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// Save writes all mutable fields of the finding and refreshes updated_at.
func (r *Repo) Save(ctx context.Context, f domain.Finding) (*domain.Finding, error) {
	evidence, err := marshalEvidence(f.Evidence)
	if err != nil {
		return nil, fmt.Errorf("finding %s: %w", f.ID, err)
	}

	update := r.base.UpdateBuilder().
		Set("kind", string(f.Kind)).
		Set("title", f.Title).
		Set("description", f.Description).
		Set("severity", string(f.Severity)).
		Set("likelihood", likelihoodPtr(f.Likelihood)).
		Set("impact_area", f.ImpactArea).
		Set("confidence", f.Confidence).
		Set("evidence", evidence).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": f.ID, "tenant_id": f.TenantID})

	persisted, err := r.base.UpdateReturning(ctx, update, f.ID)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// Delete removes the finding. Returns domain.ErrNotFound if it does not exist.
func (r *Repo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	del := r.base.DeleteBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	affected, err := r.base.Exec(ctx, del, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("finding %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List returns the findings owned by the given assessment.
// A zero assessmentID returns all findings within the tenant.
func (r *Repo) List(ctx context.Context, tenantID, assessmentID uuid.UUID) ([]domain.Finding, error) {
	query := r.base.SelectBuilder().
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("created_at ASC")
	if assessmentID != uuid.Nil {
		query = query.Where(sq.Eq{"assessment_id": assessmentID})
	}

	rows, err := r.base.List(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Finding, len(rows))
	for i := range rows {
		f, err := toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		out[i] = *f
	}
	return out, nil
}

// DeleteByAssessment removes all findings owned by the given assessment.
// Used by the reconcile job; returns the number of removed rows.
func (r *Repo) DeleteByAssessment(ctx context.Context, tenantID, assessmentID uuid.UUID) (int64, error) {
	del := r.base.DeleteBuilder().
		Where(sq.Eq{"tenant_id": tenantID, "assessment_id": assessmentID})

	return r.base.Exec(ctx, del, assessmentID)
}

func marshalEvidence(evidence []domain.Evidence) ([]byte, error) {
	if evidence == nil {
		evidence = []domain.Evidence{}
	}
	data, err := json.Marshal(evidence)
	if err != nil {
		return nil, fmt.Errorf("marshal evidence: %w", err)
	}
	return data, nil
}

func likelihoodPtr(l *domain.Likelihood) *string {
	if l == nil {
		return nil
	}
	s := string(*l)
	return &s
}

func toDomain(r *row) (*domain.Finding, error) {
	var evidence []domain.Evidence
	if len(r.Evidence) > 0 {
		if err := json.Unmarshal(r.Evidence, &evidence); err != nil {
			return nil, fmt.Errorf("finding %s: unmarshal evidence: %w", r.ID, err)
		}
	}

	f := &domain.Finding{
		ID:           r.ID,
		TenantID:     r.TenantID,
		AssessmentID: r.AssessmentID,
		Kind:         domain.FindingKind(r.Kind),
		Title:        r.Title,
		Description:  r.Description,
		Severity:     domain.Severity(r.Severity),
		ImpactArea:   r.ImpactArea,
		Confidence:   r.Confidence,
		Evidence:     evidence,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Likelihood != nil {
		l := domain.Likelihood(*r.Likelihood)
		f.Likelihood = &l
	}
	return f, nil
}
