// Package penalty implements the Penalty repository using PostgreSQL.
package penalty

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

const table = "penalties"

var columns = []string{
	"id", "tenant_id", "assessment_id", "summary", "max_amount", "citations",
	"created_at", "updated_at",
}

type row struct {
	ID           uuid.UUID `db:"id"`
	TenantID     uuid.UUID `db:"tenant_id"`
	AssessmentID uuid.UUID `db:"assessment_id"`
	Summary      string    `db:"summary"`
	MaxAmount    *string   `db:"max_amount"`
	Citations    []byte    `db:"citations"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Repo provides penalty persistence backed by PostgreSQL.
type Repo struct {
	base *crud.Base[row]
}

// New creates a new penalty repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{base: crud.NewBase[row](pool, table, "penalty", columns)}
}

// Create inserts a new penalty. ID and timestamps are assigned by the database.
func (r *Repo) Create(ctx context.Context, p domain.Penalty) (*domain.Penalty, error) {
	citations, err := marshalCitations(p.Citations)
	if err != nil {
		return nil, fmt.Errorf("penalty: %w", err)
	}

	insert := r.base.InsertBuilder().
		Columns("tenant_id", "assessment_id", "summary", "max_amount", "citations").
		Values(p.TenantID, p.AssessmentID, p.Summary, p.MaxAmount, citations)

	persisted, err := r.base.InsertReturning(ctx, insert, uuid.Nil)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// GetByID returns the penalty with the given id within the tenant.
func (r *Repo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Penalty, error) {
	query := r.base.SelectBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	persisted, err := r.base.One(ctx, query, id)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// Save writes all mutable fields of the penalty and refreshes updated_at.
func (r *Repo) Save(ctx context.Context, p domain.Penalty) (*domain.Penalty, error) {
	citations, err := marshalCitations(p.Citations)
	if err != nil {
		return nil, fmt.Errorf("penalty %s: %w", p.ID, err)
	}

	update := r.base.UpdateBuilder().
		Set("summary", p.Summary).
		Set("max_amount", p.MaxAmount).
		Set("citations", citations).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": p.ID, "tenant_id": p.TenantID})

	persisted, err := r.base.UpdateReturning(ctx, update, p.ID)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// Delete removes the penalty. Returns domain.ErrNotFound if it does not exist.
func (r *Repo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	del := r.base.DeleteBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	affected, err := r.base.Exec(ctx, del, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("penalty %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List returns the penalties owned by the given assessment.
// A zero assessmentID returns all penalties within the tenant.
func (r *Repo) List(ctx context.Context, tenantID, assessmentID uuid.UUID) ([]domain.Penalty, error) {
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

	out := make([]domain.Penalty, len(rows))
	for i := range rows {
		p, err := toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		out[i] = *p
	}
	return out, nil
}

// DeleteByAssessment removes all penalties owned by the given assessment.
// Used by the reconcile job; returns the number of removed rows.
func (r *Repo) DeleteByAssessment(ctx context.Context, tenantID, assessmentID uuid.UUID) (int64, error) {
	del := r.base.DeleteBuilder().
		Where(sq.Eq{"tenant_id": tenantID, "assessment_id": assessmentID})

	return r.base.Exec(ctx, del, assessmentID)
}

func marshalCitations(citations []domain.Citation) ([]byte, error) {
	if citations == nil {
		citations = []domain.Citation{}
	}
	data, err := json.Marshal(citations)
	if err != nil {
		return nil, fmt.Errorf("marshal citations: %w", err)
	}
	return data, nil
}

func toDomain(r *row) (*domain.Penalty, error) {
	var citations []domain.Citation
	if len(r.Citations) > 0 {
		if err := json.Unmarshal(r.Citations, &citations); err != nil {
			return nil, fmt.Errorf("penalty %s: unmarshal citations: %w", r.ID, err)
		}
	}

	return &domain.Penalty{
		ID:           r.ID,
		TenantID:     r.TenantID,
		AssessmentID: r.AssessmentID,
		Summary:      r.Summary,
		MaxAmount:    r.MaxAmount,
		Citations:    citations,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}
