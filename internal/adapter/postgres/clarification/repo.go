// Package clarification implements the Clarification repository using PostgreSQL.
package clarification

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

const table = "clarifications"

var columns = []string{
	"id", "tenant_id", "assessment_id", "question", "status", "resolution",
	"resolved_by", "citations", "created_at", "updated_at",
}

type row struct {
	ID           uuid.UUID `db:"id"`
	TenantID     uuid.UUID `db:"tenant_id"`
	AssessmentID uuid.UUID `db:"assessment_id"`
	Question     string    `db:"question"`
	Status       string    `db:"status"`
	Resolution   *string   `db:"resolution"`
	ResolvedBy   *string   `db:"resolved_by"`
	Citations    []byte    `db:"citations"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Repo provides clarification persistence backed by PostgreSQL.
type Repo struct {
	base *crud.Base[row]
}

// New creates a new clarification repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{base: crud.NewBase[row](pool, table, "clarification", columns)}
}

// Create inserts a new clarification. ID and timestamps are assigned by the database.
func (r *Repo) Create(ctx context.Context, c domain.Clarification) (*domain.Clarification, error) {
	citations, err := marshalCitations(c.Citations)
	if err != nil {
		return nil, fmt.Errorf("clarification: %w", err)
	}

	insert := r.base.InsertBuilder().
		Columns("tenant_id", "assessment_id", "question", "status", "resolution", "resolved_by", "citations").
		Values(c.TenantID, c.AssessmentID, c.Question, string(c.Status), c.Resolution, c.ResolvedBy, citations)

	persisted, err := r.base.InsertReturning(ctx, insert, uuid.Nil)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// GetByID returns the clarification with the given id within the tenant.
func (r *Repo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Clarification, error) {
	query := r.base.SelectBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	persisted, err := r.base.One(ctx, query, id)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// Save writes all mutable fields of the clarification and refreshes updated_at.
// This includes resolution state, which the clarify service sets.
func (r *Repo) Save(ctx context.Context, c domain.Clarification) (*domain.Clarification, error) {
	citations, err := marshalCitations(c.Citations)
	if err != nil {
		return nil, fmt.Errorf("clarification %s: %w", c.ID, err)
	}

	update := r.base.UpdateBuilder().
		Set("question", c.Question).
		Set("status", string(c.Status)).
		Set("resolution", c.Resolution).
		Set("resolved_by", c.ResolvedBy).
		Set("citations", citations).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": c.ID, "tenant_id": c.TenantID})

	persisted, err := r.base.UpdateReturning(ctx, update, c.ID)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// Delete removes the clarification. Returns domain.ErrNotFound if it does not exist.
func (r *Repo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	del := r.base.DeleteBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	affected, err := r.base.Exec(ctx, del, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("clarification %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List returns the clarifications owned by the given assessment.
// A zero assessmentID returns all clarifications within the tenant.
func (r *Repo) List(ctx context.Context, tenantID, assessmentID uuid.UUID) ([]domain.Clarification, error) {
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

	out := make([]domain.Clarification, len(rows))
	for i := range rows {
		c, err := toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		out[i] = *c
	}
	return out, nil
}

// DeleteByAssessment removes all clarifications owned by the given assessment.
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

func toDomain(r *row) (*domain.Clarification, error) {
	var citations []domain.Citation
	if len(r.Citations) > 0 {
		if err := json.Unmarshal(r.Citations, &citations); err != nil {
			return nil, fmt.Errorf("clarification %s: unmarshal citations: %w", r.ID, err)
		}
	}

	return &domain.Clarification{
		ID:           r.ID,
		TenantID:     r.TenantID,
		AssessmentID: r.AssessmentID,
		Question:     r.Question,
		Status:       domain.ClarificationStatus(r.Status),
		Resolution:   r.Resolution,
		ResolvedBy:   r.ResolvedBy,
		Citations:    citations,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}
