// Package assessment implements the Assessment repository using PostgreSQL.
// Status transitions are guarded by conditional updates so that concurrent
// run requests cannot race each other past the draft state.
package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attestiq/compliance-backend/internal/adapter/postgres/crud"
	"github.com/attestiq/compliance-backend/internal/domain"
)

const table = "assessments"

var columns = []string{
	"id", "tenant_id", "name", "prompt_packs", "document_ids", "jurisdiction",
	"status", "score", "created_at", "updated_at", "completed_at",
}

type row struct {
	ID           uuid.UUID   `db:"id"`
	TenantID     uuid.UUID   `db:"tenant_id"`
	Name         string      `db:"name"`
	PromptPacks  []string    `db:"prompt_packs"`
	DocumentIDs  []uuid.UUID `db:"document_ids"`
	Jurisdiction *string     `db:"jurisdiction"`
	Status       string      `db:"status"`
	Score        []byte      `db:"score"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	CompletedAt  *time.Time  `db:"completed_at"`
}

// Repo provides assessment persistence backed by PostgreSQL.
type Repo struct {
	base *crud.Base[row]
}

// New creates a new assessment repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{base: crud.NewBase[row](pool, table, "assessment", columns)}
}

// Create inserts a new draft assessment. ID and timestamps are assigned by
// the database.
func (r *Repo) Create(ctx context.Context, a domain.Assessment) (*domain.Assessment, error) {
	insert := r.base.InsertBuilder().
		Columns("tenant_id", "name", "prompt_packs", "document_ids", "jurisdiction", "status").
		Values(a.TenantID, a.Name, a.PromptPacks, a.DocumentIDs, a.Jurisdiction, string(a.Status))

	persisted, err := r.base.InsertReturning(ctx, insert, uuid.Nil)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// GetByID returns the assessment with the given id within the tenant.
func (r *Repo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Assessment, error) {
	query := r.base.SelectBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	persisted, err := r.base.One(ctx, query, id)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// Save writes the draft-editable fields and refreshes updated_at.
// Status, score and completed_at are only changed through the transition methods.
func (r *Repo) Save(ctx context.Context, a domain.Assessment) (*domain.Assessment, error) {
	update := r.base.UpdateBuilder().
		Set("name", a.Name).
		Set("prompt_packs", a.PromptPacks).
		Set("document_ids", a.DocumentIDs).
		Set("jurisdiction", a.Jurisdiction).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": a.ID, "tenant_id": a.TenantID})

	persisted, err := r.base.UpdateReturning(ctx, update, a.ID)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// Delete removes the assessment. Owned records are not cascaded; orphans are
// swept by the reconcile job.
func (r *Repo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	del := r.base.DeleteBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	affected, err := r.base.Exec(ctx, del, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List returns all assessments within the tenant, newest first.
// Assessments are tenant-scoped, so the scope filter is ignored.
func (r *Repo) List(ctx context.Context, tenantID, _ uuid.UUID) ([]domain.Assessment, error) {
	query := r.base.SelectBuilder().
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("created_at DESC")

	rows, err := r.base.List(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Assessment, len(rows))
	for i := range rows {
		a, err := toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		out[i] = *a
	}
	return out, nil
}

// TransitionStatus moves the assessment from one status to another with a
// compare-and-swap on the current status. If the record exists but is not in
// the expected state, domain.ErrInvalidTransition is returned.
func (r *Repo) TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.AssessmentStatus) (*domain.Assessment, error) {
	update := r.base.UpdateBuilder().
		Set("status", string(to)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id, "tenant_id": tenantID, "status": string(from)})

	persisted, err := r.base.UpdateReturning(ctx, update, id)
	if err != nil {
		return nil, r.explainTransitionFailure(ctx, tenantID, id, from, err)
	}
	return toDomain(persisted)
}

// SetCompleted marks a running assessment completed with its score.
func (r *Repo) SetCompleted(ctx context.Context, tenantID, id uuid.UUID, score domain.Score, completedAt time.Time) (*domain.Assessment, error) {
	scoreJSON, err := json.Marshal(score)
	if err != nil {
		return nil, fmt.Errorf("assessment %s: marshal score: %w", id, err)
	}

	update := r.base.UpdateBuilder().
		Set("status", string(domain.AssessmentStatusCompleted)).
		Set("score", scoreJSON).
		Set("completed_at", completedAt).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id, "tenant_id": tenantID, "status": string(domain.AssessmentStatusRunning)})

	persisted, err := r.base.UpdateReturning(ctx, update, id)
	if err != nil {
		return nil, r.explainTransitionFailure(ctx, tenantID, id, domain.AssessmentStatusRunning, err)
	}
	return toDomain(persisted)
}

// SetFailed marks a running assessment failed. Score and completed_at stay unset.
func (r *Repo) SetFailed(ctx context.Context, tenantID, id uuid.UUID) (*domain.Assessment, error) {
	update := r.base.UpdateBuilder().
		Set("status", string(domain.AssessmentStatusFailed)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": id, "tenant_id": tenantID, "status": string(domain.AssessmentStatusRunning)})

	persisted, err := r.base.UpdateReturning(ctx, update, id)
	if err != nil {
		return nil, r.explainTransitionFailure(ctx, tenantID, id, domain.AssessmentStatusRunning, err)
	}
	return toDomain(persisted)
}

// explainTransitionFailure disambiguates a zero-row conditional update:
// a record that exists in another state is an invalid transition, a record
// that does not exist stays ErrNotFound.
func (r *Repo) explainTransitionFailure(ctx context.Context, tenantID, id uuid.UUID, expected domain.AssessmentStatus, err error) error {
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	current, getErr := r.GetByID(ctx, tenantID, id)
	if getErr != nil {
		return err
	}
	return fmt.Errorf("assessment %s: status is %s, expected %s: %w",
		id, current.Status, expected, domain.ErrInvalidTransition)
}

func toDomain(r *row) (*domain.Assessment, error) {
	a := &domain.Assessment{
		ID:           r.ID,
		TenantID:     r.TenantID,
		Name:         r.Name,
		PromptPacks:  r.PromptPacks,
		DocumentIDs:  r.DocumentIDs,
		Jurisdiction: r.Jurisdiction,
		Status:       domain.AssessmentStatus(r.Status),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		CompletedAt:  r.CompletedAt,
	}
	if a.PromptPacks == nil {
		a.PromptPacks = []string{}
	}
	if a.DocumentIDs == nil {
		a.DocumentIDs = []uuid.UUID{}
	}

	if len(r.Score) > 0 {
		var score domain.Score
		if err := json.Unmarshal(r.Score, &score); err != nil {
			return nil, fmt.Errorf("assessment %s: unmarshal score: %w", r.ID, err)
		}
		a.Score = &score
	}
	return a, nil
}
