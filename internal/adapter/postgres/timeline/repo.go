// Package timeline implements the TimelineEvent repository using PostgreSQL.
package timeline

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

const table = "timeline_events"

var columns = []string{
	"id", "tenant_id", "assessment_id", "description", "deadline", "trigger_event",
	"citations", "created_at", "updated_at",
}

type row struct {
	ID           uuid.UUID  `db:"id"`
	TenantID     uuid.UUID  `db:"tenant_id"`
	AssessmentID uuid.UUID  `db:"assessment_id"`
	Description  string     `db:"description"`
	Deadline     *time.Time `db:"deadline"`
	TriggerEvent *string    `db:"trigger_event"`
	Citations    []byte     `db:"citations"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// Repo provides timeline event persistence backed by PostgreSQL.
type Repo struct {
	base *crud.Base[row]
}

// New creates a new timeline event repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{base: crud.NewBase[row](pool, table, "timeline_event", columns)}
}

// Create inserts a new timeline event. ID and timestamps are assigned by the database.
func (r *Repo) Create(ctx context.Context, e domain.TimelineEvent) (*domain.TimelineEvent, error) {
	citations, err := marshalCitations(e.Citations)
	if err != nil {
		return nil, fmt.Errorf("timeline_event: %w", err)
	}

	insert := r.base.InsertBuilder().
		Columns("tenant_id", "assessment_id", "description", "deadline", "trigger_event", "citations").
		Values(e.TenantID, e.AssessmentID, e.Description, e.Deadline, e.TriggerEvent, citations)

	persisted, err := r.base.InsertReturning(ctx, insert, uuid.Nil)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// GetByID returns the timeline event with the given id within the tenant.
func (r *Repo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.TimelineEvent, error) {
	query := r.base.SelectBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	persisted, err := r.base.One(ctx, query, id)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// Save writes all mutable fields of the timeline event and refreshes updated_at.
func (r *Repo) Save(ctx context.Context, e domain.TimelineEvent) (*domain.TimelineEvent, error) {
	citations, err := marshalCitations(e.Citations)
	if err != nil {
		return nil, fmt.Errorf("timeline_event %s: %w", e.ID, err)
	}

	update := r.base.UpdateBuilder().
		Set("description", e.Description).
		Set("deadline", e.Deadline).
		Set("trigger_event", e.TriggerEvent).
		Set("citations", citations).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": e.ID, "tenant_id": e.TenantID})

	persisted, err := r.base.UpdateReturning(ctx, update, e.ID)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// Delete removes the timeline event. Returns domain.ErrNotFound if it does not exist.
func (r *Repo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	del := r.base.DeleteBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	affected, err := r.base.Exec(ctx, del, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("timeline_event %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List returns the timeline events owned by the given assessment, earliest
// deadline first. A zero assessmentID returns all events within the tenant.
func (r *Repo) List(ctx context.Context, tenantID, assessmentID uuid.UUID) ([]domain.TimelineEvent, error) {
	query := r.base.SelectBuilder().
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("deadline ASC NULLS LAST", "created_at ASC")
	if assessmentID != uuid.Nil {
		query = query.Where(sq.Eq{"assessment_id": assessmentID})
	}

	rows, err := r.base.List(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TimelineEvent, len(rows))
	for i := range rows {
		e, err := toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		out[i] = *e
	}
	return out, nil
}

// DeleteByAssessment removes all timeline events owned by the given assessment.
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

func toDomain(r *row) (*domain.TimelineEvent, error) {
	var citations []domain.Citation
	if len(r.Citations) > 0 {
		if err := json.Unmarshal(r.Citations, &citations); err != nil {
			return nil, fmt.Errorf("timeline_event %s: unmarshal citations: %w", r.ID, err)
		}
	}

	return &domain.TimelineEvent{
		ID:           r.ID,
		TenantID:     r.TenantID,
		AssessmentID: r.AssessmentID,
		Description:  r.Description,
		Deadline:     r.Deadline,
		TriggerEvent: r.TriggerEvent,
		Citations:    citations,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}, nil
}
