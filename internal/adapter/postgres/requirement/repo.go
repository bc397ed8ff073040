// Package requirement implements the Requirement repository using PostgreSQL.
package requirement

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

const table = "requirements"

var columns = []string{
	"id", "tenant_id", "assessment_id", "control_family", "statement", "level",
	"test_procedures", "citations", "status", "created_at", "updated_at",
}

type row struct {
	ID             uuid.UUID `db:"id"`
	TenantID       uuid.UUID `db:"tenant_id"`
	AssessmentID   uuid.UUID `db:"assessment_id"`
	ControlFamily  string    `db:"control_family"`
	Statement      string    `db:"statement"`
	Level          string    `db:"level"`
	TestProcedures []string  `db:"test_procedures"`
	Citations      []byte    `db:"citations"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// Repo provides requirement persistence backed by PostgreSQL.
type Repo struct {
	base *crud.Base[row]
}

// New creates a new requirement repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{base: crud.NewBase[row](pool, table, "requirement", columns)}
}

// Create inserts a new requirement. ID and timestamps are assigned by the database.
func (r *Repo) Create(ctx context.Context, req domain.Requirement) (*domain.Requirement, error) {
	citations, err := marshalCitations(req.Citations)
	if err != nil {
		return nil, fmt.Errorf("requirement: %w", err)
	}

	insert := r.base.InsertBuilder().
		Columns("tenant_id", "assessment_id", "control_family", "statement", "level",
			"test_procedures", "citations", "status").
		Values(req.TenantID, req.AssessmentID, string(req.ControlFamily), req.Statement,
			string(req.Level), testProcedures(req.TestProcedures), citations, string(req.Status))

	persisted, err := r.base.InsertReturning(ctx, insert, uuid.Nil)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// GetByID returns the requirement with the given id within the tenant.
func (r *Repo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Requirement, error) {
	query := r.base.SelectBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	persisted, err := r.base.One(ctx, query, id)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// Save writes all mutable fields of the requirement and refreshes updated_at.
func (r *Repo) Save(ctx context.Context, req domain.Requirement) (*domain.Requirement, error) {
	citations, err := marshalCitations(req.Citations)
	if err != nil {
		return nil, fmt.Errorf("requirement %s: %w", req.ID, err)
	}

	update := r.base.UpdateBuilder().
		Set("control_family", string(req.ControlFamily)).
		Set("statement", req.Statement).
		Set("level", string(req.Level)).
		Set("test_procedures", testProcedures(req.TestProcedures)).
		Set("citations", citations).
		Set("status", string(req.Status)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": req.ID, "tenant_id": req.TenantID})

	persisted, err := r.base.UpdateReturning(ctx, update, req.ID)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// Delete removes the requirement. Returns domain.ErrNotFound if it does not exist.
func (r *Repo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	del := r.base.DeleteBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	affected, err := r.base.Exec(ctx, del, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("requirement %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List returns the requirements owned by the given assessment.
// A zero assessmentID returns all requirements within the tenant.
func (r *Repo) List(ctx context.Context, tenantID, assessmentID uuid.UUID) ([]domain.Requirement, error) {
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

	out := make([]domain.Requirement, len(rows))
	for i := range rows {
		req, err := toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		out[i] = *req
	}
	return out, nil
}

// DeleteByAssessment removes all requirements owned by the given assessment.
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

// testProcedures normalizes a nil slice to an empty array for the NOT NULL column.
func testProcedures(procs []string) []string {
	if procs == nil {
		return []string{}
	}
	return procs
}

func toDomain(r *row) (*domain.Requirement, error) {
	var citations []domain.Citation
	if len(r.Citations) > 0 {
		if err := json.Unmarshal(r.Citations, &citations); err != nil {
			return nil, fmt.Errorf("requirement %s: unmarshal citations: %w", r.ID, err)
		}
	}

	return &domain.Requirement{
		ID:             r.ID,
		TenantID:       r.TenantID,
		AssessmentID:   r.AssessmentID,
		ControlFamily:  domain.ControlFamily(r.ControlFamily),
		Statement:      r.Statement,
		Level:          domain.RequirementLevel(r.Level),
		TestProcedures: r.TestProcedures,
		Citations:      citations,
		Status:         domain.RequirementStatus(r.Status),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}, nil
}
