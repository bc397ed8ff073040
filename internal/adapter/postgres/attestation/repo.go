// Package attestation implements the Attestation repository using PostgreSQL.
// One attestation row exists per (tenant, subject id, subject type); upserts
// overwrite in place and history lives in the audit log.
package attestation

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attestiq/compliance-backend/internal/adapter/postgres/crud"
	"github.com/attestiq/compliance-backend/internal/domain"
)

const table = "attestations"

var columns = []string{
	"id", "tenant_id", "subject_id", "subject_type", "status", "owner",
	"evidence_uri", "notes", "created_at", "updated_at",
}

type row struct {
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

// Repo provides attestation persistence backed by PostgreSQL.
type Repo struct {
	base *crud.Base[row]
}

// New creates a new attestation repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{base: crud.NewBase[row](pool, table, "attestation", columns)}
}

// Upsert inserts the attestation or, if one already exists for the subject,
// overwrites its status and descriptive fields. created_at survives the upsert.
func (r *Repo) Upsert(ctx context.Context, a domain.Attestation) (*domain.Attestation, error) {
	insert := r.base.InsertBuilder().
		Columns("tenant_id", "subject_id", "subject_type", "status", "owner", "evidence_uri", "notes").
		Values(a.TenantID, a.SubjectID, string(a.SubjectType), string(a.Status), a.Owner, a.EvidenceURI, a.Notes).
		Suffix(`ON CONFLICT (tenant_id, subject_id, subject_type) DO UPDATE SET
			status = EXCLUDED.status,
			owner = EXCLUDED.owner,
			evidence_uri = EXCLUDED.evidence_uri,
			notes = EXCLUDED.notes,
			updated_at = now()`)

	persisted, err := r.base.InsertReturning(ctx, insert, a.SubjectID)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted), nil
}

// GetByID returns the attestation with the given id within the tenant.
func (r *Repo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Attestation, error) {
	query := r.base.SelectBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	persisted, err := r.base.One(ctx, query, id)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted), nil
}

// GetBySubject returns the attestation covering the given subject, if any.
func (r *Repo) GetBySubject(ctx context.Context, tenantID, subjectID uuid.UUID, subjectType domain.SubjectType) (*domain.Attestation, error) {
	query := r.base.SelectBuilder().
		Where(sq.Eq{
			"tenant_id":    tenantID,
			"subject_id":   subjectID,
			"subject_type": string(subjectType),
		})

	persisted, err := r.base.One(ctx, query, subjectID)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted), nil
}

// ListBySubjects returns the attestations covering the given subjects.
// Subjects without an attestation are silently absent from the result.
func (r *Repo) ListBySubjects(ctx context.Context, tenantID uuid.UUID, subjectType domain.SubjectType, subjectIDs []uuid.UUID) ([]domain.Attestation, error) {
	if len(subjectIDs) == 0 {
		return []domain.Attestation{}, nil
	}

	query := r.base.SelectBuilder().
		Where(sq.Eq{
			"tenant_id":    tenantID,
			"subject_type": string(subjectType),
			"subject_id":   subjectIDs,
		})

	rows, err := r.base.List(ctx, query)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Attestation, len(rows))
	for i := range rows {
		out[i] = *toDomain(&rows[i])
	}
	return out, nil
}

// Delete removes the attestation. Returns domain.ErrNotFound if it does not exist.
func (r *Repo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	del := r.base.DeleteBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	affected, err := r.base.Exec(ctx, del, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("attestation %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func toDomain(r *row) *domain.Attestation {
	return &domain.Attestation{
		ID:          r.ID,
		TenantID:    r.TenantID,
		SubjectID:   r.SubjectID,
		SubjectType: domain.SubjectType(r.SubjectType),
		Status:      domain.AttestationStatus(r.Status),
		Owner:       r.Owner,
		EvidenceURI: r.EvidenceURI,
		Notes:       r.Notes,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
