// Package audit implements the audit log repository using PostgreSQL.
// The log is append-only: no update or delete is ever issued.
package audit

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

const table = "audit_log"

var columns = []string{
	"id", "tenant_id", "actor", "action", "target_type", "target_id",
	"details", "created_at",
}

// DefaultQueryLimit caps audit queries that do not set an explicit limit.
const DefaultQueryLimit = 100

type row struct {
	ID         uuid.UUID `db:"id"`
	TenantID   uuid.UUID `db:"tenant_id"`
	Actor      string    `db:"actor"`
	Action     string    `db:"action"`
	TargetType string    `db:"target_type"`
	TargetID   uuid.UUID `db:"target_id"`
	Details    []byte    `db:"details"`
	CreatedAt  time.Time `db:"created_at"`
}

// Repo provides audit log persistence backed by PostgreSQL.
type Repo struct {
	base *crud.Base[row]
}

// New creates a new audit log repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{base: crud.NewBase[row](pool, table, "audit_entry", columns)}
}

// Append inserts a new audit entry and returns it as persisted.
// Runs on the transaction from ctx when present, so an entry commits
// atomically with the mutation it records.
func (r *Repo) Append(ctx context.Context, entry domain.AuditEntry) (*domain.AuditEntry, error) {
	details, err := domain.EncodeDetails(entry.Details)
	if err != nil {
		return nil, fmt.Errorf("audit_entry: %w", err)
	}

	insert := r.base.InsertBuilder().
		Columns("tenant_id", "actor", "action", "target_type", "target_id", "details").
		Values(entry.TenantID, entry.Actor, string(entry.Action), string(entry.TargetType), entry.TargetID, details)

	persisted, err := r.base.InsertReturning(ctx, insert, entry.TargetID)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted)
}

// Query returns audit entries matching the filter, newest first.
func (r *Repo) Query(ctx context.Context, tenantID uuid.UUID, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	query := r.base.SelectBuilder().
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("created_at DESC", "id DESC")

	if filter.TargetType != nil {
		query = query.Where(sq.Eq{"target_type": string(*filter.TargetType)})
	}
	if filter.TargetID != nil {
		query = query.Where(sq.Eq{"target_id": *filter.TargetID})
	}
	if filter.Actor != nil {
		query = query.Where(sq.Eq{"actor": *filter.Actor})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	query = query.Limit(uint64(limit))
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	rows, err := r.base.List(ctx, query)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.AuditEntry, len(rows))
	for i := range rows {
		entry, err := toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		entries[i] = *entry
	}
	return entries, nil
}

// CountByTarget returns the number of entries recorded against a target.
func (r *Repo) CountByTarget(ctx context.Context, tenantID uuid.UUID, targetType domain.EntityType, targetID uuid.UUID) (int, error) {
	query := crud.Builder().
		Select("count(*)").
		From(table).
		Where(sq.Eq{"tenant_id": tenantID, "target_type": string(targetType), "target_id": targetID})

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("audit_entry count: %w", err)
	}

	var count int
	if err := r.base.Q(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("audit_entry count: %w", err)
	}
	return count, nil
}

func toDomain(r *row) (*domain.AuditEntry, error) {
	action := domain.AuditAction(r.Action)

	details, err := domain.DecodeDetails(action, r.Details)
	if err != nil {
		return nil, fmt.Errorf("audit_entry %s: %w", r.ID, err)
	}

	return &domain.AuditEntry{
		ID:         r.ID,
		TenantID:   r.TenantID,
		Actor:      r.Actor,
		Action:     action,
		TargetType: domain.EntityType(r.TargetType),
		TargetID:   r.TargetID,
		Details:    details,
		CreatedAt:  r.CreatedAt,
	}, nil
}
