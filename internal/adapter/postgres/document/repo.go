// Package document implements the Document repository using PostgreSQL.
package document

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

const table = "documents"

var columns = []string{
	"id", "tenant_id", "name", "doc_type", "size_bytes", "status",
	"page_count", "content_hash", "created_at", "updated_at",
}

type row struct {
	ID          uuid.UUID `db:"id"`
	TenantID    uuid.UUID `db:"tenant_id"`
	Name        string    `db:"name"`
	DocType     string    `db:"doc_type"`
	SizeBytes   int64     `db:"size_bytes"`
	Status      string    `db:"status"`
	PageCount   *int      `db:"page_count"`
	ContentHash *string   `db:"content_hash"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Repo provides document persistence backed by PostgreSQL.
type Repo struct {
	base *crud.Base[row]
}

// New creates a new document repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{base: crud.NewBase[row](pool, table, "document", columns)}
}

// Create inserts a new document. ID and timestamps are assigned by the database.
func (r *Repo) Create(ctx context.Context, d domain.Document) (*domain.Document, error) {
	insert := r.base.InsertBuilder().
		Columns("tenant_id", "name", "doc_type", "size_bytes", "status", "page_count", "content_hash").
		Values(d.TenantID, d.Name, string(d.Type), d.SizeBytes, string(d.Status), d.PageCount, d.ContentHash)

	persisted, err := r.base.InsertReturning(ctx, insert, uuid.Nil)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted), nil
}

// GetByID returns the document with the given id within the tenant.
func (r *Repo) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Document, error) {
	query := r.base.SelectBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	persisted, err := r.base.One(ctx, query, id)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted), nil
}

// Save writes all mutable fields of the document and refreshes updated_at.
func (r *Repo) Save(ctx context.Context, d domain.Document) (*domain.Document, error) {
	update := r.base.UpdateBuilder().
		Set("name", d.Name).
		Set("doc_type", string(d.Type)).
		Set("size_bytes", d.SizeBytes).
		Set("status", string(d.Status)).
		Set("page_count", d.PageCount).
		Set("content_hash", d.ContentHash).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"id": d.ID, "tenant_id": d.TenantID})

	persisted, err := r.base.UpdateReturning(ctx, update, d.ID)
	if err != nil {
		return nil, err
	}
	return toDomain(persisted), nil
}

// Delete removes the document. Returns domain.ErrNotFound if it does not exist.
func (r *Repo) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	del := r.base.DeleteBuilder().
		Where(sq.Eq{"id": id, "tenant_id": tenantID})

	affected, err := r.base.Exec(ctx, del, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List returns all documents within the tenant, newest first.
// Documents are tenant-scoped, so the assessment filter is ignored.
func (r *Repo) List(ctx context.Context, tenantID, _ uuid.UUID) ([]domain.Document, error) {
	query := r.base.SelectBuilder().
		Where(sq.Eq{"tenant_id": tenantID}).
		OrderBy("created_at DESC")

	rows, err := r.base.List(ctx, query)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, len(rows))
	for i := range rows {
		docs[i] = *toDomain(&rows[i])
	}
	return docs, nil
}

// GetByIDs returns the documents matching the given ids within the tenant.
// Missing ids are silently absent from the result.
func (r *Repo) GetByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]domain.Document, error) {
	if len(ids) == 0 {
		return []domain.Document{}, nil
	}

	query := r.base.SelectBuilder().
		Where(sq.Eq{"tenant_id": tenantID, "id": ids})

	rows, err := r.base.List(ctx, query)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.Document, len(rows))
	for i := range rows {
		docs[i] = *toDomain(&rows[i])
	}
	return docs, nil
}

func toDomain(r *row) *domain.Document {
	return &domain.Document{
		ID:          r.ID,
		TenantID:    r.TenantID,
		Name:        r.Name,
		Type:        domain.DocumentType(r.DocType),
		SizeBytes:   r.SizeBytes,
		Status:      domain.DocumentStatus(r.Status),
		PageCount:   r.PageCount,
		ContentHash: r.ContentHash,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
