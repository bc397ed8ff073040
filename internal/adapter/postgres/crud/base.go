// Package crud provides a generic squirrel-backed repository base shared by
// all entity repositories. Each repository embeds Base parameterized with its
// row struct and adds entity-specific queries on top.
package crud

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attestiq/compliance-backend/internal/adapter/postgres"
)

// builder is the statement builder configured for PostgreSQL placeholders.
var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Builder returns the shared statement builder ($1-style placeholders).
func Builder() sq.StatementBuilderType {
	return builder
}

// Base implements common CRUD operations for a single table.
// R is the row struct with `db` tags matching the table columns.
type Base[R any] struct {
	pool    *pgxpool.Pool
	table   string
	entity  string
	columns []string

	returning string
}

// NewBase creates a Base for the given table.
// entity is the name used in error messages (e.g. "document").
func NewBase[R any](pool *pgxpool.Pool, table, entity string, columns []string) *Base[R] {
	return &Base[R]{
		pool:      pool,
		table:     table,
		entity:    entity,
		columns:   columns,
		returning: "RETURNING " + strings.Join(columns, ", "),
	}
}

// Q returns the active Querier: the transaction from ctx if present, else the pool.
func (b *Base[R]) Q(ctx context.Context) postgres.Querier {
	return postgres.QuerierFromCtx(ctx, b.pool)
}

// Table returns the table name.
func (b *Base[R]) Table() string { return b.table }

// SelectBuilder returns a SELECT over all configured columns.
func (b *Base[R]) SelectBuilder() sq.SelectBuilder {
	return builder.Select(b.columns...).From(b.table)
}

// InsertBuilder returns an INSERT into the table.
func (b *Base[R]) InsertBuilder() sq.InsertBuilder {
	return builder.Insert(b.table)
}

// UpdateBuilder returns an UPDATE of the table.
func (b *Base[R]) UpdateBuilder() sq.UpdateBuilder {
	return builder.Update(b.table)
}

// DeleteBuilder returns a DELETE from the table.
func (b *Base[R]) DeleteBuilder() sq.DeleteBuilder {
	return builder.Delete(b.table)
}

// One runs the query and scans exactly one row.
// No rows maps to domain.ErrNotFound. id is only used in error messages.
func (b *Base[R]) One(ctx context.Context, query sq.SelectBuilder, id uuid.UUID) (*R, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, b.entity, id)
	}

	var row R
	if err := pgxscan.Get(ctx, b.Q(ctx), &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, b.entity, id)
	}
	return &row, nil
}

// List runs the query and scans all rows. An empty result is not an error.
func (b *Base[R]) List(ctx context.Context, query sq.SelectBuilder) ([]R, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, b.entity, uuid.Nil)
	}

	var rows []R
	if err := pgxscan.Select(ctx, b.Q(ctx), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, b.entity, uuid.Nil)
	}
	if rows == nil {
		rows = []R{}
	}
	return rows, nil
}

// InsertReturning executes the insert with a RETURNING clause over all columns
// and scans the persisted row.
func (b *Base[R]) InsertReturning(ctx context.Context, insert sq.InsertBuilder, id uuid.UUID) (*R, error) {
	sql, args, err := insert.Suffix(b.returning).ToSql()
	if err != nil {
		return nil, postgres.MapError(err, b.entity, id)
	}

	var row R
	if err := pgxscan.Get(ctx, b.Q(ctx), &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, b.entity, id)
	}
	return &row, nil
}

// UpdateReturning executes the update with a RETURNING clause over all columns
// and scans the updated row. Zero matched rows maps to domain.ErrNotFound.
func (b *Base[R]) UpdateReturning(ctx context.Context, update sq.UpdateBuilder, id uuid.UUID) (*R, error) {
	sql, args, err := update.Suffix(b.returning).ToSql()
	if err != nil {
		return nil, postgres.MapError(err, b.entity, id)
	}

	var row R
	if err := pgxscan.Get(ctx, b.Q(ctx), &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, b.entity, id)
	}
	return &row, nil
}

// Exec executes a statement and returns the number of affected rows.
func (b *Base[R]) Exec(ctx context.Context, query sq.Sqlizer, id uuid.UUID) (int64, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return 0, postgres.MapError(err, b.entity, id)
	}

	tag, err := b.Q(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, b.entity, id)
	}
	return tag.RowsAffected(), nil
}
