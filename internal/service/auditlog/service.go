// Package auditlog exposes read access to the append-only audit trail.
package auditlog

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/attestiq/compliance-backend/internal/domain"
	"github.com/attestiq/compliance-backend/pkg/ctxutil"
)

type auditRepo interface {
	Query(ctx context.Context, tenantID uuid.UUID, filter domain.AuditFilter) ([]domain.AuditEntry, error)
	CountByTarget(ctx context.Context, tenantID uuid.UUID, targetType domain.EntityType, targetID uuid.UUID) (int, error)
}

// Service implements audit trail queries. There is no write path here; audit
// entries are appended by the mutating services inside their transactions.
type Service struct {
	log   *slog.Logger
	audit auditRepo
}

// NewService creates a new audit query service.
func NewService(logger *slog.Logger, audit auditRepo) *Service {
	return &Service{
		log:   logger.With("service", "auditlog"),
		audit: audit,
	}
}

// Query returns the tenant's audit entries matching the filter, newest first.
func (s *Service) Query(ctx context.Context, filter domain.AuditFilter) ([]domain.AuditEntry, error) {
	tenantID, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, domain.NewValidationError("filter", "limit and offset must be non-negative")
	}
	return s.audit.Query(ctx, tenantID, filter)
}

// CountByTarget returns how many audit entries reference one record.
func (s *Service) CountByTarget(ctx context.Context, targetType domain.EntityType, targetID uuid.UUID) (int, error) {
	tenantID, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return 0, domain.ErrUnauthorized
	}
	return s.audit.CountByTarget(ctx, tenantID, targetType, targetID)
}
