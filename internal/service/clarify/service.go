// Package clarify implements clarification resolution: flipping an open
// question from UNCERTAIN to RESOLVED exactly once.
package clarify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/attestiq/compliance-backend/internal/domain"
	"github.com/attestiq/compliance-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type clarificationRepo interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Clarification, error)
	Save(ctx context.Context, c domain.Clarification) (*domain.Clarification, error)
}

type auditRepo interface {
	Append(ctx context.Context, entry domain.AuditEntry) (*domain.AuditEntry, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the clarification resolution logic.
type Service struct {
	log            *slog.Logger
	clarifications clarificationRepo
	audit          auditRepo
	tx             txManager
}

// NewService creates a new clarification service.
func NewService(logger *slog.Logger, clarifications clarificationRepo, audit auditRepo, tx txManager) *Service {
	return &Service{
		log:            logger.With("service", "clarify"),
		clarifications: clarifications,
		audit:          audit,
		tx:             tx,
	}
}

// Resolve flips an UNCERTAIN clarification to RESOLVED, recording the answer
// and the resolving actor. Resolving an already-resolved clarification is an
// invalid transition. A RESOLVE audit entry carries both states.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID, resolution string) (*domain.Clarification, error) {
	tenantID, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		return nil, domain.NewValidationError("resolution", "required")
	}

	var resolved *domain.Clarification

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		before, err := s.clarifications.GetByID(txCtx, tenantID, id)
		if err != nil {
			return err
		}

		if before.Status == domain.ClarificationStatusResolved {
			return fmt.Errorf("clarification %s is already resolved: %w", id, domain.ErrInvalidTransition)
		}

		updated := *before
		updated.Status = domain.ClarificationStatusResolved
		updated.Resolution = &resolution
		updated.ResolvedBy = &actor

		resolved, err = s.clarifications.Save(txCtx, updated)
		if err != nil {
			return err
		}

		beforeSnap, err := domain.Snapshot(before)
		if err != nil {
			return err
		}
		afterSnap, err := domain.Snapshot(resolved)
		if err != nil {
			return err
		}

		_, err = s.audit.Append(txCtx, domain.AuditEntry{
			TenantID:   tenantID,
			Actor:      actor,
			Action:     domain.AuditActionResolve,
			TargetType: domain.EntityTypeClarification,
			TargetID:   id,
			Details:    domain.ResolveDetails{Before: beforeSnap, After: afterSnap},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "clarification resolved",
		slog.String("id", id.String()),
		slog.String("actor", actor),
	)

	return resolved, nil
}
