// Package records implements the entity CRUD workflow shared by all record
// kinds: validate, write inside a transaction, and append an audit entry
// carrying before/after snapshots. One Service instance is created per
// entity kind; the per-kind differences are injected through Config.
package records

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/attestiq/compliance-backend/internal/domain"
	"github.com/attestiq/compliance-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

// Record is any entity with create-time validation.
type Record interface {
	Validate() error
}

// Patch is a partial edit for a record of type T.
type Patch[T any] interface {
	Validate() error
	Apply(*T)
}

// Repo is the persistence contract one entity kind provides.
type Repo[T any] interface {
	Create(ctx context.Context, rec T) (*T, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*T, error)
	Save(ctx context.Context, rec T) (*T, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID, assessmentID uuid.UUID) ([]T, error)
}

type auditRepo interface {
	Append(ctx context.Context, entry domain.AuditEntry) (*domain.AuditEntry, error)
}

type assessmentRepo interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Assessment, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Config wires one entity kind into the generic CRUD workflow.
// ID, SetTenantID and Repo are required. AssessmentID and Citations are set
// for assessment-scoped kinds carrying citations; Assessments must then be
// set too, so writes can reject citations of documents outside the owning
// assessment's scope.
type Config[T Record, P Patch[T]] struct {
	EntityType   domain.EntityType
	Repo         Repo[T]
	ID           func(*T) uuid.UUID
	SetTenantID  func(*T, uuid.UUID)
	AssessmentID func(*T) uuid.UUID
	Citations    func(*T) []domain.Citation
	Assessments  assessmentRepo
}

// Service implements audited CRUD for one entity kind.
type Service[T Record, P Patch[T]] struct {
	log   *slog.Logger
	cfg   Config[T, P]
	audit auditRepo
	tx    txManager
}

// NewService creates a CRUD service for one entity kind.
func NewService[T Record, P Patch[T]](logger *slog.Logger, cfg Config[T, P], audit auditRepo, tx txManager) *Service[T, P] {
	return &Service[T, P]{
		log:   logger.With("service", "records", "entity", string(cfg.EntityType)),
		cfg:   cfg,
		audit: audit,
		tx:    tx,
	}
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// Create validates and persists a new record, appending a CREATE audit entry
// in the same transaction.
func (s *Service[T, P]) Create(ctx context.Context, rec T) (*T, error) {
	tenantID, actor, err := callerFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	s.cfg.SetTenantID(&rec, tenantID)
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	var created *T

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.checkCitations(txCtx, tenantID, &rec); err != nil {
			return err
		}

		created, err = s.cfg.Repo.Create(txCtx, rec)
		if err != nil {
			return err
		}

		snapshot, err := domain.Snapshot(created)
		if err != nil {
			return err
		}

		_, err = s.audit.Append(txCtx, domain.AuditEntry{
			TenantID:   tenantID,
			Actor:      actor,
			Action:     domain.AuditActionCreate,
			TargetType: s.cfg.EntityType,
			TargetID:   s.cfg.ID(created),
			Details:    domain.CreateDetails{Record: snapshot},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "record created",
		slog.String("id", s.cfg.ID(created).String()),
		slog.String("actor", actor),
	)

	return created, nil
}

// Get returns the record with the given id.
func (s *Service[T, P]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	tenantID, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.cfg.Repo.GetByID(ctx, tenantID, id)
}

// List returns records, optionally scoped to an owning assessment
// (uuid.Nil lists everything within the tenant).
func (s *Service[T, P]) List(ctx context.Context, assessmentID uuid.UUID) ([]T, error) {
	tenantID, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.cfg.Repo.List(ctx, tenantID, assessmentID)
}

// Update merges the patch onto the stored record, appending an UPDATE audit
// entry with both snapshots in the same transaction.
func (s *Service[T, P]) Update(ctx context.Context, id uuid.UUID, patch P) (*T, error) {
	tenantID, actor, err := callerFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated *T

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		before, err := s.cfg.Repo.GetByID(txCtx, tenantID, id)
		if err != nil {
			return err
		}

		merged := *before
		patch.Apply(&merged)

		if err := s.checkCitations(txCtx, tenantID, &merged); err != nil {
			return err
		}

		updated, err = s.cfg.Repo.Save(txCtx, merged)
		if err != nil {
			return err
		}

		beforeSnap, err := domain.Snapshot(before)
		if err != nil {
			return err
		}
		afterSnap, err := domain.Snapshot(updated)
		if err != nil {
			return err
		}

		_, err = s.audit.Append(txCtx, domain.AuditEntry{
			TenantID:   tenantID,
			Actor:      actor,
			Action:     domain.AuditActionUpdate,
			TargetType: s.cfg.EntityType,
			TargetID:   id,
			Details:    domain.UpdateDetails{Before: beforeSnap, After: afterSnap},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "record updated",
		slog.String("id", id.String()),
		slog.String("actor", actor),
	)

	return updated, nil
}

// Delete removes the record, appending a DELETE audit entry with the removed
// record in the same transaction. A second delete of the same id is NotFound
// and appends nothing.
func (s *Service[T, P]) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, actor, err := callerFromCtx(ctx)
	if err != nil {
		return err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		removed, err := s.cfg.Repo.GetByID(txCtx, tenantID, id)
		if err != nil {
			return err
		}

		if err := s.cfg.Repo.Delete(txCtx, tenantID, id); err != nil {
			return err
		}

		snapshot, err := domain.Snapshot(removed)
		if err != nil {
			return err
		}

		_, err = s.audit.Append(txCtx, domain.AuditEntry{
			TenantID:   tenantID,
			Actor:      actor,
			Action:     domain.AuditActionDelete,
			TargetType: s.cfg.EntityType,
			TargetID:   id,
			Details:    domain.DeleteDetails{Record: snapshot},
		})
		return err
	})
	if err != nil {
		return err
	}

	s.log.DebugContext(ctx, "record deleted",
		slog.String("id", id.String()),
		slog.String("actor", actor),
	)

	return nil
}

// ---------------------------------------------------------------------------
// Helpers (private)
// ---------------------------------------------------------------------------

// checkCitations rejects citations referencing documents outside the owning
// assessment's document set. Kinds without citations skip the check.
func (s *Service[T, P]) checkCitations(ctx context.Context, tenantID uuid.UUID, rec *T) error {
	if s.cfg.Citations == nil {
		return nil
	}

	citations := s.cfg.Citations(rec)
	if len(citations) == 0 {
		return nil
	}

	owner, err := s.cfg.Assessments.GetByID(ctx, tenantID, s.cfg.AssessmentID(rec))
	if err != nil {
		return fmt.Errorf("resolve owning assessment: %w", err)
	}

	for _, c := range citations {
		if !owner.HasDocument(c.DocumentID) {
			return domain.NewValidationError("citations",
				fmt.Sprintf("document %s is not part of assessment %s", c.DocumentID, owner.ID))
		}
	}
	return nil
}

func callerFromCtx(ctx context.Context) (uuid.UUID, string, error) {
	tenantID, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return uuid.Nil, "", domain.ErrUnauthorized
	}
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return uuid.Nil, "", domain.ErrUnauthorized
	}
	return tenantID, actor, nil
}
