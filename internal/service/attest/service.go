// Package attest implements the attestation workflow: one logical
// attestation per (subject id, subject type), overwritten in place, with
// history preserved only through ATTEST audit entries.
package attest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/attestiq/compliance-backend/internal/domain"
	"github.com/attestiq/compliance-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type attestationRepo interface {
	Upsert(ctx context.Context, a domain.Attestation) (*domain.Attestation, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Attestation, error)
	GetBySubject(ctx context.Context, tenantID, subjectID uuid.UUID, subjectType domain.SubjectType) (*domain.Attestation, error)
	ListBySubjects(ctx context.Context, tenantID uuid.UUID, subjectType domain.SubjectType, subjectIDs []uuid.UUID) ([]domain.Attestation, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type auditRepo interface {
	Append(ctx context.Context, entry domain.AuditEntry) (*domain.AuditEntry, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// ---------------------------------------------------------------------------
// Inputs
// ---------------------------------------------------------------------------

// UpsertInput carries one attestation write.
type UpsertInput struct {
	SubjectID   uuid.UUID
	SubjectType domain.SubjectType
	Status      domain.AttestationStatus
	Owner       *string
	EvidenceURI *string
	Notes       *string
}

// Validate checks the input and collects all errors.
func (in UpsertInput) Validate() error {
	var errs []domain.FieldError
	if in.SubjectID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "subject_id", Message: "required"})
	}
	if !in.SubjectType.IsValid() {
		errs = append(errs, domain.FieldError{Field: "subject_type", Message: "must be requirement or finding"})
	}
	if !in.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "must be HAVE, PARTIAL or NO"})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the attestation business logic.
type Service struct {
	log          *slog.Logger
	attestations attestationRepo
	audit        auditRepo
	tx           txManager
}

// NewService creates a new attestation service.
func NewService(logger *slog.Logger, attestations attestationRepo, audit auditRepo, tx txManager) *Service {
	return &Service{
		log:          logger.With("service", "attest"),
		attestations: attestations,
		audit:        audit,
		tx:           tx,
	}
}

// UpsertForSubject records the reviewer's implementation status for a
// requirement or finding. The previous attestation, if any, is overwritten;
// an ATTEST audit entry carries both states so history survives in the log.
func (s *Service) UpsertForSubject(ctx context.Context, input UpsertInput) (*domain.Attestation, error) {
	tenantID, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	var attested *domain.Attestation

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var details domain.AttestDetails

		before, err := s.attestations.GetBySubject(txCtx, tenantID, input.SubjectID, input.SubjectType)
		switch {
		case err == nil:
			snap, snapErr := domain.Snapshot(before)
			if snapErr != nil {
				return snapErr
			}
			details.Before = snap
		case errors.Is(err, domain.ErrNotFound):
			// first attestation for this subject
		default:
			return err
		}

		attested, err = s.attestations.Upsert(txCtx, domain.Attestation{
			TenantID:    tenantID,
			SubjectID:   input.SubjectID,
			SubjectType: input.SubjectType,
			Status:      input.Status,
			Owner:       input.Owner,
			EvidenceURI: input.EvidenceURI,
			Notes:       input.Notes,
		})
		if err != nil {
			return err
		}

		after, err := domain.Snapshot(attested)
		if err != nil {
			return err
		}
		details.After = after

		_, err = s.audit.Append(txCtx, domain.AuditEntry{
			TenantID:   tenantID,
			Actor:      actor,
			Action:     domain.AuditActionAttest,
			TargetType: domain.EntityTypeAttestation,
			TargetID:   attested.ID,
			Details:    details,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.DebugContext(ctx, "attestation recorded",
		slog.String("subject_id", input.SubjectID.String()),
		slog.String("subject_type", string(input.SubjectType)),
		slog.String("status", string(input.Status)),
		slog.String("actor", actor),
	)

	return attested, nil
}

// GetForSubject returns the current attestation covering a subject.
func (s *Service) GetForSubject(ctx context.Context, subjectID uuid.UUID, subjectType domain.SubjectType) (*domain.Attestation, error) {
	tenantID, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.attestations.GetBySubject(ctx, tenantID, subjectID, subjectType)
}

// ListForSubjects returns the attestations covering the given subjects.
// Subjects without an attestation are simply absent from the result.
func (s *Service) ListForSubjects(ctx context.Context, subjectType domain.SubjectType, subjectIDs []uuid.UUID) ([]domain.Attestation, error) {
	tenantID, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	if !subjectType.IsValid() {
		return nil, domain.NewValidationError("subject_type", "must be requirement or finding")
	}
	return s.attestations.ListBySubjects(ctx, tenantID, subjectType, subjectIDs)
}

// Delete removes an attestation, appending a DELETE audit entry carrying the
// final state in the same transaction.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}
	actor, ok := ctxutil.ActorFromCtx(ctx)
	if !ok {
		return domain.ErrUnauthorized
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		before, err := s.attestations.GetByID(txCtx, tenantID, id)
		if err != nil {
			return err
		}

		if err := s.attestations.Delete(txCtx, tenantID, id); err != nil {
			return err
		}

		snap, err := domain.Snapshot(before)
		if err != nil {
			return err
		}
		_, err = s.audit.Append(txCtx, domain.AuditEntry{
			TenantID:   tenantID,
			Actor:      actor,
			Action:     domain.AuditActionDelete,
			TargetType: domain.EntityTypeAttestation,
			TargetID:   id,
			Details:    domain.DeleteDetails{Record: snap},
		})
		return err
	})
	if err != nil {
		return err
	}

	s.log.DebugContext(ctx, "attestation deleted",
		slog.String("attestation_id", id.String()),
		slog.String("actor", actor),
	)
	return nil
}
