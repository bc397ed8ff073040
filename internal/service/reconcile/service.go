// Package reconcile implements the orphan sweep: assessment deletion does not
// cascade, so records referencing deleted assessments are collected here in
// batches, with audited deletes under the reconciler actor.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	pgreconcile "github.com/attestiq/compliance-backend/internal/adapter/postgres/reconcile"
	"github.com/attestiq/compliance-backend/internal/config"
	"github.com/attestiq/compliance-backend/internal/domain"
)

// Actor recorded on every audit entry the sweep appends.
const Actor = "reconciler"

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type orphanRepo interface {
	OrphanAssessments(ctx context.Context, limit int) ([]pgreconcile.Ref, error)
	OrphanAttestationTenants(ctx context.Context) ([]uuid.UUID, error)
	DeleteOrphanAttestations(ctx context.Context, tenantID uuid.UUID) ([]domain.Attestation, error)
}

// recordSweeper is the per-kind bulk delete every record repository provides.
type recordSweeper interface {
	DeleteByAssessment(ctx context.Context, tenantID, assessmentID uuid.UUID) (int64, error)
}

type auditRepo interface {
	Append(ctx context.Context, entry domain.AuditEntry) (*domain.AuditEntry, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Sweepers bundles the record repositories by entity type.
type Sweepers map[domain.EntityType]recordSweeper

// Stats summarizes one sweep.
type Stats struct {
	Assessments  int
	Records      map[domain.EntityType]int64
	Attestations int64
}

// sweepDetails is the audit payload for one swept scope and kind.
type sweepDetails struct {
	AssessmentID uuid.UUID `json:"assessment_id"`
	Deleted      int64     `json:"deleted"`
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service runs the orphan sweep.
type Service struct {
	log      *slog.Logger
	orphans  orphanRepo
	sweepers Sweepers
	audit    auditRepo
	tx       txManager
	cfg      config.ReconcileConfig
}

// NewService creates a reconcile service.
func NewService(logger *slog.Logger, orphans orphanRepo, sweepers Sweepers, audit auditRepo, tx txManager, cfg config.ReconcileConfig) *Service {
	return &Service{
		log:      logger.With("service", "reconcile"),
		orphans:  orphans,
		sweepers: sweepers,
		audit:    audit,
		tx:       tx,
		cfg:      cfg,
	}
}

// Sweep deletes all records whose assessment no longer exists, batch by
// batch, then drops attestations whose subject row is gone.
func (s *Service) Sweep(ctx context.Context) (*Stats, error) {
	stats := &Stats{Records: map[domain.EntityType]int64{}}

	for {
		refs, err := s.orphans.OrphanAssessments(ctx, s.cfg.BatchSize)
		if err != nil {
			return nil, fmt.Errorf("scan orphans: %w", err)
		}
		if len(refs) == 0 {
			break
		}

		for _, ref := range refs {
			if err := s.sweepScope(ctx, ref, stats); err != nil {
				return nil, fmt.Errorf("sweep assessment %s: %w", ref.AssessmentID, err)
			}
			stats.Assessments++
		}

		if len(refs) < s.cfg.BatchSize {
			break
		}
	}

	tenants, err := s.orphans.OrphanAttestationTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan orphan attestations: %w", err)
	}
	for _, tenantID := range tenants {
		if err := s.sweepAttestations(ctx, tenantID, stats); err != nil {
			return nil, fmt.Errorf("sweep attestations for tenant %s: %w", tenantID, err)
		}
	}

	s.log.InfoContext(ctx, "sweep finished",
		slog.Int("assessments", stats.Assessments),
		slog.Int64("attestations", stats.Attestations),
	)
	return stats, nil
}

// sweepScope deletes one orphaned assessment's records in one transaction,
// appending a DELETE audit entry per swept kind.
func (s *Service) sweepScope(ctx context.Context, ref pgreconcile.Ref, stats *Stats) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for entityType, sweeper := range s.sweepers {
			n, err := sweeper.DeleteByAssessment(txCtx, ref.TenantID, ref.AssessmentID)
			if err != nil {
				return err
			}
			if n == 0 {
				continue
			}
			stats.Records[entityType] += n

			snap, err := domain.Snapshot(sweepDetails{AssessmentID: ref.AssessmentID, Deleted: n})
			if err != nil {
				return err
			}
			_, err = s.audit.Append(txCtx, domain.AuditEntry{
				TenantID:   ref.TenantID,
				Actor:      Actor,
				Action:     domain.AuditActionDelete,
				TargetType: entityType,
				TargetID:   ref.AssessmentID,
				Details:    domain.DeleteDetails{Record: snap},
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// sweepAttestations deletes one tenant's attestations whose subject row is
// gone, in one transaction, appending a DELETE audit entry per attestation.
func (s *Service) sweepAttestations(ctx context.Context, tenantID uuid.UUID, stats *Stats) error {
	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		deleted, err := s.orphans.DeleteOrphanAttestations(txCtx, tenantID)
		if err != nil {
			return err
		}
		stats.Attestations += int64(len(deleted))

		for _, att := range deleted {
			snap, err := domain.Snapshot(att)
			if err != nil {
				return err
			}
			_, err = s.audit.Append(txCtx, domain.AuditEntry{
				TenantID:   tenantID,
				Actor:      Actor,
				Action:     domain.AuditActionDelete,
				TargetType: domain.EntityTypeAttestation,
				TargetID:   att.ID,
				Details:    domain.DeleteDetails{Record: snap},
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
