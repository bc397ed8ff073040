package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/attestiq/compliance-backend/internal/adapter/postgres"
	assessmentstore "github.com/attestiq/compliance-backend/internal/adapter/postgres/assessment"
	attestationstore "github.com/attestiq/compliance-backend/internal/adapter/postgres/attestation"
	auditstore "github.com/attestiq/compliance-backend/internal/adapter/postgres/audit"
	clarificationstore "github.com/attestiq/compliance-backend/internal/adapter/postgres/clarification"
	documentstore "github.com/attestiq/compliance-backend/internal/adapter/postgres/document"
	findingstore "github.com/attestiq/compliance-backend/internal/adapter/postgres/finding"
	obligationstore "github.com/attestiq/compliance-backend/internal/adapter/postgres/obligation"
	penaltystore "github.com/attestiq/compliance-backend/internal/adapter/postgres/penalty"
	reconcilestore "github.com/attestiq/compliance-backend/internal/adapter/postgres/reconcile"
	requirementstore "github.com/attestiq/compliance-backend/internal/adapter/postgres/requirement"
	timelinestore "github.com/attestiq/compliance-backend/internal/adapter/postgres/timeline"
	"github.com/attestiq/compliance-backend/internal/adapter/provider/analysis"
	"github.com/attestiq/compliance-backend/internal/config"
	"github.com/attestiq/compliance-backend/internal/domain"
	"github.com/attestiq/compliance-backend/internal/service/assessment"
	"github.com/attestiq/compliance-backend/internal/service/attest"
	"github.com/attestiq/compliance-backend/internal/service/auditlog"
	"github.com/attestiq/compliance-backend/internal/service/clarify"
	"github.com/attestiq/compliance-backend/internal/service/reconcile"
	"github.com/attestiq/compliance-backend/internal/service/records"
)

// Core holds the wired application: one service per workflow, sharing a
// single connection pool and transaction manager.
type Core struct {
	Log *slog.Logger

	Assessments    *assessment.Service
	Documents      *records.Service[domain.Document, domain.DocumentPatch]
	Requirements   *records.Service[domain.Requirement, domain.RequirementPatch]
	Findings       *records.Service[domain.Finding, domain.FindingPatch]
	Penalties      *records.Service[domain.Penalty, domain.PenaltyPatch]
	Obligations    *records.Service[domain.Obligation, domain.ObligationPatch]
	Timeline       *records.Service[domain.TimelineEvent, domain.TimelineEventPatch]
	Clarifications *records.Service[domain.Clarification, domain.ClarificationPatch]
	Attest         *attest.Service
	Clarify        *clarify.Service
	AuditLog       *auditlog.Service
	Reconcile      *reconcile.Service

	pool *pgxpool.Pool
}

// NewCore connects to the database and wires every repository and service.
// The caller owns the Core and must Close it.
func NewCore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Core, error) {
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return NewCoreWithPool(pool, cfg, logger), nil
}

// NewCoreWithPool wires every repository and service on an existing pool.
// Used by NewCore and by tests that manage their own database.
func NewCoreWithPool(pool *pgxpool.Pool, cfg *config.Config, logger *slog.Logger) *Core {
	txm := postgres.NewTxManager(pool)

	assessments := assessmentstore.New(pool)
	documents := documentstore.New(pool)
	requirements := requirementstore.New(pool)
	findings := findingstore.New(pool)
	penalties := penaltystore.New(pool)
	obligations := obligationstore.New(pool)
	timeline := timelinestore.New(pool)
	clarifications := clarificationstore.New(pool)
	attestations := attestationstore.New(pool)
	auditLog := auditstore.New(pool)
	orphans := reconcilestore.New(pool)

	core := &Core{
		Log:  logger,
		pool: pool,
	}

	core.Assessments = assessment.NewService(logger, assessment.Repos{
		Assessments:    assessments,
		Documents:      documents,
		Requirements:   requirements,
		Findings:       findings,
		Penalties:      penalties,
		Obligations:    obligations,
		Timeline:       timeline,
		Clarifications: clarifications,
		Attestations:   attestations,
	}, analysis.NewStub(), auditLog, txm, cfg.Analysis)

	core.Documents = records.NewService(logger, records.Config[domain.Document, domain.DocumentPatch]{
		EntityType:  domain.EntityTypeDocument,
		Repo:        documents,
		ID:          func(d *domain.Document) uuid.UUID { return d.ID },
		SetTenantID: func(d *domain.Document, id uuid.UUID) { d.TenantID = id },
	}, auditLog, txm)

	core.Requirements = records.NewService(logger, records.Config[domain.Requirement, domain.RequirementPatch]{
		EntityType:   domain.EntityTypeRequirement,
		Repo:         requirements,
		ID:           func(r *domain.Requirement) uuid.UUID { return r.ID },
		SetTenantID:  func(r *domain.Requirement, id uuid.UUID) { r.TenantID = id },
		AssessmentID: func(r *domain.Requirement) uuid.UUID { return r.AssessmentID },
		Citations:    func(r *domain.Requirement) []domain.Citation { return r.Citations },
		Assessments:  assessments,
	}, auditLog, txm)

	core.Findings = records.NewService(logger, records.Config[domain.Finding, domain.FindingPatch]{
		EntityType:   domain.EntityTypeFinding,
		Repo:         findings,
		ID:           func(f *domain.Finding) uuid.UUID { return f.ID },
		SetTenantID:  func(f *domain.Finding, id uuid.UUID) { f.TenantID = id },
		AssessmentID: func(f *domain.Finding) uuid.UUID { return f.AssessmentID },
		Citations:    func(f *domain.Finding) []domain.Citation { return f.Citations() },
		Assessments:  assessments,
	}, auditLog, txm)

	core.Penalties = records.NewService(logger, records.Config[domain.Penalty, domain.PenaltyPatch]{
		EntityType:   domain.EntityTypePenalty,
		Repo:         penalties,
		ID:           func(p *domain.Penalty) uuid.UUID { return p.ID },
		SetTenantID:  func(p *domain.Penalty, id uuid.UUID) { p.TenantID = id },
		AssessmentID: func(p *domain.Penalty) uuid.UUID { return p.AssessmentID },
		Citations:    func(p *domain.Penalty) []domain.Citation { return p.Citations },
		Assessments:  assessments,
	}, auditLog, txm)

	core.Obligations = records.NewService(logger, records.Config[domain.Obligation, domain.ObligationPatch]{
		EntityType:   domain.EntityTypeObligation,
		Repo:         obligations,
		ID:           func(o *domain.Obligation) uuid.UUID { return o.ID },
		SetTenantID:  func(o *domain.Obligation, id uuid.UUID) { o.TenantID = id },
		AssessmentID: func(o *domain.Obligation) uuid.UUID { return o.AssessmentID },
		Citations:    func(o *domain.Obligation) []domain.Citation { return o.Citations },
		Assessments:  assessments,
	}, auditLog, txm)

	core.Timeline = records.NewService(logger, records.Config[domain.TimelineEvent, domain.TimelineEventPatch]{
		EntityType:   domain.EntityTypeTimeline,
		Repo:         timeline,
		ID:           func(e *domain.TimelineEvent) uuid.UUID { return e.ID },
		SetTenantID:  func(e *domain.TimelineEvent, id uuid.UUID) { e.TenantID = id },
		AssessmentID: func(e *domain.TimelineEvent) uuid.UUID { return e.AssessmentID },
		Citations:    func(e *domain.TimelineEvent) []domain.Citation { return e.Citations },
		Assessments:  assessments,
	}, auditLog, txm)

	core.Clarifications = records.NewService(logger, records.Config[domain.Clarification, domain.ClarificationPatch]{
		EntityType:   domain.EntityTypeClarification,
		Repo:         clarifications,
		ID:           func(c *domain.Clarification) uuid.UUID { return c.ID },
		SetTenantID:  func(c *domain.Clarification, id uuid.UUID) { c.TenantID = id },
		AssessmentID: func(c *domain.Clarification) uuid.UUID { return c.AssessmentID },
		Citations:    func(c *domain.Clarification) []domain.Citation { return c.Citations },
		Assessments:  assessments,
	}, auditLog, txm)

	core.Attest = attest.NewService(logger, attestations, auditLog, txm)
	core.Clarify = clarify.NewService(logger, clarifications, auditLog, txm)
	core.AuditLog = auditlog.NewService(logger, auditLog)

	core.Reconcile = reconcile.NewService(logger, orphans, reconcile.Sweepers{
		domain.EntityTypeRequirement:   requirements,
		domain.EntityTypeFinding:       findings,
		domain.EntityTypePenalty:       penalties,
		domain.EntityTypeObligation:    obligations,
		domain.EntityTypeTimeline:      timeline,
		domain.EntityTypeClarification: clarifications,
	}, auditLog, txm, cfg.Reconcile)

	return core
}

// Close releases the connection pool.
func (c *Core) Close() {
	c.pool.Close()
}

// Run is the application entry point: it loads configuration, wires the Core
// and blocks until the context is canceled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	core, err := NewCore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer core.Close()

	logger.Info("application ready")

	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}
