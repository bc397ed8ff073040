// Package assessment implements the assessment lifecycle: draft editing, the
// draft→running→completed/failed run, and deletion.
package assessment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/attestiq/compliance-backend/internal/config"
	"github.com/attestiq/compliance-backend/internal/domain"
	"github.com/attestiq/compliance-backend/internal/provider"
	"github.com/attestiq/compliance-backend/internal/service/scoring"
	"github.com/attestiq/compliance-backend/pkg/ctxutil"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type assessmentRepo interface {
	Create(ctx context.Context, a domain.Assessment) (*domain.Assessment, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Assessment, error)
	Save(ctx context.Context, a domain.Assessment) (*domain.Assessment, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	List(ctx context.Context, tenantID, assessmentID uuid.UUID) ([]domain.Assessment, error)
	TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, from, to domain.AssessmentStatus) (*domain.Assessment, error)
	SetCompleted(ctx context.Context, tenantID, id uuid.UUID, score domain.Score, completedAt time.Time) (*domain.Assessment, error)
	SetFailed(ctx context.Context, tenantID, id uuid.UUID) (*domain.Assessment, error)
}

type documentRepo interface {
	GetByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]domain.Document, error)
}

type requirementRepo interface {
	Create(ctx context.Context, req domain.Requirement) (*domain.Requirement, error)
}

type findingRepo interface {
	Create(ctx context.Context, f domain.Finding) (*domain.Finding, error)
}

type penaltyRepo interface {
	Create(ctx context.Context, p domain.Penalty) (*domain.Penalty, error)
}

type obligationRepo interface {
	Create(ctx context.Context, o domain.Obligation) (*domain.Obligation, error)
}

type timelineRepo interface {
	Create(ctx context.Context, e domain.TimelineEvent) (*domain.TimelineEvent, error)
}

type clarificationRepo interface {
	Create(ctx context.Context, c domain.Clarification) (*domain.Clarification, error)
}

type attestationRepo interface {
	ListBySubjects(ctx context.Context, tenantID uuid.UUID, subjectType domain.SubjectType, subjectIDs []uuid.UUID) ([]domain.Attestation, error)
}

type auditRepo interface {
	Append(ctx context.Context, entry domain.AuditEntry) (*domain.AuditEntry, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type analyzer interface {
	Analyze(ctx context.Context, assessment domain.Assessment, documents []domain.Document, promptPacks []string) (*provider.ExtractionResult, error)
}

// Repos bundles the stores the lifecycle touches.
type Repos struct {
	Assessments    assessmentRepo
	Documents      documentRepo
	Requirements   requirementRepo
	Findings       findingRepo
	Penalties      penaltyRepo
	Obligations    obligationRepo
	Timeline       timelineRepo
	Clarifications clarificationRepo
	Attestations   attestationRepo
}

// ---------------------------------------------------------------------------
// Inputs
// ---------------------------------------------------------------------------

// CreateInput holds the data needed to create a draft assessment.
type CreateInput struct {
	Name         string
	PromptPacks  []string
	DocumentIDs  []uuid.UUID
	Jurisdiction *string
}

// Validate checks all fields and collects all errors.
func (in CreateInput) Validate() error {
	var errs []domain.FieldError
	if in.Name == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "required"})
	}
	for _, pack := range in.PromptPacks {
		if pack == "" {
			errs = append(errs, domain.FieldError{Field: "prompt_packs", Message: "empty prompt pack id"})
			break
		}
	}
	for _, id := range in.DocumentIDs {
		if id == uuid.Nil {
			errs = append(errs, domain.FieldError{Field: "document_ids", Message: "empty document id"})
			break
		}
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the assessment lifecycle logic.
type Service struct {
	log      *slog.Logger
	repos    Repos
	analyzer analyzer
	audit    auditRepo
	tx       txManager
	cfg      config.AnalysisConfig
}

// NewService creates a new assessment service.
func NewService(logger *slog.Logger, repos Repos, analyzer analyzer, audit auditRepo, tx txManager, cfg config.AnalysisConfig) *Service {
	return &Service{
		log:      logger.With("service", "assessment"),
		repos:    repos,
		analyzer: analyzer,
		audit:    audit,
		tx:       tx,
		cfg:      cfg,
	}
}

// Create inserts a new draft assessment. Documents may be empty at this
// point; run enforces scope later. Referenced documents must exist for the
// caller's tenant.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Assessment, error) {
	tenantID, actor, err := callerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Assessment
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.resolveDocuments(txCtx, tenantID, in.DocumentIDs); err != nil {
			return err
		}

		created, err = s.repos.Assessments.Create(txCtx, domain.Assessment{
			TenantID:     tenantID,
			Name:         in.Name,
			PromptPacks:  in.PromptPacks,
			DocumentIDs:  in.DocumentIDs,
			Jurisdiction: in.Jurisdiction,
			Status:       domain.AssessmentStatusDraft,
		})
		if err != nil {
			return err
		}

		snap, err := domain.Snapshot(created)
		if err != nil {
			return err
		}
		_, err = s.audit.Append(txCtx, domain.AuditEntry{
			TenantID:   tenantID,
			Actor:      actor,
			Action:     domain.AuditActionCreate,
			TargetType: domain.EntityTypeAssessment,
			TargetID:   created.ID,
			Details:    domain.CreateDetails{Record: snap},
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "assessment created",
		slog.String("id", created.ID.String()),
		slog.String("actor", actor),
	)
	return created, nil
}

// Get returns an assessment by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Assessment, error) {
	tenantID, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.repos.Assessments.GetByID(ctx, tenantID, id)
}

// List returns the tenant's assessments, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Assessment, error) {
	tenantID, ok := ctxutil.TenantIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return s.repos.Assessments.List(ctx, tenantID, uuid.Nil)
}

// Update merges a patch onto a draft assessment. Editing a non-draft
// assessment is an invalid transition.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch domain.AssessmentPatch) (*domain.Assessment, error) {
	tenantID, actor, err := callerFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Assessment
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		before, err := s.repos.Assessments.GetByID(txCtx, tenantID, id)
		if err != nil {
			return err
		}
		if before.Status != domain.AssessmentStatusDraft {
			return fmt.Errorf("assessment %s: status is %s, expected %s: %w",
				id, before.Status, domain.AssessmentStatusDraft, domain.ErrInvalidTransition)
		}

		merged := *before
		patch.Apply(&merged)

		if patch.DocumentIDs != nil {
			if _, err := s.resolveDocuments(txCtx, tenantID, merged.DocumentIDs); err != nil {
				return err
			}
		}

		updated, err = s.repos.Assessments.Save(txCtx, merged)
		if err != nil {
			return err
		}

		return s.appendTransitionAudit(txCtx, tenantID, actor, id, before, updated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes an assessment in any state. Records that reference it are
// left in place; the reconcile job sweeps them later.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	tenantID, actor, err := callerFromCtx(ctx)
	if err != nil {
		return err
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		removed, err := s.repos.Assessments.GetByID(txCtx, tenantID, id)
		if err != nil {
			return err
		}
		if err := s.repos.Assessments.Delete(txCtx, tenantID, id); err != nil {
			return err
		}

		snap, err := domain.Snapshot(removed)
		if err != nil {
			return err
		}
		_, err = s.audit.Append(txCtx, domain.AuditEntry{
			TenantID:   tenantID,
			Actor:      actor,
			Action:     domain.AuditActionDelete,
			TargetType: domain.EntityTypeAssessment,
			TargetID:   id,
			Details:    domain.DeleteDetails{Record: snap},
		})
		return err
	})
}

// Run executes a draft assessment: validates its scope, flips it to running,
// invokes the analyzer, materializes the extraction, scores it and lands the
// assessment in completed. Any failure after the draft→running transition
// lands it in failed; the caller gets the failed assessment back, not an
// error. Run from any non-draft state is an invalid transition with no side
// effects.
func (s *Service) Run(ctx context.Context, id uuid.UUID) (*domain.Assessment, error) {
	tenantID, actor, err := callerFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	var (
		running   *domain.Assessment
		documents []domain.Document
	)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		draft, err := s.repos.Assessments.GetByID(txCtx, tenantID, id)
		if err != nil {
			return err
		}
		if draft.Status != domain.AssessmentStatusDraft {
			return fmt.Errorf("assessment %s: status is %s, expected %s: %w",
				id, draft.Status, domain.AssessmentStatusDraft, domain.ErrInvalidTransition)
		}
		if err := s.validateRunScope(draft); err != nil {
			return err
		}

		documents, err = s.resolveDocuments(txCtx, tenantID, draft.DocumentIDs)
		if err != nil {
			return err
		}
		for _, doc := range documents {
			if doc.Status != domain.DocumentStatusReady {
				return domain.NewValidationError("document_ids",
					fmt.Sprintf("document %s is %s, expected %s", doc.ID, doc.Status, domain.DocumentStatusReady))
			}
		}

		running, err = s.repos.Assessments.TransitionStatus(txCtx, tenantID, id,
			domain.AssessmentStatusDraft, domain.AssessmentStatusRunning)
		if err != nil {
			return err
		}
		return s.appendTransitionAudit(txCtx, tenantID, actor, id, draft, running)
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "assessment running",
		slog.String("id", id.String()),
		slog.Int("documents", len(documents)),
		slog.Int("prompt_packs", len(running.PromptPacks)),
	)

	analysisCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	result, err := s.analyzer.Analyze(analysisCtx, *running, documents, running.PromptPacks)
	if err != nil {
		return s.markFailed(ctx, tenantID, actor, running, fmt.Errorf("analyze: %w", err))
	}
	if len(result.Requirements) == 0 {
		return s.markFailed(ctx, tenantID, actor, running, fmt.Errorf("analyze: extraction produced no requirements"))
	}
	if err := validateExtractionCitations(result, running.DocumentIDs); err != nil {
		return s.markFailed(ctx, tenantID, actor, running, fmt.Errorf("analyze: %w", err))
	}

	completed, err := s.complete(ctx, tenantID, actor, running, result)
	if err != nil {
		return s.markFailed(ctx, tenantID, actor, running, err)
	}

	s.log.InfoContext(ctx, "assessment completed",
		slog.String("id", id.String()),
		slog.Int("score", completed.Score.Total),
		slog.String("residual_risk", completed.Score.ResidualRisk.String()),
	)
	return completed, nil
}

// complete persists the extraction result, scores the assessment and lands it
// in completed, all in one transaction.
func (s *Service) complete(ctx context.Context, tenantID uuid.UUID, actor string, running *domain.Assessment, result *provider.ExtractionResult) (*domain.Assessment, error) {
	var completed *domain.Assessment

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		requirements, err := s.materialize(txCtx, tenantID, actor, running.ID, result)
		if err != nil {
			return err
		}

		subjectIDs := make([]uuid.UUID, len(requirements))
		for i, req := range requirements {
			subjectIDs[i] = req.ID
		}
		attestations, err := s.repos.Attestations.ListBySubjects(txCtx, tenantID, domain.SubjectTypeRequirement, subjectIDs)
		if err != nil {
			return err
		}

		score, err := scoring.Score(requirements, attestations)
		if err != nil {
			return err
		}

		completed, err = s.repos.Assessments.SetCompleted(txCtx, tenantID, running.ID, *score, time.Now().UTC())
		if err != nil {
			return err
		}
		return s.appendTransitionAudit(txCtx, tenantID, actor, running.ID, running, completed)
	})
	if err != nil {
		return nil, err
	}
	return completed, nil
}

// materialize persists every extracted record with a CREATE audit entry and
// returns the created requirements for scoring.
func (s *Service) materialize(ctx context.Context, tenantID uuid.UUID, actor string, assessmentID uuid.UUID, result *provider.ExtractionResult) ([]domain.Requirement, error) {
	requirements := make([]domain.Requirement, 0, len(result.Requirements))
	for _, r := range result.Requirements {
		created, err := s.repos.Requirements.Create(ctx, domain.Requirement{
			TenantID:       tenantID,
			AssessmentID:   assessmentID,
			ControlFamily:  r.ControlFamily,
			Statement:      r.Statement,
			Level:          r.Level,
			TestProcedures: r.TestProcedures,
			Citations:      r.Citations,
			Status:         r.Status,
		})
		if err != nil {
			return nil, err
		}
		if err := s.appendCreateAudit(ctx, tenantID, actor, domain.EntityTypeRequirement, created.ID, created); err != nil {
			return nil, err
		}
		requirements = append(requirements, *created)
	}

	for _, f := range result.Findings {
		created, err := s.repos.Findings.Create(ctx, domain.Finding{
			TenantID:     tenantID,
			AssessmentID: assessmentID,
			Kind:         f.Kind,
			Title:        f.Title,
			Description:  f.Description,
			Severity:     f.Severity,
			Likelihood:   f.Likelihood,
			ImpactArea:   f.ImpactArea,
			Confidence:   f.Confidence,
			Evidence:     f.Evidence,
		})
		if err != nil {
			return nil, err
		}
		if err := s.appendCreateAudit(ctx, tenantID, actor, domain.EntityTypeFinding, created.ID, created); err != nil {
			return nil, err
		}
	}

	for _, p := range result.Penalties {
		created, err := s.repos.Penalties.Create(ctx, domain.Penalty{
			TenantID:     tenantID,
			AssessmentID: assessmentID,
			Summary:      p.Summary,
			MaxAmount:    p.MaxAmount,
			Citations:    p.Citations,
		})
		if err != nil {
			return nil, err
		}
		if err := s.appendCreateAudit(ctx, tenantID, actor, domain.EntityTypePenalty, created.ID, created); err != nil {
			return nil, err
		}
	}

	for _, o := range result.Obligations {
		created, err := s.repos.Obligations.Create(ctx, domain.Obligation{
			TenantID:     tenantID,
			AssessmentID: assessmentID,
			Description:  o.Description,
			TriggerEvent: o.TriggerEvent,
			Citations:    o.Citations,
		})
		if err != nil {
			return nil, err
		}
		if err := s.appendCreateAudit(ctx, tenantID, actor, domain.EntityTypeObligation, created.ID, created); err != nil {
			return nil, err
		}
	}

	for _, e := range result.TimelineEvents {
		created, err := s.repos.Timeline.Create(ctx, domain.TimelineEvent{
			TenantID:     tenantID,
			AssessmentID: assessmentID,
			Description:  e.Description,
			Deadline:     e.Deadline,
			TriggerEvent: e.TriggerEvent,
			Citations:    e.Citations,
		})
		if err != nil {
			return nil, err
		}
		if err := s.appendCreateAudit(ctx, tenantID, actor, domain.EntityTypeTimeline, created.ID, created); err != nil {
			return nil, err
		}
	}

	for _, c := range result.Clarifications {
		created, err := s.repos.Clarifications.Create(ctx, domain.Clarification{
			TenantID:     tenantID,
			AssessmentID: assessmentID,
			Question:     c.Question,
			Status:       domain.ClarificationStatusUncertain,
			Citations:    c.Citations,
		})
		if err != nil {
			return nil, err
		}
		if err := s.appendCreateAudit(ctx, tenantID, actor, domain.EntityTypeClarification, created.ID, created); err != nil {
			return nil, err
		}
	}

	return requirements, nil
}

// markFailed lands a running assessment in the failed state. The caller gets
// the failed assessment, not the analysis error; an error is returned only
// when the state change itself cannot be persisted.
func (s *Service) markFailed(ctx context.Context, tenantID uuid.UUID, actor string, running *domain.Assessment, cause error) (*domain.Assessment, error) {
	s.log.ErrorContext(ctx, "assessment run failed",
		slog.String("id", running.ID.String()),
		slog.Any("error", cause),
	)

	var failed *domain.Assessment
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		failed, err = s.repos.Assessments.SetFailed(txCtx, tenantID, running.ID)
		if err != nil {
			return err
		}
		return s.appendTransitionAudit(txCtx, tenantID, actor, running.ID, running, failed)
	})
	if err != nil {
		return nil, fmt.Errorf("mark assessment %s failed: %w", running.ID, err)
	}
	return failed, nil
}

// validateRunScope enforces the minimum and maximum run scope.
func (s *Service) validateRunScope(a *domain.Assessment) error {
	var errs []domain.FieldError
	if len(a.PromptPacks) == 0 {
		errs = append(errs, domain.FieldError{Field: "prompt_packs", Message: "at least one prompt pack is required to run"})
	}
	if len(a.DocumentIDs) == 0 {
		errs = append(errs, domain.FieldError{Field: "document_ids", Message: "at least one document is required to run"})
	}
	if s.cfg.MaxPromptPacks > 0 && len(a.PromptPacks) > s.cfg.MaxPromptPacks {
		errs = append(errs, domain.FieldError{Field: "prompt_packs", Message: fmt.Sprintf("at most %d prompt packs per run", s.cfg.MaxPromptPacks)})
	}
	if s.cfg.MaxDocuments > 0 && len(a.DocumentIDs) > s.cfg.MaxDocuments {
		errs = append(errs, domain.FieldError{Field: "document_ids", Message: fmt.Sprintf("at most %d documents per run", s.cfg.MaxDocuments)})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// validateExtractionCitations rejects an extraction whose citations or
// evidence reference documents outside the assessment's scope. The record
// services enforce the same rule on their write paths; this guards the
// materialization path, where the analyzer is the author.
func validateExtractionCitations(result *provider.ExtractionResult, documentIDs []uuid.UUID) error {
	inScope := make(map[uuid.UUID]bool, len(documentIDs))
	for _, id := range documentIDs {
		inScope[id] = true
	}

	check := func(citations []domain.Citation) error {
		for _, c := range citations {
			if !inScope[c.DocumentID] {
				return fmt.Errorf("extraction cites document %s outside the assessment scope", c.DocumentID)
			}
		}
		return nil
	}

	for _, r := range result.Requirements {
		if err := check(r.Citations); err != nil {
			return err
		}
	}
	for _, f := range result.Findings {
		for _, e := range f.Evidence {
			if !inScope[e.DocumentID] {
				return fmt.Errorf("extraction cites document %s outside the assessment scope", e.DocumentID)
			}
		}
	}
	for _, p := range result.Penalties {
		if err := check(p.Citations); err != nil {
			return err
		}
	}
	for _, o := range result.Obligations {
		if err := check(o.Citations); err != nil {
			return err
		}
	}
	for _, e := range result.TimelineEvents {
		if err := check(e.Citations); err != nil {
			return err
		}
	}
	for _, c := range result.Clarifications {
		if err := check(c.Citations); err != nil {
			return err
		}
	}
	return nil
}

// resolveDocuments loads the referenced documents and rejects ids that do not
// exist for the tenant.
func (s *Service) resolveDocuments(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]domain.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	docs, err := s.repos.Documents.GetByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[uuid.UUID]bool, len(docs))
	for _, d := range docs {
		found[d.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, domain.NewValidationError("document_ids", fmt.Sprintf("document %s does not exist", id))
		}
	}
	return docs, nil
}

func (s *Service) appendTransitionAudit(ctx context.Context, tenantID uuid.UUID, actor string, id uuid.UUID, before, after *domain.Assessment) error {
	beforeSnap, err := domain.Snapshot(before)
	if err != nil {
		return err
	}
	afterSnap, err := domain.Snapshot(after)
	if err != nil {
		return err
	}
	_, err = s.audit.Append(ctx, domain.AuditEntry{
		TenantID:   tenantID,
		Actor:      actor,
		Action:     domain.AuditActionUpdate,
		TargetType: domain.EntityTypeAssessment,
		TargetID:   id,
		Details:    domain.UpdateDetails{Before: beforeSnap, After: afterSnap},
	})
	return err
}

func (s *Service) appendCreateAudit(ctx context.Context, tenantID uuid.UUID, actor string, targetType domain.EntityType, targetID uuid.UUID, record any) error {
	snap, err := domain.Snapshot(record)
	if err != nil {
		return err
	}
	_, err = s.audit.Append(ctx, domain.AuditEntry{
		TenantID:   tenantID,
		Actor:      actor,
		Action:     domain.AuditActionCreate,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    domain.CreateDetails{Record: snap},
	})
	return err
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
