// Package provider defines the structured results returned by document
// analysis providers. Results carry no tenant or database identity; the
// assessment lifecycle stamps those when it materializes records.
package provider

import (
	"time"

	"github.com/attestiq/compliance-backend/internal/domain"
)

// ExtractionResult is everything an analysis provider derived from an
// assessment's documents under the requested prompt packs.
type ExtractionResult struct {
	Requirements   []RequirementResult
	Findings       []FindingResult
	Penalties      []PenaltyResult
	Obligations    []ObligationResult
	TimelineEvents []TimelineEventResult
	Clarifications []ClarificationResult
}

// RequirementResult is an extracted control obligation.
type RequirementResult struct {
	ControlFamily  domain.ControlFamily
	Statement      string
	Level          domain.RequirementLevel
	TestProcedures []string
	Citations      []domain.Citation
	Status         domain.RequirementStatus
}

// FindingResult is an extracted requirement-view or risk finding.
type FindingResult struct {
	Kind        domain.FindingKind
	Title       string
	Description string
	Severity    domain.Severity
	Likelihood  *domain.Likelihood
	ImpactArea  string
	Confidence  float64
	Evidence    []domain.Evidence
}

// PenaltyResult is an extracted sanction exposure.
type PenaltyResult struct {
	Summary   string
	MaxAmount *string
	Citations []domain.Citation
}

// ObligationResult is an extracted ongoing duty.
type ObligationResult struct {
	Description  string
	TriggerEvent *string
	Citations    []domain.Citation
}

// TimelineEventResult is an extracted dated milestone.
type TimelineEventResult struct {
	Description  string
	Deadline     *time.Time
	TriggerEvent *string
	Citations    []domain.Citation
}

// ClarificationResult is an open question the provider could not settle.
type ClarificationResult struct {
	Question  string
	Citations []domain.Citation
}
