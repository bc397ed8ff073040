package domain

import (
	"time"

	"github.com/google/uuid"
)

// Assessment is a compliance-assessment run over a set of documents and
// prompt packs. Score and CompletedAt are set if and only if the assessment
// reached the completed state.
type Assessment struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Name         string
	PromptPacks  []string
	DocumentIDs  []uuid.UUID
	Jurisdiction *string
	Status       AssessmentStatus
	Score        *Score
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
}

// HasDocument reports whether the given document id is part of the assessment scope.
func (a *Assessment) HasDocument(id uuid.UUID) bool {
	for _, d := range a.DocumentIDs {
		if d == id {
			return true
		}
	}
	return false
}

// Score is the Scoring Engine output persisted on a completed assessment.
type Score struct {
	Total           int                   `json:"total"`
	ResidualRisk    RiskLevel             `json:"residual_risk"`
	FamilyBreakdown map[ControlFamily]int `json:"family_breakdown"`
}

// AssessmentPatch holds draft-only field edits. Nil fields are left unchanged.
type AssessmentPatch struct {
	Name         *string
	PromptPacks  []string
	DocumentIDs  []uuid.UUID
	Jurisdiction *string // ptr to "" clears the jurisdiction
}

// IsEmpty reports whether the patch changes nothing.
func (p AssessmentPatch) IsEmpty() bool {
	return p.Name == nil && p.PromptPacks == nil && p.DocumentIDs == nil && p.Jurisdiction == nil
}

// Validate checks all provided fields and collects all errors.
func (p AssessmentPatch) Validate() error {
	var errs []FieldError
	if p.IsEmpty() {
		errs = append(errs, FieldError{Field: "patch", Message: "at least one field must be provided"})
	}
	if p.Name != nil && *p.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	for _, pack := range p.PromptPacks {
		if pack == "" {
			errs = append(errs, FieldError{Field: "prompt_packs", Message: "empty prompt pack id"})
			break
		}
	}
	for _, id := range p.DocumentIDs {
		if id == uuid.Nil {
			errs = append(errs, FieldError{Field: "document_ids", Message: "empty document id"})
			break
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Apply merges the patch onto the assessment.
func (p AssessmentPatch) Apply(a *Assessment) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.PromptPacks != nil {
		a.PromptPacks = p.PromptPacks
	}
	if p.DocumentIDs != nil {
		a.DocumentIDs = p.DocumentIDs
	}
	if p.Jurisdiction != nil {
		if *p.Jurisdiction == "" {
			a.Jurisdiction = nil
		} else {
			a.Jurisdiction = p.Jurisdiction
		}
	}
}
