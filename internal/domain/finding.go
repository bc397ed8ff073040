package domain

import (
	"time"

	"github.com/google/uuid"
)

// Evidence anchors a finding to a passage in a source document.
type Evidence struct {
	DocumentID uuid.UUID `json:"document_id"`
	Page       int       `json:"page"`
	Excerpt    string    `json:"excerpt"`
}

// Finding is a discovered obligation (REQUIREMENT kind) or risk (RISK kind).
// A REQUIREMENT finding and a Requirement record are complementary views of
// the same discovered obligation.
type Finding struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	AssessmentID uuid.UUID
	Kind         FindingKind
	Title        string
	Description  string
	Severity     Severity
	Likelihood   *Likelihood // RISK kind only
	ImpactArea   string
	Confidence   float64 // [0, 1]
	Evidence     []Evidence
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks create-time constraints.
func (f Finding) Validate() error {
	var errs []FieldError
	if f.AssessmentID == uuid.Nil {
		errs = append(errs, FieldError{Field: "assessment_id", Message: "required"})
	}
	if !f.Kind.IsValid() {
		errs = append(errs, FieldError{Field: "kind", Message: "must be REQUIREMENT or RISK"})
	}
	if f.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "required"})
	}
	if !f.Severity.IsValid() {
		errs = append(errs, FieldError{Field: "severity", Message: "unknown severity"})
	}
	if f.Kind == FindingKindRisk && f.Likelihood == nil {
		errs = append(errs, FieldError{Field: "likelihood", Message: "required for RISK findings"})
	}
	if f.Likelihood != nil && !f.Likelihood.IsValid() {
		errs = append(errs, FieldError{Field: "likelihood", Message: "unknown likelihood"})
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		errs = append(errs, FieldError{Field: "confidence", Message: "must be in [0, 1]"})
	}
	for _, ev := range f.Evidence {
		if ev.DocumentID == uuid.Nil {
			errs = append(errs, FieldError{Field: "evidence.document_id", Message: "required"})
			break
		}
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Citations exposes evidence as citations for referential-integrity checks.
func (f Finding) Citations() []Citation {
	citations := make([]Citation, len(f.Evidence))
	for i, ev := range f.Evidence {
		citations[i] = Citation{DocumentID: ev.DocumentID, Page: ev.Page}
	}
	return citations
}

// FindingPatch holds partial finding edits. Nil fields are left unchanged.
type FindingPatch struct {
	Title       *string
	Description *string
	Severity    *Severity
	Likelihood  *Likelihood
	ImpactArea  *string
	Confidence  *float64
	Evidence    []Evidence
}

// Validate checks all provided fields.
func (p FindingPatch) Validate() error {
	var errs []FieldError
	if p.Title == nil && p.Description == nil && p.Severity == nil &&
		p.Likelihood == nil && p.ImpactArea == nil && p.Confidence == nil && p.Evidence == nil {
		errs = append(errs, FieldError{Field: "patch", Message: "at least one field must be provided"})
	}
	if p.Title != nil && *p.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "required"})
	}
	if p.Severity != nil && !p.Severity.IsValid() {
		errs = append(errs, FieldError{Field: "severity", Message: "unknown severity"})
	}
	if p.Likelihood != nil && !p.Likelihood.IsValid() {
		errs = append(errs, FieldError{Field: "likelihood", Message: "unknown likelihood"})
	}
	if p.Confidence != nil && (*p.Confidence < 0 || *p.Confidence > 1) {
		errs = append(errs, FieldError{Field: "confidence", Message: "must be in [0, 1]"})
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Apply merges the patch onto the finding.
func (p FindingPatch) Apply(f *Finding) {
	if p.Title != nil {
		f.Title = *p.Title
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Severity != nil {
		f.Severity = *p.Severity
	}
	if p.Likelihood != nil {
		f.Likelihood = p.Likelihood
	}
	if p.ImpactArea != nil {
		f.ImpactArea = *p.ImpactArea
	}
	if p.Confidence != nil {
		f.Confidence = *p.Confidence
	}
	if p.Evidence != nil {
		f.Evidence = p.Evidence
	}
}
