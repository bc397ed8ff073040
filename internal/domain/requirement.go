package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Citation points into a source document owned by the same assessment.
type Citation struct {
	DocumentID uuid.UUID `json:"document_id"`
	Page       int       `json:"page"`
	Clause     *string   `json:"clause,omitempty"`
}

// Validate checks the citation in isolation; membership of the document in
// the owning assessment is checked at write time by the record services.
func (c Citation) Validate() error {
	var errs []FieldError
	if c.DocumentID == uuid.Nil {
		errs = append(errs, FieldError{Field: "citations.document_id", Message: "required"})
	}
	if c.Page < 1 {
		errs = append(errs, FieldError{Field: "citations.page", Message: "must be >= 1"})
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Requirement is a control obligation extracted from an assessment's documents.
type Requirement struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	AssessmentID   uuid.UUID
	ControlFamily  ControlFamily
	Statement      string
	Level          RequirementLevel
	TestProcedures []string
	Citations      []Citation
	Status         RequirementStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Validate checks create-time constraints.
func (r Requirement) Validate() error {
	var errs []FieldError
	if r.AssessmentID == uuid.Nil {
		errs = append(errs, FieldError{Field: "assessment_id", Message: "required"})
	}
	if !r.ControlFamily.IsValid() {
		errs = append(errs, FieldError{Field: "control_family", Message: "unknown control family"})
	}
	if r.Statement == "" {
		errs = append(errs, FieldError{Field: "statement", Message: "required"})
	}
	if !r.Level.IsValid() {
		errs = append(errs, FieldError{Field: "level", Message: "must be MUST or SHOULD"})
	}
	if !r.Status.IsValid() {
		errs = append(errs, FieldError{Field: "status", Message: "must be KNOWN or UNCERTAIN"})
	}
	errs = appendCitationErrors(errs, r.Citations)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// RequirementPatch holds partial requirement edits. Nil fields are left unchanged.
type RequirementPatch struct {
	ControlFamily  *ControlFamily
	Statement      *string
	Level          *RequirementLevel
	TestProcedures []string
	Citations      []Citation
	Status         *RequirementStatus
}

// Validate checks all provided fields.
func (p RequirementPatch) Validate() error {
	var errs []FieldError
	if p.ControlFamily == nil && p.Statement == nil && p.Level == nil &&
		p.TestProcedures == nil && p.Citations == nil && p.Status == nil {
		errs = append(errs, FieldError{Field: "patch", Message: "at least one field must be provided"})
	}
	if p.ControlFamily != nil && !p.ControlFamily.IsValid() {
		errs = append(errs, FieldError{Field: "control_family", Message: "unknown control family"})
	}
	if p.Statement != nil && *p.Statement == "" {
		errs = append(errs, FieldError{Field: "statement", Message: "required"})
	}
	if p.Level != nil && !p.Level.IsValid() {
		errs = append(errs, FieldError{Field: "level", Message: "must be MUST or SHOULD"})
	}
	if p.Status != nil && !p.Status.IsValid() {
		errs = append(errs, FieldError{Field: "status", Message: "must be KNOWN or UNCERTAIN"})
	}
	errs = appendCitationErrors(errs, p.Citations)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Apply merges the patch onto the requirement.
func (p RequirementPatch) Apply(r *Requirement) {
	if p.ControlFamily != nil {
		r.ControlFamily = *p.ControlFamily
	}
	if p.Statement != nil {
		r.Statement = *p.Statement
	}
	if p.Level != nil {
		r.Level = *p.Level
	}
	if p.TestProcedures != nil {
		r.TestProcedures = p.TestProcedures
	}
	if p.Citations != nil {
		r.Citations = p.Citations
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
}

func appendCitationErrors(errs []FieldError, citations []Citation) []FieldError {
	for _, c := range citations {
		if err := c.Validate(); err != nil {
			var vErr *ValidationError
			if errors.As(err, &vErr) {
				errs = append(errs, vErr.Errors...)
			}
			break
		}
	}
	return errs
}
