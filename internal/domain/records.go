package domain

import (
	"time"

	"github.com/google/uuid"
)

// Penalty is a sanction exposure extracted from an assessment's documents,
// e.g. a regulatory fine cap.
type Penalty struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	AssessmentID uuid.UUID
	Summary      string
	MaxAmount    *string // free text, e.g. "4% of annual turnover"
	Citations    []Citation
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks create-time constraints.
func (p Penalty) Validate() error {
	var errs []FieldError
	if p.AssessmentID == uuid.Nil {
		errs = append(errs, FieldError{Field: "assessment_id", Message: "required"})
	}
	if p.Summary == "" {
		errs = append(errs, FieldError{Field: "summary", Message: "required"})
	}
	errs = appendCitationErrors(errs, p.Citations)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// PenaltyPatch holds partial penalty edits.
type PenaltyPatch struct {
	Summary   *string
	MaxAmount *string
	Citations []Citation
}

// Validate checks all provided fields.
func (p PenaltyPatch) Validate() error {
	var errs []FieldError
	if p.Summary == nil && p.MaxAmount == nil && p.Citations == nil {
		errs = append(errs, FieldError{Field: "patch", Message: "at least one field must be provided"})
	}
	if p.Summary != nil && *p.Summary == "" {
		errs = append(errs, FieldError{Field: "summary", Message: "required"})
	}
	errs = appendCitationErrors(errs, p.Citations)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Apply merges the patch onto the penalty.
func (p PenaltyPatch) Apply(rec *Penalty) {
	if p.Summary != nil {
		rec.Summary = *p.Summary
	}
	if p.MaxAmount != nil {
		rec.MaxAmount = p.MaxAmount
	}
	if p.Citations != nil {
		rec.Citations = p.Citations
	}
}

// Obligation is an ongoing duty extracted from an assessment's documents.
type Obligation struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	AssessmentID uuid.UUID
	Description  string
	TriggerEvent *string
	Citations    []Citation
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks create-time constraints.
func (o Obligation) Validate() error {
	var errs []FieldError
	if o.AssessmentID == uuid.Nil {
		errs = append(errs, FieldError{Field: "assessment_id", Message: "required"})
	}
	if o.Description == "" {
		errs = append(errs, FieldError{Field: "description", Message: "required"})
	}
	errs = appendCitationErrors(errs, o.Citations)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// ObligationPatch holds partial obligation edits.
type ObligationPatch struct {
	Description  *string
	TriggerEvent *string
	Citations    []Citation
}

// Validate checks all provided fields.
func (p ObligationPatch) Validate() error {
	var errs []FieldError
	if p.Description == nil && p.TriggerEvent == nil && p.Citations == nil {
		errs = append(errs, FieldError{Field: "patch", Message: "at least one field must be provided"})
	}
	if p.Description != nil && *p.Description == "" {
		errs = append(errs, FieldError{Field: "description", Message: "required"})
	}
	errs = appendCitationErrors(errs, p.Citations)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Apply merges the patch onto the obligation.
func (p ObligationPatch) Apply(rec *Obligation) {
	if p.Description != nil {
		rec.Description = *p.Description
	}
	if p.TriggerEvent != nil {
		rec.TriggerEvent = p.TriggerEvent
	}
	if p.Citations != nil {
		rec.Citations = p.Citations
	}
}

// TimelineEvent is a dated compliance milestone, e.g. a notification deadline.
type TimelineEvent struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	AssessmentID uuid.UUID
	Description  string
	Deadline     *time.Time
	TriggerEvent *string
	Citations    []Citation
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks create-time constraints.
func (t TimelineEvent) Validate() error {
	var errs []FieldError
	if t.AssessmentID == uuid.Nil {
		errs = append(errs, FieldError{Field: "assessment_id", Message: "required"})
	}
	if t.Description == "" {
		errs = append(errs, FieldError{Field: "description", Message: "required"})
	}
	errs = appendCitationErrors(errs, t.Citations)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// TimelineEventPatch holds partial timeline edits.
type TimelineEventPatch struct {
	Description  *string
	Deadline     *time.Time
	TriggerEvent *string
	Citations    []Citation
}

// Validate checks all provided fields.
func (p TimelineEventPatch) Validate() error {
	var errs []FieldError
	if p.Description == nil && p.Deadline == nil && p.TriggerEvent == nil && p.Citations == nil {
		errs = append(errs, FieldError{Field: "patch", Message: "at least one field must be provided"})
	}
	if p.Description != nil && *p.Description == "" {
		errs = append(errs, FieldError{Field: "description", Message: "required"})
	}
	errs = appendCitationErrors(errs, p.Citations)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Apply merges the patch onto the timeline event.
func (p TimelineEventPatch) Apply(rec *TimelineEvent) {
	if p.Description != nil {
		rec.Description = *p.Description
	}
	if p.Deadline != nil {
		rec.Deadline = p.Deadline
	}
	if p.TriggerEvent != nil {
		rec.TriggerEvent = p.TriggerEvent
	}
	if p.Citations != nil {
		rec.Citations = p.Citations
	}
}

// Clarification is an open question raised during extraction. It starts
// UNCERTAIN and is flipped to RESOLVED by a reviewer.
type Clarification struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	AssessmentID uuid.UUID
	Question     string
	Status       ClarificationStatus
	Resolution   *string
	ResolvedBy   *string
	Citations    []Citation
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Validate checks create-time constraints.
func (c Clarification) Validate() error {
	var errs []FieldError
	if c.AssessmentID == uuid.Nil {
		errs = append(errs, FieldError{Field: "assessment_id", Message: "required"})
	}
	if c.Question == "" {
		errs = append(errs, FieldError{Field: "question", Message: "required"})
	}
	if !c.Status.IsValid() {
		errs = append(errs, FieldError{Field: "status", Message: "must be UNCERTAIN or RESOLVED"})
	}
	errs = appendCitationErrors(errs, c.Citations)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// ClarificationPatch holds partial clarification edits. Resolution state is
// changed through the clarify service, not through a patch.
type ClarificationPatch struct {
	Question  *string
	Citations []Citation
}

// Validate checks all provided fields.
func (p ClarificationPatch) Validate() error {
	var errs []FieldError
	if p.Question == nil && p.Citations == nil {
		errs = append(errs, FieldError{Field: "patch", Message: "at least one field must be provided"})
	}
	if p.Question != nil && *p.Question == "" {
		errs = append(errs, FieldError{Field: "question", Message: "required"})
	}
	errs = appendCitationErrors(errs, p.Citations)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Apply merges the patch onto the clarification.
func (p ClarificationPatch) Apply(rec *Clarification) {
	if p.Question != nil {
		rec.Question = *p.Question
	}
	if p.Citations != nil {
		rec.Citations = p.Citations
	}
}
