package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attestation is a reviewer's declared implementation status for a
// requirement or finding. One logical attestation exists per subject;
// updates overwrite in place and history lives in the audit log.
type Attestation struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	SubjectID   uuid.UUID
	SubjectType SubjectType
	Status      AttestationStatus
	Owner       *string
	EvidenceURI *string
	Notes       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks create-time constraints.
func (a Attestation) Validate() error {
	var errs []FieldError
	if a.SubjectID == uuid.Nil {
		errs = append(errs, FieldError{Field: "subject_id", Message: "required"})
	}
	if !a.SubjectType.IsValid() {
		errs = append(errs, FieldError{Field: "subject_type", Message: "must be requirement or finding"})
	}
	if !a.Status.IsValid() {
		errs = append(errs, FieldError{Field: "status", Message: "must be HAVE, PARTIAL or NO"})
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
