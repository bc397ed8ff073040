package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is an uploaded source document. Assessments reference documents by
// id only; deleting a document does not touch the assessments citing it.
type Document struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Type        DocumentType
	SizeBytes   int64
	Status      DocumentStatus
	PageCount   *int
	ContentHash *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks create-time constraints.
func (d Document) Validate() error {
	var errs []FieldError
	if d.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !d.Type.IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "unknown document type"})
	}
	if !d.Status.IsValid() {
		errs = append(errs, FieldError{Field: "status", Message: "unknown document status"})
	}
	if d.SizeBytes < 0 {
		errs = append(errs, FieldError{Field: "size_bytes", Message: "must be non-negative"})
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// DocumentPatch holds partial document edits. Nil fields are left unchanged.
type DocumentPatch struct {
	Name        *string
	Status      *DocumentStatus
	PageCount   *int
	ContentHash *string
}

// Validate checks all provided fields.
func (p DocumentPatch) Validate() error {
	var errs []FieldError
	if p.Name == nil && p.Status == nil && p.PageCount == nil && p.ContentHash == nil {
		errs = append(errs, FieldError{Field: "patch", Message: "at least one field must be provided"})
	}
	if p.Name != nil && *p.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if p.Status != nil && !p.Status.IsValid() {
		errs = append(errs, FieldError{Field: "status", Message: "unknown document status"})
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// Apply merges the patch onto the document.
func (p DocumentPatch) Apply(d *Document) {
	if p.Name != nil {
		d.Name = *p.Name
	}
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.PageCount != nil {
		d.PageCount = p.PageCount
	}
	if p.ContentHash != nil {
		d.ContentHash = p.ContentHash
	}
}
