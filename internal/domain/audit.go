package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditEntry is an immutable record of one mutation. Entries are only ever
// appended; there is no update or delete path.
type AuditEntry struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Actor      string
	Action     AuditAction
	TargetType EntityType
	TargetID   uuid.UUID
	Details    AuditDetails
	CreatedAt  time.Time
}

// AuditFilter narrows an audit query. Nil fields match everything.
type AuditFilter struct {
	TargetType *EntityType
	TargetID   *uuid.UUID
	Actor      *string
	Limit      int
	Offset     int
}

// AuditDetails is a tagged union over audit actions. Each variant carries
// exactly the snapshots that action guarantees, so consumers can switch on
// the concrete type instead of probing an untyped payload.
type AuditDetails interface {
	auditDetails()
}

// CreateDetails carries the full record as created.
type CreateDetails struct {
	Record json.RawMessage `json:"record"`
}

// UpdateDetails carries the record before and after the update.
type UpdateDetails struct {
	Before json.RawMessage `json:"before"`
	After  json.RawMessage `json:"after"`
}

// DeleteDetails carries the record as it was removed.
type DeleteDetails struct {
	Record json.RawMessage `json:"record"`
}

// AttestDetails carries the attestation before (absent on first write) and
// after the upsert.
type AttestDetails struct {
	Before json.RawMessage `json:"before,omitempty"`
	After  json.RawMessage `json:"after"`
}

// ResolveDetails carries the clarification before and after resolution.
type ResolveDetails struct {
	Before json.RawMessage `json:"before"`
	After  json.RawMessage `json:"after"`
}

func (CreateDetails) auditDetails()  {}
func (UpdateDetails) auditDetails()  {}
func (DeleteDetails) auditDetails()  {}
func (AttestDetails) auditDetails()  {}
func (ResolveDetails) auditDetails() {}

// Snapshot serializes a record for inclusion in audit details.
func Snapshot(v any) (json.RawMessage, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return data, nil
}

// EncodeDetails serializes details for storage.
func EncodeDetails(d AuditDetails) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("encode audit details: nil details")
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode audit details: %w", err)
	}
	return data, nil
}

// DecodeDetails restores the details variant matching the action.
func DecodeDetails(action AuditAction, data []byte) (AuditDetails, error) {
	unmarshal := func(v AuditDetails) (AuditDetails, error) {
		if err := json.Unmarshal(data, v); err != nil {
			return nil, fmt.Errorf("decode %s audit details: %w", action, err)
		}
		return v, nil
	}

	switch action {
	case AuditActionCreate:
		d, err := unmarshal(&CreateDetails{})
		if err != nil {
			return nil, err
		}
		return *d.(*CreateDetails), nil
	case AuditActionUpdate:
		d, err := unmarshal(&UpdateDetails{})
		if err != nil {
			return nil, err
		}
		return *d.(*UpdateDetails), nil
	case AuditActionDelete:
		d, err := unmarshal(&DeleteDetails{})
		if err != nil {
			return nil, err
		}
		return *d.(*DeleteDetails), nil
	case AuditActionAttest:
		d, err := unmarshal(&AttestDetails{})
		if err != nil {
			return nil, err
		}
		return *d.(*AttestDetails), nil
	case AuditActionResolve:
		d, err := unmarshal(&ResolveDetails{})
		if err != nil {
			return nil, err
		}
		return *d.(*ResolveDetails), nil
	default:
		return nil, fmt.Errorf("decode audit details: unknown action %q", action)
	}
}
