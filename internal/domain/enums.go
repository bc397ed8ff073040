package domain

// AssessmentStatus represents the lifecycle state of an assessment run.
type AssessmentStatus string

const (
	AssessmentStatusDraft     AssessmentStatus = "draft"
	AssessmentStatusRunning   AssessmentStatus = "running"
	AssessmentStatusCompleted AssessmentStatus = "completed"
	AssessmentStatusFailed    AssessmentStatus = "failed"
)

func (s AssessmentStatus) String() string { return string(s) }

func (s AssessmentStatus) IsValid() bool {
	switch s {
	case AssessmentStatusDraft, AssessmentStatusRunning, AssessmentStatusCompleted, AssessmentStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further lifecycle transition is possible.
func (s AssessmentStatus) IsTerminal() bool {
	return s == AssessmentStatusCompleted || s == AssessmentStatusFailed
}

// DocumentType classifies an uploaded source document.
type DocumentType string

const (
	DocumentTypeRegulation  DocumentType = "regulation"
	DocumentTypePolicy      DocumentType = "policy"
	DocumentTypeContract    DocumentType = "contract"
	DocumentTypeVendorDoc   DocumentType = "vendor_doc"
	DocumentTypeAuditLetter DocumentType = "audit_letter"
)

func (t DocumentType) String() string { return string(t) }

func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeRegulation, DocumentTypePolicy, DocumentTypeContract,
		DocumentTypeVendorDoc, DocumentTypeAuditLetter:
		return true
	}
	return false
}

// DocumentStatus represents the ingestion state of a document.
type DocumentStatus string

const (
	DocumentStatusUploading  DocumentStatus = "uploading"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusReady      DocumentStatus = "ready"
	DocumentStatusError      DocumentStatus = "error"
)

func (s DocumentStatus) String() string { return string(s) }

func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusUploading, DocumentStatusProcessing, DocumentStatusReady, DocumentStatusError:
		return true
	}
	return false
}

// ControlFamily is a coarse grouping of requirements.
type ControlFamily string

const (
	ControlFamilyAccess     ControlFamily = "Access"
	ControlFamilyData       ControlFamily = "Data"
	ControlFamilyGovernance ControlFamily = "Governance"
	ControlFamilyIR         ControlFamily = "IR"
	ControlFamilyTPRM       ControlFamily = "TPRM"
	ControlFamilyBCP        ControlFamily = "BCP"
)

func (f ControlFamily) String() string { return string(f) }

func (f ControlFamily) IsValid() bool {
	switch f {
	case ControlFamilyAccess, ControlFamilyData, ControlFamilyGovernance,
		ControlFamilyIR, ControlFamilyTPRM, ControlFamilyBCP:
		return true
	}
	return false
}

// ControlFamilies lists all families in canonical order.
func ControlFamilies() []ControlFamily {
	return []ControlFamily{
		ControlFamilyAccess, ControlFamilyData, ControlFamilyGovernance,
		ControlFamilyIR, ControlFamilyTPRM, ControlFamilyBCP,
	}
}

// RequirementLevel distinguishes mandatory from recommended requirements.
type RequirementLevel string

const (
	RequirementLevelMust   RequirementLevel = "MUST"
	RequirementLevelShould RequirementLevel = "SHOULD"
)

func (l RequirementLevel) String() string { return string(l) }

func (l RequirementLevel) IsValid() bool {
	return l == RequirementLevelMust || l == RequirementLevelShould
}

// RequirementStatus marks whether a requirement was extracted with certainty.
type RequirementStatus string

const (
	RequirementStatusKnown     RequirementStatus = "KNOWN"
	RequirementStatusUncertain RequirementStatus = "UNCERTAIN"
)

func (s RequirementStatus) String() string { return string(s) }

func (s RequirementStatus) IsValid() bool {
	return s == RequirementStatusKnown || s == RequirementStatusUncertain
}

// FindingKind distinguishes discovered requirements from risks.
type FindingKind string

const (
	FindingKindRequirement FindingKind = "REQUIREMENT"
	FindingKindRisk        FindingKind = "RISK"
)

func (k FindingKind) String() string { return string(k) }

func (k FindingKind) IsValid() bool {
	return k == FindingKindRequirement || k == FindingKindRisk
}

// Severity represents the severity of a finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) String() string { return string(s) }

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Likelihood represents how likely a RISK finding is to materialize.
type Likelihood string

const (
	LikelihoodLow    Likelihood = "low"
	LikelihoodMedium Likelihood = "medium"
	LikelihoodHigh   Likelihood = "high"
)

func (l Likelihood) String() string { return string(l) }

func (l Likelihood) IsValid() bool {
	switch l {
	case LikelihoodLow, LikelihoodMedium, LikelihoodHigh:
		return true
	}
	return false
}

// AttestationStatus is a reviewer's declared control-implementation status.
type AttestationStatus string

const (
	AttestationStatusHave    AttestationStatus = "HAVE"
	AttestationStatusPartial AttestationStatus = "PARTIAL"
	AttestationStatusNo      AttestationStatus = "NO"
)

func (s AttestationStatus) String() string { return string(s) }

func (s AttestationStatus) IsValid() bool {
	switch s {
	case AttestationStatusHave, AttestationStatusPartial, AttestationStatusNo:
		return true
	}
	return false
}

// SubjectType identifies what kind of record an attestation covers.
type SubjectType string

const (
	SubjectTypeRequirement SubjectType = "requirement"
	SubjectTypeFinding     SubjectType = "finding"
)

func (t SubjectType) String() string { return string(t) }

func (t SubjectType) IsValid() bool {
	return t == SubjectTypeRequirement || t == SubjectTypeFinding
}

// RiskLevel is the qualitative residual-risk label derived from a score.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

func (l RiskLevel) String() string { return string(l) }

func (l RiskLevel) IsValid() bool {
	switch l {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelCritical:
		return true
	}
	return false
}

// ClarificationStatus represents whether an open question has been answered.
type ClarificationStatus string

const (
	ClarificationStatusUncertain ClarificationStatus = "UNCERTAIN"
	ClarificationStatusResolved  ClarificationStatus = "RESOLVED"
)

func (s ClarificationStatus) String() string { return string(s) }

func (s ClarificationStatus) IsValid() bool {
	return s == ClarificationStatusUncertain || s == ClarificationStatusResolved
}

// EntityType identifies the kind of domain entity (used in audit logs).
type EntityType string

const (
	EntityTypeAssessment    EntityType = "ASSESSMENT"
	EntityTypeDocument      EntityType = "DOCUMENT"
	EntityTypeRequirement   EntityType = "REQUIREMENT"
	EntityTypeFinding       EntityType = "FINDING"
	EntityTypePenalty       EntityType = "PENALTY"
	EntityTypeObligation    EntityType = "OBLIGATION"
	EntityTypeTimeline      EntityType = "TIMELINE"
	EntityTypeClarification EntityType = "CLARIFICATION"
	EntityTypeAttestation   EntityType = "ATTESTATION"
)

func (e EntityType) String() string { return string(e) }

func (e EntityType) IsValid() bool {
	switch e {
	case EntityTypeAssessment, EntityTypeDocument, EntityTypeRequirement,
		EntityTypeFinding, EntityTypePenalty, EntityTypeObligation,
		EntityTypeTimeline, EntityTypeClarification, EntityTypeAttestation:
		return true
	}
	return false
}

// AuditAction represents the kind of mutation recorded in the audit log.
type AuditAction string

const (
	AuditActionCreate  AuditAction = "CREATE"
	AuditActionUpdate  AuditAction = "UPDATE"
	AuditActionDelete  AuditAction = "DELETE"
	AuditActionAttest  AuditAction = "ATTEST"
	AuditActionResolve AuditAction = "RESOLVE"
)

func (a AuditAction) String() string { return string(a) }

func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionCreate, AuditActionUpdate, AuditActionDelete,
		AuditActionAttest, AuditActionResolve:
		return true
	}
	return false
}
