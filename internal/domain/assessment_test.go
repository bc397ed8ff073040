package domain

import (
	"testing"

	"github.com/google/uuid"
)

func TestAssessmentPatch_Apply(t *testing.T) {
	t.Parallel()

	jur := "EU"
	a := Assessment{
		Name:        "Q3 vendor review",
		PromptPacks: []string{"pci-dss"},
		Status:      AssessmentStatusDraft,
	}

	name := "Q3 vendor review (GDPR)"
	docID := uuid.New()
	patch := AssessmentPatch{
		Name:         &name,
		PromptPacks:  []string{"pci-dss", "gdpr"},
		DocumentIDs:  []uuid.UUID{docID},
		Jurisdiction: &jur,
	}
	patch.Apply(&a)

	if a.Name != name {
		t.Errorf("name = %q, want %q", a.Name, name)
	}
	if len(a.PromptPacks) != 2 {
		t.Errorf("prompt packs = %v, want 2 entries", a.PromptPacks)
	}
	if !a.HasDocument(docID) {
		t.Error("HasDocument(docID) = false after patch")
	}
	if a.Jurisdiction == nil || *a.Jurisdiction != "EU" {
		t.Errorf("jurisdiction = %v, want EU", a.Jurisdiction)
	}
}

func TestAssessmentPatch_ClearJurisdiction(t *testing.T) {
	t.Parallel()

	jur := "US-CA"
	a := Assessment{Jurisdiction: &jur}

	empty := ""
	AssessmentPatch{Jurisdiction: &empty}.Apply(&a)

	if a.Jurisdiction != nil {
		t.Errorf("jurisdiction = %v, want nil", a.Jurisdiction)
	}
}

func TestAssessmentPatch_Validate_Empty(t *testing.T) {
	t.Parallel()

	if err := (AssessmentPatch{}).Validate(); err == nil {
		t.Fatal("expected validation error for empty patch")
	}
}

func TestRequirementPatch_Apply_LeavesUnsetFields(t *testing.T) {
	t.Parallel()

	r := Requirement{
		ControlFamily: ControlFamilyAccess,
		Statement:     "Access to cardholder data must be restricted",
		Level:         RequirementLevelMust,
		Status:        RequirementStatusKnown,
	}

	stmt := "Access to cardholder data must be restricted to need-to-know"
	RequirementPatch{Statement: &stmt}.Apply(&r)

	if r.Statement != stmt {
		t.Errorf("statement = %q, want %q", r.Statement, stmt)
	}
	if r.ControlFamily != ControlFamilyAccess || r.Level != RequirementLevelMust {
		t.Error("unpatched fields changed")
	}
}
