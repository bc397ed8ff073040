package analysis

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/attestiq/compliance-backend/internal/domain"
)

func TestStub_Analyze_RequirementPerFamilyPerPack(t *testing.T) {
	t.Parallel()

	stub := NewStub()
	docs := []domain.Document{
		{ID: uuid.New(), Name: "privacy-policy.pdf"},
		{ID: uuid.New(), Name: "dpa.pdf"},
	}
	packs := []string{"gdpr", "hipaa"}

	result, err := stub.Analyze(context.Background(), domain.Assessment{}, docs, packs)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	wantReqs := len(packs) * len(domain.ControlFamilies())
	if len(result.Requirements) != wantReqs {
		t.Errorf("requirements = %d, want %d", len(result.Requirements), wantReqs)
	}
	if len(result.Findings) != len(packs) {
		t.Errorf("findings = %d, want %d", len(result.Findings), len(packs))
	}
	if len(result.Clarifications) != len(packs) {
		t.Errorf("clarifications = %d, want %d", len(result.Clarifications), len(packs))
	}

	for _, req := range result.Requirements {
		if !req.ControlFamily.IsValid() {
			t.Errorf("invalid control family %q", req.ControlFamily)
		}
		if len(req.Citations) == 0 {
			t.Error("requirement without citations despite documents being supplied")
		}
		for _, c := range req.Citations {
			if c.DocumentID != docs[0].ID && c.DocumentID != docs[1].ID {
				t.Errorf("citation points at unknown document %s", c.DocumentID)
			}
		}
	}
}

func TestStub_Analyze_Deterministic(t *testing.T) {
	t.Parallel()

	stub := NewStub()
	docs := []domain.Document{{ID: uuid.New(), Name: "policy.pdf"}}

	first, err := stub.Analyze(context.Background(), domain.Assessment{}, docs, []string{"gdpr"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	second, err := stub.Analyze(context.Background(), domain.Assessment{}, docs, []string{"gdpr"})
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over identical inputs produced different extractions")
	}
}

func TestStub_Analyze_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStub().Analyze(ctx, domain.Assessment{}, nil, []string{"gdpr"})
	if err == nil {
		t.Fatal("expected context error")
	}
}
