// Package analysis provides document-analysis providers for the assessment
// lifecycle.
package analysis

import (
	"context"
	"fmt"

	"github.com/attestiq/compliance-backend/internal/domain"
	"github.com/attestiq/compliance-backend/internal/provider"
)

// Stub is a deterministic analysis provider. It derives its output purely
// from the prompt packs and the supplied documents, so two runs over the same
// inputs produce the same extraction. Used by default server wiring and tests
// until a real extraction backend is configured.
type Stub struct{}

// NewStub creates a deterministic analysis provider.
func NewStub() *Stub { return &Stub{} }

// Analyze emits one requirement per control family per prompt pack, plus one
// risk finding, penalty, obligation, timeline event and clarification per
// pack. Citations rotate over the supplied documents.
func (s *Stub) Analyze(ctx context.Context, assessment domain.Assessment, documents []domain.Document, promptPacks []string) (*provider.ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &provider.ExtractionResult{}
	families := domain.ControlFamilies()

	cite := func(n int) []domain.Citation {
		if len(documents) == 0 {
			return nil
		}
		doc := documents[n%len(documents)]
		return []domain.Citation{{DocumentID: doc.ID, Page: n%7 + 1}}
	}

	for packIdx, pack := range promptPacks {
		for famIdx, family := range families {
			level := domain.RequirementLevelMust
			if famIdx%2 == 1 {
				level = domain.RequirementLevelShould
			}
			result.Requirements = append(result.Requirements, provider.RequirementResult{
				ControlFamily: family,
				Statement:     fmt.Sprintf("[%s] %s controls must be documented and enforced", pack, family),
				Level:         level,
				TestProcedures: []string{
					fmt.Sprintf("review the %s policy for %s coverage", pack, family),
				},
				Citations: cite(packIdx*len(families) + famIdx),
				Status:    domain.RequirementStatusKnown,
			})
		}

		likelihood := domain.LikelihoodMedium
		result.Findings = append(result.Findings, provider.FindingResult{
			Kind:        domain.FindingKindRisk,
			Title:       fmt.Sprintf("%s: gap between stated and implemented controls", pack),
			Description: fmt.Sprintf("documents reviewed under the %s pack describe controls without operational evidence", pack),
			Severity:    domain.SeverityMedium,
			Likelihood:  &likelihood,
			ImpactArea:  "compliance posture",
			Confidence:  0.8,
			Evidence:    evidenceFor(documents, packIdx),
		})

		maxAmount := "4% of annual turnover"
		result.Penalties = append(result.Penalties, provider.PenaltyResult{
			Summary:   fmt.Sprintf("administrative fines under the %s regime", pack),
			MaxAmount: &maxAmount,
			Citations: cite(packIdx),
		})

		trigger := "personal data breach"
		result.Obligations = append(result.Obligations, provider.ObligationResult{
			Description:  fmt.Sprintf("maintain records of processing activities required by %s", pack),
			TriggerEvent: nil,
			Citations:    cite(packIdx + 1),
		})

		result.TimelineEvents = append(result.TimelineEvents, provider.TimelineEventResult{
			Description:  fmt.Sprintf("notify the supervisory authority within 72 hours (%s)", pack),
			TriggerEvent: &trigger,
			Citations:    cite(packIdx + 2),
		})

		result.Clarifications = append(result.Clarifications, provider.ClarificationResult{
			Question:  fmt.Sprintf("does the organization act as controller or processor under %s?", pack),
			Citations: cite(packIdx + 3),
		})
	}

	return result, nil
}

func evidenceFor(documents []domain.Document, n int) []domain.Evidence {
	if len(documents) == 0 {
		return nil
	}
	doc := documents[n%len(documents)]
	return []domain.Evidence{{
		DocumentID: doc.ID,
		Page:       n%5 + 1,
		Excerpt:    fmt.Sprintf("see %s", doc.Name),
	}}
}
