// Package scoring folds requirements and their attestations into a
// compliance score. It is a pure computation with no persistence access.
package scoring

import (
	"math"

	"github.com/google/uuid"

	"github.com/attestiq/compliance-backend/internal/domain"
)

// Point values per attestation status. A requirement without an attestation
// scores 0: absence is conservative-by-default.
const (
	pointsHave    = 1.0
	pointsPartial = 0.5
	pointsNo      = 0.0
)

// Residual-risk thresholds over the total score. These are policy constants.
const (
	thresholdLow    = 90
	thresholdMedium = 75
	thresholdHigh   = 60
)

// Score computes the overall and per-family compliance score.
// Scoring with zero requirements is a precondition failure, not a zero score.
func Score(requirements []domain.Requirement, attestations []domain.Attestation) (*domain.Score, error) {
	if len(requirements) == 0 {
		return nil, domain.NewValidationError("requirements", "cannot score an assessment with no requirements")
	}

	bySubject := make(map[uuid.UUID]domain.AttestationStatus, len(attestations))
	for _, a := range attestations {
		bySubject[a.SubjectID] = a.Status
	}

	var totalPoints float64
	familyPoints := make(map[domain.ControlFamily]float64)
	familyCounts := make(map[domain.ControlFamily]int)

	for _, req := range requirements {
		p := points(bySubject, req.ID)
		totalPoints += p
		familyPoints[req.ControlFamily] += p
		familyCounts[req.ControlFamily]++
	}

	breakdown := make(map[domain.ControlFamily]int, len(familyCounts))
	for family, count := range familyCounts {
		breakdown[family] = roundPercent(familyPoints[family], count)
	}

	total := roundPercent(totalPoints, len(requirements))

	return &domain.Score{
		Total:           total,
		ResidualRisk:    ResidualRisk(total),
		FamilyBreakdown: breakdown,
	}, nil
}

// ResidualRisk maps a total score to its qualitative risk label.
func ResidualRisk(total int) domain.RiskLevel {
	switch {
	case total >= thresholdLow:
		return domain.RiskLevelLow
	case total >= thresholdMedium:
		return domain.RiskLevelMedium
	case total >= thresholdHigh:
		return domain.RiskLevelHigh
	default:
		return domain.RiskLevelCritical
	}
}

func points(bySubject map[uuid.UUID]domain.AttestationStatus, requirementID uuid.UUID) float64 {
	status, ok := bySubject[requirementID]
	if !ok {
		return pointsNo
	}
	switch status {
	case domain.AttestationStatusHave:
		return pointsHave
	case domain.AttestationStatusPartial:
		return pointsPartial
	default:
		return pointsNo
	}
}

func roundPercent(points float64, count int) int {
	return int(math.Round(100 * points / float64(count)))
}
