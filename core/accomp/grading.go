package accomp

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/osdops/sdutrack/core"
)

// GradeTier classifies a grading by percentage of the category cap.
type GradeTier string

const (
	TierExcellent        GradeTier = "Excellent"
	TierGood             GradeTier = "Good"
	TierSatisfactory     GradeTier = "Satisfactory"
	TierNeedsImprovement GradeTier = "Needs Improvement"
)

var (
	ErrUnknownCategory  = errors.New("unknown accomplishment category")
	ErrUnknownCriterion = errors.New("breakdown references an unknown criterion")
)

// GradingResult is the outcome of running a breakdown through a rubric.
type GradingResult struct {
	Breakdown   map[string]int `json:"breakdown"` // clamped
	TotalPoints int            `json:"total_points"`
	MaxPoints   int            `json:"max_points"`
	Tier        GradeTier      `json:"tier"`
}

// TierFor classifies total/max. Boundaries are inclusive of the lower
// bound: exactly 90% is Excellent.
func TierFor(total, max int) GradeTier {
	if max <= 0 {
		return TierNeedsImprovement
	}
	pct := float64(total) / float64(max) * 100
	switch {
	case pct >= 90:
		return TierExcellent
	case pct >= 80:
		return TierGood
	case pct >= 70:
		return TierSatisfactory
	default:
		return TierNeedsImprovement
	}
}

// Grade scores a breakdown against the category rubric. Out-of-range
// values are clamped to [0, criterion cap] rather than rejected; the
// result carries the clamped breakdown so callers can show what was
// actually recorded. Unknown criterion names are rejected.
func Grade(category Category, breakdown map[string]int) (GradingResult, error) {
	rubric, ok := RubricFor(category)
	if !ok {
		return GradingResult{}, core.NewValidationError(ErrUnknownCategory,
			core.FieldError{Field: "category", Error: fmt.Sprintf("unknown category %q", category)})
	}

	for name := range breakdown {
		if _, ok := rubric.Criterion(name); !ok {
			return GradingResult{}, core.NewValidationError(ErrUnknownCriterion,
				core.FieldError{Field: "breakdown", Error: fmt.Sprintf("unknown criterion %q", name)})
		}
	}

	res := GradingResult{
		Breakdown: make(map[string]int, len(breakdown)),
		MaxPoints: rubric.MaxPoints,
	}
	for _, crit := range rubric.Criteria {
		pts, ok := breakdown[crit.Name]
		if !ok {
			continue // unscored criterion counts as 0
		}
		if pts < 0 {
			pts = 0
		} else if pts > crit.MaxPoints {
			pts = crit.MaxPoints
		}
		res.Breakdown[crit.Name] = pts
		res.TotalPoints += pts
	}
	res.Tier = TierFor(res.TotalPoints, res.MaxPoints)
	return res, nil
}
