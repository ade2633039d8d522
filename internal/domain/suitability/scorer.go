package suitability

import (
	"math"

	"github.com/yanqian/urban-heat-advisor/internal/domain/building"
	"github.com/yanqian/urban-heat-advisor/internal/domain/heatmap"
)

// AdvisableThreshold is the minimum score at which construction is advised.
const AdvisableThreshold = 60.0

// Score combines a heat reading with optional building features.
// A nil features pointer means no image was analysed.
func Score(reading heatmap.Reading, features *building.Features) Result {
	score := ComputeScore(reading.HeatIndex, features)
	return Result{
		SuitabilityScore:     score,
		IsAdvisable:          score >= AdvisableThreshold,
		Verdict:              VerdictFor(score),
		ExpertInsight:        ExpertInsight(reading, features, score),
		HeatRiskLevel:        reading.RiskLevel,
		Recommendations:      Recommendations(reading, features),
		MitigationStrategies: MitigationStrategies(reading, features),
	}
}

// ComputeScore returns the suitability score rounded to one decimal and clamped to [0,100].
func ComputeScore(heatIndex float64, features *building.Features) float64 {
	s := 100 - heatIndex*40
	if features != nil {
		s -= (features.SizeFactor - 1) * 10
		s -= (features.AbsorptionFactor - 1) * 15
		s += (1 - features.DesignFactor) * 10
	}
	s = math.Round(s*10) / 10
	if math.IsNaN(s) {
		return 0
	}
	return math.Max(0, math.Min(100, s))
}

// VerdictFor maps a score to its verdict text.
func VerdictFor(score float64) string {
	switch {
	case score >= 80:
		return VerdictExcellent
	case score >= 60:
		return VerdictGood
	case score >= 40:
		return VerdictModerate
	default:
		return VerdictNotRecommended
	}
}
