package suitability

import (
	"fmt"
	"strconv"

	"github.com/yanqian/urban-heat-advisor/internal/domain/building"
	"github.com/yanqian/urban-heat-advisor/internal/domain/heatmap"
)

const hotTemperatureC = 36.0

// Recommendations evaluates each rule independently, preserving rule order.
func Recommendations(reading heatmap.Reading, features *building.Features) []Recommendation {
	recs := make([]Recommendation, 0, 6)

	switch {
	case reading.HeatIndex >= 0.75:
		recs = append(recs, Recommendation{
			Category:    "Critical",
			Title:       "High Heat Zone",
			Description: "This area experiences severe urban heat island effect. Cooling systems will require significant capacity.",
			Priority:    PriorityHigh,
		})
	case reading.HeatIndex >= 0.50:
		recs = append(recs, Recommendation{
			Category:    "Important",
			Title:       "Moderate Heat Zone",
			Description: "Moderate heat island effect detected. Plan for enhanced ventilation and cooling.",
			Priority:    PriorityMedium,
		})
	}

	if features != nil {
		if features.HeatAbsorption == building.AbsorptionHigh {
			recs = append(recs, Recommendation{
				Category:    "Material Selection",
				Title:       "Use Reflective Materials",
				Description: "Current design shows dark colors. Use light-colored, reflective roofing and exterior materials to reduce heat absorption.",
				Priority:    PriorityHigh,
			})
		}
		if features.EstimatedSize == building.SizeLarge {
			recs = append(recs, Recommendation{
				Category:    "Design",
				Title:       "Enhanced Cooling System",
				Description: "Large building footprint requires robust HVAC system designed for high ambient temperatures.",
				Priority:    PriorityMedium,
			})
		}
		if features.DesignQuality == building.DesignBasic {
			recs = append(recs, Recommendation{
				Category:    "Design",
				Title:       "Improve Ventilation Design",
				Description: "Consider adding cross-ventilation features, ventilation shafts, or green spaces to improve natural cooling.",
				Priority:    PriorityMedium,
			})
		}
	}

	if reading.Temperature > hotTemperatureC {
		recs = append(recs, Recommendation{
			Category:    "Climate Adaptation",
			Title:       "Heat-Resilient Construction",
			Description: fmt.Sprintf("Area temperature (%s°C) requires heat-resistant materials and superior insulation.", strconv.FormatFloat(reading.Temperature, 'f', 1, 64)),
			Priority:    PriorityHigh,
		})
	}

	return recs
}

// MitigationStrategies lists universal measures first, then heat and building specific ones.
func MitigationStrategies(reading heatmap.Reading, features *building.Features) []MitigationStrategy {
	strategies := []MitigationStrategy{
		{
			Strategy:      "Green Roof Installation",
			Benefit:       "Reduces roof temperature by 20-30°C and provides insulation",
			Effectiveness: "High",
		},
		{
			Strategy:      "Vertical Gardens",
			Benefit:       "Cools building perimeter and improves air quality",
			Effectiveness: "Medium",
		},
	}

	if reading.HeatIndex > 0.6 {
		strategies = append(strategies,
			MitigationStrategy{
				Strategy:      "Double-Glazed Windows",
				Benefit:       "Reduces heat transfer by 40-50%",
				Effectiveness: "High",
			},
			MitigationStrategy{
				Strategy:      "Strategic Shading",
				Benefit:       "Use overhangs, louvers, and external shading devices",
				Effectiveness: "High",
			},
		)
	}

	if features != nil && features.HeatAbsorption == building.AbsorptionHigh {
		strategies = append(strategies, MitigationStrategy{
			Strategy:      "Cool Roof Coating",
			Benefit:       "Reflective coating can reduce surface temperature by 20-25°C",
			Effectiveness: "Very High",
		})
	}

	return strategies
}
