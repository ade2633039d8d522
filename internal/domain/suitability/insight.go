package suitability

import (
	"strings"

	"github.com/yanqian/urban-heat-advisor/internal/domain/building"
	"github.com/yanqian/urban-heat-advisor/internal/domain/heatmap"
)

const maxInsightSentences = 2

const (
	insightVerticalOven  = "At this heat level, building traditional high-rises can create a 'vertical oven' effect where upper floors trap heat from the dense city core, making cooling costs unsustainable."
	insightModerateZone  = "This moderate heat zone suggests that while construction is viable, placing high-density residential units here without extensive green buffers will lead to 'thermal discomfort' for lower-floor residents during peak summer."
	insightCoolPocket    = "This is a 'Cool Pocket'—ideal for sustainable development. You have more flexibility with materials without risking severe heat retention."
	insightLargeHotspot  = "For a 5+ storey proposal in this hotspot, reconsider the ground floor layout; heat trapped at street level will significantly impact livability for ground-floor commercial or residential units."
	insightHighAbsorbing = "Your current schematic suggests a high-absorption exterior. In this specific climate zone, that color choice alone could increase interior temperatures by 4-6°C compared to local benchmarks."
	insightLowScore      = "Strategic Warning: Building here without a complete redesign (e.g., pilotis for air flow, massive vertical greening) is likely to result in a 'failed building' status from an environmental efficiency standpoint."
	insightHighScore     = "Pro Tip: This site is a rare 'Thermal Asset'. Use this to market the property's natural cooling efficiency and low long-term energy footprint."
)

// ExpertInsight joins the first two narrative candidates, in generation order, with a space.
func ExpertInsight(reading heatmap.Reading, features *building.Features, score float64) string {
	candidates := make([]string, 0, 4)

	switch {
	case reading.HeatIndex > 0.8:
		candidates = append(candidates, insightVerticalOven)
	case reading.HeatIndex > 0.5:
		candidates = append(candidates, insightModerateZone)
	default:
		candidates = append(candidates, insightCoolPocket)
	}

	if features != nil {
		if features.EstimatedSize == building.SizeLarge && reading.HeatIndex > 0.7 {
			candidates = append(candidates, insightLargeHotspot)
		}
		if features.HeatAbsorption == building.AbsorptionHigh {
			candidates = append(candidates, insightHighAbsorbing)
		}
	}

	switch {
	case score < 40:
		candidates = append(candidates, insightLowScore)
	case score > 80:
		candidates = append(candidates, insightHighScore)
	}

	if len(candidates) > maxInsightSentences {
		candidates = candidates[:maxInsightSentences]
	}
	return strings.Join(candidates, " ")
}
