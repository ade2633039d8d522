package suitability

import "github.com/yanqian/urban-heat-advisor/internal/domain/heatmap"

// Priority orders recommendations.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Recommendation is one actionable construction item.
type Recommendation struct {
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
}

// MitigationStrategy is a physical measure against heat exposure.
type MitigationStrategy struct {
	Strategy      string `json:"strategy"`
	Benefit       string `json:"benefit"`
	Effectiveness string `json:"effectiveness"`
}

// Result is the full analysis for one reading.
type Result struct {
	SuitabilityScore     float64              `json:"suitabilityScore"`
	IsAdvisable          bool                 `json:"isAdvisable"`
	Verdict              string               `json:"verdict"`
	ExpertInsight        string               `json:"expertInsight"`
	HeatRiskLevel        heatmap.RiskLevel    `json:"heatRiskLevel"`
	Recommendations      []Recommendation     `json:"recommendations"`
	MitigationStrategies []MitigationStrategy `json:"mitigationStrategies"`
}

const (
	VerdictExcellent      = "Excellent location for construction"
	VerdictGood           = "Good location with minor heat considerations"
	VerdictModerate       = "Moderate location - significant heat mitigation required"
	VerdictNotRecommended = "Not recommended - high heat stress area"
)
