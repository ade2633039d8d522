package building

import (
	"fmt"
	"math"
)

// Complexity buckets pixel standard deviation.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// DominantColor buckets per-channel means.
type DominantColor string

const (
	ColorLight DominantColor = "light"
	ColorDark  DominantColor = "dark"
	ColorMixed DominantColor = "mixed"
)

// Size is the footprint estimate derived from pixel count.
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

// Absorption is the exterior heat absorption estimate.
type Absorption string

const (
	AbsorptionLow    Absorption = "low"
	AbsorptionMedium Absorption = "medium"
	AbsorptionHigh   Absorption = "high"
)

// DesignQuality is the ventilation design estimate.
type DesignQuality string

const (
	DesignBasic    DesignQuality = "basic"
	DesignStandard DesignQuality = "standard"
	DesignAdvanced DesignQuality = "advanced"
)

// Statistics summarises the decoded image.
type Statistics struct {
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	AspectRatio   float64       `json:"aspectRatio"`
	Brightness    float64       `json:"brightness"`
	Complexity    Complexity    `json:"complexity"`
	DominantColor DominantColor `json:"dominantColor"`
}

// Features are the qualitative building characteristics used by the scorer.
// A missing analysis is represented by a nil *Features, never by a zero value.
type Features struct {
	EstimatedSize    Size          `json:"estimatedSize"`
	SizeFactor       float64       `json:"sizeFactor"`
	HeatAbsorption   Absorption    `json:"heatAbsorption"`
	AbsorptionFactor float64       `json:"absorptionFactor"`
	DesignQuality    DesignQuality `json:"designQuality"`
	DesignFactor     float64       `json:"designFactor"`
}

// Analysis bundles the statistics with the features inferred from them.
type Analysis struct {
	Statistics Statistics `json:"statistics"`
	Features   Features   `json:"features"`
}

// Validate checks features supplied by callers rather than produced by InferFeatures.
func (f Features) Validate() error {
	switch f.EstimatedSize {
	case SizeSmall, SizeMedium, SizeLarge:
	default:
		return fmt.Errorf("estimatedSize %q is not one of small, medium, large", f.EstimatedSize)
	}
	switch f.HeatAbsorption {
	case AbsorptionLow, AbsorptionMedium, AbsorptionHigh:
	default:
		return fmt.Errorf("heatAbsorption %q is not one of low, medium, high", f.HeatAbsorption)
	}
	switch f.DesignQuality {
	case DesignBasic, DesignStandard, DesignAdvanced:
	default:
		return fmt.Errorf("designQuality %q is not one of basic, standard, advanced", f.DesignQuality)
	}
	factors := []struct {
		name  string
		value float64
	}{
		{"sizeFactor", f.SizeFactor},
		{"absorptionFactor", f.AbsorptionFactor},
		{"designFactor", f.DesignFactor},
	}
	for _, factor := range factors {
		if math.IsNaN(factor.value) || math.IsInf(factor.value, 0) || factor.value <= 0 {
			return fmt.Errorf("%s must be a positive number", factor.name)
		}
	}
	return nil
}
