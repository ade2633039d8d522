package building

const (
	largePixelThreshold  = 1_000_000
	mediumPixelThreshold = 400_000
)

// InferFeatures maps image statistics to building features. It performs no I/O.
func InferFeatures(stats Statistics) Features {
	var f Features

	totalPixels := stats.Width * stats.Height
	switch {
	case totalPixels > largePixelThreshold:
		f.EstimatedSize, f.SizeFactor = SizeLarge, 1.3
	case totalPixels > mediumPixelThreshold:
		f.EstimatedSize, f.SizeFactor = SizeMedium, 1.0
	default:
		f.EstimatedSize, f.SizeFactor = SizeSmall, 0.8
	}

	// dark exteriors absorb more heat
	switch stats.DominantColor {
	case ColorDark:
		f.HeatAbsorption, f.AbsorptionFactor = AbsorptionHigh, 1.4
	case ColorLight:
		f.HeatAbsorption, f.AbsorptionFactor = AbsorptionLow, 0.7
	default:
		f.HeatAbsorption, f.AbsorptionFactor = AbsorptionMedium, 1.0
	}

	switch stats.Complexity {
	case ComplexityComplex:
		f.DesignQuality, f.DesignFactor = DesignAdvanced, 0.8
	case ComplexityModerate:
		f.DesignQuality, f.DesignFactor = DesignStandard, 1.0
	default:
		f.DesignQuality, f.DesignFactor = DesignBasic, 1.2
	}

	return f
}
