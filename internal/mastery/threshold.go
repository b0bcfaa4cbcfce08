package mastery

import "math"

// Adaptive threshold bounds. The bar to complete a skill shifts with the
// user's historical evidence-quality variance in the skill's subject:
// consistent performers face a slightly higher bar.
const (
	DefaultThreshold = 0.8
	ThresholdFloor   = 0.6
	ThresholdCeiling = 0.95

	// minVarianceSamples is the minimum quality-history size before the
	// threshold moves off its base. Cold-start users get the default bar.
	minVarianceSamples = 5

	// qualityHistoryCap bounds the per-subject quality history.
	qualityHistoryCap = 20

	// thresholdSpread is the maximum shift in either direction.
	thresholdSpread = 0.075

	// varianceScale is the stddev at which the shift bottoms out.
	varianceScale = 0.25
)

// AdaptiveThreshold computes the completion bar for a skill given its
// base threshold and the user's quality history in the skill's subject.
func AdaptiveThreshold(base float64, qualityHistory []float64) float64 {
	if base <= 0 {
		base = DefaultThreshold
	}
	if len(qualityHistory) < minVarianceSamples {
		return clampThreshold(base)
	}

	sigma := stddev(qualityHistory)

	// consistency is 1 for perfectly steady quality, 0 at or beyond
	// varianceScale. Shift is symmetric around the base.
	consistency := 1 - math.Min(sigma/varianceScale, 1)
	shift := thresholdSpread * (2*consistency - 1)
	return clampThreshold(base + shift)
}

func clampThreshold(v float64) float64 {
	if v < ThresholdFloor {
		return ThresholdFloor
	}
	if v > ThresholdCeiling {
		return ThresholdCeiling
	}
	return v
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}
