package jxl

import "math"

// QualityToDistance maps a perceptual quality in [0,100] to the engine's
// Butteraugli distance (0 = highest fidelity, larger = more loss). The
// mapping is piecewise: 100 maps to exactly 0, the [30,100) range is linear,
// and below 30 distance grows exponentially so each further quality step
// costs increasingly more. The two lossy branches meet with a small step at
// quality 30. Quality outside [0,100] is clamped first.
func QualityToDistance(quality float32) float64 {
	q := float64(quality)
	if q < 0 {
		q = 0
	}
	if q > 100 {
		q = 100
	}

	switch {
	case q >= 100:
		return 0
	case q >= 30:
		return 0.1 + (100-q)*0.09
	default:
		return 6.4 + math.Pow(2.5, (30-q)/5)/6.25
	}
}
