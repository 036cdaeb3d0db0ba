package cmm

import "math"

// sRGB piecewise transfer function constants (IEC 61966-2-1).
const (
	srgbLinearCutoff  = 0.0031308
	srgbEncodedCutoff = 0.04045
	srgbLinearScale   = 12.92
)

// LinearToSRGB applies the sRGB OETF to one linear-light sample.
func LinearToSRGB(v float32) float32 {
	if v <= srgbLinearCutoff {
		return v * srgbLinearScale
	}
	return 1.055*float32(math.Pow(float64(v), 1.0/2.4)) - 0.055
}

// SRGBToLinear inverts the sRGB OETF for one encoded sample.
func SRGBToLinear(v float32) float32 {
	if v <= srgbEncodedCutoff {
		return v / srgbLinearScale
	}
	return float32(math.Pow((float64(v)+0.055)/1.055, 2.4))
}

// Clamp01 clamps a sample to the displayable [0,1] range.
func Clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
