package cmm

import (
	"math"
	"testing"
)

func TestLinearToSRGB(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want float32
	}{
		{"zero", 0, 0},
		{"below cutoff", 0.002, 0.002 * 12.92},
		{"cutoff", 0.0031308, 0.0031308 * 12.92},
		{"mid gray", 0.5, 0.735357},
		{"one", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LinearToSRGB(tt.in)
			if math.Abs(float64(got-tt.want)) > 1e-5 {
				t.Errorf("LinearToSRGB(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSRGBCurveContinuityAtCutoff(t *testing.T) {
	lo := LinearToSRGB(srgbLinearCutoff)
	hi := LinearToSRGB(srgbLinearCutoff + 1e-6)
	if math.Abs(float64(hi-lo)) > 1e-4 {
		t.Errorf("discontinuity at cutoff: %v vs %v", lo, hi)
	}
}

func TestSRGBCurveRoundTrip(t *testing.T) {
	for _, v := range []float32{0, 0.001, 0.0031308, 0.01, 0.18, 0.5, 0.9, 1} {
		back := SRGBToLinear(LinearToSRGB(v))
		if math.Abs(float64(back-v)) > 1e-5 {
			t.Errorf("round trip of %v drifted to %v", v, back)
		}
	}
}

func TestClamp01(t *testing.T) {
	tests := []struct {
		in   float32
		want float32
	}{
		{-0.5, 0},
		{0, 0},
		{0.25, 0.25},
		{1, 1},
		{1.5, 1},
	}

	for _, tt := range tests {
		if got := Clamp01(tt.in); got != tt.want {
			t.Errorf("Clamp01(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
