// Package cmm defines the color-management boundary used by the decode
// pipeline. Actual ICC profile parsing and gamut conversion are delegated to
// an external color engine behind the CMM interface; this package only
// carries the interface and the sRGB transfer-curve math the manual fallback
// needs.
package cmm

import "errors"

var (
	// ErrProfileParse is returned when a profile blob cannot be parsed.
	// Distinct from a profile being absent, which is not an error.
	ErrProfileParse = errors.New("cmm: cannot parse color profile")

	// ErrTransform is returned when a parsed profile cannot be applied.
	ErrTransform = errors.New("cmm: color transform failed")
)

// Profile is an opaque handle to a parsed color profile.
type Profile interface {
	// Description returns the profile description, if any.
	Description() string
}

// CMM performs color-managed transforms between profiles.
type CMM interface {
	// ParseProfile parses an ICC profile blob. A failure wraps
	// ErrProfileParse.
	ParseProfile(data []byte) (Profile, error)

	// ToSRGB8 transforms interleaved float RGBA samples described by src
	// into 8-bit gamma-encoded sRGB RGBA with unpremultiplied alpha. If
	// premultiplied is set, samples are un-premultiplied during the
	// transform. A failure wraps ErrTransform.
	ToSRGB8(pixels []float32, src Profile, premultiplied bool) ([]uint8, error)
}
