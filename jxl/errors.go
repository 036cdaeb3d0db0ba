package jxl

import "errors"

// Failure taxonomy. Every error returned by this package wraps exactly one
// of these sentinels, so callers can branch with errors.Is.
var (
	// ErrInvalidInput reports malformed dimensions, an unsupported
	// channel/bit-depth combination or a buffer-length mismatch. Always
	// detected before any engine object is created.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProtocol reports an engine status other than the one expected at
	// a given protocol step. Covers corrupt and truncated bitstreams.
	ErrProtocol = errors.New("engine protocol violation")

	// ErrColorTransform reports a color-managed transform failure.
	ErrColorTransform = errors.New("color transform failed")

	// ErrResource reports engine-object construction failure.
	ErrResource = errors.New("engine unavailable")
)
