package jxl

import (
	"fmt"
	"math"
)

// IsSupportedCombination reports whether an input sample type can carry the
// given nominal bit depth: uint8 carries 8, uint16 carries 10/12/16, float32
// carries 32.
func IsSupportedCombination(inputType InputType, bitDepth int) bool {
	switch inputType {
	case InputUint8:
		return bitDepth == 8
	case InputUint16:
		return bitDepth == 10 || bitDepth == 12 || bitDepth == 16
	case InputFloat32:
		return bitDepth == 32
	}
	return false
}

// ComputeExpectedSize returns width*height*numChannels*bytesPerSample,
// checking each factor by division before multiplying so a would-overflow
// product is detected instead of wrapping. It runs before any allocation or
// engine object exists, so failure is O(1) and side-effect free.
func ComputeExpectedSize(width, height, numChannels, bytesPerSample int) (int, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidInput, width, height)
	}
	if numChannels <= 0 || bytesPerSample <= 0 {
		return 0, fmt.Errorf("%w: %d channels of %d bytes", ErrInvalidInput, numChannels, bytesPerSample)
	}

	if width > math.MaxInt/height {
		return 0, fmt.Errorf("%w: pixel count overflows", ErrInvalidInput)
	}
	pixels := width * height
	if pixels > math.MaxInt/numChannels {
		return 0, fmt.Errorf("%w: sample count overflows", ErrInvalidInput)
	}
	samples := pixels * numChannels
	if samples > math.MaxInt/bytesPerSample {
		return 0, fmt.Errorf("%w: byte size overflows", ErrInvalidInput)
	}
	return samples * bytesPerSample, nil
}
