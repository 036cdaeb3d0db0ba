package jxl

import (
	"fmt"

	"github.com/kelaci/go-jxl-codec/jxl/engine"
)

// InputType identifies the sample type of the caller's pixel buffer.
type InputType int

const (
	InputUint8 InputType = iota
	InputUint16
	InputFloat32
)

// dataType maps an input type to the engine's pixel format type.
func (t InputType) dataType() engine.DataType {
	switch t {
	case InputUint16:
		return engine.TypeUint16
	case InputFloat32:
		return engine.TypeFloat32
	default:
		return engine.TypeUint8
	}
}

// ColorSpace is the user-facing color space selector.
type ColorSpace int

const (
	ColorSpaceSRGB ColorSpace = iota
	ColorSpaceDisplayP3
	ColorSpaceRec2020PQ
	ColorSpaceRec2020HLG
)

// Options contains encoding options for JPEG XL. Construct with NewOptions,
// customize with the With* setters, and treat as immutable after Validate.
type Options struct {
	// Effort is the encode effort (1-9, higher = slower, denser). Default 7.
	Effort int

	// Quality is the perceptual quality (0-100, higher is better). Ignored
	// when Lossless is set. Default 75.
	Quality float32

	// Progressive enables progressive decoding support.
	Progressive bool

	// EPF is the edge-preserving-filter strength (-1 to 3, -1 = encoder
	// default). Values outside the range are ignored.
	EPF int

	// LossyPalette enables lossy palette mode (forces modular coding).
	LossyPalette bool

	// DecodingSpeedTier trades density for decode speed (0-4). Default 0.
	DecodingSpeedTier int

	// PhotonNoiseISO adds synthetic photon noise for the given ISO
	// sensitivity. 0 disables.
	PhotonNoiseISO float32

	// LossyModular selects modular coding for lossy frames.
	LossyModular bool

	// Lossless requests mathematically lossless coding. Quality is ignored.
	Lossless bool

	// BitDepth is the nominal sample depth (8, 10, 12, 16 or 32). Must
	// match InputType: uint8 carries 8, uint16 carries 10/12/16, float32
	// carries 32.
	BitDepth int

	// InputType is the sample type of the pixel buffer.
	InputType InputType

	// NumChannels is the interleaved channel count (3=RGB, 4=RGBA).
	NumChannels int

	// ColorSpace selects the encoded color space.
	ColorSpace ColorSpace

	// PremultipliedAlpha declares the alpha channel as premultiplied.
	PremultipliedAlpha bool
}

// NewOptions returns Options with the default encoder configuration:
// effort 7, quality 75, 8-bit sRGB RGBA input.
func NewOptions() *Options {
	return &Options{
		Effort:      7,
		Quality:     75,
		EPF:         -1,
		BitDepth:    8,
		InputType:   InputUint8,
		NumChannels: 4,
		ColorSpace:  ColorSpaceSRGB,
	}
}

// Validate checks cross-field constraints and normalizes clamped fields.
// It must pass before the options are handed to the encode pipeline.
func (o *Options) Validate() error {
	if o.NumChannels != 3 && o.NumChannels != 4 {
		return fmt.Errorf("%w: channel count %d (want 3 or 4)", ErrInvalidInput, o.NumChannels)
	}
	if !IsSupportedCombination(o.InputType, o.BitDepth) {
		return fmt.Errorf("%w: input type %d with bit depth %d", ErrInvalidInput, o.InputType, o.BitDepth)
	}
	if o.ColorSpace < ColorSpaceSRGB || o.ColorSpace > ColorSpaceRec2020HLG {
		return fmt.Errorf("%w: unknown color space %d", ErrInvalidInput, o.ColorSpace)
	}

	if o.Effort < 1 {
		o.Effort = 1
	}
	if o.Effort > 9 {
		o.Effort = 9
	}
	if o.DecodingSpeedTier < 0 {
		o.DecodingSpeedTier = 0
	}
	if o.DecodingSpeedTier > 4 {
		o.DecodingSpeedTier = 4
	}
	if o.Quality < 0 {
		o.Quality = 0
	}
	if o.Quality > 100 {
		o.Quality = 100
	}
	if o.PhotonNoiseISO < 0 {
		o.PhotonNoiseISO = 0
	}
	return nil
}

// WithEffort sets the encode effort and returns the options for chaining.
func (o *Options) WithEffort(effort int) *Options {
	o.Effort = effort
	return o
}

// WithQuality sets the perceptual quality and returns the options for chaining.
func (o *Options) WithQuality(quality float32) *Options {
	o.Quality = quality
	return o
}

// WithLossless toggles lossless coding and returns the options for chaining.
func (o *Options) WithLossless(lossless bool) *Options {
	o.Lossless = lossless
	return o
}

// WithProgressive toggles progressive mode and returns the options for chaining.
func (o *Options) WithProgressive(progressive bool) *Options {
	o.Progressive = progressive
	return o
}

// WithBitDepth sets sample depth and input type together and returns the
// options for chaining.
func (o *Options) WithBitDepth(bitDepth int, inputType InputType) *Options {
	o.BitDepth = bitDepth
	o.InputType = inputType
	return o
}

// WithNumChannels sets the channel count and returns the options for chaining.
func (o *Options) WithNumChannels(channels int) *Options {
	o.NumChannels = channels
	return o
}

// WithColorSpace sets the color space and returns the options for chaining.
func (o *Options) WithColorSpace(cs ColorSpace) *Options {
	o.ColorSpace = cs
	return o
}
