// Package jxl implements the JPEG XL codec configuration, validation and
// pixel-format adaptation layer. The entropy coding, transforms and bitstream
// state machine live behind the engine protocol (jxl/engine); color-managed
// conversion lives behind the cmm boundary. Each encode or decode call is
// synchronous, creates its own engine instance and shares no state with other
// calls, so concurrent calls are independent.
package jxl

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/kelaci/go-jxl-codec/cmm"
	"github.com/kelaci/go-jxl-codec/codec"
	"github.com/kelaci/go-jxl-codec/jxl/engine"
)

// Codec implements the codec.Codec interface for JPEG XL.
type Codec struct {
	factory engine.Factory
	cms     cmm.CMM
	logger  *zap.Logger
	workers int
}

// NewCodec creates a new JPEG XL codec using the registered default engine
// factory, no color-management module (the manual sRGB fallback applies) and
// the machine's logical core count for engine parallelism.
func NewCodec() *Codec {
	return &Codec{
		logger:  zap.NewNop(),
		workers: runtime.NumCPU(),
	}
}

// WithEngine sets an explicit engine factory and returns the codec for
// chaining.
func (c *Codec) WithEngine(f engine.Factory) *Codec {
	c.factory = f
	return c
}

// WithCMM sets the color-management module used for profile-based transforms
// on the 8-bit decode path and returns the codec for chaining.
func (c *Codec) WithCMM(m cmm.CMM) *Codec {
	c.cms = m
	return c
}

// WithLogger sets a structured logger and returns the codec for chaining.
func (c *Codec) WithLogger(logger *zap.Logger) *Codec {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
	return c
}

// WithWorkers caps the engine's internal parallelism and returns the codec
// for chaining. Values below 2 disable the parallel runner.
func (c *Codec) WithWorkers(workers int) *Codec {
	c.workers = workers
	return c
}

// engineFactory resolves the factory to use for one call.
func (c *Codec) engineFactory() (engine.Factory, error) {
	if c.factory != nil {
		return c.factory, nil
	}
	return engine.Default()
}

// Encode encodes raw pixel data (implements codec.Codec). The input type is
// inferred from params.BitDepth; codec-specific options may be supplied as
// *Options, in which case the geometry fields are overridden from params.
func (c *Codec) Encode(params codec.EncodeParams) ([]byte, error) {
	opts := NewOptions()
	if typed, ok := params.Options.(*Options); ok && typed != nil {
		cp := *typed
		opts = &cp
	}
	opts.NumChannels = params.Channels
	opts.BitDepth = params.BitDepth
	switch {
	case params.BitDepth == 32:
		opts.InputType = InputFloat32
	case params.BitDepth > 8:
		opts.InputType = InputUint16
	default:
		opts.InputType = InputUint8
	}
	return c.EncodeFrame(params.PixelData, params.Width, params.Height, opts)
}

// Decode decodes to 8-bit sRGB RGBA (implements codec.Codec).
func (c *Codec) Decode(data []byte) (*codec.DecodeResult, error) {
	img, err := c.DecodeRGBA(data)
	if err != nil {
		return nil, err
	}
	return &codec.DecodeResult{
		PixelData: img.Pix,
		Width:     img.Width,
		Height:    img.Height,
		Channels:  4,
		BitDepth:  8,
	}, nil
}

// MIME returns the JPEG XL media type
func (c *Codec) MIME() string {
	return "image/jxl"
}

// Name returns the human-readable name
func (c *Codec) Name() string {
	return "jxl"
}

// Register registers this codec with the global registry
func init() {
	codec.Register(NewCodec())
}

// Decode decodes a JPEG XL stream to 8-bit sRGB RGBA using the default
// engine.
func Decode(data []byte) (*Image8, error) {
	return NewCodec().DecodeRGBA(data)
}

// DecodeHighBitDepth decodes a JPEG XL stream into the representation
// matching its native bit depth, using the default engine.
func DecodeHighBitDepth(data []byte) (*Image, error) {
	return NewCodec().DecodeHighBitDepth(data)
}

// DecodeLinearFloat decodes a JPEG XL stream to float RGBA regardless of
// source bit depth, using the default engine.
func DecodeLinearFloat(data []byte) (*FloatImage, error) {
	return NewCodec().DecodeLinearFloat(data)
}

// Encode encodes raw interleaved pixel data with the given options, using
// the default engine. opts may be nil for defaults.
func Encode(pixels []byte, width, height int, opts *Options) ([]byte, error) {
	return NewCodec().EncodeFrame(pixels, width, height, opts)
}
