package jxl

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kelaci/go-jxl-codec/jxl/engine"
)

// initialOutputCap is the starting capacity of the compressed-output buffer.
// The collector doubles it as the engine asks for more room.
const initialOutputCap = 8192

// EncodeFrame validates the pixel buffer against opts, configures an engine
// encoder and drains its compressed output. opts may be nil for defaults.
// The options are validated as a whole before any engine object is created;
// every configuration step is fatal on failure and no partial frame is ever
// submitted.
func (c *Codec) EncodeFrame(pixels []byte, width, height int, opts *Options) ([]byte, error) {
	if opts == nil {
		opts = NewOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	expected, err := ComputeExpectedSize(width, height, opts.NumChannels, opts.InputType.dataType().BytesPerSample())
	if err != nil {
		return nil, err
	}
	if expected != len(pixels) {
		return nil, fmt.Errorf("%w: buffer is %d bytes, want %d", ErrInvalidInput, len(pixels), expected)
	}

	factory, err := c.engineFactory()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	enc, err := factory.NewEncoder()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	defer enc.Close()

	if c.workers > 1 {
		if st := enc.SetParallelRunner(engine.NewThreadRunner(c.workers)); st != engine.EncSuccess {
			return nil, fmt.Errorf("%w: parallel runner rejected", ErrResource)
		}
	}

	if err := c.configureEncoder(enc, width, height, opts); err != nil {
		return nil, err
	}

	fs, err := enc.FrameSettings()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	if err := configureFrame(fs, opts, c.logger); err != nil {
		return nil, err
	}

	format := engine.PixelFormat{NumChannels: opts.NumChannels, DataType: opts.InputType.dataType()}
	if st := fs.AddImageFrame(format, pixels); st != engine.EncSuccess {
		return nil, fmt.Errorf("%w: engine rejected image frame", ErrProtocol)
	}
	enc.CloseInput()

	return collectOutput(enc, c.logger)
}

// configureEncoder runs the encoder-level configuration sequence in its
// required order: basic info, codestream level, alpha channel, color
// encoding.
func (c *Codec) configureEncoder(enc engine.Encoder, width, height int, opts *Options) error {
	info := buildBasicInfo(width, height, opts)
	if st := enc.SetBasicInfo(info); st != engine.EncSuccess {
		return fmt.Errorf("%w: engine rejected basic info", ErrProtocol)
	}
	c.logger.Debug("basic info committed",
		zap.Int("width", width), zap.Int("height", height),
		zap.Int("bitDepth", opts.BitDepth), zap.Int("channels", opts.NumChannels))

	// Some containers default to a lower level that would reject this
	// configuration, so a required level 10 must be pinned explicitly.
	level := enc.RequiredCodestreamLevel()
	if level < 0 {
		return fmt.Errorf("%w: codestream level query failed", ErrProtocol)
	}
	if level == 10 {
		if st := enc.SetCodestreamLevel(10); st != engine.EncSuccess {
			return fmt.Errorf("%w: engine rejected codestream level 10", ErrProtocol)
		}
	}

	if opts.NumChannels == 4 {
		alpha := engine.NewExtraChannelInfo(engine.ChannelAlpha)
		alpha.BitsPerSample = info.AlphaBits
		alpha.ExponentBitsPerSample = info.AlphaExponentBits
		alpha.AlphaPremultiplied = info.AlphaPremultiplied
		if st := enc.SetExtraChannelInfo(0, alpha); st != engine.EncSuccess {
			return fmt.Errorf("%w: engine rejected alpha channel info", ErrProtocol)
		}
	}

	encoding, err := colorEncodingFor(opts.ColorSpace, opts.InputType)
	if err != nil {
		return err
	}
	if st := enc.SetColorEncoding(&encoding); st != engine.EncSuccess {
		return fmt.Errorf("%w: engine rejected color encoding", ErrProtocol)
	}
	return nil
}

// buildBasicInfo maps the validated options onto the engine's basic-info
// block. Exponent bits are 8 only for float input; the alpha channel mirrors
// the color depth.
func buildBasicInfo(width, height int, opts *Options) *engine.BasicInfo {
	info := &engine.BasicInfo{
		XSize:               uint32(width),
		YSize:               uint32(height),
		BitsPerSample:       uint32(opts.BitDepth),
		NumColorChannels:    3,
		UsesOriginalProfile: true,
	}
	if opts.InputType == InputFloat32 {
		info.ExponentBitsPerSample = 8
	}
	if opts.NumChannels == 4 {
		info.NumExtraChannels = 1
		info.AlphaBits = info.BitsPerSample
		info.AlphaExponentBits = info.ExponentBitsPerSample
		info.AlphaPremultiplied = opts.PremultipliedAlpha
	}
	return info
}

// colorEncodingFor maps the user-facing color space onto the engine's color
// encoding. sRGB and Display-P3 switch to a linear transfer for float input;
// the Rec.2020 encodings carry their HDR transfer regardless of input type.
func colorEncodingFor(cs ColorSpace, input InputType) (engine.ColorEncoding, error) {
	var encoding engine.ColorEncoding
	switch cs {
	case ColorSpaceSRGB:
		if input == InputFloat32 {
			encoding.SetToLinearSRGB(false)
		} else {
			encoding.SetToSRGB(false)
		}
	case ColorSpaceDisplayP3:
		encoding = engine.ColorEncoding{
			ColorSpace:       engine.ColorSpaceRGB,
			WhitePoint:       engine.WhitePointD65,
			Primaries:        engine.PrimariesP3,
			TransferFunction: engine.TransferSRGB,
			RenderingIntent:  engine.IntentPerceptual,
		}
		if input == InputFloat32 {
			encoding.TransferFunction = engine.TransferLinear
		}
	case ColorSpaceRec2020PQ:
		encoding = engine.ColorEncoding{
			ColorSpace:       engine.ColorSpaceRGB,
			WhitePoint:       engine.WhitePointD65,
			Primaries:        engine.Primaries2100,
			TransferFunction: engine.TransferPQ,
			RenderingIntent:  engine.IntentPerceptual,
		}
	case ColorSpaceRec2020HLG:
		encoding = engine.ColorEncoding{
			ColorSpace:       engine.ColorSpaceRGB,
			WhitePoint:       engine.WhitePointD65,
			Primaries:        engine.Primaries2100,
			TransferFunction: engine.TransferHLG,
			RenderingIntent:  engine.IntentPerceptual,
		}
	default:
		return encoding, fmt.Errorf("%w: unknown color space %d", ErrInvalidInput, cs)
	}
	return encoding, nil
}

// configureFrame applies the per-frame settings in their required order and
// finishes with either the lossless flag or the quality-derived distance.
func configureFrame(fs engine.FrameSettings, opts *Options, logger *zap.Logger) error {
	set := func(id engine.FrameSetting, value int64, what string) error {
		if st := fs.SetOption(id, value); st != engine.EncSuccess {
			return fmt.Errorf("%w: engine rejected %s", ErrProtocol, what)
		}
		return nil
	}

	if err := set(engine.SettingEffort, int64(opts.Effort), "effort"); err != nil {
		return err
	}
	if err := set(engine.SettingDecodingSpeed, int64(opts.DecodingSpeedTier), "decoding speed tier"); err != nil {
		return err
	}
	if opts.EPF >= -1 && opts.EPF <= 3 {
		if err := set(engine.SettingEPF, int64(opts.EPF), "edge-preserving filter"); err != nil {
			return err
		}
	}
	if opts.PhotonNoiseISO > 0 {
		iso := int64(math.Round(float64(opts.PhotonNoiseISO)))
		if err := set(engine.SettingPhotonNoise, iso, "photon noise"); err != nil {
			return err
		}
	}
	if opts.LossyPalette {
		if err := set(engine.SettingLossyPalette, 1, "lossy palette"); err != nil {
			return err
		}
		if err := set(engine.SettingPaletteColors, 0, "palette colors"); err != nil {
			return err
		}
		if err := set(engine.SettingModular, 1, "modular mode"); err != nil {
			return err
		}
	}
	if opts.LossyModular {
		if err := set(engine.SettingModular, 1, "modular mode"); err != nil {
			return err
		}
	}
	if opts.Progressive {
		if err := set(engine.SettingQProgressiveAC, 1, "progressive AC"); err != nil {
			return err
		}
		if err := set(engine.SettingResponsive, 1, "responsive mode"); err != nil {
			return err
		}
		if !opts.LossyModular {
			if err := set(engine.SettingProgressiveDC, 1, "progressive DC"); err != nil {
				return err
			}
		}
	}

	if opts.Lossless {
		if st := fs.SetLossless(true); st != engine.EncSuccess {
			return fmt.Errorf("%w: engine rejected lossless mode", ErrProtocol)
		}
		return nil
	}

	if opts.Quality >= 100 && opts.LossyModular {
		if err := set(engine.SettingModular, 1, "modular mode"); err != nil {
			return err
		}
	}
	distance := QualityToDistance(opts.Quality)
	logger.Debug("frame distance selected",
		zap.Float32("quality", opts.Quality), zap.Float64("distance", distance))
	if st := fs.SetDistance(distance); st != engine.EncSuccess {
		return fmt.Errorf("%w: engine rejected distance %g", ErrProtocol, distance)
	}
	return nil
}

// collectOutput drains the encoder into a caller-owned buffer, doubling its
// capacity whenever the engine reports it needs more room. The written prefix
// and cursor survive every grow, and the final slice is trimmed to exactly
// the bytes written. This is the only place output capacity grows.
func collectOutput(enc engine.Encoder, logger *zap.Logger) ([]byte, error) {
	buf := make([]byte, initialOutputCap)
	written := 0

	for {
		n, st := enc.ProcessOutput(buf[written:])
		written += n

		switch st {
		case engine.EncNeedMoreOutput:
			grown := make([]byte, len(buf)*2)
			copy(grown, buf[:written])
			buf = grown
			logger.Debug("output buffer grown",
				zap.Int("capacity", len(buf)), zap.Int("written", written))
		case engine.EncSuccess:
			return buf[:written:written], nil
		default:
			return nil, fmt.Errorf("%w: encoder failed while draining output", ErrProtocol)
		}
	}
}
