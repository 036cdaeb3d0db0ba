package engine

// BasicInfo is the bitstream metadata block that must be read (decode) or
// committed (encode) before any pixel data.
type BasicInfo struct {
	XSize uint32
	YSize uint32

	// BitsPerSample is the nominal sample depth of the color channels.
	BitsPerSample uint32

	// ExponentBitsPerSample is non-zero for floating-point samples
	// (8 for IEEE binary32).
	ExponentBitsPerSample uint32

	NumColorChannels uint32
	NumExtraChannels uint32

	// AlphaBits mirrors BitsPerSample when an alpha channel is present,
	// zero otherwise.
	AlphaBits             uint32
	AlphaExponentBits     uint32
	AlphaPremultiplied    bool
	UsesOriginalProfile   bool
}

// ExtraChannelType identifies the semantics of a non-color channel.
type ExtraChannelType int

const (
	ChannelAlpha ExtraChannelType = iota
	ChannelDepth
	ChannelSpotColor
)

// ExtraChannelInfo describes one extra channel.
type ExtraChannelInfo struct {
	Type                  ExtraChannelType
	BitsPerSample         uint32
	ExponentBitsPerSample uint32
	AlphaPremultiplied    bool
}

// NewExtraChannelInfo returns an ExtraChannelInfo with defaults for the
// given channel type.
func NewExtraChannelInfo(t ExtraChannelType) *ExtraChannelInfo {
	return &ExtraChannelInfo{
		Type:          t,
		BitsPerSample: 8,
	}
}

// Color encoding enums. Values match the engine's wire representation and
// must not be reordered.

type ColorSpace int

const (
	ColorSpaceRGB ColorSpace = iota
	ColorSpaceGray
	ColorSpaceXYB
	ColorSpaceUnknown
)

type WhitePoint int

const (
	WhitePointD65 WhitePoint = iota
	WhitePointCustom
	WhitePointE
	WhitePointDCI
)

type Primaries int

const (
	PrimariesSRGB Primaries = iota
	PrimariesCustom
	Primaries2100
	PrimariesP3
)

type TransferFunction int

const (
	TransferSRGB TransferFunction = iota
	TransferLinear
	TransferPQ
	TransferHLG
	TransferGamma
	TransferUnknown
)

type RenderingIntent int

const (
	IntentPerceptual RenderingIntent = iota
	IntentRelative
	IntentSaturation
	IntentAbsolute
)

// ColorEncoding is the structured (non-ICC) description of a color space the
// engine commits to at header-write time.
type ColorEncoding struct {
	ColorSpace       ColorSpace
	WhitePoint       WhitePoint
	Primaries        Primaries
	TransferFunction TransferFunction
	RenderingIntent  RenderingIntent
}

// SetToSRGB configures the encoding as standard sRGB.
func (c *ColorEncoding) SetToSRGB(gray bool) {
	c.ColorSpace = ColorSpaceRGB
	if gray {
		c.ColorSpace = ColorSpaceGray
	}
	c.WhitePoint = WhitePointD65
	c.Primaries = PrimariesSRGB
	c.TransferFunction = TransferSRGB
	c.RenderingIntent = IntentPerceptual
}

// SetToLinearSRGB configures the encoding as sRGB primaries with a linear
// transfer function.
func (c *ColorEncoding) SetToLinearSRGB(gray bool) {
	c.SetToSRGB(gray)
	c.TransferFunction = TransferLinear
}

// FrameSetting identifies one integer-valued frame option.
type FrameSetting int

const (
	SettingEffort FrameSetting = iota
	SettingDecodingSpeed
	SettingEPF
	SettingPhotonNoise
	SettingLossyPalette
	SettingPaletteColors
	SettingModular
	SettingQProgressiveAC
	SettingResponsive
	SettingProgressiveDC
)
