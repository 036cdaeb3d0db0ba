package jxl

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kelaci/go-jxl-codec/cmm"
	"github.com/kelaci/go-jxl-codec/jxl/engine"
)

// rgbaChannels is the channel count of the canonical float intermediate:
// the engine always decodes to interleaved float RGBA.
const rgbaChannels = 4

// Image8 is an 8-bit gamma-encoded sRGB RGBA image.
type Image8 struct {
	Pix    []uint8
	Width  int
	Height int
}

// Image is a decoded image in the representation matching its effective bit
// depth. Exactly one of Pix8, Pix16 and PixF32 is non-nil: Pix8 for 8-bit
// sRGB, Pix16 for 10/12/16-bit scaled integer samples, PixF32 for float
// samples in the stream's native color encoding.
type Image struct {
	Pix8   []uint8
	Pix16  []uint16
	PixF32 []float32

	Width  int
	Height int

	// BitDepth is the effective bit depth (8, 10, 12, 16 or 32).
	BitDepth int

	// ColorSpace is "srgb" for integer sources and "linear" for float
	// (HDR) sources.
	ColorSpace string

	HasAlpha   bool
	ICCProfile []byte
}

// FloatImage is a decoded image as float RGBA regardless of source depth,
// in the stream's native color encoding.
type FloatImage struct {
	Pix    []float32
	Width  int
	Height int

	// SourceBitDepth is the bit depth declared by the bitstream.
	SourceBitDepth int

	ColorSpace string
	ICCProfile []byte
}

// DecodeRGBA decodes to 8-bit sRGB RGBA, color-managing through the
// configured CMM when the stream embeds a parseable profile and falling back
// to the manual sRGB transform otherwise.
func (c *Codec) DecodeRGBA(data []byte) (*Image8, error) {
	frame, err := c.decodeFrame(data)
	if err != nil {
		return nil, err
	}
	pix, err := c.toSRGB8(frame)
	if err != nil {
		return nil, err
	}
	return &Image8{Pix: pix, Width: frame.width, Height: frame.height}, nil
}

// DecodeHighBitDepth decodes into the caller-facing representation selected
// by the stream's effective bit depth: 8-bit images are color-managed to
// sRGB for compatibility, float images pass through unchanged, and
// intermediate depths are scaled to integer samples.
func (c *Codec) DecodeHighBitDepth(data []byte) (*Image, error) {
	frame, err := c.decodeFrame(data)
	if err != nil {
		return nil, err
	}

	depth := effectiveBitDepth(frame.info.BitsPerSample, frame.info.ExponentBitsPerSample)
	img := &Image{
		Width:      frame.width,
		Height:     frame.height,
		BitDepth:   depth,
		ColorSpace: colorSpaceLabel(frame.info),
		HasAlpha:   frame.info.AlphaBits > 0,
		ICCProfile: frame.icc,
	}

	switch depth {
	case 8:
		pix, err := c.toSRGB8(frame)
		if err != nil {
			return nil, err
		}
		img.Pix8 = pix
	case 32:
		// Already in the bitstream's native encoding, which may be
		// linear or non-linear HDR.
		img.PixF32 = frame.pixels
	default:
		img.Pix16 = scaleToUint16(frame.pixels, depth)
	}
	return img, nil
}

// DecodeLinearFloat decodes to float RGBA regardless of source bit depth.
func (c *Codec) DecodeLinearFloat(data []byte) (*FloatImage, error) {
	frame, err := c.decodeFrame(data)
	if err != nil {
		return nil, err
	}
	return &FloatImage{
		Pix:            frame.pixels,
		Width:          frame.width,
		Height:         frame.height,
		SourceBitDepth: int(frame.info.BitsPerSample),
		ColorSpace:     colorSpaceLabel(frame.info),
		ICCProfile:     frame.icc,
	}, nil
}

// decodedFrame is the canonical intermediate every decode call produces:
// float RGBA pixels plus the stream metadata needed to pick a
// representation.
type decodedFrame struct {
	info   engine.BasicInfo
	icc    []byte
	pixels []float32
	width  int
	height int
}

// decodeFrame drives the engine's event protocol in its documented order:
// basic info, color encoding (with ICC retrieval), output buffer, full
// image. Any status outside that sequence is a protocol violation.
func (c *Codec) decodeFrame(data []byte) (*decodedFrame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidInput)
	}

	factory, err := c.engineFactory()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	dec, err := factory.NewDecoder()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	defer dec.Close()

	events := engine.EventBasicInfo | engine.EventColorEncoding | engine.EventFullImage
	if st := dec.SubscribeEvents(events); st != engine.DecSuccess {
		return nil, protocolErr("subscribe events", st)
	}
	if st := dec.SetInput(data); st != engine.DecSuccess {
		return nil, protocolErr("set input", st)
	}

	if st := dec.ProcessInput(); st != engine.DecBasicInfo {
		return nil, protocolErr("await basic info", st)
	}
	info, st := dec.BasicInfo()
	if st != engine.DecSuccess {
		return nil, protocolErr("read basic info", st)
	}
	width := int(info.XSize)
	height := int(info.YSize)
	bufBytes, err := ComputeExpectedSize(width, height, rgbaChannels, 4)
	if err != nil {
		return nil, err
	}
	samples := bufBytes / 4
	c.logger.Debug("basic info read",
		zap.Int("width", width), zap.Int("height", height),
		zap.Uint32("bitsPerSample", info.BitsPerSample),
		zap.Uint32("exponentBits", info.ExponentBitsPerSample))

	if st := dec.ProcessInput(); st != engine.DecColorEncoding {
		return nil, protocolErr("await color encoding", st)
	}
	format := engine.PixelFormat{NumChannels: rgbaChannels, DataType: engine.TypeFloat32}
	iccSize, st := dec.ICCProfileSize(format, engine.ProfileTargetData)
	if st != engine.DecSuccess {
		return nil, protocolErr("query profile size", st)
	}
	var icc []byte
	if iccSize > 0 {
		icc = make([]byte, iccSize)
		if st := dec.ICCProfile(format, engine.ProfileTargetData, icc); st != engine.DecSuccess {
			return nil, protocolErr("read profile", st)
		}
	}

	if st := dec.ProcessInput(); st != engine.DecNeedImageOutBuffer {
		return nil, protocolErr("await output request", st)
	}
	want, st := dec.ImageOutBufferSize(format)
	if st != engine.DecSuccess {
		return nil, protocolErr("query output size", st)
	}
	if want != samples {
		return nil, fmt.Errorf("%w: engine wants %d samples, expected %d", ErrProtocol, want, samples)
	}
	pixels := make([]float32, samples)
	if st := dec.SetImageOutBuffer(format, pixels); st != engine.DecSuccess {
		return nil, protocolErr("set output buffer", st)
	}
	if st := dec.ProcessInput(); st != engine.DecFullImage {
		return nil, protocolErr("await full image", st)
	}

	return &decodedFrame{
		info:   info,
		icc:    icc,
		pixels: pixels,
		width:  width,
		height: height,
	}, nil
}

func protocolErr(step string, got engine.DecoderStatus) error {
	return fmt.Errorf("%w: %s returned %v", ErrProtocol, step, got)
}

// effectiveBitDepth derives the caller-facing depth from the bitstream's
// sample metadata. Any non-zero exponent width means float samples.
func effectiveBitDepth(bitsPerSample, exponentBits uint32) int {
	if exponentBits > 0 {
		return 32
	}
	switch {
	case bitsPerSample <= 8:
		return 8
	case bitsPerSample <= 10:
		return 10
	case bitsPerSample <= 12:
		return 12
	default:
		return 16
	}
}

// colorSpaceLabel mirrors the engine's limited transfer-function visibility:
// float samples imply linear (HDR) data, everything else is reported as sRGB.
func colorSpaceLabel(info engine.BasicInfo) string {
	if info.ExponentBitsPerSample > 0 {
		return "linear"
	}
	return "srgb"
}

// toSRGB8 converts the canonical float intermediate to 8-bit gamma-encoded
// sRGB RGBA. With an embedded profile and a configured CMM the conversion is
// fully color managed (un-premultiplying if needed); a transform failure is
// fatal. Without a profile, without a CMM, or when the profile does not
// parse, the manual fallback applies: float sources get the sRGB OETF,
// integer sources are assumed already display-encoded. The fallback does not
// invert PQ or HLG transfer functions.
func (c *Codec) toSRGB8(frame *decodedFrame) ([]uint8, error) {
	if len(frame.icc) > 0 && c.cms != nil {
		profile, err := c.cms.ParseProfile(frame.icc)
		if err == nil {
			pix, err := c.cms.ToSRGB8(frame.pixels, profile, frame.info.AlphaPremultiplied)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrColorTransform, err)
			}
			return pix, nil
		}
		c.logger.Debug("profile parse failed, using manual fallback", zap.Error(err))
	}

	isFloat := frame.info.ExponentBitsPerSample > 0
	pix := make([]uint8, len(frame.pixels))
	for i, v := range frame.pixels {
		if isFloat {
			v = cmm.LinearToSRGB(v)
		}
		pix[i] = uint8(cmm.Clamp01(v)*255 + 0.5)
	}
	return pix, nil
}

// scaleToUint16 maps clamped float samples onto [0, 2^depth-1], truncating
// to integer. No dithering is applied.
func scaleToUint16(pixels []float32, depth int) []uint16 {
	scale := float32(uint32(1)<<depth - 1)
	out := make([]uint16, len(pixels))
	for i, v := range pixels {
		out[i] = uint16(cmm.Clamp01(v) * scale)
	}
	return out
}
