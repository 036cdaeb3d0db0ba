// Package reference is a pure-Go codec engine implementing the engine
// protocol end to end. It stores frames as zstd-compressed float samples
// inside a JPEG XL signature container, which makes it suitable as a test
// engine and as a fallback in environments without a native engine. Streams
// it produces are not interchange JPEG XL and can only be read back by this
// package; lossy frame settings are recorded in the stream but do not degrade
// the payload.
//
// Importing the package registers it as the default engine factory:
//
//	import _ "github.com/kelaci/go-jxl-codec/jxl/engine/reference"
package reference

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/kelaci/go-jxl-codec/jxl/engine"
)

// Factory creates reference engine instances.
type Factory struct{}

// NewDecoder returns a fresh reference decoder.
func (Factory) NewDecoder() (engine.Decoder, error) {
	return &decoder{}, nil
}

// NewEncoder returns a fresh reference encoder.
func (Factory) NewEncoder() (engine.Encoder, error) {
	return &encoder{extra: make(map[int]*engine.ExtraChannelInfo)}, nil
}

func init() {
	engine.Register(Factory{})
}

// decoder states, advanced strictly in order by ProcessInput.
const (
	decStateInit = iota
	decStateParsed
	decStateBasicInfo
	decStateColorEncoding
	decStateNeedBuffer
	decStateFullImage
	decStateDone
)

type decoder struct {
	events int
	input  []byte
	state  int
	closed bool

	hdr     *header
	icc     []byte
	payload []byte

	out       []float32
	outFormat engine.PixelFormat
	outSet    bool
}

func (d *decoder) SubscribeEvents(events int) engine.DecoderStatus {
	if d.closed || d.state != decStateInit {
		return engine.DecError
	}
	d.events = events
	return engine.DecSuccess
}

func (d *decoder) SetInput(data []byte) engine.DecoderStatus {
	if d.closed || d.input != nil {
		return engine.DecError
	}
	d.input = data
	return engine.DecSuccess
}

func (d *decoder) ProcessInput() engine.DecoderStatus {
	if d.closed || d.input == nil {
		return engine.DecError
	}

	if d.state == decStateInit {
		hdr, rest, err := parseHeader(d.input)
		if err == errTruncated {
			return engine.DecNeedMoreInput
		}
		if err != nil {
			return engine.DecError
		}
		icc, rest, err := parseSection(rest)
		if err == nil {
			d.payload, _, err = parseSection(rest)
		}
		if err != nil && err != errTruncated {
			return engine.DecError
		}
		d.hdr = hdr
		d.icc = icc
		d.state = decStateParsed
	}

	switch d.state {
	case decStateParsed:
		d.state = decStateBasicInfo
		if d.events&engine.EventBasicInfo != 0 {
			return engine.DecBasicInfo
		}
		fallthrough
	case decStateBasicInfo:
		d.state = decStateColorEncoding
		if d.events&engine.EventColorEncoding != 0 {
			return engine.DecColorEncoding
		}
		fallthrough
	case decStateColorEncoding:
		d.state = decStateNeedBuffer
		fallthrough
	case decStateNeedBuffer:
		if !d.outSet {
			return engine.DecNeedImageOutBuffer
		}
		if d.payload == nil {
			return engine.DecNeedMoreInput
		}
		if st := d.emitFrame(); st != engine.DecSuccess {
			return st
		}
		d.state = decStateFullImage
		if d.events&engine.EventFullImage != 0 {
			return engine.DecFullImage
		}
		fallthrough
	case decStateFullImage:
		d.state = decStateDone
		return engine.DecSuccess
	}
	return engine.DecError
}

func (d *decoder) BasicInfo() (engine.BasicInfo, engine.DecoderStatus) {
	if d.hdr == nil {
		return engine.BasicInfo{}, engine.DecError
	}
	return d.hdr.info, engine.DecSuccess
}

func (d *decoder) ICCProfileSize(format engine.PixelFormat, target engine.ColorProfileTarget) (int, engine.DecoderStatus) {
	if d.hdr == nil || d.state < decStateColorEncoding {
		return 0, engine.DecError
	}
	return len(d.icc), engine.DecSuccess
}

func (d *decoder) ICCProfile(format engine.PixelFormat, target engine.ColorProfileTarget, dst []byte) engine.DecoderStatus {
	if d.hdr == nil || d.state < decStateColorEncoding {
		return engine.DecError
	}
	if len(dst) != len(d.icc) {
		return engine.DecError
	}
	copy(dst, d.icc)
	return engine.DecSuccess
}

func (d *decoder) ImageOutBufferSize(format engine.PixelFormat) (int, engine.DecoderStatus) {
	if d.hdr == nil {
		return 0, engine.DecError
	}
	if format.DataType != engine.TypeFloat32 {
		return 0, engine.DecError
	}
	return int(d.hdr.info.XSize) * int(d.hdr.info.YSize) * format.NumChannels, engine.DecSuccess
}

func (d *decoder) SetImageOutBuffer(format engine.PixelFormat, pixels []float32) engine.DecoderStatus {
	want, st := d.ImageOutBufferSize(format)
	if st != engine.DecSuccess {
		return st
	}
	if len(pixels) != want {
		return engine.DecError
	}
	d.outFormat = format
	d.out = pixels
	d.outSet = true
	return engine.DecSuccess
}

// emitFrame decompresses the payload and writes it into the out buffer in
// the requested channel layout, filling alpha with 1.0 when the stream has
// no alpha channel.
func (d *decoder) emitFrame() engine.DecoderStatus {
	width := int(d.hdr.info.XSize)
	height := int(d.hdr.info.YSize)
	src := d.hdr.payloadChannels
	dst := d.outFormat.NumChannels

	pixels, err := decodePayload(d.payload, width*height*src)
	if err != nil {
		return engine.DecError
	}

	var g errgroup.Group
	for y := 0; y < height; y++ {
		y := y
		g.Go(func() error {
			for x := 0; x < width; x++ {
				si := (y*width + x) * src
				di := (y*width + x) * dst
				for c := 0; c < dst; c++ {
					if c < src {
						d.out[di+c] = pixels[si+c]
					} else {
						d.out[di+c] = 1.0
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return engine.DecError
	}
	return engine.DecSuccess
}

func (d *decoder) Close() {
	d.closed = true
	d.input = nil
	d.out = nil
}

type encoder struct {
	runner engine.Runner
	closed bool

	info     *engine.BasicInfo
	encoding *engine.ColorEncoding
	extra    map[int]*engine.ExtraChannelInfo
	level    int

	frame *frameSettings

	pixels          []float32
	payloadChannels int
	inputClosed     bool

	stream []byte
	pos    int
}

func (e *encoder) SetParallelRunner(runner engine.Runner) engine.EncoderStatus {
	if e.closed || e.info != nil {
		return engine.EncError
	}
	e.runner = runner
	return engine.EncSuccess
}

func (e *encoder) SetBasicInfo(info *engine.BasicInfo) engine.EncoderStatus {
	if e.closed || e.info != nil || info == nil {
		return engine.EncError
	}
	if info.XSize == 0 || info.YSize == 0 || info.NumColorChannels != 3 {
		return engine.EncError
	}
	cp := *info
	e.info = &cp
	return engine.EncSuccess
}

// RequiredCodestreamLevel mirrors the level-5 feature envelope of the native
// engine: high bit depths, float samples and very large images need level 10.
func (e *encoder) RequiredCodestreamLevel() int {
	if e.info == nil {
		return -1
	}
	const level5MaxDim = 1 << 18
	if e.info.BitsPerSample > 16 || e.info.ExponentBitsPerSample > 0 {
		return 10
	}
	if e.info.XSize > level5MaxDim || e.info.YSize > level5MaxDim {
		return 10
	}
	return 5
}

func (e *encoder) SetCodestreamLevel(level int) engine.EncoderStatus {
	if e.closed || e.info == nil {
		return engine.EncError
	}
	if level != 5 && level != 10 {
		return engine.EncError
	}
	e.level = level
	return engine.EncSuccess
}

func (e *encoder) SetExtraChannelInfo(index int, info *engine.ExtraChannelInfo) engine.EncoderStatus {
	if e.closed || e.info == nil || info == nil {
		return engine.EncError
	}
	if index < 0 || index >= int(e.info.NumExtraChannels) {
		return engine.EncError
	}
	cp := *info
	e.extra[index] = &cp
	return engine.EncSuccess
}

func (e *encoder) SetColorEncoding(encoding *engine.ColorEncoding) engine.EncoderStatus {
	if e.closed || e.info == nil || e.encoding != nil || encoding == nil {
		return engine.EncError
	}
	cp := *encoding
	e.encoding = &cp
	return engine.EncSuccess
}

func (e *encoder) FrameSettings() (engine.FrameSettings, error) {
	if e.closed || e.info == nil {
		return nil, fmt.Errorf("encoder not configured")
	}
	if e.frame == nil {
		e.frame = &frameSettings{enc: e, options: make(map[engine.FrameSetting]int64)}
	}
	return e.frame, nil
}

func (e *encoder) CloseInput() {
	e.inputClosed = true
}

func (e *encoder) ProcessOutput(dst []byte) (int, engine.EncoderStatus) {
	if e.closed {
		return 0, engine.EncError
	}
	if e.stream == nil {
		if !e.inputClosed || e.pixels == nil || e.encoding == nil {
			return 0, engine.EncError
		}
		h := &header{
			info:            *e.info,
			encoding:        *e.encoding,
			lossless:        e.frame != nil && e.frame.lossless,
			payloadChannels: e.payloadChannels,
		}
		if e.frame != nil {
			h.distance = e.frame.distance
		}
		stream, err := writeStream(h, nil, e.pixels)
		if err != nil {
			return 0, engine.EncError
		}
		e.stream = stream
	}

	n := copy(dst, e.stream[e.pos:])
	e.pos += n
	if e.pos < len(e.stream) {
		return n, engine.EncNeedMoreOutput
	}
	return n, engine.EncSuccess
}

func (e *encoder) Close() {
	e.closed = true
	e.pixels = nil
	e.stream = nil
}

type frameSettings struct {
	enc     *encoder
	options map[engine.FrameSetting]int64

	lossless bool
	distance float64
}

func (f *frameSettings) SetOption(id engine.FrameSetting, value int64) engine.EncoderStatus {
	if f.enc.closed {
		return engine.EncError
	}
	switch id {
	case engine.SettingEffort:
		if value < 1 || value > 9 {
			return engine.EncError
		}
	case engine.SettingDecodingSpeed:
		if value < 0 || value > 4 {
			return engine.EncError
		}
	case engine.SettingEPF:
		if value < -1 || value > 3 {
			return engine.EncError
		}
	}
	f.options[id] = value
	return engine.EncSuccess
}

func (f *frameSettings) SetLossless(lossless bool) engine.EncoderStatus {
	if f.enc.closed {
		return engine.EncError
	}
	f.lossless = lossless
	return engine.EncSuccess
}

func (f *frameSettings) SetDistance(distance float64) engine.EncoderStatus {
	if f.enc.closed || distance < 0 {
		return engine.EncError
	}
	f.distance = distance
	return engine.EncSuccess
}

// AddImageFrame converts the submitted frame to the engine's canonical float
// representation. Integer samples are normalized to [0,1] over their full
// type range, matching the native engine's handling of uint8/uint16 input.
func (f *frameSettings) AddImageFrame(format engine.PixelFormat, data []byte) engine.EncoderStatus {
	e := f.enc
	if e.closed || e.encoding == nil || e.inputClosed || e.pixels != nil {
		return engine.EncError
	}
	if format.NumChannels != 3 && format.NumChannels != 4 {
		return engine.EncError
	}
	width := int(e.info.XSize)
	height := int(e.info.YSize)
	bps := format.DataType.BytesPerSample()
	if bps == 0 || len(data) != width*height*format.NumChannels*bps {
		return engine.EncError
	}

	pixels := make([]float32, width*height*format.NumChannels)
	rowSamples := width * format.NumChannels
	convert := func(y int) {
		base := y * rowSamples
		for i := 0; i < rowSamples; i++ {
			off := (base + i) * bps
			switch format.DataType {
			case engine.TypeUint8:
				pixels[base+i] = float32(data[off]) / 255.0
			case engine.TypeUint16:
				v := uint16(data[off]) | uint16(data[off+1])<<8
				pixels[base+i] = float32(v) / 65535.0
			case engine.TypeFloat32:
				bits := uint32(data[off]) | uint32(data[off+1])<<8 |
					uint32(data[off+2])<<16 | uint32(data[off+3])<<24
				pixels[base+i] = math.Float32frombits(bits)
			}
		}
	}

	if e.runner != nil {
		e.runner.Run(height, convert)
	} else {
		for y := 0; y < height; y++ {
			convert(y)
		}
	}

	e.pixels = pixels
	e.payloadChannels = format.NumChannels
	return engine.EncSuccess
}
