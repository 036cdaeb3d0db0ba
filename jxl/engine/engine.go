// Package engine defines the protocol spoken between the JPEG XL codec layer
// and a codec engine implementation. The engine owns the bitstream state
// machine, transforms and entropy coding; this package only pins down the
// status codes, metadata structures and call ordering the codec layer relies
// on. Implementations register a Factory (see Register) so the layer can stay
// engine-agnostic; jxl/engine/reference provides a pure-Go implementation.
package engine

import (
	"errors"
	"sync"
)

// DecoderStatus is the result of a decoder protocol call.
type DecoderStatus int

const (
	// DecSuccess means the call (or the whole decode) completed.
	DecSuccess DecoderStatus = iota

	// DecError means the bitstream is corrupt or uses unsupported features.
	DecError

	// DecNeedMoreInput means the input buffer is exhausted mid-stream.
	DecNeedMoreInput

	// DecNeedImageOutBuffer means the decoder wants an output buffer before
	// it can produce pixels.
	DecNeedImageOutBuffer

	// DecBasicInfo signals the basic-info event is ready to be read.
	DecBasicInfo

	// DecColorEncoding signals the color-encoding event is ready to be read.
	DecColorEncoding

	// DecFullImage signals a full frame has been written to the out buffer.
	DecFullImage
)

// EncoderStatus is the result of an encoder protocol call.
type EncoderStatus int

const (
	// EncSuccess means the call (or the whole encode) completed.
	EncSuccess EncoderStatus = iota

	// EncError means the engine rejected the call.
	EncError

	// EncNeedMoreOutput means the output buffer is full and must grow.
	EncNeedMoreOutput
)

// Event flags for Decoder.SubscribeEvents.
const (
	EventBasicInfo     = 1 << 0
	EventColorEncoding = 1 << 1
	EventFullImage     = 1 << 2
)

// DataType identifies the sample type of an interleaved pixel buffer.
type DataType int

const (
	TypeUint8 DataType = iota
	TypeUint16
	TypeFloat32
)

// BytesPerSample returns the storage size of one sample.
func (t DataType) BytesPerSample() int {
	switch t {
	case TypeUint8:
		return 1
	case TypeUint16:
		return 2
	case TypeFloat32:
		return 4
	}
	return 0
}

// PixelFormat describes the layout of an interleaved pixel buffer exchanged
// with the engine.
type PixelFormat struct {
	NumChannels int
	DataType    DataType
}

// ColorProfileTarget selects which profile a decoder reports: the one
// describing the pixel data it outputs, or the one embedded in the stream.
type ColorProfileTarget int

const (
	ProfileTargetOriginal ColorProfileTarget = iota
	ProfileTargetData
)

// Decoder is the event-driven pull protocol for decoding one image. The
// required call order is SubscribeEvents, SetInput, then ProcessInput until
// DecSuccess, reading each signaled event before processing further. Close
// must be called on every exit path.
type Decoder interface {
	// SubscribeEvents selects which events ProcessInput will report.
	SubscribeEvents(events int) DecoderStatus

	// SetInput hands the complete compressed stream to the decoder. The
	// engine does not retain data past Close.
	SetInput(data []byte) DecoderStatus

	// ProcessInput advances the state machine and returns the next event
	// or terminal status.
	ProcessInput() DecoderStatus

	// BasicInfo reads the basic-info block. Valid only after ProcessInput
	// returned DecBasicInfo.
	BasicInfo() (BasicInfo, DecoderStatus)

	// ICCProfileSize reports the size of the profile for the given target.
	// Valid only after ProcessInput returned DecColorEncoding.
	ICCProfileSize(format PixelFormat, target ColorProfileTarget) (int, DecoderStatus)

	// ICCProfile fills dst with the profile bytes for the given target.
	ICCProfile(format PixelFormat, target ColorProfileTarget, dst []byte) DecoderStatus

	// ImageOutBufferSize reports the pixel buffer size in samples for the
	// given format. Valid only after DecNeedImageOutBuffer.
	ImageOutBufferSize(format PixelFormat) (int, DecoderStatus)

	// SetImageOutBuffer supplies the float pixel buffer the next frame is
	// decoded into. The layer always decodes to float.
	SetImageOutBuffer(format PixelFormat, pixels []float32) DecoderStatus

	// Close releases the decoder. Idempotent.
	Close()
}

// FrameSettings carries per-frame encoder configuration. Created from an
// Encoder and only valid for its lifetime.
type FrameSettings interface {
	// SetOption sets one integer-valued frame option.
	SetOption(id FrameSetting, value int64) EncoderStatus

	// SetLossless toggles mathematically lossless coding for the frame.
	SetLossless(lossless bool) EncoderStatus

	// SetDistance sets the target Butteraugli distance for the frame
	// (0 = highest fidelity).
	SetDistance(distance float64) EncoderStatus

	// AddImageFrame submits one complete frame in the given format.
	AddImageFrame(format PixelFormat, data []byte) EncoderStatus
}

// Encoder is the push/pull protocol for encoding one image: configure basic
// info, codestream level, extra channels, color encoding and frame settings,
// add the frame, close input, then drain ProcessOutput. Close must be called
// on every exit path.
type Encoder interface {
	// SetParallelRunner hands the engine a worker pool for its internal
	// parallelism. Optional; the engine runs serially without one.
	SetParallelRunner(runner Runner) EncoderStatus

	// SetBasicInfo commits image-wide metadata. Must be the first
	// configuration call.
	SetBasicInfo(info *BasicInfo) EncoderStatus

	// RequiredCodestreamLevel reports the minimum codestream level the
	// current configuration needs, or a negative value on error.
	RequiredCodestreamLevel() int

	// SetCodestreamLevel pins the codestream level in the container.
	SetCodestreamLevel(level int) EncoderStatus

	// SetExtraChannelInfo describes extra channel at the given index.
	SetExtraChannelInfo(index int, info *ExtraChannelInfo) EncoderStatus

	// SetColorEncoding commits the color encoding. The engine writes the
	// profile at header time, so this must precede any frame.
	SetColorEncoding(encoding *ColorEncoding) EncoderStatus

	// FrameSettings creates a frame settings handle bound to this encoder.
	FrameSettings() (FrameSettings, error)

	// CloseInput marks the last frame as submitted.
	CloseInput()

	// ProcessOutput writes compressed bytes into dst and returns the number
	// written. EncNeedMoreOutput means dst was exhausted and the caller must
	// supply more room; EncSuccess means the stream is complete.
	ProcessOutput(dst []byte) (int, EncoderStatus)

	// Close releases the encoder. Idempotent.
	Close()
}

// Factory creates engine instances. Every codec call creates its own
// decoder/encoder; instances are never shared between calls.
type Factory interface {
	NewDecoder() (Decoder, error)
	NewEncoder() (Encoder, error)
}

// ErrNoEngine is returned when no engine factory has been registered.
var ErrNoEngine = errors.New("jxl engine: no factory registered")

var (
	factoryMu      sync.RWMutex
	defaultFactory Factory
)

// Register installs the default engine factory. Typically called from an
// implementation's init, selected by a blank import.
func Register(f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	defaultFactory = f
}

// Default returns the registered engine factory.
func Default() (Factory, error) {
	factoryMu.RLock()
	defer factoryMu.RUnlock()
	if defaultFactory == nil {
		return nil, ErrNoEngine
	}
	return defaultFactory, nil
}
