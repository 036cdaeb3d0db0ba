package jxl

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/kelaci/go-jxl-codec/jxl/engine"
)

// scriptedEncoder implements engine.Encoder for pipeline tests. It records
// the order of configuration calls and serves a fixed output stream from
// ProcessOutput the way a real engine does.
type scriptedEncoder struct {
	calls    []string
	output   []byte
	pos      int
	dstSizes []int

	requiredLevel int
	failStep      string

	info     *engine.BasicInfo
	encoding *engine.ColorEncoding
	frame    *scriptedFrame
	closed   bool
}

type scriptedFrame struct {
	enc      *scriptedEncoder
	options  map[engine.FrameSetting]int64
	lossless bool
	distance float64
	distSet  bool
}

func (e *scriptedEncoder) status(step string) engine.EncoderStatus {
	e.calls = append(e.calls, step)
	if step == e.failStep {
		return engine.EncError
	}
	return engine.EncSuccess
}

func (e *scriptedEncoder) SetParallelRunner(engine.Runner) engine.EncoderStatus {
	return e.status("runner")
}

func (e *scriptedEncoder) SetBasicInfo(info *engine.BasicInfo) engine.EncoderStatus {
	e.info = info
	return e.status("basic-info")
}

func (e *scriptedEncoder) RequiredCodestreamLevel() int {
	e.calls = append(e.calls, "level-query")
	return e.requiredLevel
}

func (e *scriptedEncoder) SetCodestreamLevel(level int) engine.EncoderStatus {
	return e.status(fmt.Sprintf("level-%d", level))
}

func (e *scriptedEncoder) SetExtraChannelInfo(index int, info *engine.ExtraChannelInfo) engine.EncoderStatus {
	return e.status("extra-channel")
}

func (e *scriptedEncoder) SetColorEncoding(encoding *engine.ColorEncoding) engine.EncoderStatus {
	e.encoding = encoding
	return e.status("color-encoding")
}

func (e *scriptedEncoder) FrameSettings() (engine.FrameSettings, error) {
	e.calls = append(e.calls, "frame-settings")
	if e.frame == nil {
		e.frame = &scriptedFrame{enc: e, options: make(map[engine.FrameSetting]int64)}
	}
	return e.frame, nil
}

func (e *scriptedEncoder) CloseInput() {
	e.calls = append(e.calls, "close-input")
}

func (e *scriptedEncoder) ProcessOutput(dst []byte) (int, engine.EncoderStatus) {
	e.dstSizes = append(e.dstSizes, len(dst))
	n := copy(dst, e.output[e.pos:])
	e.pos += n
	if e.pos < len(e.output) {
		return n, engine.EncNeedMoreOutput
	}
	return n, engine.EncSuccess
}

func (e *scriptedEncoder) Close() { e.closed = true }

func (f *scriptedFrame) SetOption(id engine.FrameSetting, value int64) engine.EncoderStatus {
	f.options[id] = value
	return f.enc.status(fmt.Sprintf("option-%d", id))
}

func (f *scriptedFrame) SetLossless(lossless bool) engine.EncoderStatus {
	f.lossless = lossless
	return f.enc.status("lossless")
}

func (f *scriptedFrame) SetDistance(distance float64) engine.EncoderStatus {
	f.distance = distance
	f.distSet = true
	return f.enc.status("distance")
}

func (f *scriptedFrame) AddImageFrame(format engine.PixelFormat, data []byte) engine.EncoderStatus {
	return f.enc.status("add-frame")
}

type scriptedFactory struct {
	enc          *scriptedEncoder
	encodersMade int
}

func (f *scriptedFactory) NewDecoder() (engine.Decoder, error) {
	return nil, fmt.Errorf("decoder not scripted")
}

func (f *scriptedFactory) NewEncoder() (engine.Encoder, error) {
	f.encodersMade++
	return f.enc, nil
}

func patternBytes(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i*31 + i>>8)
	}
	return out
}

func TestCollectOutputGrowth(t *testing.T) {
	const total = 50000
	enc := &scriptedEncoder{output: patternBytes(total)}

	got, err := collectOutput(enc, zap.NewNop())
	if err != nil {
		t.Fatalf("collectOutput(): %v", err)
	}
	if len(got) != total {
		t.Fatalf("collected %d bytes, want %d", len(got), total)
	}
	if !bytes.Equal(got, enc.output) {
		t.Error("collected bytes corrupted across grow boundaries")
	}

	// Capacity must double on every grow: 8192, 16384, 32768, 65536. The
	// engine sees the free tail of the buffer each round.
	wantDst := []int{8192, 8192, 16384, 32768}
	if len(enc.dstSizes) != len(wantDst) {
		t.Fatalf("ProcessOutput called %d times, want %d (%v)", len(enc.dstSizes), len(wantDst), enc.dstSizes)
	}
	for i, want := range wantDst {
		if enc.dstSizes[i] != want {
			t.Errorf("call %d saw %d free bytes, want %d", i, enc.dstSizes[i], want)
		}
	}
}

func TestCollectOutputEngineFailure(t *testing.T) {
	enc := &scriptedEncoder{output: patternBytes(16), failStep: ""}
	// Force a hard failure by truncating output and making ProcessOutput
	// report an error status via a wrapper.
	fail := &failingEncoder{scriptedEncoder: enc}

	_, err := collectOutput(fail, zap.NewNop())
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("error = %v, want ErrProtocol", err)
	}
}

type failingEncoder struct {
	*scriptedEncoder
}

func (f *failingEncoder) ProcessOutput(dst []byte) (int, engine.EncoderStatus) {
	return 0, engine.EncError
}

func TestEncodeFrameConfigurationOrder(t *testing.T) {
	enc := &scriptedEncoder{output: patternBytes(64), requiredLevel: 10}
	factory := &scriptedFactory{enc: enc}
	c := NewCodec().WithEngine(factory).WithWorkers(1)

	pixels := make([]byte, 3*2*4)
	opts := NewOptions().WithQuality(90)
	if _, err := c.EncodeFrame(pixels, 3, 2, opts); err != nil {
		t.Fatalf("EncodeFrame(): %v", err)
	}

	want := []string{
		"basic-info", "level-query", "level-10", "extra-channel", "color-encoding",
		"frame-settings",
		"option-0", // effort
		"option-1", // decoding speed
		"option-2", // epf (default -1 is in range)
		"distance",
		"add-frame", "close-input",
	}
	if len(enc.calls) != len(want) {
		t.Fatalf("call sequence %v, want %v", enc.calls, want)
	}
	for i := range want {
		if enc.calls[i] != want[i] {
			t.Fatalf("call %d = %q, want %q (full: %v)", i, enc.calls[i], want[i], enc.calls)
		}
	}
	if !enc.closed {
		t.Error("encoder not closed after EncodeFrame")
	}
	if enc.info == nil || enc.info.AlphaBits != 8 || !enc.info.UsesOriginalProfile {
		t.Errorf("basic info not mirrored correctly: %+v", enc.info)
	}
	if enc.frame.distance != QualityToDistance(90) {
		t.Errorf("distance = %v, want %v", enc.frame.distance, QualityToDistance(90))
	}
}

func TestEncodeFrameLosslessSkipsDistance(t *testing.T) {
	enc := &scriptedEncoder{output: patternBytes(64), requiredLevel: 5}
	factory := &scriptedFactory{enc: enc}
	c := NewCodec().WithEngine(factory).WithWorkers(1)

	pixels := make([]byte, 4*4*4)
	opts := NewOptions().WithLossless(true).WithQuality(50)
	if _, err := c.EncodeFrame(pixels, 4, 4, opts); err != nil {
		t.Fatalf("EncodeFrame(): %v", err)
	}

	if !enc.frame.lossless {
		t.Error("lossless flag not set on frame")
	}
	if enc.frame.distSet {
		t.Error("distance set despite lossless mode")
	}
	for _, call := range enc.calls {
		if call == "level-10" {
			t.Error("codestream level pinned despite required level 5")
		}
	}
}

func TestEncodeFrameProgressiveSettings(t *testing.T) {
	enc := &scriptedEncoder{output: patternBytes(64), requiredLevel: 5}
	factory := &scriptedFactory{enc: enc}
	c := NewCodec().WithEngine(factory).WithWorkers(1)

	pixels := make([]byte, 2*2*3)
	opts := NewOptions().WithNumChannels(3).WithProgressive(true)
	if _, err := c.EncodeFrame(pixels, 2, 2, opts); err != nil {
		t.Fatalf("EncodeFrame(): %v", err)
	}

	for _, id := range []engine.FrameSetting{
		engine.SettingQProgressiveAC, engine.SettingResponsive, engine.SettingProgressiveDC,
	} {
		if enc.frame.options[id] != 1 {
			t.Errorf("frame setting %d = %d, want 1", id, enc.frame.options[id])
		}
	}
	for _, call := range enc.calls {
		if call == "extra-channel" {
			t.Error("alpha channel configured for RGB input")
		}
	}
}

func TestEncodeFrameValidationBeforeEngine(t *testing.T) {
	factory := &scriptedFactory{enc: &scriptedEncoder{}}
	c := NewCodec().WithEngine(factory)

	tests := []struct {
		name   string
		pixels []byte
		width  int
		height int
		opts   *Options
	}{
		{"zero width", make([]byte, 16), 0, 2, nil},
		{"buffer mismatch", make([]byte, 10), 3, 2, nil},
		{"bad combination", make([]byte, 3*2*4*2), 3, 2, NewOptions().WithBitDepth(16, InputUint8)},
		{"bad channels", make([]byte, 12), 3, 2, NewOptions().WithNumChannels(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.EncodeFrame(tt.pixels, tt.width, tt.height, tt.opts)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}

	if factory.encodersMade != 0 {
		t.Errorf("engine created %d times before validation passed", factory.encodersMade)
	}
}

func TestEncodeFrameConfigFailureAborts(t *testing.T) {
	enc := &scriptedEncoder{output: patternBytes(64), requiredLevel: 5, failStep: "color-encoding"}
	factory := &scriptedFactory{enc: enc}
	c := NewCodec().WithEngine(factory).WithWorkers(1)

	_, err := c.EncodeFrame(make([]byte, 2*2*4), 2, 2, nil)
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("error = %v, want ErrProtocol", err)
	}
	for _, call := range enc.calls {
		if call == "add-frame" {
			t.Error("frame submitted after configuration failure")
		}
	}
	if !enc.closed {
		t.Error("encoder leaked after configuration failure")
	}
}
