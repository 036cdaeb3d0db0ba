package reference

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/klauspost/compress/zstd"

	"github.com/kelaci/go-jxl-codec/jxl/engine"
)

// ContainerSignature is the ISO BMFF JPEG XL signature box that prefixes
// every stream the reference engine produces.
var ContainerSignature = []byte{
	0x00, 0x00, 0x00, 0x0C, 'J', 'X', 'L', ' ', 0x0D, 0x0A, 0x87, 0x0A,
}

// boxMagic identifies the reference engine's private payload box. Streams
// carrying it are not interchange JPEG XL; they are only readable by this
// engine.
var boxMagic = []byte{'j', 'x', 'l', 'R'}

const formatVersion = 1

const (
	flagAlphaPremultiplied = 1 << 0
	flagOriginalProfile    = 1 << 1
	flagLossless           = 1 << 2
)

// header is the fixed-size metadata record following the signature box.
type header struct {
	info     engine.BasicInfo
	encoding engine.ColorEncoding
	lossless bool
	distance float64

	// payloadChannels is the channel count of the stored float payload
	// (3 or 4), matching the frame the encoder was given.
	payloadChannels int
}

// writeStream serializes header, ICC profile and float payload into a
// complete stream.
func writeStream(h *header, icc []byte, pixels []float32) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(ContainerSignature)
	buf.Write(boxMagic)
	buf.WriteByte(formatVersion)

	var flags byte
	if h.info.AlphaPremultiplied {
		flags |= flagAlphaPremultiplied
	}
	if h.info.UsesOriginalProfile {
		flags |= flagOriginalProfile
	}
	if h.lossless {
		flags |= flagLossless
	}
	buf.WriteByte(flags)

	binary.Write(&buf, binary.BigEndian, h.info.XSize)
	binary.Write(&buf, binary.BigEndian, h.info.YSize)
	binary.Write(&buf, binary.BigEndian, h.info.BitsPerSample)
	binary.Write(&buf, binary.BigEndian, h.info.ExponentBitsPerSample)
	buf.WriteByte(byte(h.info.NumColorChannels))
	buf.WriteByte(byte(h.info.NumExtraChannels))
	binary.Write(&buf, binary.BigEndian, h.info.AlphaBits)
	binary.Write(&buf, binary.BigEndian, h.info.AlphaExponentBits)

	buf.WriteByte(byte(h.encoding.ColorSpace))
	buf.WriteByte(byte(h.encoding.WhitePoint))
	buf.WriteByte(byte(h.encoding.Primaries))
	buf.WriteByte(byte(h.encoding.TransferFunction))
	buf.WriteByte(byte(h.encoding.RenderingIntent))

	binary.Write(&buf, binary.BigEndian, math.Float64bits(h.distance))
	buf.WriteByte(byte(h.payloadChannels))

	binary.Write(&buf, binary.BigEndian, uint32(len(icc)))
	buf.Write(icc)

	raw := make([]byte, 4*len(pixels))
	for i, v := range pixels {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("payload compressor: %w", err)
	}
	payload := enc.EncodeAll(raw, nil)
	enc.Close()

	binary.Write(&buf, binary.BigEndian, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes(), nil
}

// errTruncated distinguishes "more input needed" from a malformed stream.
var errTruncated = fmt.Errorf("reference stream truncated")

// parseHeader reads the signature box and header record. It returns the
// remaining bytes (ICC + payload sections).
func parseHeader(data []byte) (*header, []byte, error) {
	if len(data) < len(ContainerSignature)+6 {
		return nil, nil, errTruncated
	}
	if !bytes.Equal(data[:len(ContainerSignature)], ContainerSignature) {
		return nil, nil, fmt.Errorf("bad container signature")
	}
	rest := data[len(ContainerSignature):]
	if !bytes.Equal(rest[:4], boxMagic) {
		return nil, nil, fmt.Errorf("not a reference engine stream")
	}
	if rest[4] != formatVersion {
		return nil, nil, fmt.Errorf("unsupported stream version %d", rest[4])
	}
	flags := rest[5]
	rest = rest[6:]

	// Fixed-size remainder of the record after the flags byte.
	const recordSize = 4 + 4 + 4 + 4 + 1 + 1 + 4 + 4 + 5 + 8 + 1
	if len(rest) < recordSize {
		return nil, nil, errTruncated
	}

	h := &header{
		lossless: flags&flagLossless != 0,
	}
	h.info.AlphaPremultiplied = flags&flagAlphaPremultiplied != 0
	h.info.UsesOriginalProfile = flags&flagOriginalProfile != 0

	h.info.XSize = binary.BigEndian.Uint32(rest[0:])
	h.info.YSize = binary.BigEndian.Uint32(rest[4:])
	h.info.BitsPerSample = binary.BigEndian.Uint32(rest[8:])
	h.info.ExponentBitsPerSample = binary.BigEndian.Uint32(rest[12:])
	h.info.NumColorChannels = uint32(rest[16])
	h.info.NumExtraChannels = uint32(rest[17])
	h.info.AlphaBits = binary.BigEndian.Uint32(rest[18:])
	h.info.AlphaExponentBits = binary.BigEndian.Uint32(rest[22:])

	h.encoding.ColorSpace = engine.ColorSpace(rest[26])
	h.encoding.WhitePoint = engine.WhitePoint(rest[27])
	h.encoding.Primaries = engine.Primaries(rest[28])
	h.encoding.TransferFunction = engine.TransferFunction(rest[29])
	h.encoding.RenderingIntent = engine.RenderingIntent(rest[30])

	h.distance = math.Float64frombits(binary.BigEndian.Uint64(rest[31:]))
	h.payloadChannels = int(rest[39])

	if h.info.XSize == 0 || h.info.YSize == 0 {
		return nil, nil, fmt.Errorf("zero image dimensions")
	}
	if h.payloadChannels != 3 && h.payloadChannels != 4 {
		return nil, nil, fmt.Errorf("bad payload channel count %d", h.payloadChannels)
	}
	return h, rest[recordSize:], nil
}

// parseSection reads one length-prefixed section.
func parseSection(data []byte) (sec, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, errTruncated
	}
	n := binary.BigEndian.Uint32(data)
	if uint32(len(data)-4) < n {
		return nil, nil, errTruncated
	}
	return data[4 : 4+n], data[4+n:], nil
}

// decodePayload decompresses and deserializes the float payload.
func decodePayload(payload []byte, samples int) ([]float32, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("payload decompressor: %w", err)
	}
	defer dec.Close()

	raw, err := dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("payload corrupt: %w", err)
	}
	if len(raw) != 4*samples {
		return nil, fmt.Errorf("payload size %d, want %d", len(raw), 4*samples)
	}
	pixels := make([]float32, samples)
	for i := range pixels {
		pixels[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return pixels, nil
}
