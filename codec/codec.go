package codec

// Codec is the universal interface for all image codecs in this module.
type Codec interface {
	// Encode encodes raw interleaved pixel data
	Encode(params EncodeParams) ([]byte, error)

	// Decode decodes compressed data
	Decode(data []byte) (*DecodeResult, error)

	// MIME returns the media type handled by the codec (e.g. "image/jxl")
	MIME() string

	// Name returns a human-readable name
	Name() string
}

// EncodeParams contains parameters for encoding
type EncodeParams struct {
	PixelData []byte  // Raw interleaved pixel data
	Width     int     // Image width
	Height    int     // Image height
	Channels  int     // Number of interleaved channels (3=RGB, 4=RGBA)
	BitDepth  int     // Bits per sample (8, 10, 12, 16, 32)
	Options   Options // Codec-specific options
}

// Options is an interface for codec-specific encoding options
type Options interface {
	// Validate checks if the options are valid
	Validate() error
}

// DecodeResult contains the result of decoding
type DecodeResult struct {
	PixelData []byte // Decoded pixel data
	Width     int    // Image width
	Height    int    // Image height
	Channels  int    // Number of interleaved channels
	BitDepth  int    // Bits per sample
}

// BaseOptions provides common options for all codecs
type BaseOptions struct {
	// Quality factor for lossy codecs (0-100, higher is better)
	// Not used for lossless codecs
	Quality float32

	// Lossless requests mathematically lossless encoding.
	// When set, Quality is ignored.
	Lossless bool
}

// Validate validates base options
func (o *BaseOptions) Validate() error {
	if o.Quality < 0 || o.Quality > 100 {
		return ErrInvalidQuality
	}
	return nil
}
