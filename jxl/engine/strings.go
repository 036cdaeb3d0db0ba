package engine

import "fmt"

func (s DecoderStatus) String() string {
	switch s {
	case DecSuccess:
		return "success"
	case DecError:
		return "error"
	case DecNeedMoreInput:
		return "need-more-input"
	case DecNeedImageOutBuffer:
		return "need-image-out-buffer"
	case DecBasicInfo:
		return "basic-info"
	case DecColorEncoding:
		return "color-encoding"
	case DecFullImage:
		return "full-image"
	}
	return fmt.Sprintf("decoder-status(%d)", int(s))
}

func (s EncoderStatus) String() string {
	switch s {
	case EncSuccess:
		return "success"
	case EncError:
		return "error"
	case EncNeedMoreOutput:
		return "need-more-output"
	}
	return fmt.Sprintf("encoder-status(%d)", int(s))
}
