package deepgram

import (
	"fmt"

	"github.com/koscakluka/ema-companion/core/audio"
)

type encodingInfo struct {
	SampleRate int
	Format     audio.EncodingFormat
}

func convertEncoding(encoding audio.EncodingInfo) (*encodingInfo, error) {
	switch encoding.Format {
	case audio.EncodingLinear16:
		switch encoding.SampleRate {
		case 8000, 16000, 24000, 32000, 48000:
		default:
			return nil, fmt.Errorf("unsupported sample rate %d for linear16", encoding.SampleRate)
		}
	case audio.EncodingMulaw, audio.EncodingALaw:
		switch encoding.SampleRate {
		case 8000, 16000:
		default:
			return nil, fmt.Errorf("unsupported sample rate %d for %s", encoding.SampleRate, encoding.Format)
		}
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding.Format)
	}

	return &encodingInfo{SampleRate: encoding.SampleRate, Format: encoding.Format}, nil
}
