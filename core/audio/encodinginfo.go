package audio

import "time"

const (
	DefaultSampleRate = 8000
	DefaultFormat     = "mulaw"
)

// GetDefaultEncodingInfo returns the telephony media stream encoding:
// 8 kHz mono μ-law.
func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: encodingFormat(DefaultFormat)}
}

type EncodingInfo struct {
	SampleRate int
	Format     encodingFormat
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

func (e EncodingInfo) SilenceValue() byte {
	switch e.Format {
	case EncodingALaw:
		return 0x55
	case EncodingMulaw:
		return 0xFF
	case EncodingLinear16:
		return 0
	}

	return 0
}

// FrameSize is the number of bytes of mono audio covering d.
func (e EncodingInfo) FrameSize(d time.Duration) int {
	if e.IsZero() || e.Format.ByteSize() < 0 {
		return 0
	}
	return int(int64(e.SampleRate)*d.Milliseconds()/1000) * e.Format.ByteSize()
}

// Silence returns a frame of silence covering d.
func (e EncodingInfo) Silence(d time.Duration) []byte {
	frame := make([]byte, e.FrameSize(d))
	if value := e.SilenceValue(); value != 0 {
		for i := range frame {
			frame[i] = value
		}
	}
	return frame
}

// RealtimeFormatName is the realtime session name of the encoding
// (g711_ulaw, g711_alaw or pcm16).
func (e EncodingInfo) RealtimeFormatName() string {
	switch e.Format {
	case EncodingMulaw:
		return "g711_ulaw"
	case EncodingALaw:
		return "g711_alaw"
	case EncodingLinear16:
		return "pcm16"
	}
	return ""
}

// MIMEType is the media stream content type of the encoding.
func (e EncodingInfo) MIMEType() string {
	switch e.Format {
	case EncodingMulaw:
		return "audio/x-mulaw"
	case EncodingALaw:
		return "audio/x-alaw"
	case EncodingLinear16:
		return "audio/x-l16"
	}
	return ""
}

type encodingFormat string

func (e encodingFormat) Name() string {
	return string(e)
}

func (e encodingFormat) ByteSize() int {
	switch e {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    encodingFormat = "mulaw"
	EncodingALaw     encodingFormat = "alaw"
	EncodingLinear16 encodingFormat = "linear16"
)
