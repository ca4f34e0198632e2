package audio

import (
	"testing"
	"time"
)

func TestDefaultEncodingIsTelephonyMulaw(t *testing.T) {
	info := GetDefaultEncodingInfo()

	if info.SampleRate != 8000 || info.Format != EncodingMulaw {
		t.Fatalf("expected 8kHz mulaw, got %d %s", info.SampleRate, info.Format)
	}
	if got := info.RealtimeFormatName(); got != "g711_ulaw" {
		t.Fatalf("expected g711_ulaw, got %q", got)
	}
	if got := info.MIMEType(); got != "audio/x-mulaw" {
		t.Fatalf("expected audio/x-mulaw, got %q", got)
	}
}

func TestFrameSize(t *testing.T) {
	if got := GetDefaultEncodingInfo().FrameSize(20 * time.Millisecond); got != 160 {
		t.Fatalf("expected 160 bytes per 20ms mulaw frame, got %d", got)
	}

	linear := EncodingInfo{SampleRate: 16000, Format: EncodingLinear16}
	if got := linear.FrameSize(20 * time.Millisecond); got != 640 {
		t.Fatalf("expected 640 bytes per 20ms linear16 frame, got %d", got)
	}

	if got := (EncodingInfo{}).FrameSize(time.Second); got != 0 {
		t.Fatalf("expected zero frame for unknown encoding, got %d", got)
	}
}

func TestSilence(t *testing.T) {
	frame := GetDefaultEncodingInfo().Silence(20 * time.Millisecond)

	if len(frame) != 160 {
		t.Fatalf("expected 160 bytes, got %d", len(frame))
	}
	for i, b := range frame {
		if b != 0xFF {
			t.Fatalf("expected mulaw silence at %d, got %#x", i, b)
		}
	}
}
