package events

import (
	"testing"
	"time"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "call started", event: NewCallStarted("CA1", "MZ1", "+100"), expected: KindCallStarted},
		{name: "call ended", event: NewCallEnded("CA1", "+100", "timeout", time.Second, ""), expected: KindCallEnded},
		{name: "barge in", event: NewBargeIn("CA1", "item_1", 120), expected: KindBargeIn},
		{name: "tool call started", event: NewToolCallStarted("CA1", "call_1", "language", "{}"), expected: KindToolCallStarted},
		{name: "tool call completed", event: NewToolCallCompleted("CA1", "call_1", "language", "entry"), expected: KindToolCallCompleted},
		{name: "tool call failed", event: NewToolCallFailed("CA1", "call_1", "language", "boom"), expected: KindToolCallFailed},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if got := testCase.event.CallSID(); got != "CA1" {
				t.Fatalf("expected call sid %q, got %q", "CA1", got)
			}
			if testCase.event.OccurredAt().IsZero() {
				t.Fatalf("expected occurrence time to be set")
			}
		})
	}
}

func TestCallEndedCarriesTranscript(t *testing.T) {
	event := NewCallEnded("CA1", "+100", "end_of_call", 3*time.Second, "user: hi\n")

	if event.Transcript != "user: hi\n" {
		t.Fatalf("expected transcript to be kept, got %q", event.Transcript)
	}
	if event.Duration != 3*time.Second {
		t.Fatalf("expected duration 3s, got %s", event.Duration)
	}
}
