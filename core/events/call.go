package events

import "time"

const (
	// KindCallStarted identifies a started call.
	KindCallStarted Kind = "call.started"
	// KindCallEnded identifies a finished call.
	KindCallEnded Kind = "call.ended"
	// KindBargeIn identifies an interruption of assistant playback.
	KindBargeIn Kind = "playback.barge_in"
)

// CallStarted marks a call whose upstream session is configured.
type CallStarted struct {
	Base
	StreamSID    string
	CallerNumber string
}

// NewCallStarted creates a call started event.
func NewCallStarted(callSID, streamSID, callerNumber string) CallStarted {
	return CallStarted{
		Base:         NewBase(KindCallStarted, callSID),
		StreamSID:    streamSID,
		CallerNumber: callerNumber,
	}
}

// CallEnded marks the end of a call.
type CallEnded struct {
	Base
	CallerNumber string
	Reason       string
	Duration     time.Duration
	Transcript   string
}

// NewCallEnded creates a call ended event.
func NewCallEnded(callSID, callerNumber, reason string, duration time.Duration, transcript string) CallEnded {
	return CallEnded{
		Base:         NewBase(KindCallEnded, callSID),
		CallerNumber: callerNumber,
		Reason:       reason,
		Duration:     duration,
		Transcript:   transcript,
	}
}

// BargeIn marks assistant audio cut short by the caller.
type BargeIn struct {
	Base
	ItemID    string
	ElapsedMs int64
}

// NewBargeIn creates a barge-in event.
func NewBargeIn(callSID, itemID string, elapsedMs int64) BargeIn {
	return BargeIn{Base: NewBase(KindBargeIn, callSID), ItemID: itemID, ElapsedMs: elapsedMs}
}
