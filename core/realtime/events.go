// Package realtime defines the wire protocol of a speech-to-speech realtime
// model: the inbound event union and the outbound control messages.
package realtime

import (
	"encoding/json"
	"fmt"
)

type EventType string

const (
	EventSessionCreated             EventType = "session.created"
	EventSessionUpdated             EventType = "session.updated"
	EventAudioDelta                 EventType = "response.audio.delta"
	EventFunctionCallArgumentsDelta EventType = "response.function_call_arguments.delta"
	EventFunctionCallArgumentsDone  EventType = "response.function_call_arguments.done"
	EventInputTranscriptionDone     EventType = "conversation.item.input_audio_transcription.completed"
	EventOutputTranscriptDone       EventType = "response.audio_transcript.done"
	EventResponseDone               EventType = "response.done"
	EventResponseTextDone           EventType = "response.text.done"
	EventSpeechStarted              EventType = "input_audio_buffer.speech_started"
	EventSpeechStopped              EventType = "input_audio_buffer.speech_stopped"
	EventError                      EventType = "error"
)

// Event is one parsed upstream message. The set of implementations is closed;
// unknown types parse to *Unhandled.
type Event interface {
	Type() EventType
	Raw() json.RawMessage
	event()
}

type base struct {
	eventType EventType
	raw       json.RawMessage
}

func (b base) Type() EventType      { return b.eventType }
func (b base) Raw() json.RawMessage { return b.raw }
func (base) event()                 {}

type SessionCreated struct {
	base
	SessionID string
}

type SessionUpdated struct {
	base
}

// AudioDelta is a chunk of base64 encoded output audio for one item.
type AudioDelta struct {
	base
	ResponseID string
	ItemID     string
	Delta      string
}

type FunctionCallArgumentsDelta struct {
	base
	CallID string
	ItemID string
	Delta  string
}

type FunctionCallArgumentsDone struct {
	base
	CallID    string
	ItemID    string
	Name      string
	Arguments string
}

type InputTranscriptionDone struct {
	base
	ItemID     string
	Transcript string
}

type OutputTranscriptDone struct {
	base
	ItemID     string
	Transcript string
}

type ResponseDone struct {
	base
	ResponseID string
	Status     string
}

type ResponseTextDone struct {
	base
	ItemID string
	Text   string
}

type SpeechStarted struct {
	base
	ItemID       string
	AudioStartMs int64
}

type SpeechStopped struct {
	base
	ItemID     string
	AudioEndMs int64
}

type Error struct {
	base
	ErrorType string
	Code      string
	Message   string
}

type Unhandled struct {
	base
}

type wireEvent struct {
	Type         EventType `json:"type"`
	ResponseID   string    `json:"response_id"`
	ItemID       string    `json:"item_id"`
	CallID       string    `json:"call_id"`
	Name         string    `json:"name"`
	Delta        string    `json:"delta"`
	Arguments    string    `json:"arguments"`
	Transcript   string    `json:"transcript"`
	Text         string    `json:"text"`
	AudioStartMs int64     `json:"audio_start_ms"`
	AudioEndMs   int64     `json:"audio_end_ms"`
	Session      *struct {
		ID string `json:"id"`
	} `json:"session"`
	Response *struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	} `json:"response"`
	Error *struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Parse decodes one upstream message.
func Parse(data []byte) (Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode realtime event: %w", err)
	}
	if wire.Type == "" {
		return nil, fmt.Errorf("realtime event without type")
	}

	b := base{eventType: wire.Type, raw: json.RawMessage(append([]byte(nil), data...))}
	switch wire.Type {
	case EventSessionCreated:
		event := &SessionCreated{base: b}
		if wire.Session != nil {
			event.SessionID = wire.Session.ID
		}
		return event, nil
	case EventSessionUpdated:
		return &SessionUpdated{base: b}, nil
	case EventAudioDelta:
		return &AudioDelta{base: b, ResponseID: wire.ResponseID, ItemID: wire.ItemID, Delta: wire.Delta}, nil
	case EventFunctionCallArgumentsDelta:
		return &FunctionCallArgumentsDelta{base: b, CallID: wire.CallID, ItemID: wire.ItemID, Delta: wire.Delta}, nil
	case EventFunctionCallArgumentsDone:
		return &FunctionCallArgumentsDone{base: b, CallID: wire.CallID, ItemID: wire.ItemID, Name: wire.Name, Arguments: wire.Arguments}, nil
	case EventInputTranscriptionDone:
		return &InputTranscriptionDone{base: b, ItemID: wire.ItemID, Transcript: wire.Transcript}, nil
	case EventOutputTranscriptDone:
		return &OutputTranscriptDone{base: b, ItemID: wire.ItemID, Transcript: wire.Transcript}, nil
	case EventResponseDone:
		event := &ResponseDone{base: b}
		if wire.Response != nil {
			event.ResponseID, event.Status = wire.Response.ID, wire.Response.Status
		}
		return event, nil
	case EventResponseTextDone:
		return &ResponseTextDone{base: b, ItemID: wire.ItemID, Text: wire.Text}, nil
	case EventSpeechStarted:
		return &SpeechStarted{base: b, ItemID: wire.ItemID, AudioStartMs: wire.AudioStartMs}, nil
	case EventSpeechStopped:
		return &SpeechStopped{base: b, ItemID: wire.ItemID, AudioEndMs: wire.AudioEndMs}, nil
	case EventError:
		event := &Error{base: b}
		if wire.Error != nil {
			event.ErrorType, event.Code, event.Message = wire.Error.Type, wire.Error.Code, wire.Error.Message
		}
		return event, nil
	}
	return &Unhandled{base: b}, nil
}
