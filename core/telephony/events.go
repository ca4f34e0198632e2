// Package telephony defines the media stream protocol spoken with the
// telephony provider: inbound call events and outbound playback messages.
package telephony

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Custom stream parameters set by the incoming call webhook.
const (
	ParameterCallerNumber = "callerNumber"
	ParameterFirstMessage = "firstMessage"
)

type EventType string

const (
	EventConnected EventType = "connected"
	EventStart     EventType = "start"
	EventMedia     EventType = "media"
	EventMark      EventType = "mark"
	EventStop      EventType = "stop"
	EventDTMF      EventType = "dtmf"
)

// Event is one inbound media stream message. The set of implementations is
// closed; unknown types parse to *Unknown.
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

type Connected struct {
	base
	Protocol string
}

type MediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// Start opens the stream of one call.
type Start struct {
	base
	StreamSID        string
	CallSID          string
	AccountSID       string
	CustomParameters map[string]string
	MediaFormat      MediaFormat
}

// Media carries one chunk of caller audio. TimestampMs is the offset from
// the start of the stream.
type Media struct {
	base
	TimestampMs int64
	Chunk       int64
	Track       string
	Payload     string
}

// Mark acknowledges that playback reached a previously sent mark.
type Mark struct {
	base
	Name string
}

type Stop struct {
	base
	CallSID string
}

type DTMF struct {
	base
	Digit string
}

type Unknown struct {
	base
}

type wireEvent struct {
	Event     EventType `json:"event"`
	StreamSID string    `json:"streamSid"`
	Protocol  string    `json:"protocol"`
	Start     *struct {
		StreamSID        string            `json:"streamSid"`
		CallSID          string            `json:"callSid"`
		AccountSID       string            `json:"accountSid"`
		CustomParameters map[string]string `json:"customParameters"`
		MediaFormat      MediaFormat       `json:"mediaFormat"`
	} `json:"start"`
	Media *struct {
		Track     string      `json:"track"`
		Chunk     json.Number `json:"chunk"`
		Timestamp json.Number `json:"timestamp"`
		Payload   string      `json:"payload"`
	} `json:"media"`
	Mark *struct {
		Name string `json:"name"`
	} `json:"mark"`
	Stop *struct {
		CallSID string `json:"callSid"`
	} `json:"stop"`
	DTMF *struct {
		Digit string `json:"digit"`
	} `json:"dtmf"`
}

// Parse decodes one inbound media stream message.
func Parse(data []byte) (Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode media stream event: %w", err)
	}
	if wire.Event == "" {
		return nil, fmt.Errorf("media stream event without type")
	}

	b := base{eventType: wire.Event, raw: json.RawMessage(append([]byte(nil), data...))}
	switch wire.Event {
	case EventConnected:
		return &Connected{base: b, Protocol: wire.Protocol}, nil
	case EventStart:
		if wire.Start == nil {
			return nil, fmt.Errorf("start event without start block")
		}
		event := &Start{
			base:             b,
			StreamSID:        wire.Start.StreamSID,
			CallSID:          wire.Start.CallSID,
			AccountSID:       wire.Start.AccountSID,
			CustomParameters: wire.Start.CustomParameters,
			MediaFormat:      wire.Start.MediaFormat,
		}
		if event.StreamSID == "" {
			event.StreamSID = wire.StreamSID
		}
		if event.CustomParameters == nil {
			event.CustomParameters = map[string]string{}
		}
		return event, nil
	case EventMedia:
		if wire.Media == nil {
			return nil, fmt.Errorf("media event without media block")
		}
		event := &Media{base: b, Track: wire.Media.Track, Payload: wire.Media.Payload}
		var err error
		if event.TimestampMs, err = parseNumber(wire.Media.Timestamp); err != nil {
			return nil, fmt.Errorf("invalid media timestamp: %w", err)
		}
		if event.Chunk, err = parseNumber(wire.Media.Chunk); err != nil {
			return nil, fmt.Errorf("invalid media chunk: %w", err)
		}
		return event, nil
	case EventMark:
		event := &Mark{base: b}
		if wire.Mark != nil {
			event.Name = wire.Mark.Name
		}
		return event, nil
	case EventStop:
		event := &Stop{base: b}
		if wire.Stop != nil {
			event.CallSID = wire.Stop.CallSID
		}
		return event, nil
	case EventDTMF:
		event := &DTMF{base: b}
		if wire.DTMF != nil {
			event.Digit = wire.DTMF.Digit
		}
		return event, nil
	}
	return &Unknown{base: b}, nil
}

// parseNumber accepts both "123" and 123; the provider sends strings.
func parseNumber(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	return strconv.ParseInt(string(n), 10, 64)
}
