package telephony

// Outbound messages sent to the telephony peer.
type OutboundMessage interface {
	outbound()
}

type MediaMessage struct {
	Event     string       `json:"event"`
	StreamSID string       `json:"streamSid"`
	Media     MediaPayload `json:"media"`
}

type MediaPayload struct {
	Payload string `json:"payload"`
}

type MarkMessage struct {
	Event     string   `json:"event"`
	StreamSID string   `json:"streamSid"`
	Mark      MarkName `json:"mark"`
}

type MarkName struct {
	Name string `json:"name"`
}

type ClearMessage struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid"`
}

func (MediaMessage) outbound() {}
func (MarkMessage) outbound()  {}
func (ClearMessage) outbound() {}

func NewMedia(streamSID, payload string) MediaMessage {
	return MediaMessage{Event: string(EventMedia), StreamSID: streamSID, Media: MediaPayload{Payload: payload}}
}

func NewMark(streamSID, name string) MarkMessage {
	return MarkMessage{Event: string(EventMark), StreamSID: streamSID, Mark: MarkName{Name: name}}
}

func NewClear(streamSID string) ClearMessage {
	return ClearMessage{Event: "clear", StreamSID: streamSID}
}
