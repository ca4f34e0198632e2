package twilio

import (
	"encoding/xml"
	"net/http"
	"net/url"

	"github.com/ermissa/adastra-basic-ai-assistant/core/telephony"
)

const (
	DefaultStreamPath = "/ws/media-stream/"
)

type twimlResponse struct {
	XMLName xml.Name     `xml:"Response"`
	Connect twimlConnect `xml:"Connect"`
}

type twimlConnect struct {
	Stream twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL        string           `xml:"url,attr"`
	Parameters []twimlParameter `xml:"Parameter"`
}

type twimlParameter struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// IncomingCallHandler answers the voice webhook with TwiML that connects the
// call to the media stream endpoint, passing the caller number and greeting
// as stream parameters.
type IncomingCallHandler struct {
	publicHost string
	streamPath string
	greeting   string
}

type IncomingCallOption func(*IncomingCallHandler)

// WithPublicHost sets the host the provider reaches the media stream on.
// Defaults to the webhook request host.
func WithPublicHost(host string) IncomingCallOption {
	return func(h *IncomingCallHandler) {
		h.publicHost = host
	}
}

func WithStreamPath(path string) IncomingCallOption {
	return func(h *IncomingCallHandler) {
		h.streamPath = path
	}
}

func WithGreeting(greeting string) IncomingCallOption {
	return func(h *IncomingCallHandler) {
		h.greeting = greeting
	}
}

func NewIncomingCallHandler(opts ...IncomingCallOption) *IncomingCallHandler {
	h := &IncomingCallHandler{streamPath: DefaultStreamPath}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *IncomingCallHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		logger.WarnContext(ctx, "failed to parse incoming call form", "error", err)
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	callerNumber := r.Form.Get("From")
	if callerNumber == "" {
		callerNumber = "Unknown"
	}

	host := h.publicHost
	if host == "" {
		host = r.Host
	}
	streamURL := url.URL{Scheme: "wss", Host: host, Path: h.streamPath}

	response := twimlResponse{Connect: twimlConnect{Stream: twimlStream{
		URL: streamURL.String(),
		Parameters: []twimlParameter{
			{Name: telephony.ParameterCallerNumber, Value: callerNumber},
			{Name: telephony.ParameterFirstMessage, Value: h.greeting},
		},
	}}}

	logger.InfoContext(ctx, "incoming call", "call_sid", r.Form.Get("CallSid"), "caller", callerNumber)

	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(xml.Header))
	if err := xml.NewEncoder(w).Encode(response); err != nil {
		logger.ErrorContext(ctx, "failed to write twiml", "error", err)
	}
}
