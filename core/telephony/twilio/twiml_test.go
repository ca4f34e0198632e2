package twilio

import (
	"encoding/xml"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ermissa/adastra-basic-ai-assistant/core/telephony"
)

func TestIncomingCallReturnsStreamTwiML(t *testing.T) {
	handler := NewIncomingCallHandler(WithPublicHost("bridge.example.com"), WithGreeting("Hello!"))

	form := url.Values{"From": {"+31600000000"}, "CallSid": {"CA1"}}
	req := httptest.NewRequest(http.MethodPost, "/incoming-call", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/xml" {
		t.Fatalf("expected xml content type, got %q", got)
	}

	var response twimlResponse
	if err := xml.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("expected valid twiml, got %v", err)
	}
	stream := response.Connect.Stream
	if stream.URL != "wss://bridge.example.com/ws/media-stream/" {
		t.Fatalf("expected stream url, got %q", stream.URL)
	}
	params := map[string]string{}
	for _, p := range stream.Parameters {
		params[p.Name] = p.Value
	}
	if params[telephony.ParameterCallerNumber] != "+31600000000" || params[telephony.ParameterFirstMessage] != "Hello!" {
		t.Fatalf("expected caller number and greeting parameters, got %v", params)
	}
}

func TestIncomingCallDefaultsToRequestHost(t *testing.T) {
	handler := NewIncomingCallHandler()

	req := httptest.NewRequest(http.MethodPost, "http://abc.ngrok.app/incoming-call", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var response twimlResponse
	if err := xml.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("expected valid twiml, got %v", err)
	}
	if response.Connect.Stream.URL != "wss://abc.ngrok.app/ws/media-stream/" {
		t.Fatalf("expected request host in stream url, got %q", response.Connect.Stream.URL)
	}
	if response.Connect.Stream.Parameters[0].Value != "Unknown" {
		t.Fatalf("expected unknown caller, got %q", response.Connect.Stream.Parameters[0].Value)
	}
}
