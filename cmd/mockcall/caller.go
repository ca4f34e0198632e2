package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ermissa/adastra-basic-ai-assistant/core/audio"
	"github.com/ermissa/adastra-basic-ai-assistant/core/telephony"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

const frameDuration = 20 * time.Millisecond

var errStreamClosed = errors.New("media stream closed")

// callEvent is something the mock caller observed on the stream.
type callEvent struct {
	kind   string
	detail string
}

// caller plays the telephony side of one call against a running bridge.
type caller struct {
	baseURL      string
	streamURL    string
	callSID      string
	streamSID    string
	callerNumber string
	firstMessage string
	httpClient   *http.Client
	dialer       *websocket.Dialer
	encoding     audio.EncodingInfo

	writeMu sync.Mutex
	conn    *websocket.Conn
	started time.Time
	report  func(callEvent)
}

func newCaller(host, callerNumber, firstMessage string, report func(callEvent)) *caller {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return &caller{
		baseURL:      "http://" + host,
		streamURL:    "ws://" + host + "/ws/media-stream/",
		callSID:      "CA" + suffix,
		streamSID:    "MZ" + suffix,
		callerNumber: callerNumber,
		firstMessage: firstMessage,
		httpClient:   &http.Client{Timeout: 10 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)},
		dialer:       websocket.DefaultDialer,
		encoding:     audio.GetDefaultEncodingInfo(),
		report:       report,
	}
}

// ring posts the incoming call webhook and returns the TwiML answer.
func (c *caller) ring(ctx context.Context) (string, error) {
	form := url.Values{
		"AccountSid": {"ACmock"},
		"CallSid":    {c.callSID},
		"CallStatus": {"ringing"},
		"Direction":  {"inbound"},
		"From":       {c.callerNumber},
		"Caller":     {c.callerNumber},
		"To":         {"+1987654321"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/incoming-call", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build incoming call request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to post incoming call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read twiml: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("incoming call rejected with status %d: %s", resp.StatusCode, body)
	}
	return string(body), nil
}

// connect opens the media stream and sends the connected and start events.
func (c *caller) connect(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.streamURL, nil)
	if err != nil {
		return fmt.Errorf("failed to open media stream: %w", err)
	}
	c.writeMu.Lock()
	c.conn = conn
	c.started = time.Now()
	c.writeMu.Unlock()

	if err := c.write(map[string]any{"event": "connected", "protocol": "Call", "version": "1.0.0"}); err != nil {
		return err
	}
	return c.write(map[string]any{
		"event":          "start",
		"sequenceNumber": "1",
		"streamSid":      c.streamSID,
		"start": map[string]any{
			"accountSid": "ACmock",
			"streamSid":  c.streamSID,
			"callSid":    c.callSID,
			"tracks":     []string{"inbound"},
			"customParameters": map[string]string{
				telephony.ParameterCallerNumber: c.callerNumber,
				telephony.ParameterFirstMessage: c.firstMessage,
			},
			"mediaFormat": map[string]any{
				"encoding":   c.encoding.MIMEType(),
				"sampleRate": c.encoding.SampleRate,
				"channels":   1,
			},
		},
	})
}

// run streams silence and consumes the bridge's messages until ctx ends or
// the bridge closes the stream.
func (c *caller) run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return c.streamSilence(ctx) })
	group.Go(func() error { return c.readLoop(ctx) })
	return group.Wait()
}

func (c *caller) streamSilence(ctx context.Context) error {
	payload := base64.StdEncoding.EncodeToString(c.encoding.Silence(frameDuration))
	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for chunk := 1; ; chunk++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		err := c.write(map[string]any{
			"event":     "media",
			"streamSid": c.streamSID,
			"media": map[string]string{
				"track":     "inbound",
				"chunk":     strconv.Itoa(chunk),
				"timestamp": strconv.FormatInt(time.Since(c.started).Milliseconds(), 10),
				"payload":   payload,
			},
		})
		if err != nil {
			return err
		}
	}
}

type outbound struct {
	Event string `json:"event"`
	Media *struct {
		Payload string `json:"payload"`
	} `json:"media"`
	Mark *struct {
		Name string `json:"name"`
	} `json:"mark"`
}

// readLoop reports bridge messages and acknowledges marks the way the
// provider does once the preceding audio has played.
func (c *caller) readLoop(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) ||
				websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.report(callEvent{kind: "closed", detail: "stream closed"})
				return errStreamClosed
			}
			return fmt.Errorf("failed to read from bridge: %w", err)
		}

		var message outbound
		if err := json.Unmarshal(data, &message); err != nil {
			c.report(callEvent{kind: "invalid", detail: string(data)})
			continue
		}

		switch message.Event {
		case "media":
			size := 0
			if message.Media != nil {
				size = base64.StdEncoding.DecodedLen(len(message.Media.Payload))
			}
			c.report(callEvent{kind: "media", detail: strconv.Itoa(size) + " bytes"})
		case "mark":
			if message.Mark == nil {
				continue
			}
			if err := c.write(map[string]any{"event": "mark", "streamSid": c.streamSID, "mark": map[string]string{"name": message.Mark.Name}}); err != nil {
				return err
			}
			c.report(callEvent{kind: "mark", detail: message.Mark.Name})
		case "clear":
			c.report(callEvent{kind: "clear", detail: "playback cleared"})
		default:
			c.report(callEvent{kind: message.Event, detail: string(data)})
		}
	}
}

// hangUp sends stop and closes the stream.
func (c *caller) hangUp() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return nil
	}

	err := c.conn.WriteJSON(map[string]any{"event": "stop", "streamSid": c.streamSID, "stop": map[string]string{"callSid": c.callSID}})
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	if closeErr := c.conn.Close(); err == nil {
		err = closeErr
	}
	return err
}

func (c *caller) write(message any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.conn == nil {
		return errStreamClosed
	}
	if err := c.conn.WriteJSON(message); err != nil {
		return fmt.Errorf("failed to write to bridge: %w", err)
	}
	return nil
}
