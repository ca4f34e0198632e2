// Package openai connects a call to the OpenAI realtime speech-to-speech API.
package openai

import (
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/ermissa/adastra-basic-ai-assistant/core/audio"
	"github.com/ermissa/adastra-basic-ai-assistant/core/realtime"
	"github.com/gorilla/websocket"
)

const (
	DefaultURL                = "wss://api.openai.com/v1/realtime"
	DefaultModel              = "gpt-4o-mini-realtime-preview"
	DefaultVoice              = "sage"
	DefaultEagerness          = "medium"
	DefaultTemperature        = 0.8
	DefaultTranscriptionModel = "whisper-1"

	closeTimeout = time.Second
)

// Client owns at most one realtime connection. Connect and Close are
// serialized; writes are serialized separately so the listener can read
// while audio is forwarded.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	dialer  *websocket.Dialer
	session sessionDefaults

	connMu sync.Mutex
	conn   *websocket.Conn
	handle *realtime.Handle

	writeMu sync.Mutex
}

type sessionDefaults struct {
	voice              string
	eagerness          string
	temperature        float64
	encoding           audio.EncodingInfo
	transcriptionModel string
}

type ClientOption func(*Client)

// WithAPIKey overrides the OPENAI_API_KEY environment variable.
func WithAPIKey(apiKey string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

func WithURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func WithModel(model string) ClientOption {
	return func(c *Client) {
		c.model = model
	}
}

func WithVoice(voice string) ClientOption {
	return func(c *Client) {
		c.session.voice = voice
	}
}

// WithEagerness sets the semantic VAD eagerness: low, medium, high or auto.
func WithEagerness(eagerness string) ClientOption {
	return func(c *Client) {
		c.session.eagerness = eagerness
	}
}

func WithTemperature(temperature float64) ClientOption {
	return func(c *Client) {
		c.session.temperature = temperature
	}
}

// WithEncoding sets the input and output audio codec. Defaults to 8 kHz
// μ-law as delivered by telephony media streams.
func WithEncoding(encoding audio.EncodingInfo) ClientOption {
	return func(c *Client) {
		c.session.encoding = encoding
	}
}

func WithTranscriptionModel(model string) ClientOption {
	return func(c *Client) {
		c.session.transcriptionModel = model
	}
}

func WithDialer(dialer *websocket.Dialer) ClientOption {
	return func(c *Client) {
		c.dialer = dialer
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultURL,
		model:   DefaultModel,
		dialer:  websocket.DefaultDialer,
		session: sessionDefaults{
			voice:              DefaultVoice,
			eagerness:          DefaultEagerness,
			temperature:        DefaultTemperature,
			encoding:           audio.GetDefaultEncodingInfo(),
			transcriptionModel: DefaultTranscriptionModel,
		},
	}
	if apiKey, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
		c.apiKey = apiKey
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) endpoint() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	query := u.Query()
	query.Set("model", c.model)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func (c *Client) headers() http.Header {
	return http.Header{
		"Authorization": {"Bearer " + c.apiKey},
		"OpenAI-Beta":   {"realtime=v1"},
	}
}

// Handle returns the current connection handle, if connected.
func (c *Client) Handle() (realtime.Handle, bool) {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.handle == nil {
		return realtime.Handle{}, false
	}
	return *c.handle, true
}

func (c *Client) current() *websocket.Conn {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn
}
