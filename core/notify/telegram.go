// Package notify delivers call alerts to chat recipients.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DefaultTelegramURL = "https://api.telegram.org"

// Telegram sends messages through a bot to a fixed list of chats.
type Telegram struct {
	token      string
	chatIDs    []string
	baseURL    string
	httpClient *http.Client
}

type TelegramOption func(*Telegram)

func WithTelegramURL(baseURL string) TelegramOption {
	return func(t *Telegram) {
		t.baseURL = baseURL
	}
}

func WithHTTPClient(client *http.Client) TelegramOption {
	return func(t *Telegram) {
		t.httpClient = client
	}
}

func NewTelegram(token string, chatIDs []string, opts ...TelegramOption) *Telegram {
	t := &Telegram{
		token:      token,
		chatIDs:    chatIDs,
		baseURL:    DefaultTelegramURL,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Send delivers text to every chat and returns how many accepted it. A failed
// recipient does not stop delivery to the rest; all failures are returned
// joined.
func (t *Telegram) Send(ctx context.Context, text string) (int, error) {
	ctx, span := tracer.Start(ctx, "telegram send")
	defer span.End()
	span.SetAttributes(attribute.Int("notify.recipients", len(t.chatIDs)))

	delivered := 0
	var errs []error
	for _, chatID := range t.chatIDs {
		if err := t.sendTo(ctx, chatID, text); err != nil {
			logger.WarnContext(ctx, "failed to notify chat", "chat_id", chatID, "error", err)
			errs = append(errs, fmt.Errorf("chat %s: %w", chatID, err))
			continue
		}
		delivered++
	}

	span.SetAttributes(attribute.Int("notify.delivered", delivered))
	err := errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		if delivered == 0 {
			span.SetStatus(codes.Error, err.Error())
		}
	}
	return delivered, err
}

func (t *Telegram) sendTo(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(t.baseURL, "/"), t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// ParseChatIDs splits a comma separated recipient list, skipping blanks.
func ParseChatIDs(value string) []string {
	var ids []string
	for _, id := range strings.Split(value, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}
