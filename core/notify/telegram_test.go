package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

func TestTelegramIsolatesRecipientFailures(t *testing.T) {
	var (
		mu       sync.Mutex
		attempts []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottoken/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req sendMessageRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		mu.Lock()
		attempts = append(attempts, req.ChatID)
		mu.Unlock()

		if req.ChatID == "bad" {
			http.Error(w, `{"ok":false}`, http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	telegram := NewTelegram("token", []string{"1", "bad", "2"}, WithTelegramURL(server.URL), WithHTTPClient(server.Client()))

	delivered, err := telegram.Send(context.Background(), "call ended")
	if delivered != 2 {
		t.Fatalf("expected 2 deliveries, got %d", delivered)
	}
	if err == nil {
		t.Fatalf("expected error for failed recipient")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(attempts) != 3 || attempts[2] != "2" {
		t.Fatalf("expected delivery to continue after failure, got %v", attempts)
	}
}

func TestTelegramWithoutRecipients(t *testing.T) {
	delivered, err := NewTelegram("token", nil).Send(context.Background(), "hi")
	if delivered != 0 || err != nil {
		t.Fatalf("expected no-op, got %d %v", delivered, err)
	}
}

func TestParseChatIDs(t *testing.T) {
	ids := ParseChatIDs(" 1, 2,,3 ,")
	if len(ids) != 3 || ids[0] != "1" || ids[2] != "3" {
		t.Fatalf("expected [1 2 3], got %v", ids)
	}
}
