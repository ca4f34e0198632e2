package twilio

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEndCall(t *testing.T) {
	var (
		gotPath   string
		gotStatus string
		gotUser   string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = r.ParseForm()
		gotStatus = r.Form.Get("Status")
		gotUser, _, _ = r.BasicAuth()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewRESTClient("AC1", "secret", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	if err := client.EndCall(context.Background(), "CA1"); err != nil {
		t.Fatalf("expected end call to succeed, got %v", err)
	}

	if gotPath != "/Accounts/AC1/Calls/CA1.json" {
		t.Fatalf("expected call resource path, got %q", gotPath)
	}
	if gotStatus != "completed" {
		t.Fatalf("expected completed status, got %q", gotStatus)
	}
	if gotUser != "AC1" {
		t.Fatalf("expected account sid as basic auth user, got %q", gotUser)
	}
}

func TestEndCallFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewRESTClient("AC1", "secret", WithBaseURL(server.URL))
	if err := client.EndCall(context.Background(), "CA1"); err == nil {
		t.Fatalf("expected error for 404")
	}
}
