package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/medplus/medplus-client/internal/observability/notify"
)

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatal("expected error when webhook url missing")
	}
}

func TestFormatMessageIncludesFields(t *testing.T) {
	client, err := NewClient(Config{
		WebhookURL: "https://hooks.slack.com/services/test",
		Channel:    "#clinic",
		Username:   "bot",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	msg := client.formatMessage(notify.Notice{
		Level:      notify.LevelWarn,
		Message:    "Sessão expirada. Faça login novamente.",
		Source:     "session",
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})

	if msg["username"] != "bot" {
		t.Fatalf("expected username to be preserved, got %v", msg["username"])
	}
	if msg["channel"] != "#clinic" {
		t.Fatalf("expected channel to be set, got %v", msg["channel"])
	}
	text, ok := msg["text"].(string)
	if !ok {
		t.Fatalf("expected text field")
	}
	for _, want := range []string{"*WARN*", "Sessão expirada", "Source: session", "2026-01-02T03:04:05Z"} {
		if !strings.Contains(text, want) {
			t.Fatalf("message text missing %q: %s", want, text)
		}
	}
}

func TestNotifyFiltersBelowMinLevel(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := client.Notify(context.Background(), notify.Notice{Level: notify.LevelSuccess, Message: "ok"}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected info notices to be filtered, got %d calls", calls.Load())
	}

	if err := client.Notify(context.Background(), notify.Notice{Level: notify.LevelError, Message: "boom"}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one webhook call, got %d", calls.Load())
	}
}

func TestNotifyRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if calls.Add(1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL, RetryLimit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := client.Notify(context.Background(), notify.Notice{Level: notify.LevelWarn, Message: "x"}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestNotifyReturnsLastError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	client, err := NewClient(Config{WebhookURL: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = client.Notify(context.Background(), notify.Notice{Level: notify.LevelError, Message: "x"})
	if err == nil || !strings.Contains(err.Error(), "invalid_token") {
		t.Fatalf("expected webhook error, got %v", err)
	}
}
