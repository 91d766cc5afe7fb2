// Package slack forwards user notices to a Slack incoming webhook, so
// session expiries and background refresh failures are visible to operators.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/medplus/medplus-client/internal/observability/notify"
)

// Config captures the subset of Slack webhook behaviour we need.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	RetryLimit int
	// MinLevel filters out notices below this level. Defaults to warn.
	MinLevel notify.Level
	Client   *http.Client
}

// Client delivers notices to a Slack webhook.
type Client struct {
	webhookURL string
	channel    string
	username   string
	retryLimit int
	minRank    int
	client     *http.Client
}

var _ notify.Sink = (*Client)(nil)

var levelRank = map[notify.Level]int{
	notify.LevelInfo:    0,
	notify.LevelSuccess: 0,
	notify.LevelWarn:    1,
	notify.LevelError:   2,
}

// NewClient builds a Slack webhook client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	minLevel := cfg.MinLevel
	if minLevel == "" {
		minLevel = notify.LevelWarn
	}

	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		username = "medplus"
	}

	return &Client{
		webhookURL: webhookURL,
		channel:    strings.TrimSpace(cfg.Channel),
		username:   username,
		retryLimit: max(cfg.RetryLimit, 0),
		minRank:    levelRank[minLevel],
		client:     hc,
	}, nil
}

// Notify posts a formatted message to Slack. Notices below the configured
// level are dropped silently.
func (c *Client) Notify(ctx context.Context, n notify.Notice) error {
	if levelRank[n.Level] < c.minRank {
		return nil
	}
	body, err := json.Marshal(c.formatMessage(n))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}

	attempts := c.retryLimit + 1
	var lastErr error
	for attempt := range attempts {
		if lastErr = c.post(ctx, body); lastErr == nil {
			return nil
		}
		if attempt == attempts-1 {
			break
		}
		delay := time.Duration(attempt+1) * 200 * time.Millisecond
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

func (c *Client) formatMessage(n notify.Notice) map[string]any {
	ts := n.OccurredAt
	if ts.IsZero() {
		ts = time.Now()
	}

	var text strings.Builder
	fmt.Fprintf(&text, "*%s* %s\n", strings.ToUpper(string(n.Level)), escape(n.Message))
	if n.Source != "" {
		fmt.Fprintf(&text, "• Source: %s\n", escape(n.Source))
	}
	fmt.Fprintf(&text, "• Time: %s", ts.UTC().Format(time.RFC3339))

	msg := map[string]any{
		"text":     text.String(),
		"username": c.username,
	}
	if c.channel != "" {
		msg["channel"] = c.channel
	}
	return msg
}

func escape(value string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(value)
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}
	if readErr != nil {
		return fmt.Errorf("drain slack response body: %w", readErr)
	}
	return nil
}
