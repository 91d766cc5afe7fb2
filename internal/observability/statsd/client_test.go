package statsd

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestMetricName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix, name, want string
	}{
		{"medplus", "gateway.request", "medplus.gateway.request"},
		{"medplus", " api/login ", "medplus.api_login"},
		{"", "foo..bar", "foo.bar"},
		{"medplus", ".", "medplus"},
		{"medplus", "", ""},
	}

	for _, tt := range tests {
		if got := metricName(tt.prefix, tt.name); got != tt.want {
			t.Fatalf("metricName(%q, %q) = %q, want %q", tt.prefix, tt.name, got, tt.want)
		}
	}
}

func TestLineMergesAndSortsTags(t *testing.T) {
	t.Parallel()

	c := &Client{
		prefix: "medplus",
		global: map[string]string{"env": "prod", "app": "cli"},
	}

	got := c.line("gateway.request", "1", "c", map[string]string{
		"status": " 200 ",
		"":       "ignored",
		"env":    "stage",
	})
	want := "medplus.gateway.request:1|c|#app:cli,env:stage,status:200"

	if got != want {
		t.Fatalf("line mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestLineWithoutTags(t *testing.T) {
	t.Parallel()

	c := &Client{}
	if got := c.line("x", "2.5", "ms", nil); got != "x:2.5|ms" {
		t.Fatalf("line() = %q", got)
	}
}

func TestNilClientIsNoop(t *testing.T) {
	t.Parallel()

	var c *Client
	c.Count("a", 1, nil)
	c.Timing("b", time.Second, nil)
	if c.Enabled() {
		t.Fatal("nil client must not be enabled")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close() on nil client = %v", err)
	}
}

func TestDisabledClient(t *testing.T) {
	t.Parallel()

	c, err := NewClient(Config{Enabled: false, Address: "127.0.0.1:8125"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if c.Enabled() {
		t.Fatal("expected disabled client")
	}
	c.Count("noop", 1, nil)
}

func TestClientWritesUDP(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("udp not available: %v", err)
	}
	defer pc.Close()

	c, err := NewClient(Config{Enabled: true, Address: pc.LocalAddr().String(), Prefix: "medplus"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	defer c.Close()

	c.Count("refresher.tick", 3, map[string]string{"mode": "background"})

	buf := make([]byte, 512)
	if err := pc.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	n, _, err := pc.ReadFrom(buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := string(buf[:n])
	if !strings.HasPrefix(got, "medplus.refresher.tick:3|c") || !strings.Contains(got, "mode:background") {
		t.Fatalf("unexpected packet %q", got)
	}
}
