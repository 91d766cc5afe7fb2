// Package auth contains simple hand-written test doubles for session ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/medplus/medplus-client/internal/observability/notify"
	"github.com/medplus/medplus-client/internal/observability/statsd"
	"github.com/medplus/medplus-client/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.TokenStore        = (*MemoryTokenStore)(nil)
	_ ports.SignatureVerifier = (*StaticVerifier)(nil)
	_ notify.Sink             = (*RecordingSink)(nil)
	_ statsd.Sink             = (*RecordingMetrics)(nil)
)

// MemoryTokenStore is an in-memory token store that counts calls.
// Set the *Err fields to simulate storage failures.
type MemoryTokenStore struct {
	mu     sync.Mutex
	token  string
	ok     bool
	gets   int
	sets   int
	clears int

	GetErr   error
	SetErr   error
	ClearErr error
}

// NewMemoryTokenStore creates a store, optionally pre-seeded with a token.
func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token, ok: token != ""}
}

func (m *MemoryTokenStore) Get(_ context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.GetErr != nil {
		return "", false, m.GetErr
	}
	return m.token, m.ok, nil
}

func (m *MemoryTokenStore) Set(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.SetErr != nil {
		return m.SetErr
	}
	m.token, m.ok = token, true
	return nil
}

func (m *MemoryTokenStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.token, m.ok = "", false
	return nil
}

// Token returns the stored token without counting a Get.
func (m *MemoryTokenStore) Token() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, m.ok
}

// Calls reports how many times each method ran.
func (m *MemoryTokenStore) Calls() (gets, sets, clears int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets, m.sets, m.clears
}

// StaticVerifier returns Err for every token and records what it saw.
type StaticVerifier struct {
	Err error

	mu     sync.Mutex
	tokens []string
}

func (v *StaticVerifier) Verify(_ context.Context, token string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tokens = append(v.tokens, token)
	return v.Err
}

// Seen returns the tokens passed to Verify.
func (v *StaticVerifier) Seen() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.tokens...)
}

// RecordingSink captures notices.
type RecordingSink struct {
	mu      sync.Mutex
	notices []notify.Notice
	Err     error
}

func (s *RecordingSink) Notify(_ context.Context, n notify.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
	return s.Err
}

// Notices returns a copy of everything received so far.
func (s *RecordingSink) Notices() []notify.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Notice(nil), s.notices...)
}

// Messages returns just the message text of received notices.
func (s *RecordingSink) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.notices))
	for _, n := range s.notices {
		out = append(out, n.Message)
	}
	return out
}

// Metric is one recorded statsd sample.
type Metric struct {
	Kind  string // "count" or "timing"
	Name  string
	Value int64
	Tags  map[string]string
}

// RecordingMetrics captures metrics instead of sending them.
type RecordingMetrics struct {
	mu      sync.Mutex
	metrics []Metric
}

func (r *RecordingMetrics) Count(name string, value int64, tags map[string]string) {
	r.record(Metric{Kind: "count", Name: name, Value: value, Tags: tags})
}

func (r *RecordingMetrics) Timing(name string, value time.Duration, tags map[string]string) {
	r.record(Metric{Kind: "timing", Name: name, Value: value.Milliseconds(), Tags: tags})
}

func (r *RecordingMetrics) record(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, m)
}

// Named returns the recorded samples with the given name.
func (r *RecordingMetrics) Named(name string) []Metric {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Metric
	for _, m := range r.metrics {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}
