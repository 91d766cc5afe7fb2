package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/medplus/medplus-client/internal/errors"
	obserrors "github.com/medplus/medplus-client/internal/observability/errors"
	"github.com/medplus/medplus-client/internal/observability/notify"
	"github.com/medplus/medplus-client/internal/observability/statsd"
	"golang.org/x/sync/errgroup"
)

// FetchFunc loads one snapshot of data. It must honour ctx cancellation.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Ticker is the subset of *time.Ticker the refresher needs.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) Chan() <-chan time.Time { return t.C }

// NewTimeTicker adapts time.NewTicker to Ticker.
func NewTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// RefresherOptions groups dependencies for Refresher.
type RefresherOptions[T any] struct {
	// Name labels logs, metrics and notices, e.g. "painel do médico".
	Name     string
	Fetch    FetchFunc[T]
	Interval time.Duration
	Logger   *slog.Logger
	Notifier notify.Sink
	Metrics  statsd.Sink
	// NewTicker overrides the tick source. Defaults to NewTimeTicker.
	NewTicker func(time.Duration) Ticker
}

// View is what a dashboard renders: the newest applied data plus status.
type View[T any] struct {
	Data       T
	Seq        uint64 // sequence of the fetch that produced Data
	Loaded     bool
	Refreshing bool
	LastErr    error
	UpdatedAt  time.Time
}

// Refresher keeps a View fresh by fetching once in the foreground and then
// on every tick in the background.
//
// Fetches may overlap when one outlives the interval. Every fetch takes a
// sequence number when issued and its result is applied only if no later
// fetch has been applied already. Failures never clear data.
type Refresher[T any] struct {
	name      string
	fetch     FetchFunc[T]
	interval  time.Duration
	logger    *slog.Logger
	notifier  notify.Sink
	metrics   statsd.Sink
	newTicker func(time.Duration) Ticker

	seq atomic.Uint64

	mu       sync.Mutex
	view     View[T]
	applied  uint64
	inflight int
	handle   *Handle
	updates  chan View[T]
}

// Handle controls one started refresh loop.
type Handle struct {
	cancel  context.CancelFunc
	group   *errgroup.Group
	notices sync.WaitGroup
	once    sync.Once
	done    chan struct{}
}

// Cancel stops the ticker, cancels in-flight fetches and waits for them and
// for failure notices already being delivered. Results that arrive after
// cancellation are dropped. Safe to call more than once.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.cancel()
		_ = h.group.Wait()
		h.notices.Wait()
		close(h.done)
	})
}

// Done is closed once Cancel has finished.
func (h *Handle) Done() <-chan struct{} { return h.done }

// NewRefresher constructs a Refresher.
func NewRefresher[T any](opts RefresherOptions[T]) (*Refresher[T], error) {
	if opts.Fetch == nil {
		return nil, errors.New("fetch function is required")
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", opts.Interval)
	}
	name := opts.Name
	if name == "" {
		name = "dados"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = (*statsd.Client)(nil)
	}
	newTicker := opts.NewTicker
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	return &Refresher[T]{
		name:      name,
		fetch:     opts.Fetch,
		interval:  opts.Interval,
		logger:    logger.With("component", "refresher", "refresher", name),
		notifier:  opts.Notifier,
		metrics:   metrics,
		newTicker: newTicker,
		updates:   make(chan View[T], 1),
	}, nil
}

// Start issues the foreground fetch and begins ticking. A previous handle of
// this refresher is cancelled first, so one refresher never runs two loops.
func (r *Refresher[T]) Start(ctx context.Context) *Handle {
	r.mu.Lock()
	prev := r.handle
	r.mu.Unlock()
	prev.Cancel()

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	h := &Handle{cancel: cancel, group: g, done: make(chan struct{})}

	r.mu.Lock()
	r.handle = h
	r.mu.Unlock()

	ticker := r.newTicker(r.interval)
	r.launch(gctx, h, true)
	g.Go(func() error {
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.Chan():
				r.launch(gctx, h, false)
			}
		}
	})

	r.logger.DebugContext(ctx, "refresher started", "interval", r.interval)
	return h
}

// Snapshot returns the current view.
func (r *Refresher[T]) Snapshot() View[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

// Updates delivers the latest view after every change. Only the newest
// undelivered view is kept.
func (r *Refresher[T]) Updates() <-chan View[T] { return r.updates }

func (r *Refresher[T]) launch(ctx context.Context, h *Handle, foreground bool) {
	seq := r.seq.Add(1)

	r.mu.Lock()
	r.inflight++
	r.view.Refreshing = true
	r.publishLocked()
	r.mu.Unlock()

	h.group.Go(func() error {
		start := time.Now()
		data, err := r.fetch(ctx)
		r.apply(ctx, h, seq, foreground, data, err, time.Since(start))
		return nil
	})
}

func (r *Refresher[T]) apply(ctx context.Context, h *Handle, seq uint64, foreground bool, data T, err error, elapsed time.Duration) {
	mode := "background"
	if foreground {
		mode = "foreground"
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight--

	if ctx.Err() != nil {
		r.view.Refreshing = r.inflight > 0
		r.count(mode, "dropped")
		return
	}

	r.metrics.Timing("refresher.fetch.duration", elapsed, map[string]string{"name": r.name, "mode": mode})
	switch {
	case err != nil:
		r.count(mode, obserrors.Classify(err))
		if seq > r.applied {
			r.view.LastErr = err
		}
		r.reportLocked(ctx, h, foreground, seq, err)
	case seq > r.applied:
		r.applied = seq
		r.view.Data = data
		r.view.Seq = seq
		r.view.Loaded = true
		r.view.LastErr = nil
		r.view.UpdatedAt = time.Now()
		r.count(mode, "ok")
	default:
		r.count(mode, "stale")
		r.logger.DebugContext(ctx, "discarding stale result", "seq", seq, "applied", r.applied)
	}

	r.view.Refreshing = r.inflight > 0
	r.publishLocked()
}

func (r *Refresher[T]) reportLocked(ctx context.Context, h *Handle, foreground bool, seq uint64, err error) {
	level := notify.LevelWarn
	if foreground {
		level = notify.LevelError
	}
	r.logger.Log(ctx, levelFor(level), "refresh failed", "seq", seq, "foreground", foreground, "error", err)

	msg := fmt.Sprintf("Não foi possível atualizar %s: %s", r.name, apperrors.UserMessage(err, "; "))
	// Delivered off the lock so a slow sink never stalls fetches; Cancel waits for it.
	h.notices.Add(1)
	go func() {
		defer h.notices.Done()
		notify.Send(context.WithoutCancel(ctx), r.notifier, r.logger, level, "refresher", msg)
	}()
}

func (r *Refresher[T]) publishLocked() {
	select {
	case <-r.updates:
	default:
	}
	r.updates <- r.view
}

func (r *Refresher[T]) count(mode, outcome string) {
	r.metrics.Count("refresher.fetch", 1, map[string]string{"name": r.name, "mode": mode, "outcome": outcome})
}

func levelFor(l notify.Level) slog.Level {
	if l == notify.LevelError {
		return slog.LevelError
	}
	return slog.LevelWarn
}
