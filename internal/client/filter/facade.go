// Package filter reloads a mirror store from a filtered server query.
// Rapid filter changes are debounced. Every filter change takes a new
// sequence number when it is requested, and a response is applied only
// if no newer change was requested after it, so a slow stale response
// can never overwrite a newer result, even while the newer one is still
// waiting out its debounce.
package filter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/keyxmakerx/qollect/internal/client/mirror"
)

// ErrStopped is returned by Load and Reload after Stop.
var ErrStopped = errors.New("filter stopped")

// DefaultDelay is the debounce delay used when none is configured.
const DefaultDelay = 300 * time.Millisecond

// Loader fetches the rows matching a filter.
type Loader[E mirror.Entity, F any] func(ctx context.Context, filter F) ([]E, error)

// Facade owns the filtered contents of one store.
type Facade[E mirror.Entity, F any] struct {
	store   *mirror.Store[E]
	load    Loader[E, F]
	delay   time.Duration
	ctx     context.Context
	onError func(error)

	mu      sync.Mutex
	current F
	timer   *time.Timer
	seq     uint64
	stopped bool

	// applyMu serializes the stale check with the store write.
	applyMu sync.Mutex
}

// Option configures a Facade.
type Option[E mirror.Entity, F any] func(*Facade[E, F])

// WithDelay sets the debounce delay. Zero loads on the next tick.
func WithDelay[E mirror.Entity, F any](d time.Duration) Option[E, F] {
	return func(f *Facade[E, F]) { f.delay = d }
}

// WithErrorHandler receives failures of debounced loads, which have no
// caller to return to. The default logs them.
func WithErrorHandler[E mirror.Entity, F any](fn func(error)) Option[E, F] {
	return func(f *Facade[E, F]) { f.onError = fn }
}

// New creates a facade writing to store. Debounced loads run with ctx.
func New[E mirror.Entity, F any](ctx context.Context, store *mirror.Store[E], load Loader[E, F], opts ...Option[E, F]) *Facade[E, F] {
	f := &Facade[E, F]{
		store: store,
		load:  load,
		delay: DefaultDelay,
		ctx:   ctx,
		onError: func(err error) {
			slog.Warn("filtered reload failed", slog.Any("error", err))
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Current returns the most recently requested filter.
func (f *Facade[E, F]) Current() F {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Set records filter and schedules a load after the debounce delay. A
// later Set or Load before the delay elapses cancels this one, and any
// load already in flight becomes stale right away.
func (f *Facade[E, F]) Set(filter F) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq, ok := f.issueLocked(filter)
	if !ok {
		return
	}
	f.timer = time.AfterFunc(f.delay, func() {
		if err := f.run(f.ctx, filter, seq); err != nil {
			f.onError(err)
		}
	})
}

// Load records filter and loads it immediately, cancelling any pending
// debounced load. A nil error with a superseded response means a newer
// load owns the store.
func (f *Facade[E, F]) Load(ctx context.Context, filter F) error {
	f.mu.Lock()
	seq, ok := f.issueLocked(filter)
	f.mu.Unlock()
	if !ok {
		return ErrStopped
	}
	return f.run(ctx, filter, seq)
}

// Reload loads the current filter immediately.
func (f *Facade[E, F]) Reload(ctx context.Context) error {
	return f.Load(ctx, f.Current())
}

// Stop cancels any pending debounced load and discards the response of
// any load in flight. Later Set calls are ignored and Load fails with
// ErrStopped.
func (f *Facade[E, F]) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	f.seq++
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

// issueLocked makes filter current and hands out its sequence number.
// Callers hold f.mu.
func (f *Facade[E, F]) issueLocked(filter F) (uint64, bool) {
	if f.stopped {
		return 0, false
	}
	f.current = filter
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.seq++
	return f.seq, true
}

func (f *Facade[E, F]) run(ctx context.Context, filter F, seq uint64) error {
	rows, err := f.load(ctx, filter)

	f.applyMu.Lock()
	defer f.applyMu.Unlock()
	if latest := f.latest(); seq != latest {
		slog.Debug("discarding superseded filter response",
			slog.Uint64("seq", seq),
			slog.Uint64("latest", latest),
		)
		return nil
	}
	if err != nil {
		return err
	}
	f.store.ReplaceAll(rows)
	return nil
}

func (f *Facade[E, F]) latest() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq
}
