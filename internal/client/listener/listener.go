// Package listener merges realtime row-change events into mirror stores.
// Each bound table gets one subscription for the life of the session.
// Merges are idempotent, so redelivered events leave the store unchanged,
// and they follow arrival order: an event overwrites whatever the store
// holds, including an optimistic value that is still in flight.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/keyxmakerx/qollect/internal/client/mirror"
	"github.com/keyxmakerx/qollect/internal/realtime"
)

// Listener owns the subscriptions of one sync session.
type Listener struct {
	source realtime.Subscriber

	mu       sync.Mutex
	bindings []binding
	subs     []realtime.Subscription
	started  bool
}

type binding struct {
	table   string
	handler func(realtime.Event)
}

// New creates a listener reading from source.
func New(source realtime.Subscriber) *Listener {
	return &Listener{source: source}
}

// BindOption configures one table binding.
type BindOption[E mirror.Entity] func(*bindConfig[E])

type bindConfig[E mirror.Entity] struct {
	accept func(E) bool
}

// WithAccept keeps only rows for which accept returns true. An upsert of
// a row that does not pass removes it from the store instead, so a
// filtered store never holds rows outside its filter.
func WithAccept[E mirror.Entity](accept func(E) bool) BindOption[E] {
	return func(c *bindConfig[E]) { c.accept = accept }
}

// Bind routes events for table into store. Must be called before Start.
func Bind[E mirror.Entity](l *Listener, table string, store *mirror.Store[E], opts ...BindOption[E]) error {
	var cfg bindConfig[E]
	for _, opt := range opts {
		opt(&cfg)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return fmt.Errorf("binding %s after listener start", table)
	}
	l.bindings = append(l.bindings, binding{
		table:   table,
		handler: func(ev realtime.Event) { Apply(store, ev, cfg.accept) },
	})
	return nil
}

// Start subscribes every bound table. If any subscription fails, the ones
// already made are closed.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return nil
	}

	for _, b := range l.bindings {
		sub, err := l.source.Subscribe(ctx, b.table, b.handler)
		if err != nil {
			closeAll(l.subs)
			l.subs = nil
			return fmt.Errorf("subscribing to %s: %w", b.table, err)
		}
		l.subs = append(l.subs, sub)
		slog.Debug("realtime subscription started", slog.String("table", b.table))
	}
	l.started = true
	return nil
}

// Close tears down all subscriptions.
func (l *Listener) Close() error {
	l.mu.Lock()
	subs := l.subs
	l.subs = nil
	l.started = false
	l.mu.Unlock()
	return closeAll(subs)
}

func closeAll(subs []realtime.Subscription) error {
	var errs []error
	for _, s := range subs {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Apply merges one event into store. INSERT and UPDATE upsert the new row
// (or remove it when accept rejects it); DELETE removes the old row's id.
// Malformed events are logged and dropped.
func Apply[E mirror.Entity](store *mirror.Store[E], ev realtime.Event, accept func(E) bool) {
	switch ev.Type {
	case realtime.Insert, realtime.Update:
		var row E
		if err := json.Unmarshal(ev.New, &row); err != nil || row.GetID() == "" {
			slog.Warn("dropping realtime event without a usable row",
				slog.String("table", ev.Table),
				slog.String("type", string(ev.Type)),
				slog.Any("error", err),
			)
			return
		}
		if accept != nil && !accept(row) {
			store.Remove(row.GetID())
			return
		}
		store.Upsert(row)

	case realtime.Delete:
		id := ev.OldID()
		if id == "" {
			slog.Warn("dropping realtime delete without an id", slog.String("table", ev.Table))
			return
		}
		store.Remove(id)

	default:
		slog.Warn("unknown realtime event type",
			slog.String("table", ev.Table),
			slog.String("type", string(ev.Type)),
		)
	}
}
