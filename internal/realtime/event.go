// Package realtime carries row-change notifications from the API server to
// sync clients. The server publishes one Event per committed write on a
// Redis pub/sub channel per table; clients subscribe to the tables they
// mirror. Delivery is at-least-once from the subscriber's point of view and
// unordered relative to direct API responses.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// EventType is the kind of row change an Event describes.
type EventType string

const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// Table names as they appear on the wire. Each matches its SQL table.
const (
	TableProducts       = "products"
	TableModules        = "modules"
	TableCategories     = "categories"
	TableProductModules = "product_modules"
	TableTestData       = "test_data"
)

// Event describes one committed row change. New is set for INSERT and
// UPDATE; Old is set for DELETE and carries at least the row id.
type Event struct {
	Table           string          `json:"table"`
	Type            EventType       `json:"type"`
	New             json.RawMessage `json:"new,omitempty"`
	Old             json.RawMessage `json:"old,omitempty"`
	CommitTimestamp time.Time       `json:"commit_timestamp"`
}

// OldID extracts the "id" field from Old. Returns "" if Old is empty or
// does not carry an id.
func (e Event) OldID() string {
	if len(e.Old) == 0 {
		return ""
	}
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(e.Old, &ref); err != nil {
		return ""
	}
	return ref.ID
}

// NewEvent builds an Event for table. newRow is marshaled into New and
// oldRow into Old; pass nil for whichever side the event type lacks.
func NewEvent(table string, typ EventType, newRow, oldRow any) (Event, error) {
	ev := Event{Table: table, Type: typ, CommitTimestamp: time.Now().UTC()}
	if newRow != nil {
		raw, err := json.Marshal(newRow)
		if err != nil {
			return Event{}, fmt.Errorf("encoding new row: %w", err)
		}
		ev.New = raw
	}
	if oldRow != nil {
		raw, err := json.Marshal(oldRow)
		if err != nil {
			return Event{}, fmt.Errorf("encoding old row: %w", err)
		}
		ev.Old = raw
	}
	return ev, nil
}

// Publisher sends events to subscribers. Services depend on this interface
// so they can be tested without Redis.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber delivers events for one table to handler until the returned
// Subscription is closed or ctx is cancelled.
type Subscriber interface {
	Subscribe(ctx context.Context, table string, handler func(Event)) (Subscription, error)
}

// Subscription is a live subscription to one table's channel.
type Subscription interface {
	Close() error
}

// Notify builds and publishes an event, logging instead of returning any
// failure. Callers use it after the row is already committed, when there
// is nothing left to undo.
func Notify(ctx context.Context, pub Publisher, table string, typ EventType, newRow, oldRow any) {
	if pub == nil {
		return
	}
	ev, err := NewEvent(table, typ, newRow, oldRow)
	if err == nil {
		err = pub.Publish(ctx, ev)
	}
	if err != nil {
		slog.Warn("realtime publish failed",
			slog.String("table", table),
			slog.String("type", string(typ)),
			slog.Any("error", err),
		)
	}
}
