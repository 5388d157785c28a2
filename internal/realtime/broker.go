package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Broker publishes and subscribes to change events over Redis pub/sub.
// Channels are named "<prefix>:<table>".
type Broker struct {
	rdb    *redis.Client
	prefix string
}

// NewBroker creates a Broker on an existing Redis client. The client is
// owned by the caller.
func NewBroker(rdb *redis.Client, prefix string) *Broker {
	return &Broker{rdb: rdb, prefix: prefix}
}

// Channel returns the pub/sub channel name for table.
func (b *Broker) Channel(table string) string {
	return b.prefix + ":" + table
}

// Publish sends ev on its table's channel.
func (b *Broker) Publish(ctx context.Context, ev Event) error {
	if ev.Table == "" {
		return fmt.Errorf("realtime event has no table")
	}
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.Channel(ev.Table), raw).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", b.Channel(ev.Table), err)
	}
	return nil
}

// Subscribe starts delivering table's events to handler. It returns once
// Redis has confirmed the subscription, so events published after Subscribe
// returns are not missed. handler runs on a single goroutine per
// subscription, in channel order.
func (b *Broker) Subscribe(ctx context.Context, table string, handler func(Event)) (Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("realtime handler required")
	}

	ps := b.rdb.Subscribe(ctx, b.Channel(table))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", b.Channel(table), err)
	}

	sub := &redisSubscription{ps: ps, done: make(chan struct{})}
	go sub.run(ctx, table, handler)
	return sub, nil
}

type redisSubscription struct {
	ps   *redis.PubSub
	done chan struct{}
	once sync.Once
	err  error
}

func (s *redisSubscription) run(ctx context.Context, table string, handler func(Event)) {
	defer close(s.done)
	ch := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				slog.Warn("dropping undecodable realtime payload",
					slog.String("table", table),
					slog.Any("error", err),
				)
				continue
			}
			handler(ev)
		}
	}
}

func (s *redisSubscription) shutdown() {
	s.once.Do(func() { s.err = s.ps.Close() })
}

// Close stops the subscription and waits for the delivery goroutine to exit.
func (s *redisSubscription) Close() error {
	s.shutdown()
	<-s.done
	return s.err
}
