package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Backoff bounds the startup readiness loop.
type Backoff struct {
	Attempts    int
	Initial     time.Duration
	Max         time.Duration
	PingTimeout time.Duration
}

// StartupBackoff is used when a container starts before its dependencies.
var StartupBackoff = Backoff{Attempts: 10, Initial: time.Second, Max: 30 * time.Second, PingTimeout: 5 * time.Second}

// waitReady calls ping until it succeeds, the attempts run out or ctx is
// cancelled. The delay doubles after each failure up to b.Max.
func waitReady(ctx context.Context, name string, b Backoff, ping func(context.Context) error) error {
	delay := b.Initial
	var err error
	for attempt := 1; attempt <= b.Attempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, b.PingTimeout)
		err = ping(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if attempt == b.Attempts {
			break
		}

		slog.Warn(name+" not ready, retrying",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.Any("error", err),
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for %s: %w", name, ctx.Err())
		case <-time.After(delay):
		}
		delay = min(delay*2, b.Max)
	}
	return fmt.Errorf("%s unreachable after %d attempts: %w", name, b.Attempts, err)
}
