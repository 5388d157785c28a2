package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/qollect/internal/config"
)

// NewRedis connects to the realtime feed's Redis. The API server publishes
// through it and the sync client subscribes.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	if err := waitReady(ctx, "redis", StartupBackoff, ping); err != nil {
		rdb.Close()
		return nil, err
	}
	return rdb, nil
}
