// Package main runs a headless Qollect sync client. It loads every
// collection from the API, follows the realtime feed and logs the mirror
// whenever it changes. Useful for watching the sync layer against a live
// server.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/keyxmakerx/qollect/internal/client"
	"github.com/keyxmakerx/qollect/internal/client/gateway"
	"github.com/keyxmakerx/qollect/internal/config"
	"github.com/keyxmakerx/qollect/internal/database"
	"github.com/keyxmakerx/qollect/internal/plugins/testdata"
	"github.com/keyxmakerx/qollect/internal/realtime"
)

func main() {
	var f testdata.Filter
	flag.StringVar(&f.ProductID, "product", "", "only show test data for this product id")
	flag.StringVar(&f.ModuleID, "module", "", "only show test data for this module id")
	flag.StringVar(&f.CategoryID, "category", "", "only show test data for this category id")
	flag.StringVar(&f.Search, "search", "", "case-insensitive text search over test data")
	flag.Parse()

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	setupLogging(cfg)

	if cfg.Client.APIKey == "" {
		slog.Error("QOLLECT_API_KEY is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connect to the realtime feed ---
	rdb, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		slog.Error("failed to connect to Redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer rdb.Close()
	broker := realtime.NewBroker(rdb, cfg.Redis.ChannelPrefix)

	// --- Build the sync session ---
	api := gateway.NewClient(cfg.Client.APIURL, cfg.Client.APIKey, cfg.Client.RequestTimeout)
	session := client.NewFromGateways(gateway.New(api), broker, client.Options{
		FilterDebounce: cfg.Client.FilterDebounce,
	})
	defer session.Close()

	if err := session.Start(ctx); err != nil {
		slog.Error("failed to start sync session", slog.Any("error", err))
		os.Exit(1)
	}
	if !f.IsZero() {
		if err := session.LoadTestData(ctx, f); err != nil {
			slog.Error("failed to load filtered test data", slog.Any("error", err))
			os.Exit(1)
		}
	}

	// Coalesce bursts of changes into one log line per second.
	changed := make(chan struct{}, 1)
	cancel := session.OnChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer cancel()

	logState(session)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	dirty := false
	for {
		select {
		case <-ctx.Done():
			slog.Info("sync client stopping")
			return
		case <-changed:
			dirty = true
		case <-ticker.C:
			if dirty {
				logState(session)
				dirty = false
			}
		}
	}
}

func logState(s *client.Session) {
	f := s.Filter()
	slog.Info("mirror state",
		slog.Int("products", len(s.ActiveProducts())),
		slog.Int("modules", len(s.ActiveModules())),
		slog.Int("categories", len(s.ActiveCategories())),
		slog.Int("product_modules", len(s.ProductModules())),
		slog.Int("test_data", len(s.TestData())),
		slog.String("filter_product", f.ProductID),
		slog.String("filter_search", f.Search),
	)
}

// setupLogging configures the global slog logger: text in development,
// JSON otherwise.
func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
