// Package client is the sync layer's composition root. A Session keeps an
// in-memory mirror of every Qollect collection, applies the caller's
// changes optimistically through one coordinator per entity type, merges
// realtime events and reloads the test data feed when its filter changes.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/keyxmakerx/qollect/internal/client/filter"
	"github.com/keyxmakerx/qollect/internal/client/gateway"
	"github.com/keyxmakerx/qollect/internal/client/listener"
	"github.com/keyxmakerx/qollect/internal/client/mirror"
	"github.com/keyxmakerx/qollect/internal/client/optimistic"
	"github.com/keyxmakerx/qollect/internal/plugins/categories"
	"github.com/keyxmakerx/qollect/internal/plugins/modules"
	"github.com/keyxmakerx/qollect/internal/plugins/productmodules"
	"github.com/keyxmakerx/qollect/internal/plugins/products"
	"github.com/keyxmakerx/qollect/internal/plugins/testdata"
	"github.com/keyxmakerx/qollect/internal/realtime"
)

// Options tunes a Session.
type Options struct {
	// FilterDebounce delays test data reloads after SetFilter. Zero uses
	// filter.DefaultDelay; negative values load on the next tick.
	FilterDebounce time.Duration
}

// Session is one running sync layer.
type Session struct {
	backend Backend

	products       *mirror.Store[products.Product]
	modules        *mirror.Store[modules.Module]
	categories     *mirror.Store[categories.Category]
	productModules *mirror.Store[productmodules.ProductModule]
	testData       *mirror.Store[testdata.TestData]

	productOps       *optimistic.Coordinator[products.Product]
	moduleOps        *optimistic.Coordinator[modules.Module]
	categoryOps      *optimistic.Coordinator[categories.Category]
	productModuleOps *optimistic.Coordinator[productmodules.ProductModule]
	testDataOps      *optimistic.Coordinator[testdata.TestData]

	listener *listener.Listener
	feed     *filter.Facade[testdata.TestData, testdata.Filter]

	ctx    context.Context
	cancel context.CancelFunc

	// newTempID names optimistic rows until the server assigns an id.
	newTempID func() string
}

// New assembles a session. Nothing is loaded or subscribed until Start.
func New(backend Backend, source realtime.Subscriber, opts Options) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		backend:        backend,
		products:       mirror.New(mirror.Ordered(products.Less)),
		modules:        mirror.New(mirror.Ordered(modules.Less)),
		categories:     mirror.New(mirror.Ordered(categories.Less)),
		productModules: mirror.New(mirror.InsertTail[productmodules.ProductModule]()),
		testData:       mirror.New(mirror.InsertHead[testdata.TestData]()),
		listener:       listener.New(source),
		ctx:            ctx,
		cancel:         cancel,
		newTempID:      func() string { return "tmp-" + uuid.NewString() },
	}

	s.productOps = optimistic.New("product", s.products,
		optimistic.WithResync[products.Product](s.RefetchProducts))
	s.moduleOps = optimistic.New("module", s.modules,
		optimistic.WithResync[modules.Module](s.RefetchModules))
	s.categoryOps = optimistic.New("category", s.categories,
		optimistic.WithResync[categories.Category](s.RefetchCategories))
	s.productModuleOps = optimistic.New("product module", s.productModules,
		optimistic.WithResync[productmodules.ProductModule](s.RefetchProductModules))
	s.testDataOps = optimistic.New("test data", s.testData,
		optimistic.WithResync[testdata.TestData](s.RefetchTestData))

	feedOpts := []filter.Option[testdata.TestData, testdata.Filter]{}
	switch {
	case opts.FilterDebounce > 0:
		feedOpts = append(feedOpts, filter.WithDelay[testdata.TestData, testdata.Filter](opts.FilterDebounce))
	case opts.FilterDebounce < 0:
		feedOpts = append(feedOpts, filter.WithDelay[testdata.TestData, testdata.Filter](0))
	}
	s.feed = filter.New(ctx, s.testData, s.listTestData, feedOpts...)

	return s
}

// NewFromGateways is New over the HTTP gateways and a realtime broker.
func NewFromGateways(g *gateway.Gateways, source realtime.Subscriber, opts Options) *Session {
	return New(BackendFrom(g), source, opts)
}

// --- Lifecycle ---

// Start loads every collection in parallel and then subscribes to the
// realtime feed for each table.
func (s *Session) Start(ctx context.Context) error {
	if err := s.Refetch(ctx); err != nil {
		return fmt.Errorf("initial load: %w", err)
	}

	binds := []error{
		listener.Bind(s.listener, realtime.TableProducts, s.products),
		listener.Bind(s.listener, realtime.TableModules, s.modules),
		listener.Bind(s.listener, realtime.TableCategories, s.categories),
		listener.Bind(s.listener, realtime.TableProductModules, s.productModules),
		listener.Bind(s.listener, realtime.TableTestData, s.testData,
			listener.WithAccept(func(td testdata.TestData) bool { return s.feed.Current().Matches(td) })),
	}
	for _, err := range binds {
		if err != nil {
			return err
		}
	}
	if err := s.listener.Start(ctx); err != nil {
		return fmt.Errorf("realtime subscribe: %w", err)
	}

	slog.Info("sync session started",
		slog.Int("products", s.products.Len()),
		slog.Int("modules", s.modules.Len()),
		slog.Int("categories", s.categories.Len()),
		slog.Int("product_modules", s.productModules.Len()),
		slog.Int("test_data", s.testData.Len()),
	)
	return nil
}

// Close stops the filter debounce and tears down realtime subscriptions.
func (s *Session) Close() error {
	s.feed.Stop()
	s.cancel()
	return s.listener.Close()
}

// OnChange registers fn to run after any mirror changes. The returned
// func unregisters it.
func (s *Session) OnChange(fn func()) (cancel func()) {
	cancels := []func(){
		s.products.OnChange(fn),
		s.modules.OnChange(fn),
		s.categories.OnChange(fn),
		s.productModules.OnChange(fn),
		s.testData.OnChange(fn),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

// --- Resync ---

// Refetch reloads every collection in parallel.
func (s *Session) Refetch(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.RefetchProducts(gctx) })
	g.Go(func() error { return s.RefetchModules(gctx) })
	g.Go(func() error { return s.RefetchCategories(gctx) })
	g.Go(func() error { return s.RefetchProductModules(gctx) })
	g.Go(func() error { return s.RefetchTestData(gctx) })
	return g.Wait()
}

// RefetchProducts replaces the product mirror with the server's list,
// inactive products included.
func (s *Session) RefetchProducts(ctx context.Context) error {
	return refetch(ctx, s.products, "products", func(ctx context.Context) ([]products.Product, error) {
		return s.backend.Products.List(ctx, gateway.AllQuery())
	})
}

// RefetchModules replaces the module mirror.
func (s *Session) RefetchModules(ctx context.Context) error {
	return refetch(ctx, s.modules, "modules", func(ctx context.Context) ([]modules.Module, error) {
		return s.backend.Modules.List(ctx, gateway.AllQuery())
	})
}

// RefetchCategories replaces the category mirror.
func (s *Session) RefetchCategories(ctx context.Context) error {
	return refetch(ctx, s.categories, "categories", func(ctx context.Context) ([]categories.Category, error) {
		return s.backend.Categories.List(ctx, gateway.AllQuery())
	})
}

// RefetchProductModules replaces the association mirror.
func (s *Session) RefetchProductModules(ctx context.Context) error {
	return refetch(ctx, s.productModules, "product modules", func(ctx context.Context) ([]productmodules.ProductModule, error) {
		return s.backend.ProductModules.List(ctx, gateway.AllQuery())
	})
}

// RefetchTestData reloads the feed for the current filter.
func (s *Session) RefetchTestData(ctx context.Context) error {
	return s.feed.Reload(ctx)
}

func refetch[E mirror.Entity](ctx context.Context, store *mirror.Store[E], name string, list func(context.Context) ([]E, error)) error {
	rows, err := list(ctx)
	if err != nil {
		return fmt.Errorf("loading %s: %w", name, err)
	}
	store.ReplaceAll(rows)
	return nil
}

func (s *Session) listTestData(ctx context.Context, f testdata.Filter) ([]testdata.TestData, error) {
	rows, err := s.backend.TestData.List(ctx, f.Values())
	if err != nil {
		return nil, fmt.Errorf("loading test data: %w", err)
	}
	return rows, nil
}

// --- Reads ---

// Products returns every product, inactive included, in display order.
func (s *Session) Products() []products.Product { return s.products.GetAll() }

// ActiveProducts returns the active products in display order.
func (s *Session) ActiveProducts() []products.Product {
	return s.products.Filter(func(p products.Product) bool { return p.IsActive })
}

// Product returns one product by id.
func (s *Session) Product(id string) (products.Product, bool) { return s.products.Get(id) }

// Modules returns every module sorted by name.
func (s *Session) Modules() []modules.Module { return s.modules.GetAll() }

// ActiveModules returns the active modules sorted by name.
func (s *Session) ActiveModules() []modules.Module {
	return s.modules.Filter(func(m modules.Module) bool { return m.IsActive })
}

// Categories returns every category sorted by name.
func (s *Session) Categories() []categories.Category { return s.categories.GetAll() }

// ActiveCategories returns the active categories sorted by name.
func (s *Session) ActiveCategories() []categories.Category {
	return s.categories.Filter(func(c categories.Category) bool { return c.IsActive })
}

// ProductModules returns every association in creation order.
func (s *Session) ProductModules() []productmodules.ProductModule { return s.productModules.GetAll() }

// ModulesForProduct returns the active modules with an active association
// to productID, sorted by name.
func (s *Session) ModulesForProduct(productID string) []modules.Module {
	assigned := map[string]bool{}
	for _, pm := range s.productModules.Filter(productmodules.ListFilter{ProductID: productID}.Matches) {
		assigned[pm.ModuleID] = true
	}
	out := s.modules.Filter(func(m modules.Module) bool { return m.IsActive && assigned[m.ID] })
	sort.SliceStable(out, func(i, j int) bool { return modules.Less(out[i], out[j]) })
	return out
}

// TestData returns the current feed, newest first.
func (s *Session) TestData() []testdata.TestData { return s.testData.GetAll() }

// Filter returns the filter the feed was last asked to show.
func (s *Session) Filter() testdata.Filter { return s.feed.Current() }

// SetFilter changes the feed filter; the reload is debounced.
func (s *Session) SetFilter(f testdata.Filter) { s.feed.Set(f) }

// LoadTestData changes the feed filter and reloads immediately.
func (s *Session) LoadTestData(ctx context.Context, f testdata.Filter) error {
	return s.feed.Load(ctx, f)
}
