package listener

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/keyxmakerx/qollect/internal/client/mirror"
	"github.com/keyxmakerx/qollect/internal/plugins/products"
	"github.com/keyxmakerx/qollect/internal/plugins/testdata"
	"github.com/keyxmakerx/qollect/internal/realtime"
)

// --- Mocks ---

// fakeSource records handlers per table so tests can push events.
type fakeSource struct {
	mu       sync.Mutex
	handlers map[string]func(realtime.Event)
	closed   int
	failOn   string
}

func newFakeSource() *fakeSource {
	return &fakeSource{handlers: map[string]func(realtime.Event){}}
}

func (f *fakeSource) Subscribe(_ context.Context, table string, handler func(realtime.Event)) (realtime.Subscription, error) {
	if table == f.failOn {
		return nil, errors.New("subscribe refused")
	}
	f.mu.Lock()
	f.handlers[table] = handler
	f.mu.Unlock()
	return subFunc(func() error {
		f.mu.Lock()
		f.closed++
		delete(f.handlers, table)
		f.mu.Unlock()
		return nil
	}), nil
}

func (f *fakeSource) push(t *testing.T, ev realtime.Event) {
	t.Helper()
	f.mu.Lock()
	h := f.handlers[ev.Table]
	f.mu.Unlock()
	if h == nil {
		t.Fatalf("no subscription for %s", ev.Table)
	}
	h(ev)
}

type subFunc func() error

func (s subFunc) Close() error { return s() }

func event(t *testing.T, table string, typ realtime.EventType, newRow, oldRow any) realtime.Event {
	t.Helper()
	ev, err := realtime.NewEvent(table, typ, newRow, oldRow)
	if err != nil {
		t.Fatalf("building event: %v", err)
	}
	return ev
}

// --- Tests ---

func TestApply_InsertUpdateDelete(t *testing.T) {
	store := mirror.New(mirror.Ordered(products.Less))
	store.ReplaceAll([]products.Product{{ID: "a", Name: "A", DisplayOrder: 1}, {ID: "b", Name: "B", DisplayOrder: 3}})

	Apply(store, event(t, realtime.TableProducts, realtime.Insert, products.Product{ID: "c", Name: "C", DisplayOrder: 2}, nil), nil)
	if got := store.GetAll(); got[1].ID != "c" {
		t.Errorf("expected inserted product sorted into place, got %v", got)
	}

	Apply(store, event(t, realtime.TableProducts, realtime.Update, products.Product{ID: "a", Name: "A", DisplayOrder: 9}, nil), nil)
	if got := store.GetAll(); got[2].ID != "a" {
		t.Errorf("expected updated product re-sorted, got %v", got)
	}

	Apply(store, event(t, realtime.TableProducts, realtime.Delete, nil, map[string]string{"id": "b"}), nil)
	if _, ok := store.Get("b"); ok {
		t.Error("expected b removed")
	}
}

func TestApply_IdempotentRedelivery(t *testing.T) {
	once := mirror.New(mirror.InsertHead[testdata.TestData]())
	many := mirror.New(mirror.InsertHead[testdata.TestData]())
	seed := []testdata.TestData{{ID: "t1", Name: "Old"}}
	once.ReplaceAll(seed)
	many.ReplaceAll(seed)

	insert := event(t, realtime.TableTestData, realtime.Insert, testdata.TestData{ID: "t2", Name: "New"}, nil)
	del := event(t, realtime.TableTestData, realtime.Delete, nil, map[string]string{"id": "t1"})

	Apply(once, insert, nil)
	Apply(once, del, nil)
	for n := 0; n < 3; n++ {
		Apply(many, insert, nil)
		Apply(many, del, nil)
	}

	if !reflect.DeepEqual(once.GetAll(), many.GetAll()) {
		t.Errorf("redelivery changed the snapshot: %v vs %v", once.GetAll(), many.GetAll())
	}
	if got := once.GetAll(); len(got) != 1 || got[0].ID != "t2" {
		t.Errorf("unexpected snapshot %v", got)
	}
}

func TestApply_InsertGoesToHeadOfFeed(t *testing.T) {
	store := mirror.New(mirror.InsertHead[testdata.TestData]())
	store.ReplaceAll([]testdata.TestData{{ID: "t1"}, {ID: "t0"}})

	Apply(store, event(t, realtime.TableTestData, realtime.Insert, testdata.TestData{ID: "t2"}, nil), nil)

	if got := store.GetAll(); got[0].ID != "t2" {
		t.Errorf("expected newest first, got %v", got)
	}
}

func TestApply_AcceptFiltersRows(t *testing.T) {
	store := mirror.New(mirror.InsertHead[testdata.TestData]())
	store.ReplaceAll([]testdata.TestData{{ID: "t1", ProductID: "p1"}})
	filter := testdata.Filter{ProductID: "p1"}

	Apply(store, event(t, realtime.TableTestData, realtime.Insert, testdata.TestData{ID: "t2", ProductID: "p2"}, nil), filter.Matches)
	if _, ok := store.Get("t2"); ok {
		t.Error("row outside the filter must not be inserted")
	}

	Apply(store, event(t, realtime.TableTestData, realtime.Update, testdata.TestData{ID: "t1", ProductID: "p2"}, nil), filter.Matches)
	if _, ok := store.Get("t1"); ok {
		t.Error("row moved outside the filter must be removed")
	}
}

func TestApply_DropsMalformedEvents(t *testing.T) {
	store := mirror.New(mirror.InsertTail[products.Product]())
	store.ReplaceAll([]products.Product{{ID: "a"}})
	v := store.Version()

	Apply(store, realtime.Event{Table: "products", Type: realtime.Insert, New: []byte(`{"name":"no id"}`)}, nil)
	Apply(store, realtime.Event{Table: "products", Type: realtime.Update, New: []byte(`not json`)}, nil)
	Apply(store, realtime.Event{Table: "products", Type: realtime.Delete}, nil)
	Apply(store, realtime.Event{Table: "products", Type: "TRUNCATE"}, nil)

	if store.Version() != v {
		t.Error("malformed events must not touch the store")
	}
}

func TestListener_StartBindAndClose(t *testing.T) {
	src := newFakeSource()
	l := New(src)
	prods := mirror.New(mirror.Ordered(products.Less))
	feed := mirror.New(mirror.InsertHead[testdata.TestData]())

	if err := Bind(l, realtime.TableProducts, prods); err != nil {
		t.Fatal(err)
	}
	if err := Bind(l, realtime.TableTestData, feed); err != nil {
		t.Fatal(err)
	}
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Bind(l, realtime.TableModules, prods); err == nil {
		t.Error("expected error binding after start")
	}

	src.push(t, event(t, realtime.TableProducts, realtime.Insert, products.Product{ID: "p1"}, nil))
	src.push(t, event(t, realtime.TableTestData, realtime.Insert, testdata.TestData{ID: "t1"}, nil))
	if prods.Len() != 1 || feed.Len() != 1 {
		t.Errorf("expected events routed per table, got %d products and %d test data", prods.Len(), feed.Len())
	}

	if err := l.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if src.closed != 2 {
		t.Errorf("expected 2 subscriptions closed, got %d", src.closed)
	}
}

func TestListener_StartFailureClosesEarlierSubscriptions(t *testing.T) {
	src := newFakeSource()
	src.failOn = realtime.TableTestData
	l := New(src)
	_ = Bind(l, realtime.TableProducts, mirror.New(mirror.Ordered(products.Less)))
	_ = Bind(l, realtime.TableTestData, mirror.New(mirror.InsertHead[testdata.TestData]()))

	if err := l.Start(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	if src.closed != 1 {
		t.Errorf("expected the products subscription to be closed, got %d", src.closed)
	}
}
