package optimistic

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/keyxmakerx/qollect/internal/client/mirror"
	"github.com/keyxmakerx/qollect/internal/plugins/products"
)

type rec struct {
	ID     string
	Name   string
	Active bool
}

func (r rec) GetID() string { return r.ID }

var errRemote = errors.New("service unavailable")

func seeded(items ...rec) *mirror.Store[rec] {
	s := mirror.New(mirror.InsertTail[rec]())
	s.ReplaceAll(items)
	return s
}

// recorder collects transitions for assertions.
type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) observe(t Transition) {
	r.mu.Lock()
	r.states = append(r.states, t.State)
	r.mu.Unlock()
}

func TestExecute_AppliesBeforeRemoteAndCommits(t *testing.T) {
	store := seeded(rec{ID: "a", Name: "old"})
	rcd := &recorder{}
	c := New("record", store, WithObserver[rec](rcd.observe))

	var seenDuringRemote rec
	got, err := c.Update(context.Background(), "a",
		func(r rec) rec { r.Name = "new"; return r },
		func(context.Context) (rec, error) {
			seenDuringRemote, _ = store.Get("a")
			return rec{ID: "a", Name: "NEW (server)"}, nil
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenDuringRemote.Name != "new" {
		t.Errorf("expected optimistic value before remote call, saw %+v", seenDuringRemote)
	}
	if cur, _ := store.Get("a"); cur != got || cur.Name != "NEW (server)" {
		t.Errorf("expected server value committed, got %+v", cur)
	}
	if !reflect.DeepEqual(rcd.states, []State{Applied, Committed}) {
		t.Errorf("unexpected transitions %v", rcd.states)
	}
}

func TestExecute_RollbackRestoresExactSnapshot(t *testing.T) {
	s0 := []rec{{ID: "a"}, {ID: "b", Name: "orig", Active: true}, {ID: "c"}}
	store := seeded(s0...)
	rcd := &recorder{}
	c := New("record", store, WithObserver[rec](rcd.observe))

	_, err := c.Update(context.Background(), "b",
		func(r rec) rec { r.Name = "changed"; r.Active = false; return r },
		func(context.Context) (rec, error) { return rec{}, errRemote },
	)

	var mErr *MutationError
	if !errors.As(err, &mErr) {
		t.Fatalf("expected MutationError, got %v", err)
	}
	if mErr.ID != "b" || mErr.Op != OpUpdate || mErr.Entity != "record" || !errors.Is(err, errRemote) {
		t.Errorf("unexpected error fields %+v", mErr)
	}
	if !reflect.DeepEqual(store.GetAll(), s0) {
		t.Errorf("expected snapshot %v, got %v", s0, store.GetAll())
	}
	if !reflect.DeepEqual(rcd.states, []State{Applied, RolledBack}) {
		t.Errorf("unexpected transitions %v", rcd.states)
	}
}

func TestExecute_CreateSwapsTemporaryID(t *testing.T) {
	store := seeded(rec{ID: "a"})
	c := New("record", store)

	_, err := c.Execute(context.Background(), Mutation[rec]{
		Op:     OpCreate,
		ID:     "tmp-1",
		Local:  func(rec, bool) (rec, bool) { return rec{ID: "tmp-1", Name: "draft"}, true },
		Remote: func(context.Context) (rec, error) { return rec{ID: "srv-9", Name: "draft"}, nil },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.Get("tmp-1"); ok {
		t.Error("temporary id must be gone after commit")
	}
	if _, ok := store.Get("srv-9"); !ok || store.Len() != 2 {
		t.Errorf("expected server row added, got %v", store.GetAll())
	}
}

func TestExecute_FailedCreateLeavesNoTrace(t *testing.T) {
	store := seeded(rec{ID: "a"})
	c := New("record", store)

	_, err := c.Execute(context.Background(), Mutation[rec]{
		Op:     OpCreate,
		ID:     "tmp-1",
		Local:  func(rec, bool) (rec, bool) { return rec{ID: "tmp-1"}, true },
		Remote: func(context.Context) (rec, error) { return rec{}, errRemote },
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !reflect.DeepEqual(store.GetAll(), []rec{{ID: "a"}}) {
		t.Errorf("expected original contents, got %v", store.GetAll())
	}
}

func TestExecute_DeleteRollbackKeepsPosition(t *testing.T) {
	s0 := []rec{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	store := seeded(s0...)
	c := New("record", store)

	remove := func(remote func(context.Context) (rec, error)) error {
		_, err := c.Execute(context.Background(), Mutation[rec]{
			Op:      OpDelete,
			ID:      "b",
			Local:   func(r rec, _ bool) (rec, bool) { return r, false },
			Remote:  remote,
			Discard: true,
		})
		return err
	}

	if err := remove(func(context.Context) (rec, error) { return rec{}, errRemote }); err == nil {
		t.Fatal("expected error")
	}
	if !reflect.DeepEqual(store.GetAll(), s0) {
		t.Errorf("expected b restored in place, got %v", store.GetAll())
	}

	if err := remove(func(context.Context) (rec, error) { return rec{}, nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.Get("b"); ok {
		t.Error("expected b removed after commit")
	}
}

func TestUpdate_NotLoaded(t *testing.T) {
	c := New("record", seeded())
	called := false

	_, err := c.Update(context.Background(), "ghost",
		func(r rec) rec { return r },
		func(context.Context) (rec, error) { called = true; return rec{}, nil },
	)
	if !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
	if called {
		t.Error("remote must not be called for an unknown id")
	}
}

func flipActive(r rec) rec { r.Active = !r.Active; return r }

func TestToggle_PendingBlocksSameIDOnly(t *testing.T) {
	store := seeded(rec{ID: "a"}, rec{ID: "b"})
	c := New("record", store)

	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := c.Toggle(context.Background(), "a", flipActive, func(_ context.Context, next rec) (rec, error) {
			close(started)
			<-release
			return next, nil
		})
		done <- err
	}()
	<-started

	if cur, _ := store.Get("a"); !cur.Active {
		t.Fatal("expected optimistic toggle visible while in flight")
	}
	if !c.Pending("a") {
		t.Error("expected a to be pending")
	}
	if _, err := c.Toggle(context.Background(), "a", flipActive, nil); !errors.Is(err, ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
	if _, err := c.Toggle(context.Background(), "b", flipActive, func(_ context.Context, next rec) (rec, error) {
		return next, nil
	}); err != nil {
		t.Fatalf("toggle on another id must not be blocked: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Pending("a") {
		t.Error("expected pending flag cleared")
	}

	// The next toggle starts from the committed value, not the original.
	got, err := c.Toggle(context.Background(), "a", flipActive, func(_ context.Context, next rec) (rec, error) {
		return next, nil
	})
	if err != nil || got.Active {
		t.Errorf("expected a toggled back to inactive, got %+v err=%v", got, err)
	}
}

func TestToggle_FailureRestoresAndReleases(t *testing.T) {
	store := seeded(rec{ID: "a", Active: true})
	c := New("record", store)

	_, err := c.Toggle(context.Background(), "a", flipActive, func(context.Context, rec) (rec, error) {
		return rec{}, errRemote
	})
	var mErr *MutationError
	if !errors.As(err, &mErr) || mErr.Op != OpToggle {
		t.Fatalf("expected toggle MutationError, got %v", err)
	}
	if cur, _ := store.Get("a"); !cur.Active {
		t.Error("expected active state restored")
	}
	if c.Pending("a") {
		t.Error("pending flag must be cleared after failure")
	}
}

func TestExecuteBatch_ReorderRenumbersAndRollsBack(t *testing.T) {
	store := mirror.New(mirror.Ordered(products.Less))
	store.ReplaceAll([]products.Product{
		{ID: "a", Name: "A", DisplayOrder: 10},
		{ID: "b", Name: "B", DisplayOrder: 20},
		{ID: "c", Name: "C", DisplayOrder: 30},
		{ID: "d", Name: "D", DisplayOrder: 40},
	})
	before := store.GetAll()

	resyncCalls := 0
	c := New("product", store, WithResync[products.Product](func(context.Context) error {
		resyncCalls++
		return nil
	}))

	next, err := products.Reorder(store.GetAll(), 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = c.ExecuteBatch(context.Background(), OpReorder, next, func(context.Context) ([]products.Product, error) {
		return nil, errRemote
	})
	var mErr *MutationError
	if !errors.As(err, &mErr) || mErr.Op != OpReorder {
		t.Fatalf("expected reorder MutationError, got %v", err)
	}
	if !reflect.DeepEqual(store.GetAll(), before) {
		t.Errorf("expected full batch rollback, got %v", store.GetAll())
	}
	if mErr.Resync == nil || resyncCalls != 0 {
		t.Error("resync must be offered but not run")
	}
	if err := mErr.Resync(context.Background()); err != nil || resyncCalls != 1 {
		t.Error("expected resync hook to run when invoked")
	}

	_, err = c.ExecuteBatch(context.Background(), OpReorder, next, func(context.Context) ([]products.Product, error) {
		return next, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := store.GetAll()
	wantIDs := []string{"d", "a", "b", "c"}
	for i, p := range got {
		if p.ID != wantIDs[i] || p.DisplayOrder != i+1 {
			t.Errorf("position %d: got %s/%d, want %s/%d", i, p.ID, p.DisplayOrder, wantIDs[i], i+1)
		}
	}
}

func TestDelete_SoftKeepsDeactivatedRow(t *testing.T) {
	store := seeded(rec{ID: "a", Active: true}, rec{ID: "b", Active: true})
	c := New("record", store)
	deactivate := func(r rec) rec { r.Active = false; return r }

	if err := c.Delete(context.Background(), "a", deactivate, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cur, ok := store.Get("a"); !ok || cur.Active {
		t.Errorf("expected a kept but inactive, got %+v ok=%v", cur, ok)
	}

	err := c.Delete(context.Background(), "b", deactivate, func(context.Context) error { return errRemote })
	if !errors.Is(err, errRemote) {
		t.Fatalf("expected remote error, got %v", err)
	}
	if cur, _ := store.Get("b"); !cur.Active {
		t.Error("expected b reactivated after rollback")
	}
}

func TestDelete_HardAndNotLoaded(t *testing.T) {
	store := seeded(rec{ID: "a"})
	c := New("record", store)

	if err := c.Delete(context.Background(), "a", nil, func(context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.Len() != 0 {
		t.Error("expected hard delete to remove the row")
	}
	if err := c.Delete(context.Background(), "a", nil, func(context.Context) error { return nil }); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
}
