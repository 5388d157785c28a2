// Package mirror holds the in-memory copy of each remote collection that
// the sync client presents. A Store is the only place the client keeps
// entity state; every writer (optimistic mutations, realtime events, filter
// reloads) goes through its Upsert/Remove/Patch/ReplaceAll methods, so
// readers always observe whole-entity replacements.
package mirror

import (
	"slices"
	"sync"
)

// Entity is anything keyed by a string identifier.
type Entity interface {
	GetID() string
}

// Placement decides where Upsert puts an entity whose id is not yet in the
// store, and whether the store keeps a sort order.
type Placement[E Entity] struct {
	head bool
	less func(a, b E) bool
}

// InsertHead places new entities first, for newest-first feeds.
func InsertHead[E Entity]() Placement[E] { return Placement[E]{head: true} }

// InsertTail places new entities last.
func InsertTail[E Entity]() Placement[E] { return Placement[E]{} }

// Ordered keeps the store stably sorted by less after every write.
func Ordered[E Entity](less func(a, b E) bool) Placement[E] {
	return Placement[E]{less: less}
}

// Store is a goroutine-safe ordered collection of entities, unique by id.
type Store[E Entity] struct {
	placement Placement[E]

	mu      sync.RWMutex
	items   []E
	version uint64

	lmu       sync.Mutex
	listeners map[int]func()
	nextID    int
}

// New creates an empty store with the given placement policy.
func New[E Entity](placement Placement[E]) *Store[E] {
	return &Store[E]{placement: placement, listeners: make(map[int]func())}
}

// --- Reads ---

// GetAll returns a copy of the current snapshot in display order.
func (s *Store[E]) GetAll() []E {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Filter returns the entities for which keep returns true, in order.
func (s *Store[E]) Filter(keep func(E) bool) []E {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []E
	for _, e := range s.items {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Get returns the entity with the given id.
func (s *Store[E]) Get(id string) (E, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	var zero E
	return zero, false
}

// IndexOf returns the position of id, or -1.
func (s *Store[E]) IndexOf(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id)
}

// Lookup returns id's entity and position from one consistent read, or
// (zero, -1, false).
func (s *Store[E]) Lookup(id string) (E, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], i, true
	}
	var zero E
	return zero, -1, false
}

// Len returns the number of entities held.
func (s *Store[E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Version increases on every write that changed the store.
func (s *Store[E]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// --- Writes ---

// ReplaceAll swaps the whole snapshot. Later duplicates of an id replace
// earlier ones in place.
func (s *Store[E]) ReplaceAll(items []E) {
	next := make([]E, 0, len(items))
	seen := make(map[string]int, len(items))
	for _, e := range items {
		if i, ok := seen[e.GetID()]; ok {
			next[i] = e
			continue
		}
		seen[e.GetID()] = len(next)
		next = append(next, e)
	}

	s.mu.Lock()
	s.items = next
	s.sortLocked()
	s.version++
	s.mu.Unlock()
	s.notify()
}

// Upsert replaces the entity with the same id in place, or inserts it
// according to the placement policy. Ordered stores re-sort afterwards.
func (s *Store[E]) Upsert(e E) {
	s.mu.Lock()
	if i := s.indexOf(e.GetID()); i >= 0 {
		s.items[i] = e
	} else if s.placement.head {
		s.items = slices.Insert(s.items, 0, e)
	} else {
		s.items = append(s.items, e)
	}
	s.sortLocked()
	s.version++
	s.mu.Unlock()
	s.notify()
}

// Remove deletes id. Absent ids are a no-op; the return value reports
// whether anything was removed.
func (s *Store[E]) Remove(id string) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.items = slices.Delete(s.items, i, i+1)
	s.version++
	s.mu.Unlock()
	s.notify()
	return true
}

// Patch replaces the entity with fn(current). Absent ids are a no-op.
// fn runs under the store lock and must not call back into the store.
func (s *Store[E]) Patch(id string, fn func(E) E) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	next := fn(s.items[i])
	next = withID(next, s.items[i])
	s.items[i] = next
	s.sortLocked()
	s.version++
	s.mu.Unlock()
	s.notify()
	return true
}

// Restore puts e back at index, moving it there if its id is present.
// Used to undo an optimistic write. Ordered stores re-sort afterwards,
// which leaves e where it was when the snapshot was taken.
func (s *Store[E]) Restore(e E, index int) {
	s.mu.Lock()
	if i := s.indexOf(e.GetID()); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	index = max(0, min(index, len(s.items)))
	s.items = slices.Insert(s.items, index, e)
	s.sortLocked()
	s.version++
	s.mu.Unlock()
	s.notify()
}

// --- Change notification ---

// OnChange registers fn to run after every write. fn runs on the writing
// goroutine, outside the store lock. The returned func unregisters it.
func (s *Store[E]) OnChange(fn func()) (cancel func()) {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.lmu.Unlock()
	return func() {
		s.lmu.Lock()
		delete(s.listeners, id)
		s.lmu.Unlock()
	}
}

func (s *Store[E]) notify() {
	s.lmu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *Store[E]) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(e E) bool { return e.GetID() == id })
}

func (s *Store[E]) sortLocked() {
	if s.placement.less == nil {
		return
	}
	slices.SortStableFunc(s.items, func(a, b E) int {
		switch {
		case s.placement.less(a, b):
			return -1
		case s.placement.less(b, a):
			return 1
		}
		return 0
	})
}

// withID keeps a patch from re-keying an entity: if fn returned a value
// with a different id, the original is kept.
func withID[E Entity](next, current E) E {
	if next.GetID() != current.GetID() {
		return current
	}
	return next
}
