// Package optimistic applies mutations to a mirror store before the server
// confirms them, and undoes them when the server refuses or cannot be
// reached.
//
// Each mutation moves through Idle -> Applied -> Committed or RolledBack.
// The local write always happens before the remote call starts; a rollback
// always finishes before the error is returned.
package optimistic

import (
	"context"
	"log/slog"
	"sync"

	"github.com/keyxmakerx/qollect/internal/client/mirror"
)

// State is the phase of one mutation.
type State int

const (
	Idle State = iota
	Applied
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Applied:
		return "applied"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	}
	return "unknown"
}

// Transition is reported to an observer on every state change.
type Transition struct {
	Entity string
	ID     string
	Op     Op
	State  State
}

// Mutation describes one optimistic change to a single entity.
type Mutation[E mirror.Entity] struct {
	Op Op

	// ID is the entity changed locally. For creates it is a temporary id
	// that the server's id replaces on commit.
	ID string

	// Local computes the optimistic value from the current one (exists is
	// false when the id is not in the store). Returning keep=false removes
	// the entity locally instead.
	Local func(current E, exists bool) (next E, keep bool)

	// Remote performs the server call. On success its result is upserted
	// unless Discard is set.
	Remote func(ctx context.Context) (E, error)

	// Discard skips upserting the remote result, for calls that return
	// nothing (hard deletes).
	Discard bool
}

// Coordinator runs mutations against one mirror store.
type Coordinator[E mirror.Entity] struct {
	entity string
	store  *mirror.Store[E]
	resync func(ctx context.Context) error

	// observe, if set, receives every state transition.
	observe func(Transition)

	mu      sync.Mutex
	pending map[string]struct{}
}

// Option configures a Coordinator.
type Option[E mirror.Entity] func(*Coordinator[E])

// WithResync sets the hook offered to callers in MutationError.Resync.
func WithResync[E mirror.Entity](fn func(ctx context.Context) error) Option[E] {
	return func(c *Coordinator[E]) { c.resync = fn }
}

// WithObserver reports state transitions to fn.
func WithObserver[E mirror.Entity](fn func(Transition)) Option[E] {
	return func(c *Coordinator[E]) { c.observe = fn }
}

// New creates a coordinator for store. entity names the type in errors
// and logs (e.g. "product").
func New[E mirror.Entity](entity string, store *mirror.Store[E], opts ...Option[E]) *Coordinator[E] {
	c := &Coordinator[E]{
		entity:  entity,
		store:   store,
		pending: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the store the coordinator writes to.
func (c *Coordinator[E]) Store() *mirror.Store[E] { return c.store }

// Resync runs the resync hook, if any.
func (c *Coordinator[E]) Resync(ctx context.Context) error {
	if c.resync == nil {
		return nil
	}
	return c.resync(ctx)
}

// Execute applies m locally, calls the server and then commits the
// server's answer or restores the snapshot taken before the local write.
func (c *Coordinator[E]) Execute(ctx context.Context, m Mutation[E]) (E, error) {
	var zero E

	prev, index, existed := c.store.Lookup(m.ID)

	next, keep := m.Local(prev, existed)
	if keep {
		c.store.Upsert(next)
	} else {
		c.store.Remove(m.ID)
	}
	c.report(m.ID, m.Op, Applied)

	result, err := m.Remote(ctx)
	if err != nil {
		if existed {
			c.store.Restore(prev, index)
		} else {
			c.store.Remove(m.ID)
		}
		c.report(m.ID, m.Op, RolledBack)
		slog.Warn("optimistic change rolled back",
			slog.String("entity", c.entity),
			slog.String("id", m.ID),
			slog.String("op", string(m.Op)),
			slog.Any("error", err),
		)
		return zero, c.fail(m.ID, m.Op, err)
	}

	if !m.Discard {
		if id := result.GetID(); id != "" && id != m.ID {
			c.store.Remove(m.ID)
		}
		c.store.Upsert(result)
	}
	c.report(m.ID, m.Op, Committed)
	return result, nil
}

// Update applies fn to the current value of id locally, then runs remote.
// Fails with ErrNotLoaded if id is not in the store.
func (c *Coordinator[E]) Update(ctx context.Context, id string, fn func(E) E, remote func(ctx context.Context) (E, error)) (E, error) {
	var zero E
	current, ok := c.store.Get(id)
	if !ok {
		return zero, c.fail(id, OpUpdate, ErrNotLoaded)
	}
	next := fn(current)
	return c.Execute(ctx, Mutation[E]{
		Op:     OpUpdate,
		ID:     id,
		Local:  func(E, bool) (E, bool) { return next, true },
		Remote: remote,
	})
}

// Delete removes id locally, or replaces it with soft(current) when soft
// is set, then runs remote. The local value stands on success since the
// server returns no row. Fails with ErrNotLoaded if id is not in the store.
func (c *Coordinator[E]) Delete(ctx context.Context, id string, soft func(E) E, remote func(ctx context.Context) error) error {
	current, ok := c.store.Get(id)
	if !ok {
		return c.fail(id, OpDelete, ErrNotLoaded)
	}
	_, err := c.Execute(ctx, Mutation[E]{
		Op: OpDelete,
		ID: id,
		Local: func(E, bool) (E, bool) {
			if soft == nil {
				return current, false
			}
			return soft(current), true
		},
		Remote: func(ctx context.Context) (E, error) {
			var zero E
			return zero, remote(ctx)
		},
		Discard: true,
	})
	return err
}

// Toggle flips an entity based on its currently displayed value. While a
// toggle for id is in flight another one fails with ErrPending, so a
// second flip is never computed from a stale value. remote receives the
// optimistic value to send.
func (c *Coordinator[E]) Toggle(ctx context.Context, id string, flip func(E) E, remote func(ctx context.Context, next E) (E, error)) (E, error) {
	var zero E
	if !c.acquire(id) {
		return zero, ErrPending
	}
	defer c.release(id)

	current, ok := c.store.Get(id)
	if !ok {
		return zero, c.fail(id, OpToggle, ErrNotLoaded)
	}
	next := flip(current)

	return c.Execute(ctx, Mutation[E]{
		Op:     OpToggle,
		ID:     id,
		Local:  func(E, bool) (E, bool) { return next, true },
		Remote: func(ctx context.Context) (E, error) { return remote(ctx, next) },
	})
}

// Pending reports whether a toggle for id is in flight.
func (c *Coordinator[E]) Pending(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[id]
	return ok
}

// ExecuteBatch replaces the whole collection with next, sends the batch
// and upserts the server's rows. Any failure restores the full previous
// snapshot.
func (c *Coordinator[E]) ExecuteBatch(ctx context.Context, op Op, next []E, remote func(ctx context.Context) ([]E, error)) ([]E, error) {
	prev := c.store.GetAll()

	c.store.ReplaceAll(next)
	c.report("", op, Applied)

	result, err := remote(ctx)
	if err != nil {
		c.store.ReplaceAll(prev)
		c.report("", op, RolledBack)
		slog.Warn("optimistic batch rolled back",
			slog.String("entity", c.entity),
			slog.String("op", string(op)),
			slog.Int("size", len(next)),
			slog.Any("error", err),
		)
		return nil, c.fail("", op, err)
	}

	for _, e := range result {
		c.store.Upsert(e)
	}
	c.report("", op, Committed)
	return result, nil
}

func (c *Coordinator[E]) acquire(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.pending[id]; busy {
		return false
	}
	c.pending[id] = struct{}{}
	return true
}

func (c *Coordinator[E]) release(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Coordinator[E]) fail(id string, op Op, err error) *MutationError {
	return &MutationError{Entity: c.entity, ID: id, Op: op, Err: err, Resync: c.resync}
}

func (c *Coordinator[E]) report(id string, op Op, s State) {
	if c.observe != nil {
		c.observe(Transition{Entity: c.entity, ID: id, Op: op, State: s})
	}
}
