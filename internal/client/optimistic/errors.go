package optimistic

import (
	"context"
	"errors"
	"fmt"
)

// ErrPending is returned by Toggle when a toggle for the same id is still
// in flight. Toggles on other ids are unaffected.
var ErrPending = errors.New("a change to this item is still being saved")

// ErrNotLoaded is the cause when a mutation targets an id the mirror does
// not hold. Nothing is changed locally or remotely.
var ErrNotLoaded = errors.New("item is not loaded")

// Op names the kind of mutation that failed.
type Op string

const (
	OpCreate  Op = "create"
	OpUpdate  Op = "update"
	OpToggle  Op = "toggle"
	OpDelete  Op = "delete"
	OpReorder Op = "reorder"
)

// MutationError is returned when the remote call behind a mutation fails.
// By the time it is returned the mirror is back in its pre-mutation state.
type MutationError struct {
	Entity string
	ID     string
	Op     Op
	Err    error

	// Resync reloads the whole collection from the server. It is never
	// called automatically; callers use it after failures where drift is
	// likely, such as a partially applied reorder. Nil if the coordinator
	// has no resync hook.
	Resync func(ctx context.Context) error
}

func (e *MutationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s %s failed: %v", e.Op, e.Entity, e.Err)
	}
	return fmt.Sprintf("%s %s %s failed: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }
