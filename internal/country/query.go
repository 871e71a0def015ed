package country

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type ticket struct {
	id     uuid.UUID
	cancel context.CancelFunc
}

// QueryTracker enforces last-issued-wins per logical slot: issuing a query
// cancels the one in flight for the same slot, and a query that settles after
// being replaced reports ErrSuperseded instead of its result.
type QueryTracker struct {
	mu    sync.Mutex
	slots map[string]ticket
}

// NewQueryTracker creates an empty tracker.
func NewQueryTracker() *QueryTracker {
	return &QueryTracker{slots: make(map[string]ticket)}
}

func (t *QueryTracker) issue(ctx context.Context, slot string) (context.Context, uuid.UUID) {
	qctx, cancel := context.WithCancel(ctx)
	id := uuid.New()

	t.mu.Lock()
	if prev, ok := t.slots[slot]; ok {
		prev.cancel()
	}
	t.slots[slot] = ticket{id: id, cancel: cancel}
	t.mu.Unlock()

	return qctx, id
}

// settle reports whether id is still the latest query for slot and releases
// the slot when it is.
func (t *QueryTracker) settle(slot string, id uuid.UUID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.slots[slot]
	if !ok || cur.id != id {
		return false
	}
	cur.cancel()
	delete(t.slots, slot)
	return true
}

// InFlight returns the number of slots with an unsettled query.
func (t *QueryTracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

// Track runs fn under slot's last-issued-wins guard.
func Track[T any](ctx context.Context, t *QueryTracker, slot string, fn func(context.Context) (T, error)) (T, error) {
	qctx, id := t.issue(ctx, slot)
	res, err := fn(qctx)
	if !t.settle(slot, id) {
		var zero T
		return zero, ErrSuperseded
	}
	return res, err
}
