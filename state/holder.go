package state

import (
	"context"
	"sync"
)

// Holder owns the current State. Transitions are serialized; a transition becomes visible
// only after the changed collections were persisted.
type Holder struct {
	mu      sync.RWMutex
	current State
	repo    Repository
}

func NewHolder(ctx context.Context, repo Repository) (*Holder, error) {
	st, err := repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Holder{current: st, repo: repo}, nil
}

func (h *Holder) Snapshot() State {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Apply runs reducer on the current state and persists the collections flagged in changed.
// On any error the current state is left untouched.
func (h *Holder) Apply(ctx context.Context, changed Collection, reducer func(State) (State, error)) (State, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	next, err := reducer(h.current)
	if err != nil {
		return h.current, err
	}
	if err := persist(ctx, h.repo, next, changed); err != nil {
		return h.current, err
	}
	h.current = next
	return next, nil
}
