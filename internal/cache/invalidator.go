// Package cache holds per-user cached state that must not survive a consent transition.
//
// Every user has a cache generation counter. Cached values are tagged with the generation
// they were computed under and are ignored once the counter moves on, so Clear is a single
// increment regardless of how many caches hold data for the user.
package cache

import (
	"context"
	"sync"
)

// Invalidator owns the per-user cache generation counters.
type Invalidator interface {
	// Generation returns the current cache generation for the user.
	Generation(ctx context.Context, userID int64) (uint64, error)
	// Clear invalidates everything cached for the user. It returns only after the new
	// generation is visible to subsequent Generation calls.
	Clear(ctx context.Context, userID int64) error
	// OnClear registers a hook run synchronously after every Clear.
	OnClear(hook func(userID int64))
}

type hooks struct {
	mu    sync.RWMutex
	funcs []func(userID int64)
}

func (h *hooks) add(hook func(userID int64)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.funcs = append(h.funcs, hook)
}

func (h *hooks) run(userID int64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.funcs {
		fn(userID)
	}
}

// MemoryInvalidator keeps generation counters in process memory.
type MemoryInvalidator struct {
	mu          sync.Mutex
	generations map[int64]uint64
	hooks       hooks
}

// NewMemoryInvalidator creates an in-process invalidator.
func NewMemoryInvalidator() *MemoryInvalidator {
	return &MemoryInvalidator{generations: make(map[int64]uint64)}
}

func (m *MemoryInvalidator) Generation(_ context.Context, userID int64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generations[userID], nil
}

func (m *MemoryInvalidator) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	m.generations[userID]++
	m.mu.Unlock()

	m.hooks.run(userID)
	return nil
}

func (m *MemoryInvalidator) OnClear(hook func(userID int64)) {
	m.hooks.add(hook)
}
