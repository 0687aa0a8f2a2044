package cache

import (
	"context"
	"sync"
	"time"
)

// Entry is a cached computation result. Err holds a cached negative outcome.
type Entry[V any] struct {
	Value      V
	Err        error
	Generation uint64
	ExpiresAt  time.Time
}

// ProfileCache caches one computation result per user, scoped to the user's cache generation.
type ProfileCache[V any] struct {
	mu          sync.Mutex
	entries     map[int64]Entry[V]
	invalidator Invalidator
	ttl         time.Duration
	now         func() time.Time
}

// NewProfileCache creates a cache whose entries expire after ttl and whenever the
// invalidator clears the user.
func NewProfileCache[V any](invalidator Invalidator, ttl time.Duration) *ProfileCache[V] {
	c := &ProfileCache[V]{
		entries:     make(map[int64]Entry[V]),
		invalidator: invalidator,
		ttl:         ttl,
		now:         time.Now,
	}
	invalidator.OnClear(c.evict)
	return c
}

// Get returns the cached entry if it is still valid for the user's current generation.
func (c *ProfileCache[V]) Get(ctx context.Context, userID int64) (Entry[V], bool, error) {
	gen, err := c.invalidator.Generation(ctx, userID)
	if err != nil {
		return Entry[V]{}, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[userID]
	if !ok {
		return Entry[V]{}, false, nil
	}
	if entry.Generation != gen || !c.now().Before(entry.ExpiresAt) {
		delete(c.entries, userID)
		return Entry[V]{}, false, nil
	}
	return entry, true, nil
}

// Put stores a result computed under generation gen. Results computed under an older
// generation than the current one are discarded on the next Get.
func (c *ProfileCache[V]) Put(userID int64, gen uint64, value V, err error) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = Entry[V]{
		Value:      value,
		Err:        err,
		Generation: gen,
		ExpiresAt:  c.now().Add(c.ttl),
	}
}

// Len returns the number of entries currently held.
func (c *ProfileCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ProfileCache[V]) evict(userID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}
