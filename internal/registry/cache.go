package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cvt-care/support-bot/internal/models"
)

// Cache answers registration lookups from a snapshot of the registry,
// refreshed at most once per TTL. The snapshot is replaced wholesale, never
// mutated, so concurrent readers observe either the old or the new table.
//
// A fetch failure propagates to the caller instead of being read as "no
// chats active": the gate fails closed, preferring silence over wrong
// auto-replies while the registry is unreachable.
type Cache struct {
	store Store
	ttl   time.Duration
	now   func() time.Time

	refreshMu sync.Mutex // serializes fetches, held across the network call

	mu   sync.RWMutex // guards snap only
	snap *snapshot
}

type snapshot struct {
	active    map[models.ChatID]bool
	fetchedAt time.Time
}

func NewCache(store Store, ttl time.Duration) *Cache {
	return &Cache{store: store, ttl: ttl, now: time.Now}
}

// IsRegistered reports whether the chat appears in the registry at all.
func (c *Cache) IsRegistered(ctx context.Context, chat models.ChatID) (bool, error) {
	snap, err := c.current(ctx)
	if err != nil {
		return false, err
	}
	_, ok := snap.active[chat]
	return ok, nil
}

// IsActive reports whether the chat is registered and marked active.
func (c *Cache) IsActive(ctx context.Context, chat models.ChatID) (bool, error) {
	snap, err := c.current(ctx)
	if err != nil {
		return false, err
	}
	return snap.active[chat], nil
}

func (c *Cache) current(ctx context.Context) (*snapshot, error) {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()
	if snap != nil && c.now().Sub(snap.fetchedAt) < c.ttl {
		return snap, nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	c.mu.RLock()
	snap = c.snap
	c.mu.RUnlock()
	if snap != nil && c.now().Sub(snap.fetchedAt) < c.ttl {
		return snap, nil
	}

	entries, err := c.store.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("refreshing registry cache: %w", err)
	}

	active := make(map[models.ChatID]bool, len(entries))
	for _, e := range entries {
		active[e.Chat] = e.Active
	}
	fresh := &snapshot{active: active, fetchedAt: c.now()}

	c.mu.Lock()
	c.snap = fresh
	c.mu.Unlock()
	return fresh, nil
}

// Invalidate drops the snapshot so the next lookup refetches; used after the
// onboarding path appends a chat.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}
