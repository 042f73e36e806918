package bot

import (
	"context"
	"sync"
	"time"

	"github.com/cvt-care/support-bot/internal/models"
)

// rosterCache memoizes the per-chat staff-presence answer. The roster call
// is network I/O on the hot path, so each chat's answer is reused for a TTL.
type rosterCache struct {
	fetch func(ctx context.Context, chat models.ChatID) (bool, error)
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[models.ChatID]rosterEntry
}

type rosterEntry struct {
	hasStaff  bool
	fetchedAt time.Time
}

func newRosterCache(fetch func(ctx context.Context, chat models.ChatID) (bool, error), ttl time.Duration) *rosterCache {
	return &rosterCache{
		fetch:   fetch,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[models.ChatID]rosterEntry),
	}
}

func (c *rosterCache) hasStaff(ctx context.Context, chat models.ChatID) (bool, error) {
	c.mu.Lock()
	e, ok := c.entries[chat]
	c.mu.Unlock()
	if ok && c.now().Sub(e.fetchedAt) < c.ttl {
		return e.hasStaff, nil
	}

	hasStaff, err := c.fetch(ctx, chat)
	if err != nil {
		return false, err
	}

	c.mu.Lock()
	c.entries[chat] = rosterEntry{hasStaff: hasStaff, fetchedAt: c.now()}
	c.mu.Unlock()
	return hasStaff, nil
}
