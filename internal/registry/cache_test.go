package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cvt-care/support-bot/internal/models"
)

type countingStore struct {
	*MemoryStore
	fetches int
	err     error
}

func (s *countingStore) FetchAll(ctx context.Context) ([]models.RegistryEntry, error) {
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return s.MemoryStore.FetchAll(ctx)
}

func newCacheWithClock(store Store, ttl time.Duration, start time.Time) (*Cache, *time.Time) {
	c := NewCache(store, ttl)
	now := start
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCacheServesSnapshotWithinTTL(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: NewMemoryStore()}
	store.Put(1, true)

	c, _ := newCacheWithClock(store, 300*time.Second, time.Now())

	active, err := c.IsActive(ctx, 1)
	require.NoError(t, err)
	assert.True(t, active)

	// A change in the backing store is invisible until the TTL lapses.
	store.Put(1, false)
	active, err = c.IsActive(ctx, 1)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, 1, store.fetches)
}

func TestCacheRefreshesAfterTTL(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: NewMemoryStore()}
	store.Put(1, true)

	c, now := newCacheWithClock(store, 300*time.Second, time.Now())

	_, err := c.IsActive(ctx, 1)
	require.NoError(t, err)

	store.Put(1, false)
	*now = now.Add(301 * time.Second)

	active, err := c.IsActive(ctx, 1)
	require.NoError(t, err)
	assert.False(t, active)
	assert.Equal(t, 2, store.fetches)
}

func TestCacheUnregisteredIsAThirdState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(1, false) // registered but inactive
	c := NewCache(store, time.Minute)

	registered, err := c.IsRegistered(ctx, 1)
	require.NoError(t, err)
	assert.True(t, registered)

	active, err := c.IsActive(ctx, 1)
	require.NoError(t, err)
	assert.False(t, active)

	// Chat 2 was never registered at all.
	registered, err = c.IsRegistered(ctx, 2)
	require.NoError(t, err)
	assert.False(t, registered)
}

func TestCacheFetchFailurePropagates(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: NewMemoryStore(), err: errors.New("spreadsheet down")}
	c := NewCache(store, time.Minute)

	_, err := c.IsActive(ctx, 1)
	assert.Error(t, err, "an outage must surface, not read as 'no chats active'")
}

func TestCacheInvalidateForcesRefetch(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: NewMemoryStore()}
	c := NewCache(store, time.Hour)

	_, err := c.IsActive(ctx, 1)
	require.NoError(t, err)

	store.Put(1, true)
	c.Invalidate()

	active, err := c.IsActive(ctx, 1)
	require.NoError(t, err)
	assert.True(t, active)
	assert.Equal(t, 2, store.fetches)
}

func TestMemoryStoreAppendIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	store.Put(1, false)

	require.NoError(t, store.Append(ctx, 1))
	require.NoError(t, store.Append(ctx, 2))
	require.NoError(t, store.Append(ctx, 2))

	entries, err := store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	byChat := make(map[models.ChatID]bool, len(entries))
	for _, e := range entries {
		byChat[e.Chat] = e.Active
	}
	assert.False(t, byChat[1], "append must not reactivate an existing entry")
	assert.True(t, byChat[2])
}
