// Package session holds the in-memory conversation state, one session per
// chat. State is volatile and rebuilt from live traffic after a restart.
package session

import (
	"sync"
	"time"

	"github.com/cvt-care/support-bot/internal/models"
)

// Store owns all chat sessions. The outer lock only guards the map; every
// entry carries its own mutex, so mutations of different chats never contend
// while mutations of the same chat are serialized. Callers must not perform
// I/O inside a Mutate callback.
type Store struct {
	mu       sync.RWMutex
	sessions map[models.ChatID]*entry

	now func() time.Time
}

type entry struct {
	mu sync.Mutex
	s  models.Session
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[models.ChatID]*entry),
		now:      time.Now,
	}
}

func (st *Store) entryFor(chat models.ChatID) *entry {
	st.mu.RLock()
	e, ok := st.sessions[chat]
	st.mu.RUnlock()
	if ok {
		return e
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if e, ok = st.sessions[chat]; ok {
		return e
	}
	e = &entry{s: models.Session{
		Chat:         chat,
		Phase:        models.PhaseNew,
		LastActivity: st.now(),
	}}
	st.sessions[chat] = e
	return e
}

// Mutate runs fn under the chat's lock, creating the session lazily on first
// use. Sessions are never deleted for the life of the process.
func (st *Store) Mutate(chat models.ChatID, fn func(s *models.Session)) {
	e := st.entryFor(chat)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(&e.s)
}

// Peek returns a copy of the chat's session without creating one.
func (st *Store) Peek(chat models.ChatID) (models.Session, bool) {
	st.mu.RLock()
	e, ok := st.sessions[chat]
	st.mu.RUnlock()
	if !ok {
		return models.Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.s, true
}

// Touch bumps LastActivity for an existing session. Staff actions refresh
// activity but never create a session.
func (st *Store) Touch(chat models.ChatID, t time.Time) {
	st.mu.RLock()
	e, ok := st.sessions[chat]
	st.mu.RUnlock()
	if !ok {
		return
	}
	e.mu.Lock()
	e.s.Touch(t)
	e.mu.Unlock()
}

// Len returns the number of tracked sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// ReclaimIdle releases every claimed session whose last activity is older
// than maxIdle: the claim is cleared, the phase returns to active and
// LastActivity is reset to now so the same tick cannot re-trigger. It returns
// copies of the sessions as they were before the reclaim, so the caller can
// send closure notices outside any lock.
func (st *Store) ReclaimIdle(now time.Time, maxIdle time.Duration) []models.Session {
	st.mu.RLock()
	entries := make([]*entry, 0, len(st.sessions))
	for _, e := range st.sessions {
		entries = append(entries, e)
	}
	st.mu.RUnlock()

	var reclaimed []models.Session
	for _, e := range entries {
		e.mu.Lock()
		if e.s.Phase == models.PhaseClaimed && now.Sub(e.s.LastActivity) > maxIdle {
			reclaimed = append(reclaimed, e.s)
			e.s.Phase = models.PhaseActive
			e.s.ClaimedBy = nil
			e.s.ClaimedByName = ""
			e.s.LastActivity = now
		}
		e.mu.Unlock()
	}
	return reclaimed
}
