package registry

import (
	"context"
	"sync"

	"github.com/cvt-care/support-bot/internal/models"
)

// MemoryStore is an in-memory registry for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[models.ChatID]bool // chat -> active
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[models.ChatID]bool)}
}

// Put inserts or updates an entry directly; test seam.
func (s *MemoryStore) Put(chat models.ChatID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[chat] = active
}

func (s *MemoryStore) FetchAll(ctx context.Context) ([]models.RegistryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.RegistryEntry, 0, len(s.entries))
	for chat, active := range s.entries {
		entries = append(entries, models.RegistryEntry{Chat: chat, Active: active})
	}
	return entries, nil
}

// Append registers a newly onboarded chat as active.
func (s *MemoryStore) Append(ctx context.Context, chat models.ChatID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[chat]; !exists {
		s.entries[chat] = true
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }
