package auth

import (
	"context"
	"sync"
)

// NewInMemorySlotStore returns a RefreshTokenStore backed by an in-memory
// map, for tests and local development. Users must be registered before a
// token can be stored against them, mirroring the database behavior.
func NewInMemorySlotStore() *InMemorySlotStore {
	return &InMemorySlotStore{slots: make(map[string]string)}
}

// InMemorySlotStore implements RefreshTokenStore over a map keyed by user id.
type InMemorySlotStore struct {
	mu    sync.RWMutex
	slots map[string]string
}

// Register creates an empty slot for the user.
func (s *InMemorySlotStore) Register(userID string) {
	s.mu.Lock()
	if _, ok := s.slots[userID]; !ok {
		s.slots[userID] = ""
	}
	s.mu.Unlock()
}

// SetRefreshToken overwrites the user's slot.
func (s *InMemorySlotStore) SetRefreshToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	s.slots[userID] = token
	s.mu.Unlock()
	return nil
}

// RefreshTokenFor returns the stored token, reporting ok=false for unknown users.
func (s *InMemorySlotStore) RefreshTokenFor(_ context.Context, userID string) (string, bool, error) {
	s.mu.RLock()
	token, ok := s.slots[userID]
	s.mu.RUnlock()
	return token, ok, nil
}
