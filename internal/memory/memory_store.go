package memory

import (
	"context"
	"sync"
	"time"

	"github.com/avvvet/voicebuddy-actions/internal/models"
)

// InMemoryStore implements Store with a map, for tests and single-node runs
type InMemoryStore struct {
	mu    sync.RWMutex
	calls map[string]*models.CallState
}

// NewInMemoryStore creates an empty store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		calls: make(map[string]*models.CallState),
	}
}

// Create implements Store
func (s *InMemoryStore) Create(ctx context.Context, call *models.CallState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.calls[call.ID]; exists {
		return ErrAlreadyExists
	}

	now := time.Now()
	call.CreatedAt = now
	call.UpdatedAt = now
	call.Version = 1
	s.calls[call.ID] = call.Clone()
	return nil
}

// Get implements Store
func (s *InMemoryStore) Get(ctx context.Context, id string) (*models.CallState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	call, exists := s.calls[id]
	if !exists {
		return nil, ErrNotFound
	}
	return call.Clone(), nil
}

// Update implements Store
func (s *InMemoryStore) Update(ctx context.Context, call *models.CallState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.calls[call.ID]
	if !exists {
		return ErrNotFound
	}
	if stored.Version != call.Version {
		return ErrVersionConflict
	}

	call.Version++
	call.UpdatedAt = time.Now()
	s.calls[call.ID] = call.Clone()
	return nil
}

// Delete implements Store
func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.calls[id]; !ok {
		return ErrNotFound
	}
	delete(s.calls, id)
	return nil
}

// Close implements Store
func (s *InMemoryStore) Close() error {
	return nil
}
