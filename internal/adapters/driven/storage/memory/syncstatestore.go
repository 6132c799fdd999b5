package memory

import (
	"context"
	"sync"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driven"
)

// Ensure SyncStateStore implements the interface.
var _ driven.SyncStateStore = (*SyncStateStore)(nil)

// SyncStateStore is an in-memory implementation of driven.SyncStateStore.
type SyncStateStore struct {
	mu     sync.RWMutex
	states map[domain.SourceType]domain.SyncState
}

// NewSyncStateStore creates a new in-memory sync state store.
func NewSyncStateStore() *SyncStateStore {
	return &SyncStateStore{
		states: make(map[domain.SourceType]domain.SyncState),
	}
}

// GetState retrieves the state for a source.
func (s *SyncStateStore) GetState(_ context.Context, sourceType domain.SourceType) (*domain.SyncState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[sourceType]
	if !ok {
		return nil, domain.ErrNotFound
	}
	// Copy the watermark so callers cannot mutate stored state.
	if state.RunStartedAt != nil {
		at := *state.RunStartedAt
		state.RunStartedAt = &at
	}
	return &state, nil
}

// SaveState stores or updates a source's state.
func (s *SyncStateStore) SaveState(_ context.Context, state domain.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state.RunStartedAt != nil {
		at := *state.RunStartedAt
		state.RunStartedAt = &at
	}
	s.states[state.SourceType] = state
	return nil
}

// DeleteState removes a source's state.
func (s *SyncStateStore) DeleteState(_ context.Context, sourceType domain.SourceType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, sourceType)
	return nil
}
