// Package memory provides in-memory implementations of the persistence
// ports. Used as test fixtures and for dry runs that should not touch the
// on-disk database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore struct {
	mu      sync.RWMutex
	records map[domain.RecordKey]domain.SyncedRecord
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		records: make(map[domain.RecordKey]domain.SyncedRecord),
	}
}

// Get retrieves a record by key.
func (s *RecordStore) Get(_ context.Context, key domain.RecordKey) (*domain.SyncedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &record, nil
}

// Save stores or replaces a record.
func (s *RecordStore) Save(_ context.Context, record domain.SyncedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Key()] = record
	return nil
}

// Delete removes a record. Absent records are not an error.
func (s *RecordStore) Delete(_ context.Context, key domain.RecordKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// ListStaleBefore returns records of a source last seen before watermark.
func (s *RecordStore) ListStaleBefore(_ context.Context, sourceType domain.SourceType, watermark time.Time) ([]domain.SyncedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stale []domain.SyncedRecord
	for _, record := range s.records {
		if record.SourceType == sourceType && record.LastSeenAt.Before(watermark) {
			stale = append(stale, record)
		}
	}
	return stale, nil
}

// Len returns the number of stored records. Used by tests.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
