package driven

import (
	"context"
	"time"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

// RecordStore persists one SyncedRecord per item ever synced. The store
// must provide per-record atomic read-modify-write; no multi-record
// transactions are assumed.
type RecordStore interface {
	// Get retrieves a record by key.
	// Returns domain.ErrNotFound if absent.
	Get(ctx context.Context, key domain.RecordKey) (*domain.SyncedRecord, error)

	// Save stores or replaces a record.
	Save(ctx context.Context, record domain.SyncedRecord) error

	// Delete removes a record. Deleting an absent record is not an error.
	Delete(ctx context.Context, key domain.RecordKey) error

	// ListStaleBefore returns all records of a source whose LastSeenAt
	// is before the watermark. Used by the delete-stale phase.
	ListStaleBefore(ctx context.Context, sourceType domain.SourceType, watermark time.Time) ([]domain.SyncedRecord, error)
}

// SyncStateStore persists the per-source resumable run state.
type SyncStateStore interface {
	// GetState retrieves the state for a source.
	// Returns domain.ErrNotFound if no state has ever been saved.
	GetState(ctx context.Context, sourceType domain.SourceType) (*domain.SyncState, error)

	// SaveState stores or updates a source's state. This is the
	// checkpoint write: it must be durable before the engine fetches
	// the next chunk.
	SaveState(ctx context.Context, state domain.SyncState) error

	// DeleteState removes a source's state, returning it to idle.
	DeleteState(ctx context.Context, sourceType domain.SourceType) error
}
