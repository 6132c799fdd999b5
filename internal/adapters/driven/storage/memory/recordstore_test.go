package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

// TestRecordStore_SaveAndGet tests round-tripping a record.
func TestRecordStore_SaveAndGet(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	record := domain.SyncedRecord{
		SourceType:  domain.SourceTypeNotion,
		SourceID:    "page-1",
		ArtifactID:  "file-abc",
		ContentHash: "deadbeef",
		Marker:      "2026-08-01T00:00:00Z",
		LastSeenAt:  time.Now(),
	}
	require.NoError(t, store.Save(ctx, record))

	got, err := store.Get(ctx, record.Key())
	require.NoError(t, err)
	assert.Equal(t, record.ArtifactID, got.ArtifactID)
	assert.Equal(t, record.ContentHash, got.ContentHash)
}

// TestRecordStore_GetMissing tests the not-found error.
func TestRecordStore_GetMissing(t *testing.T) {
	store := NewRecordStore()

	_, err := store.Get(context.Background(), domain.RecordKey{
		SourceType: domain.SourceTypeGitHub,
		SourceID:   "nope",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestRecordStore_DeleteIdempotent tests that deleting twice succeeds.
func TestRecordStore_DeleteIdempotent(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()

	record := domain.SyncedRecord{SourceType: domain.SourceTypeNotion, SourceID: "p"}
	require.NoError(t, store.Save(ctx, record))
	require.NoError(t, store.Delete(ctx, record.Key()))
	require.NoError(t, store.Delete(ctx, record.Key()))

	_, err := store.Get(ctx, record.Key())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestRecordStore_ListStaleBefore tests watermark filtering per source.
func TestRecordStore_ListStaleBefore(t *testing.T) {
	store := NewRecordStore()
	ctx := context.Background()
	watermark := time.Now()

	stale := domain.SyncedRecord{
		SourceType: domain.SourceTypeNotion,
		SourceID:   "old",
		LastSeenAt: watermark.Add(-time.Hour),
	}
	fresh := domain.SyncedRecord{
		SourceType: domain.SourceTypeNotion,
		SourceID:   "new",
		LastSeenAt: watermark.Add(time.Minute),
	}
	otherSource := domain.SyncedRecord{
		SourceType: domain.SourceTypeGitHub,
		SourceID:   "old-too",
		LastSeenAt: watermark.Add(-time.Hour),
	}
	require.NoError(t, store.Save(ctx, stale))
	require.NoError(t, store.Save(ctx, fresh))
	require.NoError(t, store.Save(ctx, otherSource))

	got, err := store.ListStaleBefore(ctx, domain.SourceTypeNotion, watermark)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "old", got[0].SourceID)
}
