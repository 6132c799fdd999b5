package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "knowledge-sync-test-*")
	require.NoError(t, err)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NotNil(t, store)

	cleanup := func() {
		assert.NoError(t, store.Close())
		assert.NoError(t, os.RemoveAll(tempDir))
	}

	return store, cleanup
}

func testRecord(id string, lastSeen time.Time) domain.SyncedRecord {
	return domain.SyncedRecord{
		SourceType:  domain.SourceTypeNotion,
		SourceID:    id,
		ArtifactID:  "artifact-" + id,
		ContentHash: domain.HashContent(id + "-text"),
		Marker:      "2026-01-01T00:00:00Z",
		LastSeenAt:  lastSeen,
		CreatedAt:   lastSeen,
		UpdatedAt:   lastSeen,
	}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "knowledge-sync-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(tempDir, "sync.db"), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_MigrationsIdempotent(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "knowledge-sync-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	store, err := NewStore(tempDir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Reopening must not re-run applied migrations.
	store, err = NewStore(tempDir)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}

func TestRecordStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	records := store.RecordStore()
	ctx := context.Background()

	now := time.Now().UTC()
	record := testRecord("page-1", now)
	require.NoError(t, records.Save(ctx, record))

	got, err := records.Get(ctx, record.Key())
	require.NoError(t, err)
	assert.Equal(t, record.SourceID, got.SourceID)
	assert.Equal(t, record.ArtifactID, got.ArtifactID)
	assert.Equal(t, record.ContentHash, got.ContentHash)
	assert.Equal(t, record.Marker, got.Marker)
	assert.True(t, got.LastSeenAt.Equal(now))
	assert.True(t, got.UploadConfirmed())
}

func TestRecordStore_GetMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.RecordStore().Get(context.Background(),
		domain.RecordKey{SourceType: domain.SourceTypeNotion, SourceID: "absent"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordStore_SaveReplaces(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	records := store.RecordStore()
	ctx := context.Background()

	record := testRecord("page-1", time.Now().UTC())
	require.NoError(t, records.Save(ctx, record))

	record.ArtifactID = ""
	record.Marker = "2026-02-01T00:00:00Z"
	require.NoError(t, records.Save(ctx, record))

	got, err := records.Get(ctx, record.Key())
	require.NoError(t, err)
	assert.Empty(t, got.ArtifactID)
	assert.Equal(t, "2026-02-01T00:00:00Z", got.Marker)
	assert.False(t, got.UploadConfirmed())
}

func TestRecordStore_DeleteAbsentIsNoop(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	err := store.RecordStore().Delete(context.Background(),
		domain.RecordKey{SourceType: domain.SourceTypeNotion, SourceID: "absent"})
	assert.NoError(t, err)
}

func TestRecordStore_ListStaleBefore(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	records := store.RecordStore()
	ctx := context.Background()

	watermark := time.Now().UTC()
	require.NoError(t, records.Save(ctx, testRecord("old-1", watermark.Add(-time.Hour))))
	require.NoError(t, records.Save(ctx, testRecord("old-2", watermark.Add(-time.Millisecond))))
	require.NoError(t, records.Save(ctx, testRecord("fresh", watermark.Add(time.Millisecond))))

	// A record of another source must not appear.
	other := testRecord("old-3", watermark.Add(-time.Hour))
	other.SourceType = domain.SourceTypeGitHub
	require.NoError(t, records.Save(ctx, other))

	stale, err := records.ListStaleBefore(ctx, domain.SourceTypeNotion, watermark)
	require.NoError(t, err)
	require.Len(t, stale, 2)

	ids := []string{stale[0].SourceID, stale[1].SourceID}
	assert.ElementsMatch(t, []string{"old-1", "old-2"}, ids)
}

func TestSyncStateStore_SaveAndGet(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	states := store.SyncStateStore()
	ctx := context.Background()

	started := time.Now().UTC()
	state := domain.SyncState{
		SourceType:    domain.SourceTypeGitHub,
		Status:        domain.StatusRunning,
		Cursor:        "chunk-42",
		RunStartedAt:  &started,
		StopRequested: true,
		Stats:         domain.SyncStats{Processed: 10, Added: 3, Updated: 2, Unchanged: 4, Errored: 1},
		LastError:     "last failure",
		UpdatedAt:     started,
	}
	require.NoError(t, states.SaveState(ctx, state))

	got, err := states.GetState(ctx, domain.SourceTypeGitHub)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, got.Status)
	assert.Equal(t, "chunk-42", got.Cursor)
	require.NotNil(t, got.RunStartedAt)
	assert.True(t, got.RunStartedAt.Equal(started))
	assert.True(t, got.StopRequested)
	assert.Equal(t, state.Stats, got.Stats)
	assert.Equal(t, "last failure", got.LastError)
	assert.True(t, got.CanResume())
}

func TestSyncStateStore_CompletedStateRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	states := store.SyncStateStore()
	ctx := context.Background()

	state := domain.NewSyncState(domain.SourceTypeNotion)
	state.StartRun(time.Now().UTC().Add(-time.Minute))
	state.CompleteRun(time.Now().UTC())
	require.NoError(t, states.SaveState(ctx, *state))

	got, err := states.GetState(ctx, domain.SourceTypeNotion)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Empty(t, got.Cursor)
	assert.Nil(t, got.RunStartedAt)
	assert.False(t, got.LastSyncAt.IsZero())
	assert.False(t, got.CanResume())
}

func TestSyncStateStore_GetMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := store.SyncStateStore().GetState(context.Background(), domain.SourceTypeNotion)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncStateStore_Delete(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	states := store.SyncStateStore()
	ctx := context.Background()

	state := domain.NewSyncState(domain.SourceTypeNotion)
	state.UpdatedAt = time.Now().UTC()
	require.NoError(t, states.SaveState(ctx, *state))
	require.NoError(t, states.DeleteState(ctx, domain.SourceTypeNotion))

	_, err := states.GetState(ctx, domain.SourceTypeNotion)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
