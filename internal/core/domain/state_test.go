package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSyncState_StartRun tests that starting a run sets the watermark and
// zeroes the counters.
func TestSyncState_StartRun(t *testing.T) {
	state := NewSyncState(SourceTypeNotion)
	state.Stats = SyncStats{Processed: 10}
	state.LastError = "old failure"

	now := time.Now()
	state.StartRun(now)

	assert.Equal(t, StatusRunning, state.Status)
	require.NotNil(t, state.RunStartedAt)
	assert.Equal(t, now, *state.RunStartedAt)
	assert.Empty(t, state.Cursor)
	assert.False(t, state.StopRequested)
	assert.Equal(t, SyncStats{}, state.Stats)
	assert.Empty(t, state.LastError)
}

// TestSyncState_CompleteRun tests the invariant that completion clears the
// cursor and watermark.
func TestSyncState_CompleteRun(t *testing.T) {
	state := NewSyncState(SourceTypeGitHub)
	state.StartRun(time.Now())
	state.Cursor = "chunk-5"
	state.StopRequested = true

	done := time.Now()
	state.CompleteRun(done)

	assert.Equal(t, StatusCompleted, state.Status)
	assert.Empty(t, state.Cursor)
	assert.Nil(t, state.RunStartedAt)
	assert.False(t, state.StopRequested)
	assert.Equal(t, done, state.LastSyncAt)
	assert.False(t, state.CanResume())
}

// TestSyncState_FailRun tests that failure preserves the checkpoint.
func TestSyncState_FailRun(t *testing.T) {
	state := NewSyncState(SourceTypeNotion)
	state.StartRun(time.Now())
	state.Cursor = "chunk-3"

	state.FailRun(errors.New("index unreachable"))

	assert.Equal(t, StatusFailed, state.Status)
	assert.Equal(t, "index unreachable", state.LastError)
	assert.Equal(t, "chunk-3", state.Cursor)
	assert.NotNil(t, state.RunStartedAt)
	assert.True(t, state.CanResume())
}

// TestSyncStatus_Resumable tests resumability per status.
func TestSyncStatus_Resumable(t *testing.T) {
	tests := []struct {
		status SyncStatus
		want   bool
	}{
		{StatusIdle, false},
		{StatusRunning, true},
		{StatusCompleted, false},
		{StatusFailed, true},
		{StatusTimeout, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.status.Resumable(), "status %s", tt.status)
	}
}

// TestSyncStats_Add tests counter accumulation.
func TestSyncStats_Add(t *testing.T) {
	stats := SyncStats{Processed: 5, Added: 2, Errored: 1}
	stats.Add(SyncStats{Processed: 3, Updated: 1, Deleted: 2})

	assert.Equal(t, SyncStats{
		Processed: 8,
		Added:     2,
		Updated:   1,
		Deleted:   2,
		Errored:   1,
	}, stats)
}
