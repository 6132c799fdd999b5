package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

func TestStatusCmd_AllSources(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock := &mockSyncOrchestrator{
		states: []*domain.SyncState{
			{
				SourceType:   domain.SourceTypeNotion,
				Status:       domain.StatusTimeout,
				Cursor:       "cursor-7",
				RunStartedAt: &started,
				Stats:        domain.SyncStats{Processed: 40, Added: 12, Unchanged: 28},
			},
			{
				SourceType: domain.SourceTypeGitHub,
				Status:     domain.StatusCompleted,
				LastSyncAt: started.Add(time.Hour),
			},
		},
	}
	defer installOrchestrator(mock)()

	out, err := execute("status")

	assert.NoError(t, err)
	assert.Contains(t, out, "[notion]")
	assert.Contains(t, out, "Status: timeout")
	assert.Contains(t, out, "Resumable: yes (run started 2026-03-01T09:00:00Z)")
	assert.Contains(t, out, "processed 40")
	assert.Contains(t, out, "[github]")
	assert.Contains(t, out, "Last completed: 2026-03-01T10:00:00Z")
}

func TestStatusCmd_SingleSource(t *testing.T) {
	mock := &mockSyncOrchestrator{
		states: []*domain.SyncState{
			{
				SourceType: domain.SourceTypeGitHub,
				Status:     domain.StatusFailed,
				LastError:  "401 unauthorized",
			},
		},
	}
	defer installOrchestrator(mock)()

	out, err := execute("status", "github")

	assert.NoError(t, err)
	assert.Contains(t, out, "[github]")
	assert.Contains(t, out, "Last error: 401 unauthorized")
	assert.NotContains(t, out, "[notion]")
}

func TestStatusCmd_StopRequested(t *testing.T) {
	started := time.Now()
	mock := &mockSyncOrchestrator{
		states: []*domain.SyncState{
			{
				SourceType:    domain.SourceTypeNotion,
				Status:        domain.StatusRunning,
				RunStartedAt:  &started,
				StopRequested: true,
			},
		},
	}
	defer installOrchestrator(mock)()

	out, err := execute("status")

	assert.NoError(t, err)
	assert.Contains(t, out, "Stop requested: pausing at next checkpoint")
}

func TestStatusCmd_UnknownSource(t *testing.T) {
	defer installOrchestrator(&mockSyncOrchestrator{})()

	_, err := execute("status", "gitlab")

	assert.Error(t, err)
}

func TestStatusCmd_ServiceNotConfigured(t *testing.T) {
	defer installOrchestrator(nil)()

	_, err := execute("status")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "sync service not configured")
}
