package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

func TestSchedulerStore_GetTaskMissing(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	task, err := store.SchedulerStore().GetTask(context.Background(), "sync:notion")
	require.NoError(t, err)
	assert.Nil(t, task)
}

func TestSchedulerStore_SaveAndGetTask(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	scheduler := store.SchedulerStore()
	ctx := context.Background()

	now := time.Now().UTC()
	task := &domain.ScheduledTask{
		ID:          domain.SyncTaskID(domain.SourceTypeNotion),
		SourceType:  domain.SourceTypeNotion,
		Interval:    6 * time.Hour,
		LastRun:     now.Add(-6 * time.Hour),
		NextRun:     now,
		LastSuccess: now.Add(-6 * time.Hour),
		Enabled:     true,
	}
	require.NoError(t, scheduler.SaveTask(ctx, task))

	got, err := scheduler.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.SourceTypeNotion, got.SourceType)
	assert.Equal(t, 6*time.Hour, got.Interval)
	assert.True(t, got.LastRun.Equal(task.LastRun))
	assert.True(t, got.NextRun.Equal(task.NextRun))
	assert.True(t, got.LastSuccess.Equal(task.LastSuccess))
	assert.Empty(t, got.LastError)
	assert.True(t, got.Enabled)
}

func TestSchedulerStore_SaveTaskUpdates(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	scheduler := store.SchedulerStore()
	ctx := context.Background()

	task := &domain.ScheduledTask{
		ID:         domain.SyncTaskID(domain.SourceTypeGitHub),
		SourceType: domain.SourceTypeGitHub,
		Interval:   time.Hour,
		Enabled:    true,
	}
	require.NoError(t, scheduler.SaveTask(ctx, task))

	task.Interval = 2 * time.Hour
	task.LastError = "rate limited"
	task.Enabled = false
	require.NoError(t, scheduler.SaveTask(ctx, task))

	got, err := scheduler.GetTask(ctx, task.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2*time.Hour, got.Interval)
	assert.Equal(t, "rate limited", got.LastError)
	assert.False(t, got.Enabled)
}

func TestSchedulerStore_SaveNilTask(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	assert.Error(t, store.SchedulerStore().SaveTask(context.Background(), nil))
}

func TestSchedulerStore_ListTasks(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	scheduler := store.SchedulerStore()
	ctx := context.Background()

	for _, sourceType := range domain.AllSourceTypes() {
		require.NoError(t, scheduler.SaveTask(ctx, &domain.ScheduledTask{
			ID:         domain.SyncTaskID(sourceType),
			SourceType: sourceType,
			Interval:   time.Hour,
			Enabled:    true,
		}))
	}

	tasks, err := scheduler.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, len(domain.AllSourceTypes()))
}

func TestSchedulerStore_RecordResult(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	scheduler := store.SchedulerStore()
	ctx := context.Background()

	now := time.Now().UTC()
	result := &domain.TaskResult{
		TaskID:         domain.SyncTaskID(domain.SourceTypeNotion),
		StartedAt:      now.Add(-time.Minute),
		EndedAt:        now,
		Success:        true,
		ItemsProcessed: 42,
	}
	require.NoError(t, scheduler.RecordResult(ctx, result))
	assert.Error(t, scheduler.RecordResult(ctx, nil))
}
