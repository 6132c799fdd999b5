package driven

import (
	"context"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

// SchedulerStore persists scheduled task state between runs.
type SchedulerStore interface {
	// GetTask retrieves a task by ID. Returns nil (not an error) if the
	// task does not exist.
	GetTask(ctx context.Context, id string) (*domain.ScheduledTask, error)

	// SaveTask stores or updates a task.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// ListTasks returns all tasks.
	ListTasks(ctx context.Context) ([]*domain.ScheduledTask, error)

	// RecordResult stores the outcome of a task execution.
	RecordResult(ctx context.Context, result *domain.TaskResult) error
}
