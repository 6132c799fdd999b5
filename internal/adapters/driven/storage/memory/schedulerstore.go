package memory

import (
	"context"
	"sync"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driven"
)

// Ensure SchedulerStore implements the interface.
var _ driven.SchedulerStore = (*SchedulerStore)(nil)

// SchedulerStore is an in-memory implementation of driven.SchedulerStore.
type SchedulerStore struct {
	mu      sync.RWMutex
	tasks   map[string]domain.ScheduledTask
	results []domain.TaskResult
}

// NewSchedulerStore creates a new in-memory scheduler store.
func NewSchedulerStore() *SchedulerStore {
	return &SchedulerStore{
		tasks: make(map[string]domain.ScheduledTask),
	}
}

// GetTask retrieves a task by ID. Returns nil if the task does not exist.
func (s *SchedulerStore) GetTask(_ context.Context, id string) (*domain.ScheduledTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	return &task, nil
}

// SaveTask stores or updates a task.
func (s *SchedulerStore) SaveTask(_ context.Context, task *domain.ScheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[task.ID] = *task
	return nil
}

// ListTasks returns all tasks.
func (s *SchedulerStore) ListTasks(_ context.Context) ([]*domain.ScheduledTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tasks := make([]*domain.ScheduledTask, 0, len(s.tasks))
	for _, task := range s.tasks {
		t := task
		tasks = append(tasks, &t)
	}
	return tasks, nil
}

// RecordResult stores the outcome of a task execution.
func (s *SchedulerStore) RecordResult(_ context.Context, result *domain.TaskResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, *result)
	return nil
}

// Results returns all recorded task results. Used by tests.
func (s *SchedulerStore) Results() []domain.TaskResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.TaskResult(nil), s.results...)
}
