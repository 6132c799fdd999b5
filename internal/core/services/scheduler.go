package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driven"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driving"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/logger"
)

// tickInterval is how often the scheduler checks for due tasks.
const tickInterval = time.Minute

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler triggers periodic sync runs per source. Because each run
// resumes from its checkpoint, a run that pauses at its time cap simply
// continues at the next tick.
type Scheduler struct {
	config domain.SchedulerConfig
	store  driven.SchedulerStore
	orch   driving.SyncOrchestrator

	mu       sync.Mutex
	running  bool
	inFlight map[string]bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler creates a scheduler over the orchestrator.
func NewScheduler(config domain.SchedulerConfig, store driven.SchedulerStore, orch driving.SyncOrchestrator) *Scheduler {
	return &Scheduler{
		config:   config,
		store:    store,
		orch:     orch,
		inFlight: make(map[string]bool),
	}
}

// Start begins the scheduler loop. Blocks until Stop is called or the
// context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Warn("Scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler, waiting for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// initialiseTasks ensures one task per configured source exists in the
// store, updating intervals that changed in configuration.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	for _, sourceType := range domain.AllSourceTypes() {
		interval, ok := s.config.Intervals[sourceType]
		if !ok {
			continue
		}

		id := domain.SyncTaskID(sourceType)
		task, err := s.store.GetTask(ctx, id)
		if err != nil {
			return err
		}

		if task == nil {
			task = &domain.ScheduledTask{
				ID:         id,
				SourceType: sourceType,
				Interval:   interval,
				Enabled:    true,
				NextRun:    time.Now().Add(interval),
			}
		} else if task.Interval != interval {
			task.Interval = interval
			task.NextRun = time.Now().Add(interval)
		}

		if err := s.store.SaveTask(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	// Check for due tasks immediately on startup.
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Warn("Scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for _, task := range tasks {
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			// A run outliving one tick stays due until it finishes and
			// advances NextRun. Skip it rather than racing a duplicate.
			s.mu.Lock()
			busy := s.inFlight[task.ID]
			if !busy {
				s.inFlight[task.ID] = true
			}
			s.mu.Unlock()
			if busy {
				continue
			}
			s.runTask(ctx, task)
		}
	}
}

// runTask executes one source sync in the background and records the
// outcome.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.inFlight, task.ID)
			s.mu.Unlock()
		}()

		taskResult := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		syncResult, err := s.orch.Run(ctx, task.SourceType, driving.RunOptions{})
		taskResult.EndedAt = time.Now()
		if syncResult != nil {
			taskResult.ItemsProcessed = syncResult.Stats.Processed
		}

		if errors.Is(err, domain.ErrSyncInProgress) {
			// Someone else is already syncing this source. Leave the task
			// row alone and try again on a later tick.
			logger.Info("Scheduler: %s sync already in progress, skipping", task.SourceType)
			return
		}

		if err != nil {
			taskResult.Success = false
			taskResult.Error = err.Error()
			task.LastError = err.Error()
		} else {
			taskResult.Success = true
			task.LastError = ""
			task.LastSuccess = taskResult.EndedAt
		}

		task.LastRun = taskResult.StartedAt
		task.NextRun = taskResult.EndedAt.Add(task.Interval)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			logger.Warn("Scheduler: failed to save task %s: %v", task.ID, saveErr)
		}
		if recordErr := s.store.RecordResult(ctx, taskResult); recordErr != nil {
			logger.Warn("Scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}
	}()
}
