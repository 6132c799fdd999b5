package domain

import "time"

// ScheduledTask represents a recurring background sync for one source.
type ScheduledTask struct {
	// ID is the unique identifier for the task ("sync:notion").
	ID string

	// SourceType is the source the task syncs.
	SourceType SourceType

	// Interval defines how often the task should run.
	Interval time.Duration

	// LastRun is when the task last ran.
	LastRun time.Time

	// NextRun is when the task should run next.
	NextRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time

	// Enabled indicates whether the task is active.
	Enabled bool
}

// SyncTaskID returns the task ID for a source's periodic sync.
func SyncTaskID(sourceType SourceType) string {
	return "sync:" + string(sourceType)
}

// TaskResult represents the outcome of a task execution.
type TaskResult struct {
	// TaskID identifies which task was run.
	TaskID string

	// StartedAt is when the task started.
	StartedAt time.Time

	// EndedAt is when the task completed.
	EndedAt time.Time

	// Success indicates whether the task completed without error.
	Success bool

	// Error contains the error message if Success is false.
	Error string

	// ItemsProcessed is a count of items handled this run.
	ItemsProcessed int
}

// SchedulerConfig holds scheduler configuration.
type SchedulerConfig struct {
	// Enabled is the master switch for the scheduler.
	Enabled bool

	// Intervals holds the per-source sync interval. Sources absent from
	// the map are not scheduled.
	Intervals map[SourceType]time.Duration
}

// DefaultSchedulerConfig returns sensible defaults: both sources synced
// every six hours.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled: true,
		Intervals: map[SourceType]time.Duration{
			SourceTypeNotion: 6 * time.Hour,
			SourceTypeGitHub: 6 * time.Hour,
		},
	}
}
