package domain

import "time"

// SyncStatus is the lifecycle state of a source's sync run.
type SyncStatus string

const (
	// StatusIdle means no run is active and no resumable checkpoint exists.
	StatusIdle SyncStatus = "idle"

	// StatusRunning means a run is in progress (or was killed mid-run and
	// has a checkpoint to resume from).
	StatusRunning SyncStatus = "running"

	// StatusCompleted means the last run finished, including the
	// delete-stale phase.
	StatusCompleted SyncStatus = "completed"

	// StatusFailed means the last run hit a non-transient error. The
	// checkpoint is preserved so a later run can resume once the
	// underlying issue is fixed.
	StatusFailed SyncStatus = "failed"

	// StatusTimeout means the run paused cleanly at a checkpoint, either
	// because the execution-time cap was reached or a stop was requested.
	// The next run resumes from the checkpoint.
	StatusTimeout SyncStatus = "timeout"
)

// Resumable reports whether a run in this status picks up from its
// checkpoint rather than starting fresh.
func (s SyncStatus) Resumable() bool {
	return s == StatusRunning || s == StatusTimeout || s == StatusFailed
}

// SyncStats are the counters accumulated across a run, checkpointed with
// the cursor so they survive a crash.
type SyncStats struct {
	// Processed counts every item classified this run.
	Processed int

	// Added counts items uploaded for the first time (including repaired
	// incomplete uploads).
	Added int

	// Updated counts items re-uploaded or metadata-refreshed because
	// their marker changed.
	Updated int

	// Unchanged counts items whose marker was unchanged.
	Unchanged int

	// Deleted counts stale records removed in the delete phase.
	Deleted int

	// Errored counts item-level failures that were recorded and skipped.
	Errored int
}

// Add accumulates other into s.
func (s *SyncStats) Add(other SyncStats) {
	s.Processed += other.Processed
	s.Added += other.Added
	s.Updated += other.Updated
	s.Unchanged += other.Unchanged
	s.Deleted += other.Deleted
	s.Errored += other.Errored
}

// SyncState is the persisted per-source run state. It is the engine's
// checkpoint: everything needed to resume after a crash.
//
// Invariant: Cursor and RunStartedAt carry values only while Status is
// resumable; a run that reaches StatusCompleted clears them.
type SyncState struct {
	// SourceType is the source this state belongs to.
	SourceType SourceType

	// Status is the run lifecycle state.
	Status SyncStatus

	// Cursor is the opaque resumption token returned by the source's
	// last chunk fetch. Empty means start from the beginning.
	Cursor string

	// RunStartedAt is the watermark of the active (or paused) run.
	// Records with LastSeenAt before it are stale once the source is
	// exhausted. Nil when no run is active.
	RunStartedAt *time.Time

	// StopRequested asks the active run to pause at the next checkpoint.
	StopRequested bool

	// Stats are the counters for the active or last run.
	Stats SyncStats

	// LastError is the terminal error of the last failed run, for
	// operator diagnosis. Empty otherwise.
	LastError string

	// LastSyncAt is when the last run reached StatusCompleted.
	LastSyncAt time.Time

	// UpdatedAt is when the state was last persisted.
	UpdatedAt time.Time
}

// NewSyncState returns an idle state for a source.
func NewSyncState(sourceType SourceType) *SyncState {
	return &SyncState{SourceType: sourceType, Status: StatusIdle}
}

// StartRun transitions the state to a fresh running state with a new
// watermark and zeroed counters.
func (s *SyncState) StartRun(now time.Time) {
	s.Status = StatusRunning
	s.Cursor = ""
	s.RunStartedAt = &now
	s.StopRequested = false
	s.Stats = SyncStats{}
	s.LastError = ""
}

// CompleteRun clears the checkpoint and records completion.
func (s *SyncState) CompleteRun(now time.Time) {
	s.Status = StatusCompleted
	s.Cursor = ""
	s.RunStartedAt = nil
	s.StopRequested = false
	s.LastError = ""
	s.LastSyncAt = now
}

// FailRun records a terminal error, preserving the checkpoint so a later
// invocation can resume.
func (s *SyncState) FailRun(err error) {
	s.Status = StatusFailed
	if err != nil {
		s.LastError = err.Error()
	}
}

// CanResume reports whether a checkpoint exists to resume from.
func (s *SyncState) CanResume() bool {
	return s.Status.Resumable() && s.RunStartedAt != nil
}
