package driving

import (
	"context"
	"time"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

// RunOptions tune a single sync invocation.
type RunOptions struct {
	// MaxItems stops the stream loop after this many items have been
	// processed, without marking the source exhausted. Zero means no
	// cap. Used for testing and manual partial runs.
	MaxItems int

	// MaxDuration pauses the run at the first checkpoint after this
	// much wall-clock time, persisting a resumable timeout state.
	// Zero means no cap.
	MaxDuration time.Duration
}

// SyncOrchestrator coordinates resumable sync runs.
type SyncOrchestrator interface {
	// Run starts or resumes a sync for a source and blocks until the
	// run completes, pauses, or fails. A SyncResult is returned in all
	// cases, including failure.
	Run(ctx context.Context, sourceType domain.SourceType, opts RunOptions) (*domain.SyncResult, error)

	// RunAll runs every configured source in order.
	RunAll(ctx context.Context, opts RunOptions) ([]*domain.SyncResult, error)

	// RequestStop asks the active run for a source to pause at its next
	// checkpoint. Safe to call when no run is active.
	RequestStop(ctx context.Context, sourceType domain.SourceType) error

	// Reset discards a source's cursor and run state, returning it to
	// idle. Synced records are kept.
	Reset(ctx context.Context, sourceType domain.SourceType) error

	// State returns the current persisted state for a source.
	State(ctx context.Context, sourceType domain.SourceType) (*domain.SyncState, error)

	// ListStates returns the state of every configured source.
	ListStates(ctx context.Context) ([]*domain.SyncState, error)
}

// Scheduler manages periodic sync runs.
type Scheduler interface {
	// Start begins the scheduler loop. Blocks until Stop is called or
	// ctx is cancelled.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the scheduler, waiting for a running
	// task to finish.
	Stop() error
}
