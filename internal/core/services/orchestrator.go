package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driven"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driving"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/logger"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/ratelimit"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/retry"
)

// DefaultMaxRunDuration is the safety threshold for one invocation. Runs
// pause at the first checkpoint past it and resume on the next invocation.
const DefaultMaxRunDuration = 10 * time.Minute

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SourceBinding couples a source reader with the engine plumbing for its
// APIs: the rate limiter for chunk and detail fetches, and the pipeline
// that writes to the index.
type SourceBinding struct {
	Reader   driven.SourceReader
	Limiter  *ratelimit.Limiter
	Pipeline *Pipeline

	retryCfg retry.Config
}

// NewSourceBinding creates a binding. The retry policy uses the reader's
// own transient classification.
func NewSourceBinding(reader driven.SourceReader, limiter *ratelimit.Limiter, pipeline *Pipeline) *SourceBinding {
	return &SourceBinding{
		Reader:   reader,
		Limiter:  limiter,
		Pipeline: pipeline,
		retryCfg: retry.DefaultConfig(reader.IsTransient),
	}
}

// SyncOrchestrator runs the resumable reconciliation loop per source:
// initialise or resume, stream chunks, classify and apply, checkpoint,
// honour stop conditions, delete stale records, finalise.
type SyncOrchestrator struct {
	records  driven.RecordStore
	states   driven.SyncStateStore
	bindings map[domain.SourceType]*SourceBinding

	// maxRunDuration is the default execution-time cap; RunOptions can
	// override it per invocation.
	maxRunDuration time.Duration

	// Single-writer enforcement within this process. The persisted
	// status cannot distinguish a crashed run from an active one, so
	// concurrent runs for the same source are blocked here.
	mu     sync.Mutex
	active map[domain.SourceType]bool

	// now is replaceable for tests.
	now func() time.Time
}

// NewSyncOrchestrator creates an orchestrator over the given bindings.
func NewSyncOrchestrator(
	records driven.RecordStore,
	states driven.SyncStateStore,
	bindings map[domain.SourceType]*SourceBinding,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		records:        records,
		states:         states,
		bindings:       bindings,
		maxRunDuration: DefaultMaxRunDuration,
		active:         make(map[domain.SourceType]bool),
		now:            time.Now,
	}
}

// SetMaxRunDuration overrides the default execution-time cap.
func (o *SyncOrchestrator) SetMaxRunDuration(d time.Duration) {
	o.maxRunDuration = d
}

// Run starts or resumes a sync for a source.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *SyncOrchestrator) Run(ctx context.Context, sourceType domain.SourceType, opts driving.RunOptions) (*domain.SyncResult, error) {
	binding, ok := o.bindings[sourceType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSourceUnsupported, sourceType)
	}

	if !o.acquire(sourceType) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSyncInProgress, sourceType)
	}
	defer o.release(sourceType)

	began := o.now()
	result := &domain.SyncResult{
		RunID:      uuid.NewString(),
		SourceType: sourceType,
	}

	// Initialise or resume.
	state, err := o.loadState(ctx, sourceType)
	if err != nil {
		return nil, fmt.Errorf("load sync state: %w", err)
	}
	if state.CanResume() {
		logger.Info("Resuming %s sync (run %s) from checkpoint, %d items already processed",
			sourceType, result.RunID, state.Stats.Processed)
		state.Status = domain.StatusRunning
		state.StopRequested = false
	} else {
		logger.Info("Starting %s sync (run %s)", sourceType, result.RunID)
		state.StartRun(began)
	}
	if err := o.saveState(ctx, state); err != nil {
		return nil, fmt.Errorf("persist run start: %w", err)
	}

	paused, runErr := o.stream(ctx, binding, state, opts, began, result)

	switch {
	case runErr != nil:
		// Run-level fatal: preserve the checkpoint for a later resume.
		state.FailRun(runErr)
		if saveErr := o.saveState(ctx, state); saveErr != nil {
			logger.Error("Failed to persist failed state for %s: %v", sourceType, saveErr)
		}
		result.RecordError(runErr.Error())
		o.finish(result, state, began)
		logger.Error("Sync %s failed: %v", sourceType, runErr)
		return result, runErr

	case paused:
		state.Status = domain.StatusTimeout
		state.StopRequested = false
		if err := o.saveState(ctx, state); err != nil {
			o.finish(result, state, began)
			return result, fmt.Errorf("persist paused state: %w", err)
		}
		o.finish(result, state, began)
		logger.Info("Sync %s paused at checkpoint: %d processed", sourceType, state.Stats.Processed)
		return result, nil

	default:
		// Source exhausted: delete stale records, then finalise.
		if err := o.deleteStale(ctx, binding, state, result); err != nil {
			state.FailRun(err)
			if saveErr := o.saveState(ctx, state); saveErr != nil {
				logger.Error("Failed to persist failed state for %s: %v", sourceType, saveErr)
			}
			result.RecordError(err.Error())
			o.finish(result, state, began)
			return result, err
		}

		state.CompleteRun(o.now())
		if err := o.saveState(ctx, state); err != nil {
			o.finish(result, state, began)
			return result, fmt.Errorf("persist completed state: %w", err)
		}
		o.finish(result, state, began)
		logger.Info("Sync %s complete: %d processed, %d added, %d updated, %d unchanged, %d deleted, %d errored",
			sourceType, state.Stats.Processed, state.Stats.Added, state.Stats.Updated,
			state.Stats.Unchanged, state.Stats.Deleted, state.Stats.Errored)
		return result, nil
	}
}

// RunAll syncs every configured source in stable order.
func (o *SyncOrchestrator) RunAll(ctx context.Context, opts driving.RunOptions) ([]*domain.SyncResult, error) {
	var results []*domain.SyncResult
	var errs []error

	for _, sourceType := range domain.AllSourceTypes() {
		if _, ok := o.bindings[sourceType]; !ok {
			continue
		}
		result, err := o.Run(ctx, sourceType, opts)
		if result != nil {
			results = append(results, result)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("sync %s: %w", sourceType, err))
		}
	}

	return results, errors.Join(errs...)
}

// RequestStop sets the kill switch for a source's active run. The run
// pauses at its next checkpoint. A source with no saved state has nothing
// to stop.
func (o *SyncOrchestrator) RequestStop(ctx context.Context, sourceType domain.SourceType) error {
	state, err := o.states.GetState(ctx, sourceType)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load sync state: %w", err)
	}

	state.StopRequested = true
	return o.saveState(ctx, state)
}

// Reset discards a source's run state, returning it to idle. Synced
// records are kept: the next run reconciles against them as usual.
func (o *SyncOrchestrator) Reset(ctx context.Context, sourceType domain.SourceType) error {
	if o.isActive(sourceType) {
		return fmt.Errorf("%w: %s", domain.ErrSyncInProgress, sourceType)
	}
	return o.states.DeleteState(ctx, sourceType)
}

// State returns the persisted state for a source, or an idle state if none
// has ever been saved.
func (o *SyncOrchestrator) State(ctx context.Context, sourceType domain.SourceType) (*domain.SyncState, error) {
	return o.loadState(ctx, sourceType)
}

// ListStates returns the state of every configured source.
func (o *SyncOrchestrator) ListStates(ctx context.Context) ([]*domain.SyncState, error) {
	var states []*domain.SyncState
	for _, sourceType := range domain.AllSourceTypes() {
		if _, ok := o.bindings[sourceType]; !ok {
			continue
		}
		state, err := o.loadState(ctx, sourceType)
		if err != nil {
			return nil, err
		}
		states = append(states, state)
	}
	return states, nil
}

// stream is the chunked fetch/classify/apply/checkpoint loop. It returns
// paused=true when a stop condition fired at a checkpoint, and a nil error
// with paused=false once the source is exhausted. Any returned error is
// run-level fatal.
//
//nolint:gocognit // Stream loop coordinating checkpoints and stop conditions
func (o *SyncOrchestrator) stream(
	ctx context.Context,
	binding *SourceBinding,
	state *domain.SyncState,
	opts driving.RunOptions,
	began time.Time,
	result *domain.SyncResult,
) (bool, error) {
	maxDuration := opts.MaxDuration
	if maxDuration <= 0 {
		maxDuration = o.maxRunDuration
	}

	processedThisRun := 0

	for {
		// Operator cancellation pauses cleanly: the last checkpoint is
		// already durable.
		if ctx.Err() != nil {
			return true, nil
		}

		// Retry outside the limiter: a retried fetch is a fresh request
		// and must reserve its own slot.
		var chunk *driven.SourceChunk
		err := retry.Do(ctx, binding.retryCfg, string(state.SourceType)+" fetch chunk",
			func(ctx context.Context) error {
				return binding.Limiter.Execute(ctx, func(ctx context.Context) error {
					var fetchErr error
					chunk, fetchErr = binding.Reader.FetchChunk(ctx, state.Cursor)
					return fetchErr
				})
			})
		if err != nil {
			if ctx.Err() != nil {
				return true, nil
			}
			return false, fmt.Errorf("fetch chunk: %w", err)
		}

		if err := o.processChunk(ctx, binding, state, chunk.Items, result); err != nil {
			return false, err
		}
		processedThisRun += len(chunk.Items)

		// Checkpoint: after this write it is safe to be killed without
		// losing progress. It must be durable before the next fetch.
		state.Cursor = chunk.NextCursor
		if err := o.saveState(ctx, state); err != nil {
			return false, fmt.Errorf("persist checkpoint: %w", err)
		}

		if !chunk.HasMore {
			return false, nil
		}

		// Stop conditions, checked only at checkpoint boundaries.
		if elapsed := o.now().Sub(began); elapsed >= maxDuration {
			logger.Info("%s sync reached time cap after %s", state.SourceType, elapsed.Round(time.Second))
			return true, nil
		}
		if opts.MaxItems > 0 && processedThisRun >= opts.MaxItems {
			logger.Info("%s sync reached item cap (%d)", state.SourceType, processedThisRun)
			return true, nil
		}
		stopped, err := o.stopRequested(ctx, state.SourceType)
		if err != nil {
			return false, err
		}
		if stopped {
			logger.Info("%s sync stop requested by operator", state.SourceType)
			return true, nil
		}
	}
}

// processChunk classifies each item and applies the resulting operations
// through the pipeline. Item-level failures are counted and skipped;
// returned errors are run-level fatal (the record store being unreachable).
//
//nolint:gocognit // Classification fan-out with per-decision bookkeeping
func (o *SyncOrchestrator) processChunk(
	ctx context.Context,
	binding *SourceBinding,
	state *domain.SyncState,
	items []domain.SourceItem,
	result *domain.SyncResult,
) error {
	sourceType := state.SourceType
	now := o.now()

	var ops []domain.Operation
	decisions := make(map[domain.RecordKey]Decision)

	for _, item := range items {
		key := domain.RecordKey{SourceType: sourceType, SourceID: item.ID}

		record, err := o.records.Get(ctx, key)
		if errors.Is(err, domain.ErrNotFound) {
			record = nil
		} else if err != nil {
			return fmt.Errorf("get record %s: %w", key, err)
		}

		decision := Classify(item, record, binding.Reader.MarkerChanged)
		state.Stats.Processed++
		logger.Debug("Classified %s as %s", key, decision)

		if decision == DecisionUnchanged {
			// Refresh the watermark so the delete phase does not
			// mistake the item for stale.
			record.LastSeenAt = now
			record.UpdatedAt = now
			if err := o.records.Save(ctx, *record); err != nil {
				return fmt.Errorf("refresh record %s: %w", key, err)
			}
			state.Stats.Unchanged++
			continue
		}

		content, err := o.fetchDetail(ctx, binding, item.ID)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("fetch detail %s: %w", key, err)
			}
			state.Stats.Errored++
			result.RecordError(fmt.Sprintf("%s: render: %v", key, err))
			logger.Warn("Failed to render %s: %v", key, err)
			continue
		}

		if decision == DecisionUpdated && record.ContentHash == content.Hash() {
			// The marker moved but the extracted text did not (an
			// edit outside the indexed fields). Refresh metadata
			// and skip the re-upload.
			record.Marker = item.Marker
			record.LastSeenAt = now
			record.UpdatedAt = now
			if err := o.records.Save(ctx, *record); err != nil {
				return fmt.Errorf("refresh record %s: %w", key, err)
			}
			state.Stats.Updated++
			continue
		}

		op := domain.UploadOperation{
			Item:       item,
			SourceType: sourceType,
			Content:    *content,
		}
		if decision == DecisionUpdated {
			op.SupersededArtifactID = record.ArtifactID
		}
		ops = append(ops, op)
		decisions[key] = decision
	}

	for res := range binding.Pipeline.Apply(ctx, ops) {
		upload, ok := res.Operation.(domain.UploadOperation)
		if !ok {
			continue
		}
		if !res.Success() {
			state.Stats.Errored++
			result.RecordError(res.Err.Error())
			logger.Warn("Upload failed: %v", res.Err)
			continue
		}
		if decisions[upload.Key()] == DecisionUpdated {
			state.Stats.Updated++
		} else {
			state.Stats.Added++
		}
	}

	return nil
}

// deleteStale removes every record of the source not reconfirmed by this
// run. Only called after the source reported exhaustion: a paused run must
// not treat unvisited items as stale.
func (o *SyncOrchestrator) deleteStale(
	ctx context.Context,
	binding *SourceBinding,
	state *domain.SyncState,
	result *domain.SyncResult,
) error {
	if state.RunStartedAt == nil {
		return errors.New("delete stale: run has no watermark")
	}

	stale, err := o.records.ListStaleBefore(ctx, state.SourceType, *state.RunStartedAt)
	if err != nil {
		return fmt.Errorf("list stale records: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	logger.Info("Deleting %d stale %s records", len(stale), state.SourceType)

	ops := make([]domain.Operation, 0, len(stale))
	for _, rec := range stale {
		ops = append(ops, domain.DeleteOperation{Key: rec.Key(), ArtifactID: rec.ArtifactID})
	}

	for res := range binding.Pipeline.Apply(ctx, ops) {
		if !res.Success() {
			state.Stats.Errored++
			result.RecordError(res.Err.Error())
			logger.Warn("Stale delete failed: %v", res.Err)
			continue
		}
		state.Stats.Deleted++
	}

	return nil
}

// fetchDetail renders one item's content through the source limiter and
// retry executor.
func (o *SyncOrchestrator) fetchDetail(ctx context.Context, binding *SourceBinding, id string) (*domain.RenderedContent, error) {
	var content *domain.RenderedContent
	err := retry.Do(ctx, binding.retryCfg, "fetch detail", func(ctx context.Context) error {
		return binding.Limiter.Execute(ctx, func(ctx context.Context) error {
			var fetchErr error
			content, fetchErr = binding.Reader.FetchDetail(ctx, id)
			return fetchErr
		})
	})
	return content, err
}

// stopRequested re-reads the persisted stop flag. The flag is set from a
// separate process (the CLI), so the in-memory state is not authoritative.
func (o *SyncOrchestrator) stopRequested(ctx context.Context, sourceType domain.SourceType) (bool, error) {
	fresh, err := o.states.GetState(ctx, sourceType)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check stop flag: %w", err)
	}
	return fresh.StopRequested, nil
}

// loadState fetches a source's state, defaulting to idle when absent.
func (o *SyncOrchestrator) loadState(ctx context.Context, sourceType domain.SourceType) (*domain.SyncState, error) {
	state, err := o.states.GetState(ctx, sourceType)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewSyncState(sourceType), nil
	}
	if err != nil {
		return nil, err
	}
	return state, nil
}

// saveState persists a state with a fresh update timestamp.
func (o *SyncOrchestrator) saveState(ctx context.Context, state *domain.SyncState) error {
	state.UpdatedAt = o.now()
	return o.states.SaveState(ctx, *state)
}

// finish fills the result summary from the final state.
func (o *SyncOrchestrator) finish(result *domain.SyncResult, state *domain.SyncState, began time.Time) {
	result.Status = state.Status
	result.Stats = state.Stats
	result.Duration = o.now().Sub(began)
}

// acquire marks a source as actively syncing in this process.
func (o *SyncOrchestrator) acquire(sourceType domain.SourceType) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active[sourceType] {
		return false
	}
	o.active[sourceType] = true
	return true
}

// release clears the active mark.
func (o *SyncOrchestrator) release(sourceType domain.SourceType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.active, sourceType)
}

// isActive reports whether a run is active in this process.
func (o *SyncOrchestrator) isActive(sourceType domain.SourceType) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active[sourceType]
}
