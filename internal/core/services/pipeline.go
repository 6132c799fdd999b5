package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driven"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/logger"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/ratelimit"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/retry"
)

// DefaultPipelineConcurrency is the upload/delete fan-out per chunk.
const DefaultPipelineConcurrency = 10

// Pipeline applies upload and delete operations against the index with
// bounded concurrency. One operation's failure never aborts its siblings;
// every operation produces exactly one OperationResult.
type Pipeline struct {
	index       driven.IndexWriter
	records     driven.RecordStore
	limiter     *ratelimit.Limiter
	retryCfg    retry.Config
	concurrency int

	// now is replaceable for tests.
	now func() time.Time
}

// NewPipeline creates a pipeline writing to index through limiter.
// concurrency <= 0 selects the default fan-out.
func NewPipeline(index driven.IndexWriter, records driven.RecordStore, limiter *ratelimit.Limiter, concurrency int) *Pipeline {
	if concurrency <= 0 {
		concurrency = DefaultPipelineConcurrency
	}
	return &Pipeline{
		index:       index,
		records:     records,
		limiter:     limiter,
		retryCfg:    retry.DefaultConfig(index.IsTransient),
		concurrency: concurrency,
		now:         time.Now,
	}
}

// Apply runs every operation with bounded concurrency, emitting results as
// they complete. The channel closes once all operations have finished; the
// caller may consume early results before the whole set is done.
func (p *Pipeline) Apply(ctx context.Context, ops []domain.Operation) <-chan domain.OperationResult {
	results := make(chan domain.OperationResult, len(ops))
	sem := make(chan struct{}, p.concurrency)

	var wg sync.WaitGroup
	for _, op := range ops {
		wg.Add(1)
		go func(op domain.Operation) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results <- p.apply(ctx, op)
		}(op)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// apply dispatches on the operation kind.
func (p *Pipeline) apply(ctx context.Context, op domain.Operation) domain.OperationResult {
	switch op := op.(type) {
	case domain.UploadOperation:
		return p.applyUpload(ctx, op)
	case domain.DeleteOperation:
		return p.applyDelete(ctx, op)
	default:
		return domain.OperationResult{
			Operation: op,
			Err:       fmt.Errorf("unknown operation type %T", op),
		}
	}
}

// applyUpload performs the two-phase upload. The record is persisted with
// an empty artifact ID before the index call, so a crash between the two
// writes leaves an "incomplete" record that the next run repairs by
// re-uploading. Only after the index acknowledges the create is the
// artifact ID attached.
func (p *Pipeline) applyUpload(ctx context.Context, op domain.UploadOperation) domain.OperationResult {
	key := op.Key()
	now := p.now()

	record := domain.SyncedRecord{
		SourceType:  op.SourceType,
		SourceID:    op.Item.ID,
		ContentHash: op.Content.Hash(),
		Marker:      op.Item.Marker,
		LastSeenAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if existing, err := p.records.Get(ctx, key); err == nil {
		record.CreatedAt = existing.CreatedAt
	}

	// Phase one: record without artifact ID.
	if err := p.records.Save(ctx, record); err != nil {
		return domain.OperationResult{
			Operation: op,
			Err:       fmt.Errorf("save record %s: %w", key, err),
		}
	}

	// Retry wraps the limiter, not the other way round: every attempt is
	// a real request issuance and must reserve its own slot.
	var artifactID string
	err := retry.Do(ctx, p.retryCfg, "index create", func(ctx context.Context) error {
		return p.limiter.Execute(ctx, func(ctx context.Context) error {
			var createErr error
			artifactID, createErr = p.index.Create(ctx, op.Content)
			return createErr
		})
	})
	if err != nil {
		return domain.OperationResult{
			Operation: op,
			Err:       fmt.Errorf("create artifact %s: %w", key, err),
		}
	}

	// Phase two: attach the confirmed artifact ID.
	record.ArtifactID = artifactID
	record.UpdatedAt = p.now()
	if err := p.records.Save(ctx, record); err != nil {
		return domain.OperationResult{
			Operation: op,
			Err:       fmt.Errorf("confirm record %s: %w", key, err),
		}
	}

	// An updated item replaces its old artifact. Failure here is
	// tolerated: the record already points at the new artifact, and the
	// orphan is invisible to the engine.
	if op.SupersededArtifactID != "" && op.SupersededArtifactID != artifactID {
		if err := p.deleteArtifact(ctx, op.SupersededArtifactID); err != nil {
			logger.Warn("Failed to delete superseded artifact %s for %s: %v",
				op.SupersededArtifactID, key, err)
		}
	}

	return domain.OperationResult{Operation: op, ArtifactID: artifactID}
}

// applyDelete removes the artifact first and the record second: if the
// process dies between the two, the next delete of the same record finds
// the artifact already absent, which the index writer treats as success.
func (p *Pipeline) applyDelete(ctx context.Context, op domain.DeleteOperation) domain.OperationResult {
	if op.ArtifactID != "" {
		if err := p.deleteArtifact(ctx, op.ArtifactID); err != nil {
			return domain.OperationResult{
				Operation: op,
				Err:       fmt.Errorf("delete artifact %s: %w", op.Key, err),
			}
		}
	}

	if err := p.records.Delete(ctx, op.Key); err != nil {
		return domain.OperationResult{
			Operation: op,
			Err:       fmt.Errorf("delete record %s: %w", op.Key, err),
		}
	}

	return domain.OperationResult{Operation: op}
}

// deleteArtifact removes one artifact through the rate limiter and retry
// executor.
func (p *Pipeline) deleteArtifact(ctx context.Context, artifactID string) error {
	return retry.Do(ctx, p.retryCfg, "index delete", func(ctx context.Context) error {
		return p.limiter.Execute(ctx, func(ctx context.Context) error {
			return p.index.Delete(ctx, artifactID)
		})
	})
}
