package driven

import (
	"context"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

// IndexWriter uploads rendered content to the external search index and
// removes artifacts from it. Both operations must be idempotent from the
// caller's perspective: creates may be retried, and deleting an artifact
// that is already absent is success.
type IndexWriter interface {
	// Create uploads content and returns the new artifact's ID. It
	// returns once the index acknowledges the create call; it does not
	// wait for index-side ingestion to finish.
	Create(ctx context.Context, content domain.RenderedContent) (string, error)

	// Delete removes an artifact. A missing artifact is not an error:
	// a prior run may have partially completed the deletion.
	Delete(ctx context.Context, artifactID string) error

	// IsTransient classifies an index error as retryable.
	IsTransient(err error) bool
}
