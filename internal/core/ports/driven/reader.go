package driven

import (
	"context"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

// SourceChunk is one page of items from a source, with the token needed to
// fetch the next page.
type SourceChunk struct {
	// Items are the discovered items, in source order.
	Items []domain.SourceItem

	// NextCursor resumes fetching after this chunk. Persisted as the
	// checkpoint once the chunk is fully applied.
	NextCursor string

	// HasMore is false once the source is exhausted. The delete-stale
	// phase only runs after an exhausted stream.
	HasMore bool
}

// SourceReader streams items from one content source. Implementations own
// all transport details: pagination, authentication, payload decoding, and
// their API's rate limits (driven through the engine's limiter and retry
// executor by the orchestrator).
type SourceReader interface {
	// Type returns the source this reader serves.
	Type() domain.SourceType

	// FetchChunk returns the next chunk of items after cursor. An empty
	// cursor starts from the beginning. Cursors are opaque to the
	// engine; readers are free to encode partitioned progress in them.
	FetchChunk(ctx context.Context, cursor string) (*SourceChunk, error)

	// FetchDetail renders the full content of one item. Called lazily,
	// only for items that need an upload.
	FetchDetail(ctx context.Context, id string) (*domain.RenderedContent, error)

	// MarkerChanged reports whether current indicates a meaningful
	// change over the stored marker. This is the source-specific
	// comparison strategy consumed by the classifier.
	MarkerChanged(stored, current string) bool

	// IsTransient classifies a reader error as retryable.
	IsTransient(err error) bool

	// Close releases resources.
	Close() error
}
