package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"
	"golang.org/x/time/rate"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driven"
)

// NotionRequestRate is the proactive throttle (Notion allows ~3 req/sec).
const NotionRequestRate = 3

// maxBlockDepth bounds the block tree walk. Notion pages nest toggles and
// list items; anything deeper than this contributes no searchable text
// worth another request.
const maxBlockDepth = 8

// Ensure Reader implements the interface.
var _ driven.SourceReader = (*Reader)(nil)

// Narrow views of the notionapi client services, for testability.
type databaseService interface {
	Query(ctx context.Context, id notionapi.DatabaseID, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

type pageService interface {
	Get(ctx context.Context, id notionapi.PageID) (*notionapi.Page, error)
}

type blockService interface {
	GetChildren(ctx context.Context, id notionapi.BlockID, pagination *notionapi.Pagination) (*notionapi.GetChildrenResponse, error)
}

// Reader streams the pages of one Notion database.
type Reader struct {
	cfg       Config
	databases databaseService
	pages     pageService
	blocks    blockService
	throttle  *rate.Limiter
}

// NewReader creates a reader over a Notion database.
func NewReader(cfg Config) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	client := notionapi.NewClient(notionapi.Token(cfg.Token))
	return &Reader{
		cfg:       cfg,
		databases: client.Database,
		pages:     client.Page,
		blocks:    client.Block,
		throttle:  rate.NewLimiter(NotionRequestRate, 1),
	}, nil
}

// Type returns the source type.
func (r *Reader) Type() domain.SourceType {
	return domain.SourceTypeNotion
}

// FetchChunk queries one page of the database. Notion's own pagination
// cursor is used as the chunk cursor.
func (r *Reader) FetchChunk(ctx context.Context, cursor string) (*driven.SourceChunk, error) {
	if err := r.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	req := &notionapi.DatabaseQueryRequest{
		PageSize: r.cfg.PageSize,
		Sorts: []notionapi.SortObject{
			{Timestamp: "created_time", Direction: "ascending"},
		},
	}
	if cursor != "" {
		req.StartCursor = notionapi.Cursor(cursor)
	}

	resp, err := r.databases.Query(ctx, notionapi.DatabaseID(r.cfg.DatabaseID), req)
	if err != nil {
		return nil, wrapAPIError(err, "query database")
	}

	items := make([]domain.SourceItem, 0, len(resp.Results))
	for i := range resp.Results {
		page := &resp.Results[i]
		if page.Archived {
			// Archived pages drop out of the stream; the delete phase
			// removes their artifacts.
			continue
		}
		items = append(items, domain.SourceItem{
			ID:     string(page.ID),
			Title:  pageTitle(page),
			Marker: page.LastEditedTime.UTC().Format(time.RFC3339),
		})
	}

	return &driven.SourceChunk{
		Items:      items,
		NextCursor: string(resp.NextCursor),
		HasMore:    resp.HasMore,
	}, nil
}

// FetchDetail renders one page as a markdown document by walking its
// block tree.
func (r *Reader) FetchDetail(ctx context.Context, id string) (*domain.RenderedContent, error) {
	if err := r.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	page, err := r.pages.Get(ctx, notionapi.PageID(id))
	if err != nil {
		return nil, wrapAPIError(err, "get page "+id)
	}

	text, err := r.renderPage(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("render page %s: %w", id, err)
	}

	return &domain.RenderedContent{
		Text:     text,
		Filename: "notion-" + shortID(id) + ".md",
	}, nil
}

// MarkerChanged compares last-edited timestamps. An unparseable marker is
// treated as changed so the item is re-rendered.
func (r *Reader) MarkerChanged(recorded, current string) bool {
	recordedAt, err := time.Parse(time.RFC3339, recorded)
	if err != nil {
		return true
	}
	currentAt, err := time.Parse(time.RFC3339, current)
	if err != nil {
		return true
	}
	return !recordedAt.Equal(currentAt)
}

// IsTransient reports whether an error from this reader is retryable.
func (r *Reader) IsTransient(err error) bool {
	return IsTransient(err)
}

// Close releases resources. The HTTP client needs no explicit shutdown.
func (r *Reader) Close() error {
	return nil
}

// listChildren fetches all child blocks of a block, following Notion's
// pagination.
func (r *Reader) listChildren(ctx context.Context, id notionapi.BlockID) ([]notionapi.Block, error) {
	var all []notionapi.Block
	pagination := &notionapi.Pagination{PageSize: 100}

	for {
		if err := r.throttle.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := r.blocks.GetChildren(ctx, id, pagination)
		if err != nil {
			return nil, wrapAPIError(err, "get block children")
		}

		all = append(all, resp.Results...)
		if !resp.HasMore {
			return all, nil
		}
		pagination.StartCursor = notionapi.Cursor(resp.NextCursor)
	}
}

// pageTitle extracts the page's title property.
func pageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			return plainText(title.Title)
		}
	}
	return ""
}
