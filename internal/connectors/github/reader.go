package github

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.SourceReader = (*Reader)(nil)

// Reader streams issue threads from the configured repositories. One item
// is one issue together with its comments; pull requests are skipped.
type Reader struct {
	cfg    Config
	client *Client
}

// NewReader creates a reader for the configured repositories.
func NewReader(cfg Config) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	client, err := NewClient(cfg.Token, cfg.BaseURL)
	if err != nil {
		return nil, err
	}

	return &Reader{cfg: cfg, client: client}, nil
}

// Type returns the source type.
func (r *Reader) Type() domain.SourceType {
	return domain.SourceTypeGitHub
}

// FetchChunk returns one page of issues from the repository the cursor
// points at. Repositories are walked in configuration order.
func (r *Reader) FetchChunk(ctx context.Context, cursor string) (*driven.SourceChunk, error) {
	cur, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCursor, err)
	}

	repoIndex, page := cur.position(r.cfg.Repos)
	repo := r.cfg.Repos[repoIndex]
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}

	issues, morePages, err := r.client.ListIssuePage(ctx, owner, name, page, r.cfg.PageSize)
	if err != nil {
		return nil, fmt.Errorf("fetch %s page %d: %w", repo, page, err)
	}

	items := make([]domain.SourceItem, 0, len(issues))
	for _, issue := range issues {
		// The issues endpoint also returns pull requests.
		if issue.IsPullRequest() {
			continue
		}
		items = append(items, domain.SourceItem{
			ID:     itemID(repo, issue.GetNumber()),
			Title:  issue.GetTitle(),
			Marker: issueMarker(issue),
		})
	}

	chunk := &driven.SourceChunk{Items: items}
	switch {
	case morePages:
		chunk.HasMore = true
		chunk.NextCursor = (&Cursor{Version: CursorVersion, Repo: repo, Page: page + 1}).Encode()
	case repoIndex+1 < len(r.cfg.Repos):
		chunk.HasMore = true
		chunk.NextCursor = (&Cursor{Version: CursorVersion, Repo: r.cfg.Repos[repoIndex+1], Page: 1}).Encode()
	default:
		chunk.HasMore = false
	}

	return chunk, nil
}

// FetchDetail renders one issue thread as a markdown document.
func (r *Reader) FetchDetail(ctx context.Context, id string) (*domain.RenderedContent, error) {
	owner, name, number, err := parseItemID(id)
	if err != nil {
		return nil, err
	}

	issue, err := r.client.GetIssue(ctx, owner, name, number)
	if err != nil {
		return nil, fmt.Errorf("get issue %s: %w", id, err)
	}

	var comments []*gh.IssueComment
	if issue.GetComments() > 0 {
		comments, err = r.client.ListIssueComments(ctx, owner, name, number)
		if err != nil {
			return nil, fmt.Errorf("list comments %s: %w", id, err)
		}
	}

	return renderIssueThread(owner, name, issue, comments), nil
}

// MarkerChanged compares reply count and edit timestamp. An unparseable
// marker is treated as changed so the item is re-rendered.
func (r *Reader) MarkerChanged(recorded, current string) bool {
	oldReplies, oldEdited, err := parseMarker(recorded)
	if err != nil {
		return true
	}
	newReplies, newEdited, err := parseMarker(current)
	if err != nil {
		return true
	}
	return oldReplies != newReplies || !oldEdited.Equal(newEdited)
}

// IsTransient reports whether an error from this reader is retryable.
func (r *Reader) IsTransient(err error) bool {
	return IsTransient(err)
}

// Close releases resources. The HTTP client needs no explicit shutdown.
func (r *Reader) Close() error {
	return nil
}

// issueMarker builds the change marker from the fields a reply or an
// edit is guaranteed to move.
func issueMarker(issue *gh.Issue) string {
	return fmt.Sprintf("replies:%d;edited:%s",
		issue.GetComments(),
		issue.GetUpdatedAt().UTC().Format(time.RFC3339))
}

// parseMarker splits a marker of the form "replies:N;edited:RFC3339".
func parseMarker(marker string) (replies int, edited time.Time, err error) {
	parts := strings.SplitN(marker, ";", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, fmt.Errorf("github: malformed marker %q", marker)
	}

	repliesStr, ok := strings.CutPrefix(parts[0], "replies:")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("github: malformed marker %q", marker)
	}
	replies, err = strconv.Atoi(repliesStr)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("github: malformed marker %q", marker)
	}

	editedStr, ok := strings.CutPrefix(parts[1], "edited:")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("github: malformed marker %q", marker)
	}
	edited, err = time.Parse(time.RFC3339, editedStr)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("github: malformed marker %q", marker)
	}

	return replies, edited, nil
}

// itemID builds the item identifier "owner/name#number".
func itemID(repo string, number int) string {
	return fmt.Sprintf("%s#%d", repo, number)
}

// parseItemID splits an item identifier into its parts.
func parseItemID(id string) (owner, name string, number int, err error) {
	repo, numberStr, ok := strings.Cut(id, "#")
	if !ok {
		return "", "", 0, fmt.Errorf("%w: %q", ErrInvalidItemID, id)
	}
	owner, name, err = splitRepo(repo)
	if err != nil {
		return "", "", 0, fmt.Errorf("%w: %q", ErrInvalidItemID, id)
	}
	number, err = strconv.Atoi(numberStr)
	if err != nil || number <= 0 {
		return "", "", 0, fmt.Errorf("%w: %q", ErrInvalidItemID, id)
	}
	return owner, name, number, nil
}
