package github

import (
	"encoding/base64"
	"encoding/json"
)

// CursorVersion is the current cursor schema version.
const CursorVersion = 1

// Cursor tracks the streaming position across the configured repositories.
// Repositories are walked in configuration order, one issue page at a time.
type Cursor struct {
	// Version is the schema version for future migrations.
	Version int `json:"v"`

	// Repo is the repository currently being streamed (owner/name).
	// Empty means the stream has not started.
	Repo string `json:"repo,omitempty"`

	// Page is the next issues page to fetch within Repo, 1-based.
	Page int `json:"page,omitempty"`
}

// NewCursor creates a cursor positioned at the start of the stream.
func NewCursor() *Cursor {
	return &Cursor{Version: CursorVersion}
}

// Encode serialises the cursor to a base64-encoded JSON string.
func (c *Cursor) Encode() string {
	if c == nil {
		return ""
	}
	data, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeCursor deserialises a cursor from a base64-encoded JSON string.
// Returns a new start-of-stream cursor if the input is empty.
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return NewCursor(), nil
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var cursor Cursor
	if err := json.Unmarshal(data, &cursor); err != nil {
		return nil, ErrInvalidCursor
	}

	return &cursor, nil
}

// position resolves the cursor to an index into repos and a page number.
// A repo that disappeared from the configuration restarts the stream from
// the first repo: revisited items classify as unchanged, while skipping
// ahead could wrongly mark unvisited items stale.
func (c *Cursor) position(repos []string) (repoIndex, page int) {
	if c.Repo == "" {
		return 0, 1
	}
	for i, repo := range repos {
		if repo == c.Repo {
			return i, c.Page
		}
	}
	return 0, 1
}
