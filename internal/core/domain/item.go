package domain

import (
	"crypto/sha256"
	"encoding/hex"
)

// SourceItem is an item discovered at a content source during a chunk fetch.
// It is ephemeral: the engine classifies it against the persisted record and
// discards it. Full content is fetched lazily, only when an upload is needed.
type SourceItem struct {
	// ID is the item's identity within its source (page ID, issue URI).
	ID string

	// Title is the human-readable title, used for upload filenames
	// and log output.
	Title string

	// Marker is the opaque change marker for this item. Sources encode
	// whatever signals an edit: a last-edited timestamp for pages, a
	// reply-count plus edit-timestamp composite for threads. The engine
	// never interprets it; it only asks the source's MarkerChanged
	// strategy whether two markers differ meaningfully.
	Marker string
}

// RenderedContent is the extracted text of an item, ready for upload to
// the index.
type RenderedContent struct {
	// Text is the full extracted text.
	Text string

	// Filename is the name the artifact is created under in the index.
	Filename string
}

// Hash returns the content hash of the rendered text.
func (c RenderedContent) Hash() string {
	return HashContent(c.Text)
}

// HashContent computes the deterministic digest used to detect whether an
// item's extracted text actually changed. Change markers can be coarser
// than content (an edit that does not alter extracted text), so the hash
// is the final arbiter before a re-upload.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
