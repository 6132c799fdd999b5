// Package notion streams pages of a Notion database as sync source items.
//
// Each item is one page, rendered as a markdown document by walking its
// block tree. The change marker is the page's last-edited timestamp, which
// Notion bumps on any content or property edit.
//
// Database queries are paginated with Notion's own cursors, so the chunk
// cursor is passed through verbatim. API access is throttled to stay
// within Notion's request rate.
package notion
