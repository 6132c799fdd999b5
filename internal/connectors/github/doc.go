// Package github streams GitHub issue threads as sync source items.
//
// Each item is one issue together with its comments, rendered as a single
// markdown document. The change marker combines the reply count with the
// last-edited timestamp, so both new comments and edits to existing posts
// trigger a re-render.
//
// The reader walks the configured repositories in order, one issues page
// per chunk, and encodes its position as a base64 JSON cursor. API access
// is throttled proactively and backs off on rate limit headers.
package github
