// Package connectors groups the source reader implementations. Each
// connector knows how to walk one source type (Notion databases, GitHub
// issue threads) in chunks and to render an item into indexable text.
package connectors
