// Package domain defines the core business entities for the knowledge sync
// engine.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceItem: An item discovered at a content source
//   - SyncedRecord: The persisted record of an item ever synced
//   - SyncState: Resumable per-source run state (cursor, watermark, stats)
//   - Operation: An upload or delete applied to the external index
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
