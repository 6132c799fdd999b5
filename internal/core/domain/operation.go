package domain

import "time"

// Operation is a single action the pipeline applies against the external
// index. It is a closed union: UploadOperation or DeleteOperation.
type Operation interface {
	// Describe returns a short human-readable form for logs.
	Describe() string

	isOperation()
}

// UploadOperation creates (or replaces) an item's artifact in the index.
type UploadOperation struct {
	// Item is the source item being uploaded.
	Item SourceItem

	// SourceType is the source the item belongs to.
	SourceType SourceType

	// Content is the rendered content to upload.
	Content RenderedContent

	// SupersededArtifactID is the previous artifact to delete after a
	// successful upload, when an updated item replaces an older one.
	// Empty for first-time uploads.
	SupersededArtifactID string
}

func (op UploadOperation) isOperation() {}

// Describe returns a short human-readable form for logs.
func (op UploadOperation) Describe() string {
	return "upload " + string(op.SourceType) + "/" + op.Item.ID
}

// Key returns the record key the upload maintains.
func (op UploadOperation) Key() RecordKey {
	return RecordKey{SourceType: op.SourceType, SourceID: op.Item.ID}
}

// DeleteOperation removes an item's artifact from the index and its
// persisted record.
type DeleteOperation struct {
	// Key identifies the record to delete.
	Key RecordKey

	// ArtifactID is the artifact to remove from the index. May be empty
	// for records whose upload was never confirmed.
	ArtifactID string
}

func (op DeleteOperation) isOperation() {}

// Describe returns a short human-readable form for logs.
func (op DeleteOperation) Describe() string {
	return "delete " + op.Key.String()
}

// OperationResult is the outcome of one pipeline operation.
type OperationResult struct {
	// Operation is the operation this result belongs to.
	Operation Operation

	// ArtifactID is the created artifact's ID for successful uploads.
	ArtifactID string

	// Err is the failure, nil on success.
	Err error
}

// Success reports whether the operation completed.
func (r OperationResult) Success() bool {
	return r.Err == nil
}

// MaxResultErrors bounds the error strings carried in a SyncResult.
const MaxResultErrors = 20

// SyncResult is the summary returned to the caller for every run, whether
// it completed, paused, or failed.
type SyncResult struct {
	// RunID identifies this invocation, for log correlation.
	RunID string

	// SourceType is the source that was synced.
	SourceType SourceType

	// Status is the state the run ended in.
	Status SyncStatus

	// Stats are the accumulated counters, including any resumed progress.
	Stats SyncStats

	// Duration is the wall-clock time of this invocation only.
	Duration time.Duration

	// Errors holds up to MaxResultErrors item-level error messages.
	Errors []string
}

// RecordError appends an item-level error message, keeping the list bounded.
func (r *SyncResult) RecordError(msg string) {
	if len(r.Errors) < MaxResultErrors {
		r.Errors = append(r.Errors, msg)
	}
}
