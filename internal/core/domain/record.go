package domain

import "time"

// RecordKey uniquely identifies a synced record across all sources.
type RecordKey struct {
	// SourceType is the source the item belongs to.
	SourceType SourceType

	// SourceID is the item's identity within that source.
	SourceID string
}

// String returns a stable "type/id" form, used in logs and error messages.
func (k RecordKey) String() string {
	return string(k.SourceType) + "/" + k.SourceID
}

// SyncedRecord is the persisted record of an item that has ever been synced
// to the index. One record exists per (SourceType, SourceID).
//
// The record is written in two phases during an upload: first with an empty
// ArtifactID, then updated with the ID returned by the index. A record with
// an empty ArtifactID therefore marks an upload that was never confirmed,
// and is re-uploaded on the next run.
type SyncedRecord struct {
	// SourceType is the source the item belongs to.
	SourceType SourceType

	// SourceID is the item's identity within that source.
	SourceID string

	// ArtifactID is the ID of the uploaded object in the external index.
	// Empty until the index acknowledges the create call.
	ArtifactID string

	// ContentHash is the digest of the rendered content last uploaded.
	ContentHash string

	// Marker is the change marker observed when the record was last
	// brought up to date.
	Marker string

	// LastSeenAt is when a run last confirmed the item still exists at
	// the source. Records not reconfirmed by a completed run are stale
	// and deleted.
	LastSeenAt time.Time

	// CreatedAt is when the record was first created.
	CreatedAt time.Time

	// UpdatedAt is when the record was last modified.
	UpdatedAt time.Time
}

// Key returns the record's identity key.
func (r *SyncedRecord) Key() RecordKey {
	return RecordKey{SourceType: r.SourceType, SourceID: r.SourceID}
}

// UploadConfirmed reports whether the index acknowledged the artifact.
func (r *SyncedRecord) UploadConfirmed() bool {
	return r.ArtifactID != ""
}
