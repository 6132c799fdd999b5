package services

import "github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"

// Decision is the classifier's verdict for one source item.
type Decision int

const (
	// DecisionNew means no record exists; the item is uploaded for the
	// first time.
	DecisionNew Decision = iota

	// DecisionIncomplete means a record exists but its upload was never
	// confirmed: a prior run persisted the record and crashed before the
	// index acknowledged the artifact. Handled exactly like new.
	DecisionIncomplete

	// DecisionUpdated means the source-specific marker comparison says
	// the item changed since it was last synced.
	DecisionUpdated

	// DecisionUnchanged means nothing changed. The record's LastSeenAt
	// still needs refreshing so the delete phase does not mistake the
	// item for stale.
	DecisionUnchanged
)

// String returns the decision name for logs.
func (d Decision) String() string {
	switch d {
	case DecisionNew:
		return "new"
	case DecisionIncomplete:
		return "incomplete"
	case DecisionUpdated:
		return "updated"
	case DecisionUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// NeedsUpload reports whether the decision requires rendering and
// (potentially) uploading content.
func (d Decision) NeedsUpload() bool {
	return d == DecisionNew || d == DecisionIncomplete || d == DecisionUpdated
}

// Classify decides what to do with a source item given its last-known
// persisted record. markerChanged is the source's comparison strategy.
//
// Rules run in priority order: a missing record always wins, an
// unconfirmed upload always wins over a marker comparison, and only then
// is the marker consulted.
func Classify(item domain.SourceItem, record *domain.SyncedRecord, markerChanged func(stored, current string) bool) Decision {
	if record == nil {
		return DecisionNew
	}
	if !record.UploadConfirmed() {
		return DecisionIncomplete
	}
	if markerChanged != nil && markerChanged(record.Marker, item.Marker) {
		return DecisionUpdated
	}
	return DecisionUnchanged
}
