package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
)

// markerInequality is the simplest comparison strategy: any difference is
// a change.
func markerInequality(stored, current string) bool {
	return stored != current
}

// TestClassify_New tests that a missing record classifies as new.
func TestClassify_New(t *testing.T) {
	item := domain.SourceItem{ID: "page-1", Marker: "m1"}

	decision := Classify(item, nil, markerInequality)

	assert.Equal(t, DecisionNew, decision)
	assert.True(t, decision.NeedsUpload())
}

// TestClassify_Incomplete tests that an unconfirmed upload wins over the
// marker comparison, even when markers match.
func TestClassify_Incomplete(t *testing.T) {
	item := domain.SourceItem{ID: "page-1", Marker: "m1"}
	record := &domain.SyncedRecord{
		SourceType: domain.SourceTypeNotion,
		SourceID:   "page-1",
		ArtifactID: "", // crash between the two persistence writes
		Marker:     "m1",
	}

	decision := Classify(item, record, markerInequality)

	assert.Equal(t, DecisionIncomplete, decision)
	assert.True(t, decision.NeedsUpload())
}

// TestClassify_Updated tests marker-driven change detection.
func TestClassify_Updated(t *testing.T) {
	item := domain.SourceItem{ID: "page-1", Marker: "m2"}
	record := &domain.SyncedRecord{
		SourceID:   "page-1",
		ArtifactID: "file-1",
		Marker:     "m1",
	}

	assert.Equal(t, DecisionUpdated, Classify(item, record, markerInequality))
}

// TestClassify_Unchanged tests the fall-through case.
func TestClassify_Unchanged(t *testing.T) {
	item := domain.SourceItem{ID: "page-1", Marker: "m1"}
	record := &domain.SyncedRecord{
		SourceID:   "page-1",
		ArtifactID: "file-1",
		Marker:     "m1",
	}

	decision := Classify(item, record, markerInequality)

	assert.Equal(t, DecisionUnchanged, decision)
	assert.False(t, decision.NeedsUpload())
}

// TestClassify_Idempotent tests that classifying the same pair twice with
// no intervening mutation yields the same decision both times.
func TestClassify_Idempotent(t *testing.T) {
	item := domain.SourceItem{ID: "thread-9", Marker: "replies:4;edited:2026-08-01T10:00:00Z"}
	record := &domain.SyncedRecord{
		SourceType: domain.SourceTypeGitHub,
		SourceID:   "thread-9",
		ArtifactID: "file-9",
		Marker:     "replies:4;edited:2026-08-01T10:00:00Z",
		LastSeenAt: time.Now(),
	}

	first := Classify(item, record, markerInequality)
	second := Classify(item, record, markerInequality)

	assert.Equal(t, DecisionUnchanged, first)
	assert.Equal(t, first, second)
}

// TestClassify_NilStrategy tests that a missing comparison strategy never
// reports a change.
func TestClassify_NilStrategy(t *testing.T) {
	item := domain.SourceItem{ID: "page-1", Marker: "m2"}
	record := &domain.SyncedRecord{SourceID: "page-1", ArtifactID: "file-1", Marker: "m1"}

	assert.Equal(t, DecisionUnchanged, Classify(item, record, nil))
}

// TestDecision_String tests log names.
func TestDecision_String(t *testing.T) {
	assert.Equal(t, "new", DecisionNew.String())
	assert.Equal(t, "incomplete", DecisionIncomplete.String())
	assert.Equal(t, "updated", DecisionUpdated.String())
	assert.Equal(t, "unchanged", DecisionUnchanged.String())
	assert.Equal(t, "unknown", Decision(99).String())
}
