package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driven"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/ratelimit"
)

// --- Mock collaborators shared by the pipeline and orchestrator tests ---

var errIndexTransient = errors.New("index rate limited")

// mockReader implements driven.SourceReader with a scripted set of chunks
// keyed by cursor.
type mockReader struct {
	mu sync.Mutex

	sourceType domain.SourceType

	// chunks maps a cursor to the chunk served for it. The empty cursor
	// is the start of the stream.
	chunks map[string]driven.SourceChunk

	// details maps item ID to rendered content.
	details map[string]domain.RenderedContent

	// detailErrs injects per-item render failures.
	detailErrs map[string]error

	// fetchErr fails every FetchChunk call when set.
	fetchErr error

	// fetchedCursors records every cursor FetchChunk was called with.
	fetchedCursors []string

	detailCalls int
	closed      bool
}

func newMockReader(sourceType domain.SourceType) *mockReader {
	return &mockReader{
		sourceType: sourceType,
		chunks:     make(map[string]driven.SourceChunk),
		details:    make(map[string]domain.RenderedContent),
		detailErrs: make(map[string]error),
	}
}

// addChunk scripts one chunk: served at cursor, advancing to next.
func (m *mockReader) addChunk(cursor, next string, hasMore bool, items ...domain.SourceItem) {
	m.chunks[cursor] = driven.SourceChunk{Items: items, NextCursor: next, HasMore: hasMore}
}

// addDetail scripts an item's rendered content.
func (m *mockReader) addDetail(id, text string) {
	m.details[id] = domain.RenderedContent{Text: text, Filename: id + ".md"}
}

func (m *mockReader) Type() domain.SourceType { return m.sourceType }

func (m *mockReader) FetchChunk(_ context.Context, cursor string) (*driven.SourceChunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetchedCursors = append(m.fetchedCursors, cursor)
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}

	chunk, ok := m.chunks[cursor]
	if !ok {
		return &driven.SourceChunk{HasMore: false}, nil
	}
	return &chunk, nil
}

func (m *mockReader) FetchDetail(_ context.Context, id string) (*domain.RenderedContent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.detailCalls++
	if err, ok := m.detailErrs[id]; ok {
		return nil, err
	}
	content, ok := m.details[id]
	if !ok {
		return nil, fmt.Errorf("no detail scripted for %q", id)
	}
	return &content, nil
}

func (m *mockReader) MarkerChanged(stored, current string) bool {
	return stored != current
}

func (m *mockReader) IsTransient(error) bool { return false }

func (m *mockReader) Close() error {
	m.closed = true
	return nil
}

func (m *mockReader) cursors() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fetchedCursors...)
}

// mockIndex implements driven.IndexWriter, tracking created and deleted
// artifacts and the maximum concurrent create calls.
type mockIndex struct {
	mu sync.Mutex

	nextID  int
	created map[string]string // artifact ID -> uploaded text
	deleted []string

	// createErrs injects per-filename create failures.
	createErrs map[string]error

	// failCreatesRemaining fails that many creates before succeeding.
	failCreatesRemaining int

	createDelay time.Duration
	inFlight    int
	maxInFlight int
}

func newMockIndex() *mockIndex {
	return &mockIndex{
		created:    make(map[string]string),
		createErrs: make(map[string]error),
	}
}

func (m *mockIndex) Create(_ context.Context, content domain.RenderedContent) (string, error) {
	m.mu.Lock()
	if err, ok := m.createErrs[content.Filename]; ok {
		m.mu.Unlock()
		return "", err
	}
	if m.failCreatesRemaining > 0 {
		m.failCreatesRemaining--
		m.mu.Unlock()
		return "", errIndexTransient
	}
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	delay := m.createDelay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--
	m.nextID++
	id := fmt.Sprintf("artifact-%d", m.nextID)
	m.created[id] = content.Text
	return id, nil
}

func (m *mockIndex) Delete(_ context.Context, artifactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Absent artifacts are success, mirroring the real writer.
	m.deleted = append(m.deleted, artifactID)
	delete(m.created, artifactID)
	return nil
}

func (m *mockIndex) IsTransient(err error) bool {
	return errors.Is(err, errIndexTransient)
}

func (m *mockIndex) createdCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

func (m *mockIndex) deletedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// looseLimiter returns a limiter that never delays in practice.
func looseLimiter() *ratelimit.Limiter {
	return ratelimit.New(10000, time.Second)
}
