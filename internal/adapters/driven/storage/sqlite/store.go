package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/domain"
	"github.com/JoyoLabs/joyo-agents-knowledge-sync/internal/core/ports/driven"
)

// timeLayout is RFC3339 with a fixed-width nanosecond fraction so that
// lexicographic comparison of stored values matches chronological order.
// The stale-record query relies on this.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.knowledge-sync/data/sync.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".knowledge-sync", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "sync.db")

	// WAL mode: checkpoint writes from the engine must be durable while
	// the CLI reads state from another connection.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RecordStore returns a RecordStore interface backed by this store.
func (s *Store) RecordStore() driven.RecordStore {
	return &recordStore{store: s}
}

// SyncStateStore returns a SyncStateStore interface backed by this store.
func (s *Store) SyncStateStore() driven.SyncStateStore {
	return &syncStateStore{store: s}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}

		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Record Store ====================

// recordStore implements driven.RecordStore.
type recordStore struct {
	store *Store
}

var _ driven.RecordStore = (*recordStore)(nil)

// Get retrieves a record by key.
func (s *recordStore) Get(ctx context.Context, key domain.RecordKey) (*domain.SyncedRecord, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT source_type, source_id, artifact_id, content_hash, marker,
		       last_seen_at, created_at, updated_at
		FROM synced_records
		WHERE source_type = ? AND source_id = ?
	`, string(key.SourceType), key.SourceID)

	record, err := scanSyncedRecord(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning synced record: %w", err)
	}
	return record, nil
}

// Save stores or replaces a record.
func (s *recordStore) Save(ctx context.Context, record domain.SyncedRecord) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO synced_records
			(source_type, source_id, artifact_id, content_hash, marker,
			 last_seen_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_type, source_id) DO UPDATE SET
			artifact_id = excluded.artifact_id,
			content_hash = excluded.content_hash,
			marker = excluded.marker,
			last_seen_at = excluded.last_seen_at,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`, string(record.SourceType), record.SourceID, record.ArtifactID,
		record.ContentHash, record.Marker,
		formatTime(record.LastSeenAt), formatTime(record.CreatedAt), formatTime(record.UpdatedAt))

	if err != nil {
		return fmt.Errorf("saving synced record: %w", err)
	}
	return nil
}

// Delete removes a record. Deleting an absent record is not an error.
func (s *recordStore) Delete(ctx context.Context, key domain.RecordKey) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM synced_records WHERE source_type = ? AND source_id = ?
	`, string(key.SourceType), key.SourceID)
	if err != nil {
		return fmt.Errorf("deleting synced record: %w", err)
	}
	return nil
}

// ListStaleBefore returns all records of a source last seen before the
// watermark.
func (s *recordStore) ListStaleBefore(ctx context.Context, sourceType domain.SourceType, watermark time.Time) ([]domain.SyncedRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT source_type, source_id, artifact_id, content_hash, marker,
		       last_seen_at, created_at, updated_at
		FROM synced_records
		WHERE source_type = ? AND last_seen_at < ?
	`, string(sourceType), formatTime(watermark))
	if err != nil {
		return nil, fmt.Errorf("querying stale records: %w", err)
	}
	defer rows.Close()

	var records []domain.SyncedRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		record, err := scanSyncedRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning synced record: %w", err)
		}
		records = append(records, *record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stale records: %w", err)
	}

	return records, nil
}

// ==================== Sync State Store ====================

// syncStateStore implements driven.SyncStateStore.
type syncStateStore struct {
	store *Store
}

var _ driven.SyncStateStore = (*syncStateStore)(nil)

// SaveState stores or updates a source's state. This is the checkpoint
// write: the row is durable once the call returns.
func (s *syncStateStore) SaveState(ctx context.Context, state domain.SyncState) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sync_states
			(source_type, status, cursor, run_started_at, stop_requested,
			 processed, added, updated, unchanged, deleted, errored,
			 last_error, last_sync_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_type) DO UPDATE SET
			status = excluded.status,
			cursor = excluded.cursor,
			run_started_at = excluded.run_started_at,
			stop_requested = excluded.stop_requested,
			processed = excluded.processed,
			added = excluded.added,
			updated = excluded.updated,
			unchanged = excluded.unchanged,
			deleted = excluded.deleted,
			errored = excluded.errored,
			last_error = excluded.last_error,
			last_sync_at = excluded.last_sync_at,
			updated_at = excluded.updated_at
	`, string(state.SourceType), string(state.Status), state.Cursor,
		formatTimePtr(state.RunStartedAt), boolToInt(state.StopRequested),
		state.Stats.Processed, state.Stats.Added, state.Stats.Updated,
		state.Stats.Unchanged, state.Stats.Deleted, state.Stats.Errored,
		nullString(state.LastError), formatNullableTime(state.LastSyncAt),
		formatTime(state.UpdatedAt))

	if err != nil {
		return fmt.Errorf("saving sync state: %w", err)
	}
	return nil
}

// GetState retrieves the state for a source.
func (s *syncStateStore) GetState(ctx context.Context, sourceType domain.SourceType) (*domain.SyncState, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT source_type, status, cursor, run_started_at, stop_requested,
		       processed, added, updated, unchanged, deleted, errored,
		       last_error, last_sync_at, updated_at
		FROM sync_states WHERE source_type = ?
	`, string(sourceType))

	var state domain.SyncState
	var srcType, status string
	var runStartedAt, lastError, lastSyncAt, updatedAt sql.NullString
	var stopRequested int

	err := row.Scan(&srcType, &status, &state.Cursor, &runStartedAt, &stopRequested,
		&state.Stats.Processed, &state.Stats.Added, &state.Stats.Updated,
		&state.Stats.Unchanged, &state.Stats.Deleted, &state.Stats.Errored,
		&lastError, &lastSyncAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning sync state: %w", err)
	}

	state.SourceType = domain.SourceType(srcType)
	state.Status = domain.SyncStatus(status)
	state.StopRequested = stopRequested == 1
	state.RunStartedAt = parseTimePtr(runStartedAt)
	if lastError.Valid {
		state.LastError = lastError.String
	}
	state.LastSyncAt = parseNullableTime(lastSyncAt)
	if updatedAt.Valid {
		state.UpdatedAt = parseTime(updatedAt.String)
	}

	return &state, nil
}

// DeleteState removes a source's state.
func (s *syncStateStore) DeleteState(ctx context.Context, sourceType domain.SourceType) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM sync_states WHERE source_type = ?", string(sourceType))
	if err != nil {
		return fmt.Errorf("deleting sync state: %w", err)
	}
	return nil
}

// ==================== Helper Functions ====================

// scanSyncedRecord scans a record row through the given scan function.
func scanSyncedRecord(scan func(dest ...any) error) (*domain.SyncedRecord, error) {
	var record domain.SyncedRecord
	var sourceType, lastSeenAt, createdAt, updatedAt string

	if err := scan(&sourceType, &record.SourceID, &record.ArtifactID,
		&record.ContentHash, &record.Marker,
		&lastSeenAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	record.SourceType = domain.SourceType(sourceType)
	record.LastSeenAt = parseTime(lastSeenAt)
	record.CreatedAt = parseTime(createdAt)
	record.UpdatedAt = parseTime(updatedAt)

	return &record, nil
}

// formatTime formats a time in the fixed-width sortable layout.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// formatTimePtr formats a time pointer, or returns nil for a nil pointer.
func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

// formatNullableTime formats a time, or returns nil for the zero time.
func formatNullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return formatTime(t)
}

// parseTime parses a stored timestamp, returning the zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// parseTimePtr parses a nullable timestamp into a pointer.
func parseTimePtr(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

// parseNullableTime parses a nullable timestamp, zero time when null.
func parseNullableTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	return parseTime(s.String)
}

// nullString returns nil for an empty string, for nullable text columns.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// boolToInt converts a bool to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
