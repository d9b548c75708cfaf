// Package blobstore implements the binary object storage backend on an
// embedded, schema-versioned SQLite database. It owns attachment payloads
// and backup snapshots; task metadata lives in the key-value store.
package blobstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/agendadrte/core/internal/domain/entities"
	"github.com/agendadrte/core/internal/infrastructure/database"
	"github.com/agendadrte/core/internal/ports"
)

// schemaVersion is bumped whenever collection shapes change. Opening a
// database behind this version runs the idempotent upgrade steps below.
const schemaVersion = 2

// upgrades maps a target version to the DDL that brings the database up
// to it. Statements only create what is missing and never touch existing
// rows, so replaying them is safe.
var upgrades = map[int]string{
	1: `
CREATE TABLE IF NOT EXISTS files (
	id               TEXT PRIMARY KEY,
	task_id          TEXT NOT NULL DEFAULT '',
	name             TEXT NOT NULL,
	mime_type        TEXT NOT NULL DEFAULT '',
	size_bytes       INTEGER NOT NULL,
	payload          BLOB NOT NULL,
	uploaded_at      DATETIME NOT NULL,
	last_accessed_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_files_task_id ON files (task_id);
CREATE INDEX IF NOT EXISTS idx_files_uploaded_at ON files (uploaded_at);
`,
	2: `
CREATE TABLE IF NOT EXISTS backups (
	timestamp TEXT PRIMARY KEY,
	reason    TEXT NOT NULL DEFAULT '',
	snapshot  TEXT NOT NULL
);
`,
}

// tsLayout keys backups. The fractional second is zero-padded to a fixed
// nine digits so every key has the same width and lexicographic order
// matches chronological order. RFC3339Nano trims trailing zeros, which
// breaks that for timestamps on an exact-second boundary.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a SQLite-backed ports.BinaryObjectStore.
type Store struct {
	path     string
	maxBytes int64

	mu sync.Mutex
	db *sqlx.DB
}

var _ ports.BinaryObjectStore = (*Store)(nil)

// New returns an unopened store for the database at path. maxBytes is the
// attachment size limit, re-checked defensively on every PutFile.
func New(path string, maxBytes int64) *Store {
	return &Store{path: path, maxBytes: maxBytes}
}

// Open opens the database and upgrades its schema to the current version.
// Calling Open on an already-open store is a no-op. Open failures wrap
// entities.ErrStorageUnavailable so callers can distinguish a missing or
// denied database from ordinary operation errors.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	db, err := database.Open(s.path)
	if err != nil {
		return fmt.Errorf("%w: %v", entities.ErrStorageUnavailable, err)
	}

	version, err := database.SchemaVersion(ctx, db)
	if err != nil {
		db.Close()
		return fmt.Errorf("%w: %v", entities.ErrStorageUnavailable, err)
	}

	for v := version + 1; v <= schemaVersion; v++ {
		if _, err := db.ExecContext(ctx, upgrades[v]); err != nil {
			db.Close()
			return fmt.Errorf("%w: upgrade to schema %d: %v", entities.ErrStorageUnavailable, v, err)
		}
		if err := database.SetSchemaVersion(ctx, db, v); err != nil {
			db.Close()
			return fmt.Errorf("%w: %v", entities.ErrStorageUnavailable, err)
		}
	}

	s.db = db
	return nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) conn() (*sqlx.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, fmt.Errorf("%w: store not open", entities.ErrStorageUnavailable)
	}
	return s.db, nil
}

// PutFile stores metadata and payload, assigning a fresh id on every call.
// It is the one non-idempotent operation of this store: retrying a put
// whose outcome is unknown creates a second record.
func (s *Store) PutFile(ctx context.Context, att *entities.Attachment) (string, error) {
	db, err := s.conn()
	if err != nil {
		return "", err
	}

	if s.maxBytes > 0 && att.SizeBytes > s.maxBytes {
		return "", fmt.Errorf("file %s is %d bytes: %w", att.Name, att.SizeBytes, entities.ErrSizeLimitExceeded)
	}

	att.ID = uuid.New().String()
	if att.UploadedAt.IsZero() {
		att.UploadedAt = time.Now().UTC()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO files (id, task_id, name, mime_type, size_bytes, payload, uploaded_at, last_accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		att.ID, att.TaskID, att.Name, att.MimeType, att.SizeBytes, att.Payload,
		att.UploadedAt, nil,
	)
	if err != nil {
		return "", fmt.Errorf("insert file %s: %w", att.Name, err)
	}
	return att.ID, nil
}

// GetFile returns the full record including payload. The access timestamp
// is updated best-effort; failing to record it is not an error.
func (s *Store) GetFile(ctx context.Context, id string) (*entities.Attachment, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	row := db.QueryRowxContext(ctx, `
		SELECT id, task_id, name, mime_type, size_bytes, payload, uploaded_at, last_accessed_at
		FROM files WHERE id = ?`, id)

	att, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("file %s: %w", id, entities.ErrAttachmentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", id, err)
	}

	now := time.Now().UTC()
	_, _ = db.ExecContext(ctx, `UPDATE files SET last_accessed_at = ? WHERE id = ?`, now, id)
	att.LastAccessedAt = &now

	return att, nil
}

// DeleteFile removes a file record. Deleting an already-gone file is not
// a failure.
func (s *Store) DeleteFile(ctx context.Context, id string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete file %s: %w", id, err)
	}
	return nil
}

// ListFilesByTask returns payload-free records for a task ordered by
// upload time.
func (s *Store) ListFilesByTask(ctx context.Context, taskID string) ([]*entities.Attachment, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryxContext(ctx, `
		SELECT id, task_id, name, mime_type, size_bytes, uploaded_at, last_accessed_at
		FROM files WHERE task_id = ?
		ORDER BY uploaded_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list files for task %s: %w", taskID, err)
	}
	defer rows.Close()

	var atts []*entities.Attachment
	for rows.Next() {
		att, err := scanFileMeta(rows)
		if err != nil {
			return nil, fmt.Errorf("list files for task %s: %w", taskID, err)
		}
		atts = append(atts, att)
	}
	return atts, rows.Err()
}

// PutBackup stores a snapshot keyed by its timestamp, overwriting any
// snapshot with the identical timestamp.
func (s *Store) PutBackup(ctx context.Context, snap *entities.Snapshot) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("serialize snapshot: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO backups (timestamp, reason, snapshot) VALUES (?, ?, ?)
		ON CONFLICT(timestamp) DO UPDATE SET reason = excluded.reason, snapshot = excluded.snapshot`,
		snap.Timestamp.UTC().Format(tsLayout), snap.Reason, string(data),
	)
	if err != nil {
		return fmt.Errorf("insert backup: %w", err)
	}
	return nil
}

// GetBackup loads the snapshot stored at timestamp.
func (s *Store) GetBackup(ctx context.Context, timestamp time.Time) (*entities.Snapshot, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var raw string
	err = db.GetContext(ctx, &raw, `SELECT snapshot FROM backups WHERE timestamp = ?`,
		timestamp.UTC().Format(tsLayout))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("backup %s: %w", timestamp.Format(tsLayout), entities.ErrSnapshotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get backup: %w", err)
	}

	var snap entities.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("deserialize backup: %w", err)
	}
	return &snap, nil
}

// ListBackups returns all snapshots ordered oldest-first, as retention
// pruning expects.
func (s *Store) ListBackups(ctx context.Context) ([]*entities.Snapshot, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var raws []string
	if err := db.SelectContext(ctx, &raws, `SELECT snapshot FROM backups ORDER BY timestamp`); err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}

	snaps := make([]*entities.Snapshot, 0, len(raws))
	for _, raw := range raws {
		var snap entities.Snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			return nil, fmt.Errorf("deserialize backup: %w", err)
		}
		snaps = append(snaps, &snap)
	}
	return snaps, nil
}

// DeleteBackup removes the snapshot at timestamp. Absent timestamps are
// not an error.
func (s *Store) DeleteBackup(ctx context.Context, timestamp time.Time) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `DELETE FROM backups WHERE timestamp = ?`,
		timestamp.UTC().Format(tsLayout))
	if err != nil {
		return fmt.Errorf("delete backup: %w", err)
	}
	return nil
}

// scanner abstracts sqlx.Row and sqlx.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanFile(row scanner) (*entities.Attachment, error) {
	var att entities.Attachment
	var lastAccessed sql.NullTime

	err := row.Scan(
		&att.ID, &att.TaskID, &att.Name, &att.MimeType, &att.SizeBytes,
		&att.Payload, &att.UploadedAt, &lastAccessed,
	)
	if err != nil {
		return nil, err
	}
	if lastAccessed.Valid {
		att.LastAccessedAt = &lastAccessed.Time
	}
	return &att, nil
}

func scanFileMeta(row scanner) (*entities.Attachment, error) {
	var att entities.Attachment
	var lastAccessed sql.NullTime

	err := row.Scan(
		&att.ID, &att.TaskID, &att.Name, &att.MimeType, &att.SizeBytes,
		&att.UploadedAt, &lastAccessed,
	)
	if err != nil {
		return nil, err
	}
	if lastAccessed.Valid {
		att.LastAccessedAt = &lastAccessed.Time
	}
	return &att, nil
}
