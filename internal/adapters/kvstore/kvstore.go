// Package kvstore implements the key-value storage backend on an embedded
// SQLite database. It holds the small JSON records of the agenda: task
// metadata, templates, settings, and the task index.
package kvstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/agendadrte/core/internal/domain/entities"
	"github.com/agendadrte/core/internal/infrastructure/database"
	"github.com/agendadrte/core/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store is a SQLite-backed ports.KeyValueStore. Values are stored as
// UTF-8 JSON text. A configurable per-record byte limit keeps individual
// records from growing without bound.
type Store struct {
	db             *sqlx.DB
	maxRecordBytes int64
}

var _ ports.KeyValueStore = (*Store)(nil)

// New opens (or creates) the key-value database at path and ensures the
// records table exists. maxRecordBytes of zero disables the record limit.
func New(path string, maxRecordBytes int64) (*Store, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv schema: %w", err)
	}
	return &Store{db: db, maxRecordBytes: maxRecordBytes}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Put serializes value as JSON and stores it under key, overwriting any
// existing record. The write is a single statement, so a failure leaves
// every other key untouched.
func (s *Store) Put(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("serialize record %s: %w", key, err)
	}

	if s.maxRecordBytes > 0 && int64(len(data)) > s.maxRecordBytes {
		return fmt.Errorf("record %s is %d bytes: %w", key, len(data), entities.ErrQuotaExceeded)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(data),
	)
	if err != nil {
		if isFullError(err) {
			return fmt.Errorf("put record %s: %v: %w", key, err, entities.ErrQuotaExceeded)
		}
		return fmt.Errorf("put record %s: %w", key, err)
	}
	return nil
}

// Get loads the record at key into dest.
func (s *Store) Get(ctx context.Context, key string, dest any) error {
	var raw string
	err := s.db.GetContext(ctx, &raw, `SELECT value FROM records WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("record %s: %w", key, entities.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("get record %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("deserialize record %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is a no-op.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete record %s: %w", key, err)
	}
	return nil
}

// ListKeysWithPrefix enumerates stored keys beginning with prefix in
// lexicographic order.
func (s *Store) ListKeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	err := s.db.SelectContext(ctx, &keys, `
		SELECT key FROM records
		WHERE substr(key, 1, length(?)) = ?
		ORDER BY key`,
		prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("list keys with prefix %s: %w", prefix, err)
	}
	return keys, nil
}

// isFullError recognizes the SQLite conditions that correspond to an
// exhausted quota (SQLITE_FULL, SQLITE_TOOBIG).
func isFullError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "database or disk is full") ||
		strings.Contains(msg, "string or blob too big")
}
