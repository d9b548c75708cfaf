package ports

import (
	"context"
	"time"

	"github.com/agendadrte/core/internal/domain/entities"
)

// Well-known keys in the key-value store.
const (
	KeyTaskIndex      = "task-index"
	KeySettings       = "settings"
	TaskKeyPrefix     = "task:"
	TemplateKeyPrefix = "template:"
)

// KeyValueStore defines durable storage for small JSON-serializable
// records under string keys: task metadata, templates, settings, and the
// task index. A failed Put must not have modified any other key.
type KeyValueStore interface {
	// Put serializes value and stores it under key, overwriting any
	// existing record. Returns entities.ErrQuotaExceeded when the
	// backend rejects the write for size reasons.
	Put(ctx context.Context, key string, value any) error
	// Get deserializes the record at key into dest. Returns
	// entities.ErrNotFound on a miss.
	Get(ctx context.Context, key string, dest any) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// ListKeysWithPrefix enumerates stored keys beginning with prefix,
	// in lexicographic order.
	ListKeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
	Close() error
}

// BinaryObjectStore defines durable storage for attachment payloads and
// backup snapshots in an embedded, schema-versioned database.
type BinaryObjectStore interface {
	// Open opens or upgrades the database to the current schema version.
	// Idempotent; safe to call on an already-open store. Failure to open
	// wraps entities.ErrStorageUnavailable.
	Open(ctx context.Context) error
	Close() error

	// PutFile stores metadata and payload, assigning a fresh id on every
	// call. Re-checks the size limit defensively and returns
	// entities.ErrSizeLimitExceeded when the payload is over it.
	PutFile(ctx context.Context, att *entities.Attachment) (string, error)
	// GetFile returns the full record including payload, bumping
	// last_accessed_at best-effort. Returns entities.ErrAttachmentNotFound
	// on a miss.
	GetFile(ctx context.Context, id string) (*entities.Attachment, error)
	// DeleteFile removes a file record. Absent ids are not an error.
	DeleteFile(ctx context.Context, id string) error
	// ListFilesByTask returns payload-free records for a task, ordered by
	// upload time.
	ListFilesByTask(ctx context.Context, taskID string) ([]*entities.Attachment, error)

	PutBackup(ctx context.Context, snap *entities.Snapshot) error
	// GetBackup returns entities.ErrSnapshotNotFound on a miss.
	GetBackup(ctx context.Context, timestamp time.Time) (*entities.Snapshot, error)
	// ListBackups returns snapshots ordered oldest-first.
	ListBackups(ctx context.Context) ([]*entities.Snapshot, error)
	DeleteBackup(ctx context.Context, timestamp time.Time) error
}

// IndexEntry is the per-task record kept in the task index.
type IndexEntry struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskIndex maps task id to its index entry.
type TaskIndex map[string]IndexEntry
