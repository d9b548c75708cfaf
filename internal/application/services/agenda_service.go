package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/agendadrte/core/internal/domain/entities"
	"github.com/agendadrte/core/internal/infrastructure/config"
	"github.com/agendadrte/core/internal/infrastructure/logger"
	"github.com/agendadrte/core/internal/infrastructure/metrics"
	"github.com/agendadrte/core/internal/ports"
)

// AgendaService coordinates the key-value store and the binary object
// store behind a single API. Task metadata, templates, and settings live
// in the key-value store; attachment payloads and backup snapshots live
// in the object store. A write-through in-memory cache serves all reads,
// so lookups never touch storage after Rebuild.
type AgendaService struct {
	kv       ports.KeyValueStore
	blobs    ports.BinaryObjectStore
	cfg      *config.Config
	logger   *logger.Logger
	validate *validator.Validate

	mu          sync.RWMutex
	tasks       map[string]*entities.Task
	templates   map[string]*entities.Template
	attachments map[string]entities.Attachment
	index       ports.TaskIndex
	settings    entities.Settings
}

// NewAgendaService creates a new agenda service. Call Rebuild before
// serving reads.
func NewAgendaService(kv ports.KeyValueStore, blobs ports.BinaryObjectStore, cfg *config.Config, logger *logger.Logger) *AgendaService {
	return &AgendaService{
		kv:          kv,
		blobs:       blobs,
		cfg:         cfg,
		logger:      logger.WithComponent("agenda"),
		validate:    validator.New(),
		tasks:       make(map[string]*entities.Task),
		templates:   make(map[string]*entities.Template),
		attachments: make(map[string]entities.Attachment),
		index:       make(ports.TaskIndex),
		settings:    seedSettings(cfg),
	}
}

// seedSettings builds first-run settings from configuration. Once a
// settings record exists it is authoritative and configuration no longer
// applies; the knobs only shape a fresh data directory.
func seedSettings(cfg *config.Config) entities.Settings {
	set := entities.DefaultSettings()
	set.UTCOffsetHours = cfg.Agenda.UTCOffsetHours
	if c := entities.Category(cfg.Agenda.DefaultCategory); c.IsValid() {
		set.DefaultCategory = c
	}
	return set
}

// Rebuild loads all durable state into the cache and reconciles the task
// index against the task records actually present. Records are the source
// of truth; a stale or missing index is rewritten, never trusted.
func (s *AgendaService) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = make(map[string]*entities.Task)
	s.templates = make(map[string]*entities.Template)
	s.attachments = make(map[string]entities.Attachment)

	taskKeys, err := s.kv.ListKeysWithPrefix(ctx, ports.TaskKeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to list task records: %w", err)
	}
	for _, key := range taskKeys {
		var task entities.Task
		if err := s.kv.Get(ctx, key, &task); err != nil {
			// A corrupt record is skipped, not fatal; the rest of the
			// agenda stays usable.
			s.logger.WithError(err).Warnw("Skipping unreadable task record", "key", key)
			continue
		}
		s.tasks[task.ID] = &task
	}

	templateKeys, err := s.kv.ListKeysWithPrefix(ctx, ports.TemplateKeyPrefix)
	if err != nil {
		return fmt.Errorf("failed to list template records: %w", err)
	}
	for _, key := range templateKeys {
		var tpl entities.Template
		if err := s.kv.Get(ctx, key, &tpl); err != nil {
			s.logger.WithError(err).Warnw("Skipping unreadable template record", "key", key)
			continue
		}
		s.templates[tpl.ID] = &tpl
	}

	if err := s.kv.Get(ctx, ports.KeySettings, &s.settings); err != nil {
		if !errors.Is(err, entities.ErrNotFound) {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		s.settings = seedSettings(s.cfg)
		if err := s.kv.Put(ctx, ports.KeySettings, s.settings); err != nil {
			return fmt.Errorf("failed to write default settings: %w", err)
		}
	}

	// Cross-reference attachment metadata. An id the object store no
	// longer resolves stays on its task as a dangling reference; it is
	// logged, never fatal.
	for _, task := range s.tasks {
		files, err := s.blobs.ListFilesByTask(ctx, task.ID)
		if err != nil {
			metrics.RecordStorageError("objects")
			return fmt.Errorf("failed to list attachments for task %s: %w", task.ID, err)
		}
		present := make(map[string]bool, len(files))
		for _, f := range files {
			present[f.ID] = true
			s.attachments[f.ID] = f.Meta()
		}
		for _, id := range task.AttachmentIDs {
			if !present[id] {
				s.logger.Warnw("Attachment reference does not resolve", "task_id", task.ID, "attachment_id", id)
			}
		}
	}

	// Rewrite the index from the loaded records.
	s.index = make(ports.TaskIndex, len(s.tasks))
	for id, task := range s.tasks {
		s.index[id] = ports.IndexEntry{CreatedAt: task.CreatedAt, UpdatedAt: task.UpdatedAt}
	}
	if err := s.kv.Put(ctx, ports.KeyTaskIndex, s.index); err != nil {
		return fmt.Errorf("failed to write task index: %w", err)
	}

	s.logger.Infow("State rebuilt from storage",
		"tasks", len(s.tasks),
		"templates", len(s.templates),
		"attachments", len(s.attachments))

	return nil
}

// SaveTask creates or updates a task, storing any uploads alongside it.
// Uploads that fail individually (over the size limit, or rejected by the
// object store) are reported by name and never abort the batch; the task
// itself is still saved with whatever attachments succeeded.
//
// Write order is fixed: payloads first, then the task record, then the
// cache and index. A payload that lands before the task record fails to
// write is orphaned, not corrupting.
func (s *AgendaService) SaveTask(ctx context.Context, input ports.TaskInput, uploads []ports.FileUpload) (*entities.Task, []ports.AttachmentFailure, error) {
	if err := s.validate.Struct(input); err != nil {
		metrics.RecordTaskOp("save", entities.ErrValidation)
		return nil, nil, fmt.Errorf("%w: %v", entities.ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	var task *entities.Task

	if input.ID != "" {
		existing, ok := s.tasks[input.ID]
		if !ok {
			metrics.RecordTaskOp("save", entities.ErrTaskNotFound)
			return nil, nil, fmt.Errorf("task %s: %w", input.ID, entities.ErrTaskNotFound)
		}
		task = existing.Clone()
		task.Version++
	} else {
		task = &entities.Task{
			ID:        uuid.New().String(),
			CreatedAt: now,
			Version:   1,
		}
	}

	task.Title = strings.TrimSpace(input.Title)
	task.Description = input.Description
	task.Date = input.Date
	task.Time = input.Time
	task.Location = input.Location
	task.Tags = append([]string(nil), input.Tags...)
	task.UpdatedAt = now

	task.Category = input.Category
	if task.Category == "" {
		task.Category = s.settings.DefaultCategory
	}
	task.Priority = input.Priority
	if task.Priority == "" {
		task.Priority = entities.PriorityMedium
	}
	if input.Status != "" {
		if task.Status == entities.StatusCompleted && input.Status != entities.StatusCompleted {
			task.CompletedAt = nil
		}
		if input.Status == entities.StatusCompleted && task.CompletedAt == nil {
			task.CompletedAt = &now
		}
		task.Status = input.Status
	} else if task.Status == "" {
		task.Status = entities.StatusPending
	}

	stored, failures := s.storeUploads(ctx, task.ID, uploads)
	for _, att := range stored {
		task.AttachmentIDs = append(task.AttachmentIDs, att.ID)
	}

	if err := s.persistTask(ctx, task); err != nil {
		// Payloads already written stay behind as orphans. Losing task
		// metadata would be worse than leaking blobs.
		metrics.RecordTaskOp("save", err)
		return nil, failures, err
	}

	for _, att := range stored {
		s.attachments[att.ID] = att
	}

	metrics.RecordTaskOp("save", nil)
	s.logger.Infow("Task saved",
		"task_id", task.ID,
		"title", task.Title,
		"attachments_stored", len(stored),
		"attachments_failed", len(failures))

	return task.Clone(), failures, nil
}

// storeUploads writes each upload to the object store, converting
// per-file errors into named failures. Caller holds the lock.
func (s *AgendaService) storeUploads(ctx context.Context, taskID string, uploads []ports.FileUpload) ([]entities.Attachment, []ports.AttachmentFailure) {
	var stored []entities.Attachment
	var failures []ports.AttachmentFailure

	limit := s.cfg.Storage.MaxAttachmentBytes
	for _, up := range uploads {
		if limit > 0 && int64(len(up.Data)) > limit {
			failures = append(failures, ports.AttachmentFailure{
				Name: up.Name,
				Err:  fmt.Errorf("file is %d bytes, limit is %d: %w", len(up.Data), limit, entities.ErrSizeLimitExceeded),
			})
			metrics.RecordAttachment("rejected")
			s.logger.Warnw("Attachment rejected", "name", up.Name, "size", len(up.Data), "limit", limit)
			continue
		}

		att := &entities.Attachment{
			TaskID:     taskID,
			Name:       up.Name,
			MimeType:   up.MimeType,
			SizeBytes:  int64(len(up.Data)),
			Payload:    up.Data,
			UploadedAt: time.Now().UTC(),
		}
		if _, err := s.blobs.PutFile(ctx, att); err != nil {
			failures = append(failures, ports.AttachmentFailure{Name: up.Name, Err: err})
			metrics.RecordAttachment("failed")
			metrics.RecordStorageError("objects")
			s.logger.Errorw("Attachment store failed", "name", up.Name, "error", err)
			continue
		}
		stored = append(stored, att.Meta())
		metrics.RecordAttachment("stored")
	}

	return stored, failures
}

// persistTask writes the task record and the index, then updates the
// cache. Caller holds the lock.
func (s *AgendaService) persistTask(ctx context.Context, task *entities.Task) error {
	key := ports.TaskKeyPrefix + task.ID
	err := s.kv.Put(ctx, key, task)
	s.logger.LogStorageOp("kv", "put", key, err)
	if err != nil {
		metrics.RecordStorageError("kv")
		return fmt.Errorf("failed to store task %s: %w", task.ID, err)
	}

	s.tasks[task.ID] = task.Clone()
	s.index[task.ID] = ports.IndexEntry{CreatedAt: task.CreatedAt, UpdatedAt: task.UpdatedAt}

	if err := s.kv.Put(ctx, ports.KeyTaskIndex, s.index); err != nil {
		// The record is durable; a stale index is repaired on Rebuild.
		metrics.RecordStorageError("kv")
		s.logger.Errorw("Task index write failed", "task_id", task.ID, "error", err)
	}
	return nil
}

// GetTask returns a copy of the task with the given id.
func (s *AgendaService) GetTask(id string) (*entities.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, entities.ErrTaskNotFound)
	}
	return task.Clone(), nil
}

// ListTasks returns tasks matching the filter, ordered by date ascending,
// then priority (urgent first), then time of day.
func (s *AgendaService) ListTasks(filter ports.TaskFilter) []*entities.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*entities.Task
	for _, task := range s.tasks {
		if filter.Category != "" && task.Category != filter.Category {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && task.Priority != filter.Priority {
			continue
		}
		if filter.Date != "" && task.Date != filter.Date {
			continue
		}
		if !task.MatchesSearch(filter.Search) {
			continue
		}
		out = append(out, task.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if ri, rj := out[i].Priority.Rank(), out[j].Priority.Rank(); ri != rj {
			return ri < rj
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})

	return out
}

// DeleteTask removes a task, its attachments, and its index entry.
// Deletion requires explicit confirmation. Attachment payloads go first;
// a payload that fails to delete is logged and left behind rather than
// blocking the rest of the removal. Deleting an already-deleted task
// succeeds.
func (s *AgendaService) DeleteTask(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return entities.ErrDeleteNotConfirmed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		metrics.RecordTaskOp("delete", nil)
		return nil
	}

	for _, attID := range task.AttachmentIDs {
		if err := s.blobs.DeleteFile(ctx, attID); err != nil {
			metrics.RecordStorageError("objects")
			s.logger.Errorw("Attachment delete failed, payload orphaned",
				"task_id", id, "attachment_id", attID, "error", err)
			continue
		}
		delete(s.attachments, attID)
	}

	key := ports.TaskKeyPrefix + id
	err := s.kv.Delete(ctx, key)
	s.logger.LogStorageOp("kv", "delete", key, err)
	if err != nil {
		metrics.RecordStorageError("kv")
		metrics.RecordTaskOp("delete", err)
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}

	delete(s.tasks, id)
	delete(s.index, id)
	if err := s.kv.Put(ctx, ports.KeyTaskIndex, s.index); err != nil {
		metrics.RecordStorageError("kv")
		s.logger.Errorw("Task index write failed", "task_id", id, "error", err)
	}

	metrics.RecordTaskOp("delete", nil)
	s.logger.Infow("Task deleted", "task_id", id, "title", task.Title)
	return nil
}

// AdvanceStatus rotates the task one step through
// pending -> in-progress -> completed -> pending and persists the result.
func (s *AgendaService) AdvanceStatus(ctx context.Context, id string) (*entities.Task, error) {
	return s.transition(ctx, id, "advance", (*entities.Task).Advance)
}

// CancelTask moves the task to the terminal cancelled state.
func (s *AgendaService) CancelTask(ctx context.Context, id string) (*entities.Task, error) {
	return s.transition(ctx, id, "cancel", (*entities.Task).Cancel)
}

func (s *AgendaService) transition(ctx context.Context, id, op string, apply func(*entities.Task) error) (*entities.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[id]
	if !ok {
		metrics.RecordTaskOp(op, entities.ErrTaskNotFound)
		return nil, fmt.Errorf("task %s: %w", id, entities.ErrTaskNotFound)
	}

	task := existing.Clone()
	if err := apply(task); err != nil {
		metrics.RecordTaskOp(op, err)
		return nil, fmt.Errorf("task %s: %w", id, err)
	}
	task.UpdatedAt = time.Now().UTC()
	task.Version++

	if err := s.persistTask(ctx, task); err != nil {
		metrics.RecordTaskOp(op, err)
		return nil, err
	}

	metrics.RecordTaskOp(op, nil)
	s.logger.Infow("Task status changed", "task_id", id, "status", task.Status)
	return task.Clone(), nil
}

// AttachFiles stores uploads against an existing task. Per-file failures
// are reported by name; successes are appended to the task record.
func (s *AgendaService) AttachFiles(ctx context.Context, taskID string, uploads []ports.FileUpload) ([]entities.Attachment, []ports.AttachmentFailure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[taskID]
	if !ok {
		return nil, nil, fmt.Errorf("task %s: %w", taskID, entities.ErrTaskNotFound)
	}

	stored, failures := s.storeUploads(ctx, taskID, uploads)
	if len(stored) == 0 {
		return nil, failures, nil
	}

	task := existing.Clone()
	for _, att := range stored {
		task.AttachmentIDs = append(task.AttachmentIDs, att.ID)
	}
	task.UpdatedAt = time.Now().UTC()
	task.Version++

	if err := s.persistTask(ctx, task); err != nil {
		return nil, failures, err
	}
	for _, att := range stored {
		s.attachments[att.ID] = att
	}

	s.logger.Infow("Attachments added", "task_id", taskID, "stored", len(stored), "failed", len(failures))
	return stored, failures, nil
}

// GetAttachment loads the full attachment, payload included, from the
// object store.
func (s *AgendaService) GetAttachment(ctx context.Context, id string) (*entities.Attachment, error) {
	att, err := s.blobs.GetFile(ctx, id)
	if err != nil {
		if !errors.Is(err, entities.ErrAttachmentNotFound) {
			metrics.RecordStorageError("objects")
		}
		return nil, err
	}
	return att, nil
}

// ListAttachments returns cached metadata for a task's attachments, in
// the order the task references them.
func (s *AgendaService) ListAttachments(taskID string) ([]entities.Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, entities.ErrTaskNotFound)
	}

	out := make([]entities.Attachment, 0, len(task.AttachmentIDs))
	for _, id := range task.AttachmentIDs {
		if meta, ok := s.attachments[id]; ok {
			out = append(out, meta)
		}
	}
	return out, nil
}

// RemoveAttachment deletes one attachment payload and drops its reference
// from the task record.
func (s *AgendaService) RemoveAttachment(ctx context.Context, taskID, attachmentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[taskID]
	if !ok {
		return fmt.Errorf("task %s: %w", taskID, entities.ErrTaskNotFound)
	}

	found := false
	task := existing.Clone()
	kept := task.AttachmentIDs[:0]
	for _, id := range task.AttachmentIDs {
		if id == attachmentID {
			found = true
			continue
		}
		kept = append(kept, id)
	}
	if !found {
		return fmt.Errorf("attachment %s: %w", attachmentID, entities.ErrAttachmentNotFound)
	}
	task.AttachmentIDs = kept
	task.UpdatedAt = time.Now().UTC()
	task.Version++

	if err := s.blobs.DeleteFile(ctx, attachmentID); err != nil {
		metrics.RecordStorageError("objects")
		return fmt.Errorf("failed to delete attachment %s: %w", attachmentID, err)
	}
	delete(s.attachments, attachmentID)

	if err := s.persistTask(ctx, task); err != nil {
		return err
	}

	s.logger.Infow("Attachment removed", "task_id", taskID, "attachment_id", attachmentID)
	return nil
}

// Settings returns the current agenda settings.
func (s *AgendaService) Settings() entities.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings persists new settings and applies them to subsequent
// operations.
func (s *AgendaService) UpdateSettings(ctx context.Context, settings entities.Settings) error {
	if !settings.DefaultCategory.IsValid() {
		return fmt.Errorf("%w: unknown category %q", entities.ErrValidation, settings.DefaultCategory)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Put(ctx, ports.KeySettings, settings); err != nil {
		metrics.RecordStorageError("kv")
		return fmt.Errorf("failed to store settings: %w", err)
	}
	s.settings = settings

	s.logger.Infow("Settings updated", "default_category", settings.DefaultCategory)
	return nil
}

// Today returns the current date string at the configured UTC offset.
func (s *AgendaService) Today() string {
	s.mu.RLock()
	offset := s.settings.UTCOffsetHours
	s.mu.RUnlock()
	return entities.TodayAtOffset(offset)
}
