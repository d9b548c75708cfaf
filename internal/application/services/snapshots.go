package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/agendadrte/core/internal/domain/entities"
	"github.com/agendadrte/core/internal/infrastructure/metrics"
	"github.com/agendadrte/core/internal/ports"
)

// CreateBackupSnapshot writes a point-in-time copy of all agenda state to
// the object store, then prunes the oldest snapshots beyond the retention
// limit. Attachment payloads stay out of the snapshot; only metadata is
// embedded.
func (s *AgendaService) CreateBackupSnapshot(ctx context.Context, reason string) (*entities.Snapshot, error) {
	s.mu.RLock()
	snap := &entities.Snapshot{
		Timestamp: time.Now().UTC(),
		Reason:    reason,
		Settings:  s.settings,
	}
	for _, task := range s.tasks {
		snap.Tasks = append(snap.Tasks, task.Clone())
	}
	for _, tpl := range s.templates {
		snap.Templates = append(snap.Templates, tpl.Clone())
	}
	for _, meta := range s.attachments {
		snap.Attachments = append(snap.Attachments, meta)
	}
	s.mu.RUnlock()

	sort.Slice(snap.Tasks, func(i, j int) bool { return snap.Tasks[i].ID < snap.Tasks[j].ID })
	sort.Slice(snap.Templates, func(i, j int) bool { return snap.Templates[i].ID < snap.Templates[j].ID })
	sort.Slice(snap.Attachments, func(i, j int) bool { return snap.Attachments[i].ID < snap.Attachments[j].ID })

	if err := s.blobs.PutBackup(ctx, snap); err != nil {
		metrics.RecordBackup(err)
		metrics.RecordStorageError("objects")
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	if err := s.pruneSnapshots(ctx); err != nil {
		// The new snapshot is durable; pruning retries on the next backup.
		s.logger.Warnw("Snapshot pruning failed", "error", err)
	}

	metrics.RecordBackup(nil)
	s.logger.Infow("Backup snapshot created",
		"timestamp", snap.Timestamp,
		"reason", reason,
		"tasks", len(snap.Tasks))

	return snap, nil
}

// pruneSnapshots deletes the oldest snapshots beyond the configured
// retention count.
func (s *AgendaService) pruneSnapshots(ctx context.Context) error {
	keep := s.cfg.Backup.Retention
	if keep < 1 {
		return nil
	}

	snaps, err := s.blobs.ListBackups(ctx)
	if err != nil {
		return err
	}
	for len(snaps) > keep {
		oldest := snaps[0]
		if err := s.blobs.DeleteBackup(ctx, oldest.Timestamp); err != nil {
			return err
		}
		s.logger.Debugw("Pruned old snapshot", "timestamp", oldest.Timestamp)
		snaps = snaps[1:]
	}
	return nil
}

// ListSnapshots returns all stored snapshots, oldest first.
func (s *AgendaService) ListSnapshots(ctx context.Context) ([]*entities.Snapshot, error) {
	return s.blobs.ListBackups(ctx)
}

// RestoreFromSnapshot replaces all current agenda state with the contents
// of the snapshot stored at timestamp. Task and template records present
// before the restore but absent from the snapshot are removed. Attachment
// payloads are not touched; references to payloads deleted since the
// snapshot was taken become dangling and are logged on the next Rebuild.
func (s *AgendaService) RestoreFromSnapshot(ctx context.Context, timestamp time.Time) error {
	snap, err := s.blobs.GetBackup(ctx, timestamp)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Remove records the snapshot does not contain.
	snapTasks := make(map[string]bool, len(snap.Tasks))
	for _, task := range snap.Tasks {
		snapTasks[task.ID] = true
	}
	for id := range s.tasks {
		if !snapTasks[id] {
			if err := s.kv.Delete(ctx, ports.TaskKeyPrefix+id); err != nil {
				return fmt.Errorf("failed to remove task %s during restore: %w", id, err)
			}
		}
	}
	snapTemplates := make(map[string]bool, len(snap.Templates))
	for _, tpl := range snap.Templates {
		snapTemplates[tpl.ID] = true
	}
	for id := range s.templates {
		if !snapTemplates[id] {
			if err := s.kv.Delete(ctx, ports.TemplateKeyPrefix+id); err != nil {
				return fmt.Errorf("failed to remove template %s during restore: %w", id, err)
			}
		}
	}

	tasks := make(map[string]*entities.Task, len(snap.Tasks))
	index := make(ports.TaskIndex, len(snap.Tasks))
	for _, task := range snap.Tasks {
		if err := s.kv.Put(ctx, ports.TaskKeyPrefix+task.ID, task); err != nil {
			return fmt.Errorf("failed to restore task %s: %w", task.ID, err)
		}
		tasks[task.ID] = task.Clone()
		index[task.ID] = ports.IndexEntry{CreatedAt: task.CreatedAt, UpdatedAt: task.UpdatedAt}
	}

	templates := make(map[string]*entities.Template, len(snap.Templates))
	for _, tpl := range snap.Templates {
		if err := s.kv.Put(ctx, ports.TemplateKeyPrefix+tpl.ID, tpl); err != nil {
			return fmt.Errorf("failed to restore template %s: %w", tpl.ID, err)
		}
		templates[tpl.ID] = tpl.Clone()
	}

	if err := s.kv.Put(ctx, ports.KeySettings, snap.Settings); err != nil {
		return fmt.Errorf("failed to restore settings: %w", err)
	}
	if err := s.kv.Put(ctx, ports.KeyTaskIndex, index); err != nil {
		return fmt.Errorf("failed to restore task index: %w", err)
	}

	attachments := make(map[string]entities.Attachment, len(snap.Attachments))
	for _, meta := range snap.Attachments {
		attachments[meta.ID] = meta
	}

	s.tasks = tasks
	s.templates = templates
	s.attachments = attachments
	s.index = index
	s.settings = snap.Settings

	s.logger.Infow("State restored from snapshot",
		"timestamp", snap.Timestamp,
		"tasks", len(tasks),
		"templates", len(templates))

	return nil
}
