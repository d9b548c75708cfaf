package entities

import (
	"errors"
	"strings"
	"time"
)

// Common errors
var (
	ErrValidation         = errors.New("validation failed")
	ErrTaskNotFound       = errors.New("task not found")
	ErrAttachmentNotFound = errors.New("attachment not found")
	ErrTemplateNotFound   = errors.New("template not found")
	ErrSnapshotNotFound   = errors.New("snapshot not found")
	ErrNotFound           = errors.New("record not found")
	ErrSizeLimitExceeded  = errors.New("attachment exceeds size limit")
	ErrQuotaExceeded      = errors.New("storage quota exceeded")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidStatus      = errors.New("invalid status transition")
	ErrDeleteNotConfirmed = errors.New("delete not confirmed")
)

// Enums and types
type Category string

const (
	CategoryPNTF     Category = "pntf"
	CategoryMeeting  Category = "meeting"
	CategoryTraining Category = "training"
	CategoryDesign   Category = "design"
	CategoryReport   Category = "report"
	CategorySystem   Category = "system"
	CategoryOther    Category = "other"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Task represents a scheduled unit of work in the agenda
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Date          string     `json:"date"`           // YYYY-MM-DD, local day at the configured UTC offset
	Time          string     `json:"time,omitempty"` // HH:MM
	Category      Category   `json:"category"`
	Priority      Priority   `json:"priority"`
	Status        Status     `json:"status"`
	Location      string     `json:"location"` // office, remote, or free text
	AttachmentIDs []string   `json:"attachment_ids"`
	Tags          []string   `json:"tags"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Version       int        `json:"version"`
}

// Attachment represents a binary file associated with a task. Payload is
// owned by the binary object store and is never serialized into task
// records or backup snapshots.
type Attachment struct {
	ID             string     `json:"id"`
	TaskID         string     `json:"task_id"`
	Name           string     `json:"name"`
	MimeType       string     `json:"mime_type"`
	SizeBytes      int64      `json:"size_bytes"`
	UploadedAt     time.Time  `json:"uploaded_at"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`
	Payload        []byte     `json:"-"`
}

// Meta returns a payload-free copy of the attachment.
func (a *Attachment) Meta() Attachment {
	meta := *a
	meta.Payload = nil
	return meta
}

// Template holds reusable initial values for a new task
type Template struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Category    Category   `json:"category"`
	Priority    Priority   `json:"priority"`
	Description string     `json:"description"`
	Time        string     `json:"time,omitempty"`
	Location    string     `json:"location,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	UseCount    int        `json:"use_count"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Settings holds user-tunable agenda behavior, persisted alongside tasks
type Settings struct {
	DefaultCategory Category `json:"default_category"`
	UTCOffsetHours  int      `json:"utc_offset_hours"`
	AutoBackup      bool     `json:"auto_backup"`
}

// DefaultSettings returns the settings written on first run.
func DefaultSettings() Settings {
	return Settings{
		DefaultCategory: CategoryPNTF,
		UTCOffsetHours:  -6,
		AutoBackup:      true,
	}
}

// Snapshot is a point-in-time copy of agenda state used for recovery.
// Attachment payloads are excluded; only metadata is embedded so snapshot
// size stays bounded.
type Snapshot struct {
	Timestamp   time.Time    `json:"timestamp"`
	Reason      string       `json:"reason"`
	Tasks       []*Task      `json:"tasks"`
	Attachments []Attachment `json:"attachments"`
	Templates   []*Template  `json:"templates"`
	Settings    Settings     `json:"settings"`
}

// Business logic methods for Task

// Advance rotates the task through the fixed status cycle
// pending -> in-progress -> completed -> pending. Cancelled tasks are
// terminal and cannot re-enter the rotation.
func (t *Task) Advance() error {
	switch t.Status {
	case StatusPending:
		t.Status = StatusInProgress
	case StatusInProgress:
		t.Status = StatusCompleted
		now := time.Now()
		t.CompletedAt = &now
		return nil
	case StatusCompleted:
		t.Status = StatusPending
	default:
		return ErrInvalidStatus
	}
	t.CompletedAt = nil
	return nil
}

// Cancel moves the task to the terminal cancelled state from any other state.
func (t *Task) Cancel() error {
	if t.Status == StatusCancelled {
		return ErrInvalidStatus
	}
	t.Status = StatusCancelled
	t.CompletedAt = nil
	return nil
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	c.AttachmentIDs = append([]string(nil), t.AttachmentIDs...)
	c.Tags = append([]string(nil), t.Tags...)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

// Clone returns a deep copy of the template.
func (tp *Template) Clone() *Template {
	c := *tp
	c.Tags = append([]string(nil), tp.Tags...)
	if tp.LastUsedAt != nil {
		at := *tp.LastUsedAt
		c.LastUsedAt = &at
	}
	return &c
}

// MatchesSearch reports whether the term occurs, case-insensitively, in the
// task title, description, or any tag.
func (t *Task) MatchesSearch(term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	if strings.Contains(strings.ToLower(t.Title), term) ||
		strings.Contains(strings.ToLower(t.Description), term) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Rank orders priorities for display: urgent sorts before low.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	default:
		return 4
	}
}

// Utility methods
func (c Category) IsValid() bool {
	switch c {
	case CategoryPNTF, CategoryMeeting, CategoryTraining, CategoryDesign, CategoryReport, CategorySystem, CategoryOther:
		return true
	default:
		return false
	}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}
