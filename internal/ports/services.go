package ports

import "github.com/agendadrte/core/internal/domain/entities"

// TaskInput carries caller-supplied task fields for create and update.
// An empty ID means create; a non-empty ID updates the existing task,
// preserving its CreatedAt and previously stored attachment ids.
type TaskInput struct {
	ID          string            `validate:"omitempty"`
	Title       string            `validate:"required"`
	Description string            ``
	Date        string            `validate:"required,datetime=2006-01-02"`
	Time        string            `validate:"omitempty,datetime=15:04"`
	Category    entities.Category `validate:"omitempty,oneof=pntf meeting training design report system other"`
	Priority    entities.Priority `validate:"omitempty,oneof=low medium high urgent"`
	Status      entities.Status   `validate:"omitempty,oneof=pending in-progress completed cancelled"`
	Location    string            ``
	Tags        []string          ``
}

// FileUpload is an attachment candidate read from the caller.
type FileUpload struct {
	Name     string
	MimeType string
	Data     []byte
}

// AttachmentFailure names an upload that was rejected without aborting
// its batch.
type AttachmentFailure struct {
	Name string
	Err  error
}

// TaskFilter selects tasks from the in-memory cache. Zero values match
// everything; Search matches title, description, and tags
// case-insensitively.
type TaskFilter struct {
	Category entities.Category
	Status   entities.Status
	Priority entities.Priority
	Date     string
	Search   string
}

// TemplateInput carries caller-supplied template fields.
type TemplateInput struct {
	Name        string            `validate:"required"`
	Category    entities.Category `validate:"omitempty,oneof=pntf meeting training design report system other"`
	Priority    entities.Priority `validate:"omitempty,oneof=low medium high urgent"`
	Description string            ``
	Time        string            `validate:"omitempty,datetime=15:04"`
	Location    string            ``
	Tags        []string          ``
}
