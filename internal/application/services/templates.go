package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/agendadrte/core/internal/domain/entities"
	"github.com/agendadrte/core/internal/ports"
)

// SaveTemplate stores a reusable task template. Templates are matched by
// name: saving under an existing name overwrites that template while
// keeping its id and usage counters.
func (s *AgendaService) SaveTemplate(ctx context.Context, input ports.TemplateInput) (*entities.Template, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var tpl *entities.Template
	for _, existing := range s.templates {
		if existing.Name == input.Name {
			tpl = existing.Clone()
			break
		}
	}
	if tpl == nil {
		tpl = &entities.Template{
			ID:        uuid.New().String(),
			Name:      input.Name,
			CreatedAt: time.Now().UTC(),
		}
	}

	tpl.Category = input.Category
	if tpl.Category == "" {
		tpl.Category = s.settings.DefaultCategory
	}
	tpl.Priority = input.Priority
	if tpl.Priority == "" {
		tpl.Priority = entities.PriorityMedium
	}
	tpl.Description = input.Description
	tpl.Time = input.Time
	tpl.Location = input.Location
	tpl.Tags = append([]string(nil), input.Tags...)

	if err := s.kv.Put(ctx, ports.TemplateKeyPrefix+tpl.ID, tpl); err != nil {
		return nil, fmt.Errorf("failed to store template %s: %w", tpl.Name, err)
	}
	s.templates[tpl.ID] = tpl.Clone()

	s.logger.Infow("Template saved", "template_id", tpl.ID, "name", tpl.Name)
	return tpl, nil
}

// ListTemplates returns all templates ordered by name.
func (s *AgendaService) ListTemplates() []*entities.Template {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.Template, 0, len(s.templates))
	for _, tpl := range s.templates {
		out = append(out, tpl.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DeleteTemplate removes a template. Deleting an absent template succeeds.
func (s *AgendaService) DeleteTemplate(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[id]; !ok {
		return nil
	}
	if err := s.kv.Delete(ctx, ports.TemplateKeyPrefix+id); err != nil {
		return fmt.Errorf("failed to delete template %s: %w", id, err)
	}
	delete(s.templates, id)

	s.logger.Infow("Template deleted", "template_id", id)
	return nil
}

// ApplyTemplate creates a task on the given date from a template's stored
// values, bumping the template's usage counters.
func (s *AgendaService) ApplyTemplate(ctx context.Context, templateID, date string) (*entities.Task, error) {
	s.mu.Lock()
	tpl, ok := s.templates[templateID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("template %s: %w", templateID, entities.ErrTemplateNotFound)
	}
	input := ports.TaskInput{
		Title:       tpl.Name,
		Description: tpl.Description,
		Date:        date,
		Time:        tpl.Time,
		Category:    tpl.Category,
		Priority:    tpl.Priority,
		Location:    tpl.Location,
		Tags:        append([]string(nil), tpl.Tags...),
	}
	s.mu.Unlock()

	task, _, err := s.SaveTask(ctx, input, nil)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tpl, ok := s.templates[templateID]; ok {
		used := tpl.Clone()
		used.UseCount++
		now := time.Now().UTC()
		used.LastUsedAt = &now
		if err := s.kv.Put(ctx, ports.TemplateKeyPrefix+used.ID, used); err != nil {
			// Usage counters are advisory; the task is already saved.
			s.logger.Warnw("Template usage update failed", "template_id", templateID, "error", err)
		} else {
			s.templates[used.ID] = used
		}
	}

	return task, nil
}
