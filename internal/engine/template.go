package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/nhle/deadline-tracker/internal/model"
)

// AddTemplate registers a template in the state. Template names are
// unique; a collision rejects the add and leaves existing data untouched.
func (e *Engine) AddTemplate(tpl *model.Template) error {
	for _, existing := range e.state.Templates {
		if existing.ID != tpl.ID && existing.Name == tpl.Name {
			return &ErrDuplicateName{Kind: "template", Name: tpl.Name}
		}
	}
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	now := time.Now()
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = now
	}
	tpl.UpdatedAt = now
	e.state.Templates[tpl.ID] = tpl
	return nil
}

// DeleteTemplate removes a template and detaches every project made from
// it. Detached projects keep their sub-deadlines and triggers as they are
// and become manual; the stale definition back-references are cleared so
// later template edits can never touch them. Returns the IDs of detached
// projects.
func (e *Engine) DeleteTemplate(id string) []string {
	if _, ok := e.state.Templates[id]; !ok {
		e.logf("delete: template %s not found", id)
		return nil
	}
	delete(e.state.Templates, id)

	var detached []string
	for _, projectID := range e.state.sortedProjectIDs() {
		project := e.state.Projects[projectID]
		if project.TemplateID == nil || *project.TemplateID != id {
			continue
		}
		project.TemplateID = nil
		project.TemplateName = ""
		for i := range project.SubDeadlines {
			project.SubDeadlines[i].TemplateSubDeadlineID = nil
		}
		project.UpdatedAt = time.Now()
		detached = append(detached, projectID)
	}
	detachedSet := make(map[string]bool, len(detached))
	for _, projectID := range detached {
		detachedSet[projectID] = true
	}
	for _, trg := range e.state.Triggers {
		if detachedSet[trg.ProjectID] {
			trg.TemplateTriggerID = nil
		}
	}
	return detached
}

// TemplateFromProject derives a template from an existing project: every
// sub-deadline becomes a definition whose offset is the gap between the
// project's final deadline and the sub-deadline's date, and every project
// trigger becomes a trigger definition. Trigger links are carried over.
// The conversion is informational; month offsets are never inferred.
func (e *Engine) TemplateFromProject(project *model.Project, name string) (*model.Template, error) {
	for _, existing := range e.state.Templates {
		if existing.Name == name {
			return nil, &ErrDuplicateName{Kind: "template", Name: name}
		}
	}

	now := time.Now()
	tpl := &model.Template{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Real trigger ID -> definition ID, so sub-deadline gates carry over.
	defIDs := make(map[string]string)
	for _, trg := range e.state.TriggersForProject(project.ID) {
		def := model.TemplateTrigger{
			ID:         uuid.New().String(),
			TemplateID: tpl.ID,
			Name:       trg.Name,
			Offset:     triggerOffset(project, trg),
		}
		defIDs[trg.ID] = def.ID
		tpl.Triggers = append(tpl.Triggers, def)
	}

	for _, sub := range project.SubDeadlines {
		def := model.TemplateSubDeadline{
			ID:         uuid.New().String(),
			TemplateID: tpl.ID,
			Title:      sub.Title,
			Offset:     model.OffsetBetween(project.FinalDeadline, sub.Date),
		}
		if sub.TriggerID != nil {
			if defID, ok := defIDs[*sub.TriggerID]; ok {
				def.TemplateTriggerID = &defID
			} else {
				e.logf("convert %q: sub-deadline %q references missing trigger %s", project.Title, sub.Title, *sub.TriggerID)
			}
		}
		tpl.SubDeadlines = append(tpl.SubDeadlines, def)
	}

	e.state.Templates[tpl.ID] = tpl
	return tpl, nil
}

// triggerOffset derives a definition offset from a materialized trigger.
// Undated triggers default to the day of the final deadline itself.
func triggerOffset(project *model.Project, trg *model.Trigger) model.TimeOffset {
	if trg.DueDate == nil {
		return model.TimeOffset{Amount: 1, Unit: model.OffsetUnitDays, Before: true}
	}
	return model.OffsetBetween(project.FinalDeadline, *trg.DueDate)
}
