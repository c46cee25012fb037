package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/nhle/deadline-tracker/internal/model"
)

// Instantiate materializes a concrete project from a template and an
// anchor date (the project's final deadline). Triggers are created first,
// referencing the new project's ID, so sub-deadlines can resolve their
// gate links through them. The project and triggers are added to the
// engine's state and returned for the caller to persist together;
// persisting triggers before the project keeps any partial write from
// leaving a trigger pointing at a missing project.
//
// A failed offset computation skips only the affected step; the rest of
// the instantiation proceeds.
func (e *Engine) Instantiate(tpl *model.Template, title string, anchor time.Time) (*model.Project, []*model.Trigger) {
	now := time.Now()
	project := &model.Project{
		ID:            uuid.New().String(),
		Title:         title,
		FinalDeadline: anchor,
		TemplateID:    &tpl.ID,
		TemplateName:  tpl.Name,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Materialize triggers, mapping definition IDs to real trigger IDs.
	triggerIDs := make(map[string]string, len(tpl.Triggers))
	newTriggers := make([]*model.Trigger, 0, len(tpl.Triggers))
	for i := range tpl.Triggers {
		def := tpl.Triggers[i]
		trg := &model.Trigger{
			ID:                uuid.New().String(),
			ProjectID:         project.ID,
			Name:              def.Name,
			TemplateTriggerID: &def.ID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if due, err := def.Offset.Apply(anchor); err != nil {
			e.logf("instantiate %q: skipping due date for trigger %q: %v", tpl.Name, def.Name, err)
		} else {
			trg.DueDate = &due
		}
		triggerIDs[def.ID] = trg.ID
		newTriggers = append(newTriggers, trg)
		e.state.Triggers[trg.ID] = trg
	}

	for i := range tpl.SubDeadlines {
		def := tpl.SubDeadlines[i]
		date, err := def.Offset.Apply(anchor)
		if err != nil {
			e.logf("instantiate %q: skipping sub-deadline %q: %v", tpl.Name, def.Title, err)
			continue
		}
		sub := model.SubDeadline{
			ID:                    uuid.New().String(),
			ProjectID:             project.ID,
			Title:                 def.Title,
			Date:                  date,
			TemplateSubDeadlineID: &def.ID,
			TriggerID:             resolveTriggerLink(def.TemplateTriggerID, triggerIDs),
			CreatedAt:             now,
			UpdatedAt:             now,
		}
		project.SubDeadlines = append(project.SubDeadlines, sub)
	}

	project.SortSubDeadlines()
	e.state.Projects[project.ID] = project
	return project, newTriggers
}

// resolveTriggerLink maps a template trigger reference through the
// definition-to-real-trigger map. Unresolvable references yield nil (the
// step is simply ungated) rather than a dangling ID.
func resolveTriggerLink(templateTriggerID *string, triggerIDs map[string]string) *string {
	if templateTriggerID == nil {
		return nil
	}
	realID, ok := triggerIDs[*templateTriggerID]
	if !ok {
		return nil
	}
	return &realID
}
