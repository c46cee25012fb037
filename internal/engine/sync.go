package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/deadline-tracker/internal/model"
)

// SyncResult reports what Synchronize changed so the caller can persist
// exactly the affected records.
type SyncResult struct {
	// DirtyProjectIDs lists projects with at least one actual field
	// change. Projects the delta did not end up touching are absent, so
	// replaying an empty or already-applied delta reports nothing.
	DirtyProjectIDs []string

	// CreatedTriggers are triggers materialized for added trigger
	// definitions, across all affected projects.
	CreatedTriggers []*model.Trigger

	// DeletedTriggerIDs are real trigger IDs removed because their
	// definition was deleted from the template.
	DeletedTriggerIDs []string
}

// Synchronize applies a template delta to every project instantiated from
// the given template. Within each project the steps run in dependency
// order: trigger additions, deletions, and renames complete before
// sub-deadline link resolution, because sub-deadlines may reference
// triggers (re)created in the same pass.
//
// The operation is idempotent: added definitions are guarded by their
// back-reference, and field updates are applied only when the value
// actually differs. Offset failures skip the single affected step.
func (e *Engine) Synchronize(delta TemplateDelta, templateID string) SyncResult {
	var result SyncResult

	for _, projectID := range e.state.sortedProjectIDs() {
		project := e.state.Projects[projectID]
		if project.TemplateID == nil || *project.TemplateID != templateID {
			continue
		}
		if e.syncProject(project, delta, &result) {
			project.UpdatedAt = time.Now()
			result.DirtyProjectIDs = append(result.DirtyProjectIDs, projectID)
		}
	}

	sort.Strings(result.DirtyProjectIDs)
	return result
}

// syncProject applies the delta to a single project and reports whether
// anything changed.
func (e *Engine) syncProject(project *model.Project, delta TemplateDelta, result *SyncResult) bool {
	now := time.Now()
	dirty := false
	triggerIDs := e.state.triggerMapForProject(project.ID)

	// Added trigger definitions. Due dates come from this project's own
	// final deadline, not the template's original anchor.
	for _, def := range delta.AddedTriggers {
		if _, exists := triggerIDs[def.ID]; exists {
			continue
		}
		defID := def.ID
		trg := &model.Trigger{
			ID:                uuid.New().String(),
			ProjectID:         project.ID,
			Name:              def.Name,
			TemplateTriggerID: &defID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if due, err := def.Offset.Apply(project.FinalDeadline); err != nil {
			e.logf("sync %q: skipping due date for new trigger %q: %v", project.Title, def.Name, err)
		} else {
			trg.DueDate = &due
		}
		e.state.Triggers[trg.ID] = trg
		triggerIDs[def.ID] = trg.ID
		result.CreatedTriggers = append(result.CreatedTriggers, trg)
		dirty = true
	}

	// Deleted trigger definitions: remove the materialized trigger and
	// unlink any sub-deadline that pointed at it.
	for _, defID := range delta.DeletedTriggers {
		realID, ok := triggerIDs[defID]
		if !ok {
			continue
		}
		e.DeleteTrigger(realID)
		delete(triggerIDs, defID)
		result.DeletedTriggerIDs = append(result.DeletedTriggerIDs, realID)
		dirty = true
	}

	// Changed trigger definitions: rename directly; recompute the due
	// date from the project's final deadline and write only when it
	// actually moved.
	for _, change := range delta.ChangedTriggers {
		realID, ok := triggerIDs[change.TemplateTriggerID]
		if !ok {
			e.logf("sync %q: no trigger materialized for definition %s", project.Title, change.TemplateTriggerID)
			continue
		}
		trg := e.state.Triggers[realID]
		if change.Name != nil && trg.Name != *change.Name {
			trg.Name = *change.Name
			trg.UpdatedAt = now
			dirty = true
		}
		if change.Offset != nil {
			due, err := change.Offset.Apply(project.FinalDeadline)
			if err != nil {
				e.logf("sync %q: skipping due date for trigger %q: %v", project.Title, trg.Name, err)
			} else if trg.DueDate == nil || !trg.DueDate.Equal(due) {
				trg.DueDate = &due
				trg.UpdatedAt = now
				dirty = true
			}
		}
	}

	// Changed sub-deadline definitions.
	for _, change := range delta.ChangedSubDeadlines {
		for i := range project.SubDeadlines {
			sub := &project.SubDeadlines[i]
			if sub.TemplateSubDeadlineID == nil || *sub.TemplateSubDeadlineID != change.TemplateSubDeadlineID {
				continue
			}
			if e.applySubDeadlineChange(project, sub, change, triggerIDs) {
				sub.UpdatedAt = now
				dirty = true
			}
		}
	}

	// Added sub-deadline definitions, guarded by back-reference so a
	// replayed delta does not duplicate them.
	existing := make(map[string]bool, len(project.SubDeadlines))
	for _, sub := range project.SubDeadlines {
		if sub.TemplateSubDeadlineID != nil {
			existing[*sub.TemplateSubDeadlineID] = true
		}
	}
	for _, def := range delta.AddedSubDeadlines {
		if existing[def.ID] {
			continue
		}
		date, err := def.Offset.Apply(project.FinalDeadline)
		if err != nil {
			e.logf("sync %q: skipping new sub-deadline %q: %v", project.Title, def.Title, err)
			continue
		}
		defID := def.ID
		project.SubDeadlines = append(project.SubDeadlines, model.SubDeadline{
			ID:                    uuid.New().String(),
			ProjectID:             project.ID,
			Title:                 def.Title,
			Date:                  date,
			TemplateSubDeadlineID: &defID,
			TriggerID:             resolveTriggerLink(def.TemplateTriggerID, triggerIDs),
			CreatedAt:             now,
			UpdatedAt:             now,
		})
		dirty = true
	}

	if dirty {
		project.SortSubDeadlines()
	}
	return dirty
}

// applySubDeadlineChange applies one definition change to one materialized
// sub-deadline, returning whether any field actually moved.
func (e *Engine) applySubDeadlineChange(
	project *model.Project,
	sub *model.SubDeadline,
	change SubDeadlineChange,
	triggerIDs map[string]string,
) bool {
	changed := false

	if change.Title != nil && sub.Title != *change.Title {
		sub.Title = *change.Title
		changed = true
	}
	if change.Offset != nil {
		date, err := change.Offset.Apply(project.FinalDeadline)
		if err != nil {
			// Keep the previous date.
			e.logf("sync %q: keeping date of sub-deadline %q: %v", project.Title, sub.Title, err)
		} else if !sub.Date.Equal(date) {
			sub.Date = date
			changed = true
		}
	}
	if change.LinkChanged {
		newLink := resolveTriggerLink(change.TemplateTriggerID, triggerIDs)
		if !equalStringPtr(sub.TriggerID, newLink) {
			sub.TriggerID = newLink
			changed = true
		}
	}

	return changed
}
