package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/nhle/deadline-tracker/internal/model"
)

// ActivateTrigger marks the trigger active and records the activation
// time. Activating an already-active trigger is a no-op. Returns false
// when the trigger does not exist.
func (e *Engine) ActivateTrigger(id string) bool {
	trg, ok := e.state.Triggers[id]
	if !ok {
		e.logf("activate: trigger %s not found", id)
		return false
	}
	if trg.IsActive {
		return true
	}
	now := time.Now()
	trg.IsActive = true
	trg.ActivatedAt = &now
	trg.UpdatedAt = now
	return true
}

// DeactivateTrigger returns the trigger to its pending state. The old
// activation timestamp is kept as history. Deactivating an inactive
// trigger is a no-op. Returns false when the trigger does not exist.
func (e *Engine) DeactivateTrigger(id string) bool {
	trg, ok := e.state.Triggers[id]
	if !ok {
		e.logf("deactivate: trigger %s not found", id)
		return false
	}
	if !trg.IsActive {
		return true
	}
	trg.IsActive = false
	trg.UpdatedAt = time.Now()
	return true
}

// IsSubDeadlineActive reports whether the sub-deadline is currently
// visible. Ungated sub-deadlines are always active. A reference to a
// missing trigger means hidden: the data is inconsistent, so fail safe
// and warn rather than crash or expose the step.
func (e *Engine) IsSubDeadlineActive(sub model.SubDeadline) bool {
	if sub.TriggerID == nil {
		return true
	}
	trg, ok := e.state.Triggers[*sub.TriggerID]
	if !ok {
		e.logf("integrity: sub-deadline %s references missing trigger %s", sub.ID, *sub.TriggerID)
		return false
	}
	return trg.IsActive
}

// AddTrigger creates a manual trigger on a project. The name must be
// unique among the project's triggers.
func (e *Engine) AddTrigger(projectID, name string, dueDate *time.Time) (*model.Trigger, error) {
	for _, existing := range e.state.Triggers {
		if existing.ProjectID == projectID && existing.Name == name {
			return nil, &ErrDuplicateName{Kind: "trigger", Name: name}
		}
	}
	now := time.Now()
	trg := &model.Trigger{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		DueDate:   dueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.state.Triggers[trg.ID] = trg
	return trg, nil
}

// DeleteTrigger removes the trigger from the collection and unlinks every
// sub-deadline that referenced it, in every project, so no dangling
// reference is left behind. Returns the IDs of projects whose
// sub-deadlines were unlinked.
func (e *Engine) DeleteTrigger(id string) []string {
	if _, ok := e.state.Triggers[id]; !ok {
		e.logf("delete: trigger %s not found", id)
		return nil
	}
	delete(e.state.Triggers, id)

	var touched []string
	for _, projectID := range e.state.sortedProjectIDs() {
		project := e.state.Projects[projectID]
		changed := false
		for i := range project.SubDeadlines {
			sub := &project.SubDeadlines[i]
			if sub.TriggerID != nil && *sub.TriggerID == id {
				sub.TriggerID = nil
				sub.UpdatedAt = time.Now()
				changed = true
			}
		}
		if changed {
			project.UpdatedAt = time.Now()
			touched = append(touched, projectID)
		}
	}
	return touched
}

// ToggleCompletion flips the completion flag of a sub-deadline.
// Completion is independent of trigger gating: a gated sub-deadline can
// be completed while still hidden.
func (e *Engine) ToggleCompletion(projectID, subDeadlineID string) bool {
	project, ok := e.state.Projects[projectID]
	if !ok {
		e.logf("toggle: project %s not found", projectID)
		return false
	}
	sub := project.SubDeadlineByID(subDeadlineID)
	if sub == nil {
		e.logf("toggle: sub-deadline %s not found in project %s", subDeadlineID, projectID)
		return false
	}
	now := time.Now()
	sub.Completed = !sub.Completed
	if sub.Completed {
		sub.CompletedAt = &now
	} else {
		sub.CompletedAt = nil
	}
	sub.UpdatedAt = now
	project.UpdatedAt = now
	return true
}
