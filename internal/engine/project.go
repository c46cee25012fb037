package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/nhle/deadline-tracker/internal/model"
)

// CreateProject adds a manual project with no template lineage.
func (e *Engine) CreateProject(title string, finalDeadline time.Time) *model.Project {
	now := time.Now()
	project := &model.Project{
		ID:            uuid.New().String(),
		Title:         title,
		FinalDeadline: finalDeadline,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	e.state.Projects[project.ID] = project
	return project
}

// UpdateProjectBasics changes a project's title and final deadline.
// Existing sub-deadline dates are left alone: moving the final deadline
// of an already-instantiated project does not re-derive them.
func (e *Engine) UpdateProjectBasics(id, title string, finalDeadline time.Time) bool {
	project, ok := e.state.Projects[id]
	if !ok {
		e.logf("update: project %s not found", id)
		return false
	}
	project.Title = title
	project.FinalDeadline = finalDeadline
	project.UpdatedAt = time.Now()
	return true
}

// SetProjectCompleted records the project-level completion flag.
func (e *Engine) SetProjectCompleted(id string, completed bool) bool {
	project, ok := e.state.Projects[id]
	if !ok {
		return false
	}
	if project.Completed == completed {
		return true
	}
	project.Completed = completed
	project.UpdatedAt = time.Now()
	return true
}

// DeleteProject removes a project together with its triggers.
func (e *Engine) DeleteProject(id string) bool {
	if _, ok := e.state.Projects[id]; !ok {
		e.logf("delete: project %s not found", id)
		return false
	}
	delete(e.state.Projects, id)
	for trgID, trg := range e.state.Triggers {
		if trg.ProjectID == id {
			delete(e.state.Triggers, trgID)
		}
	}
	return true
}
