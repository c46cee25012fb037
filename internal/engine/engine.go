// Package engine implements the template instantiation and synchronization
// core: materializing projects from templates, diffing template versions,
// and propagating template edits into every instantiated project.
//
// The engine performs no I/O. It mutates an injected in-memory State and
// reports what changed; callers persist the affected records afterwards.
// Access is single-writer: callers must not invoke mutating operations
// concurrently on the same State.
package engine

import (
	"fmt"
	"log"
	"sort"

	"github.com/nhle/deadline-tracker/internal/model"
)

// State holds the in-memory collections the engine operates on,
// keyed by entity ID.
type State struct {
	Projects  map[string]*model.Project
	Templates map[string]*model.Template
	Triggers  map[string]*model.Trigger
}

// NewState returns an empty State.
func NewState() *State {
	return &State{
		Projects:  make(map[string]*model.Project),
		Templates: make(map[string]*model.Template),
		Triggers:  make(map[string]*model.Trigger),
	}
}

// TriggersForProject returns the project's triggers sorted by due date
// (undated triggers last), then by name.
func (s *State) TriggersForProject(projectID string) []*model.Trigger {
	var out []*model.Trigger
	for _, trg := range s.Triggers {
		if trg.ProjectID == projectID {
			out = append(out, trg)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.DueDate == nil && b.DueDate == nil:
			return a.Name < b.Name
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return a.Name < b.Name
	})
	return out
}

// triggerMapForProject maps template trigger definition IDs to the real
// trigger IDs materialized for the given project.
func (s *State) triggerMapForProject(projectID string) map[string]string {
	m := make(map[string]string)
	for id, trg := range s.Triggers {
		if trg.ProjectID == projectID && trg.TemplateTriggerID != nil {
			m[*trg.TemplateTriggerID] = id
		}
	}
	return m
}

// sortedProjectIDs returns all project IDs in a deterministic order.
func (s *State) sortedProjectIDs() []string {
	ids := make([]string, 0, len(s.Projects))
	for id := range s.Projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Engine mutates a State through the operations defined across this
// package. A non-fatal condition (bad offset, dangling reference,
// duplicate name) is logged and recovered locally, never panicked on.
type Engine struct {
	state  *State
	logger *log.Logger
}

// New creates an Engine over the given state, logging recoverable
// conditions to the default logger.
func New(state *State) *Engine {
	return &Engine{state: state, logger: log.Default()}
}

// SetLogger replaces the logger used for skip/integrity warnings.
func (e *Engine) SetLogger(l *log.Logger) {
	if l != nil {
		e.logger = l
	}
}

// State returns the engine's underlying state.
func (e *Engine) State() *State {
	return e.state
}

func (e *Engine) logf(format string, args ...interface{}) {
	e.logger.Printf(format, args...)
}

// ErrDuplicateName reports a name collision when adding a template or
// trigger. The add is rejected and existing data stays untouched.
type ErrDuplicateName struct {
	Kind string
	Name string
}

func (e *ErrDuplicateName) Error() string {
	return fmt.Sprintf("%s name %q is already in use", e.Kind, e.Name)
}
