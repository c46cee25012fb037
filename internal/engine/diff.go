package engine

import "github.com/nhle/deadline-tracker/internal/model"

// SubDeadlineChange describes how one sub-deadline definition differs
// between two template versions. Each field tracks its own change: nil
// (or LinkChanged=false) means untouched.
type SubDeadlineChange struct {
	TemplateSubDeadlineID string

	Title  *string
	Offset *model.TimeOffset

	// LinkChanged distinguishes "link now points elsewhere (possibly to
	// nothing)" from "link untouched", since the new value may itself
	// be nil.
	LinkChanged       bool
	TemplateTriggerID *string
}

// TriggerChange describes how one trigger definition differs between two
// template versions.
type TriggerChange struct {
	TemplateTriggerID string

	Name   *string
	Offset *model.TimeOffset
}

// TemplateDelta is the structural difference between two versions of the
// same template, keyed by the stable definition IDs. It is a pure value:
// diffing the same pair twice yields equal deltas.
//
// Removed sub-deadline definitions are deliberately absent: deleting a
// definition leaves already-materialized sub-deadlines in place so user
// history (completion, edits) survives. Trigger definition removals do
// propagate, with unlink cascades.
type TemplateDelta struct {
	TemplateID string

	AddedSubDeadlines   []model.TemplateSubDeadline
	ChangedSubDeadlines []SubDeadlineChange

	AddedTriggers   []model.TemplateTrigger
	DeletedTriggers []string
	ChangedTriggers []TriggerChange
}

// Empty reports whether the delta carries no changes at all.
func (d TemplateDelta) Empty() bool {
	return len(d.AddedSubDeadlines) == 0 &&
		len(d.ChangedSubDeadlines) == 0 &&
		len(d.AddedTriggers) == 0 &&
		len(d.DeletedTriggers) == 0 &&
		len(d.ChangedTriggers) == 0
}

// Diff computes the delta between two versions of the same template.
// Iteration follows the slice order of the inputs, so the result is
// deterministic for a given (old, new) pair.
func Diff(oldTpl, newTpl *model.Template) TemplateDelta {
	delta := TemplateDelta{TemplateID: newTpl.ID}

	oldSubs := make(map[string]model.TemplateSubDeadline, len(oldTpl.SubDeadlines))
	for _, def := range oldTpl.SubDeadlines {
		oldSubs[def.ID] = def
	}
	for _, def := range newTpl.SubDeadlines {
		prev, ok := oldSubs[def.ID]
		if !ok {
			delta.AddedSubDeadlines = append(delta.AddedSubDeadlines, def)
			continue
		}
		if change, changed := diffSubDeadline(prev, def); changed {
			delta.ChangedSubDeadlines = append(delta.ChangedSubDeadlines, change)
		}
	}

	oldTriggers := make(map[string]model.TemplateTrigger, len(oldTpl.Triggers))
	for _, def := range oldTpl.Triggers {
		oldTriggers[def.ID] = def
	}
	newTriggers := make(map[string]bool, len(newTpl.Triggers))
	for _, def := range newTpl.Triggers {
		newTriggers[def.ID] = true
		prev, ok := oldTriggers[def.ID]
		if !ok {
			delta.AddedTriggers = append(delta.AddedTriggers, def)
			continue
		}
		if change, changed := diffTrigger(prev, def); changed {
			delta.ChangedTriggers = append(delta.ChangedTriggers, change)
		}
	}
	for _, def := range oldTpl.Triggers {
		if !newTriggers[def.ID] {
			delta.DeletedTriggers = append(delta.DeletedTriggers, def.ID)
		}
	}

	return delta
}

func diffSubDeadline(prev, next model.TemplateSubDeadline) (SubDeadlineChange, bool) {
	change := SubDeadlineChange{TemplateSubDeadlineID: next.ID}
	changed := false

	if prev.Title != next.Title {
		title := next.Title
		change.Title = &title
		changed = true
	}
	if prev.Offset != next.Offset {
		offset := next.Offset
		change.Offset = &offset
		changed = true
	}
	if !equalStringPtr(prev.TemplateTriggerID, next.TemplateTriggerID) {
		change.LinkChanged = true
		change.TemplateTriggerID = copyStringPtr(next.TemplateTriggerID)
		changed = true
	}

	return change, changed
}

func diffTrigger(prev, next model.TemplateTrigger) (TriggerChange, bool) {
	change := TriggerChange{TemplateTriggerID: next.ID}
	changed := false

	if prev.Name != next.Name {
		name := next.Name
		change.Name = &name
		changed = true
	}
	if prev.Offset != next.Offset {
		offset := next.Offset
		change.Offset = &offset
		changed = true
	}

	return change, changed
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
