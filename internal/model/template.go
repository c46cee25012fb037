package model

import "time"

// Template is a reusable project shape: sub-deadlines and triggers defined
// as offsets from an anchor date instead of concrete dates. One template
// can instantiate any number of projects.
type Template struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// SubDeadlines and Triggers are populated from their child tables,
	// in definition order.
	SubDeadlines []TemplateSubDeadline `json:"sub_deadlines,omitempty" db:"-"`
	Triggers     []TemplateTrigger     `json:"triggers,omitempty" db:"-"`
}

// TemplateSubDeadline defines one step of a template. Its ID is stable
// across template edits and is the key the diff engine matches on: the
// same ID with different fields means "same logical step, new wording or
// offset", a new ID means a new step.
type TemplateSubDeadline struct {
	ID         string     `json:"id" db:"id"`
	TemplateID string     `json:"template_id" db:"template_id"`
	Title      string     `json:"title" db:"title"`
	Offset     TimeOffset `json:"offset"`

	// TemplateTriggerID gates materialized steps behind the trigger
	// created from the referenced definition; nil means ungated.
	TemplateTriggerID *string `json:"template_trigger_id,omitempty" db:"template_trigger_id"`
}

// TemplateTrigger defines a trigger a template materializes into each
// instantiated project. Its ID is a stable diff key, like
// TemplateSubDeadline.ID. The offset only provides the default
// informational due date of materialized triggers.
type TemplateTrigger struct {
	ID         string     `json:"id" db:"id"`
	TemplateID string     `json:"template_id" db:"template_id"`
	Name       string     `json:"name" db:"name"`
	Offset     TimeOffset `json:"offset"`
}

// SubDeadlineByID returns the definition with the given ID, or nil.
func (t *Template) SubDeadlineByID(id string) *TemplateSubDeadline {
	for i := range t.SubDeadlines {
		if t.SubDeadlines[i].ID == id {
			return &t.SubDeadlines[i]
		}
	}
	return nil
}

// TriggerByID returns the trigger definition with the given ID, or nil.
func (t *Template) TriggerByID(id string) *TemplateTrigger {
	for i := range t.Triggers {
		if t.Triggers[i].ID == id {
			return &t.Triggers[i]
		}
	}
	return nil
}
