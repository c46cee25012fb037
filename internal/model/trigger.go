package model

import "time"

// Trigger is a manually fired gate owned by a single project. Sub-deadlines
// referencing it stay hidden until it is activated. Deactivation is
// reversible and keeps the last activation timestamp as history.
type Trigger struct {
	ID        string `json:"id" db:"id"`
	ProjectID string `json:"project_id" db:"project_id"`
	Name      string `json:"name" db:"name"`
	IsActive  bool   `json:"is_active" db:"is_active"`

	// ActivatedAt is set on activation and retained after deactivation.
	ActivatedAt *time.Time `json:"activated_at,omitempty" db:"activated_at"`

	// DueDate is informational, used for sorting and reminders only.
	DueDate *time.Time `json:"due_date,omitempty" db:"due_date"`

	// TemplateTriggerID links back to the template definition this trigger
	// was materialized from; nil for manually added triggers.
	TemplateTriggerID *string `json:"template_trigger_id,omitempty" db:"template_trigger_id"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
