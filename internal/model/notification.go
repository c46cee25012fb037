package model

import "time"

// Notification is a reminder surfaced to the user about an upcoming or
// overdue deadline.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id" db:"id"`

	// ProjectID links this notification to the project it concerns.
	ProjectID string `json:"project_id" db:"project_id"`

	// EntityID identifies the sub-deadline or trigger being reminded
	// about; used to avoid duplicate reminders for the same entity.
	EntityID string `json:"entity_id" db:"entity_id"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read" db:"read"`

	// CreatedAt is when this notification was generated.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
