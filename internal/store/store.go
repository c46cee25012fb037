package store

import (
	"context"

	"github.com/nhle/deadline-tracker/internal/engine"
	"github.com/nhle/deadline-tracker/internal/model"
)

// Store defines the persistence interface for projects, templates,
// triggers, and notifications. The engine never calls these methods
// itself; callers load state, run engine operations, and persist the
// records the engine reports as changed.
type Store interface {
	// === Bulk state ===

	// LoadState reads every collection into an engine State.
	LoadState(ctx context.Context) (*engine.State, error)

	// SaveSyncResult persists everything a synchronization pass changed.
	SaveSyncResult(ctx context.Context, state *engine.State, result engine.SyncResult) error

	// SaveInstantiation persists a new project and its triggers in one
	// transaction, writing triggers before the gated sub-deadlines that
	// reference them.
	SaveInstantiation(ctx context.Context, project model.Project, triggers []model.Trigger) error

	// ReplaceAll replaces every collection wholesale. This is the
	// backup-restore seam: it bypasses synchronization entirely and the
	// last write wins.
	ReplaceAll(ctx context.Context, projects []model.Project, templates []model.Template, triggers []model.Trigger) error

	// === Projects (with their sub-deadlines) ===

	SaveProject(ctx context.Context, project model.Project) error
	DeleteProject(ctx context.Context, id string) error
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	GetProjects(ctx context.Context) ([]model.Project, error)

	// === Triggers ===

	SaveTrigger(ctx context.Context, trigger model.Trigger) error
	DeleteTrigger(ctx context.Context, id string) error
	GetTriggersForProject(ctx context.Context, projectID string) ([]model.Trigger, error)
	GetTriggers(ctx context.Context) ([]model.Trigger, error)

	// === Templates (with their definitions) ===

	SaveTemplate(ctx context.Context, tpl model.Template) error
	DeleteTemplate(ctx context.Context, id string) error
	GetTemplateByID(ctx context.Context, id string) (*model.Template, error)
	GetTemplates(ctx context.Context) ([]model.Template, error)

	// === Notifications ===

	CreateNotification(ctx context.Context, n model.Notification) error
	GetUnreadNotifications(ctx context.Context) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	HasNotificationForEntity(ctx context.Context, entityID string, sinceHours int) (bool, error)
}
