package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nhle/deadline-tracker/internal/model"
)

// SaveTrigger upserts a single trigger.
func (s *SQLiteStore) SaveTrigger(ctx context.Context, trigger model.Trigger) error {
	return upsertTrigger(ctx, s.db, trigger)
}

// upsertTrigger writes a trigger through either the db handle or an open
// transaction.
func upsertTrigger(ctx context.Context, e sqlx.ExecerContext, trigger model.Trigger) error {
	if strings.TrimSpace(trigger.Name) == "" {
		return fmt.Errorf("trigger name must not be empty")
	}
	if trigger.ID == "" {
		trigger.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if trigger.CreatedAt.IsZero() {
		trigger.CreatedAt = now
	}
	trigger.UpdatedAt = now

	_, err := e.ExecContext(ctx, `
		INSERT OR REPLACE INTO triggers (
			id, project_id, name, is_active, activated_at,
			due_date, template_trigger_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		trigger.ID, trigger.ProjectID, trigger.Name,
		boolToInt(trigger.IsActive), trigger.ActivatedAt,
		trigger.DueDate, trigger.TemplateTriggerID,
		trigger.CreatedAt, trigger.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting trigger %s: %w", trigger.ID, err)
	}
	return nil
}

// DeleteTrigger removes a trigger. The trigger_id foreign key on
// sub_deadlines is declared ON DELETE SET NULL, so the unlink cascade the
// engine applies in memory holds at the schema level too.
func (s *SQLiteStore) DeleteTrigger(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM triggers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting trigger %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("trigger %s not found", id)
	}
	return nil
}

// GetTriggersForProject retrieves a project's triggers ordered by due
// date, undated triggers last.
func (s *SQLiteStore) GetTriggersForProject(ctx context.Context, projectID string) ([]model.Trigger, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM triggers WHERE project_id = ?
		ORDER BY due_date IS NULL, due_date, name`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying triggers for project %s: %w", projectID, err)
	}
	defer rows.Close()

	return collectTriggers(rows)
}

// GetTriggers retrieves every trigger.
func (s *SQLiteStore) GetTriggers(ctx context.Context) ([]model.Trigger, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM triggers ORDER BY project_id, name")
	if err != nil {
		return nil, fmt.Errorf("querying triggers: %w", err)
	}
	defer rows.Close()

	return collectTriggers(rows)
}

func collectTriggers(rows *sqlx.Rows) ([]model.Trigger, error) {
	var triggers []model.Trigger
	for rows.Next() {
		var (
			trigger   model.Trigger
			activeInt int
		)
		err := rows.Scan(
			&trigger.ID, &trigger.ProjectID, &trigger.Name,
			&activeInt, &trigger.ActivatedAt,
			&trigger.DueDate, &trigger.TemplateTriggerID,
			&trigger.CreatedAt, &trigger.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning trigger row: %w", err)
		}
		trigger.IsActive = activeInt != 0
		triggers = append(triggers, trigger)
	}
	return triggers, rows.Err()
}
