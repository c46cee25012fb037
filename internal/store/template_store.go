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

// SaveTemplate upserts a template and replaces its definition rows in a
// single transaction. Definition IDs are stable across edits; only their
// fields and membership change.
func (s *SQLiteStore) SaveTemplate(ctx context.Context, tpl model.Template) error {
	if strings.TrimSpace(tpl.Name) == "" {
		return fmt.Errorf("template name must not be empty")
	}
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = now
	}
	tpl.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO templates (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		tpl.ID, tpl.Name, tpl.CreatedAt, tpl.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting template %s: %w", tpl.ID, err)
	}

	// Replace the definition rows wholesale; position preserves the
	// author's ordering.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM template_triggers WHERE template_id = ?", tpl.ID); err != nil {
		return fmt.Errorf("clearing trigger definitions for template %s: %w", tpl.ID, err)
	}
	for i, def := range tpl.Triggers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO template_triggers (
				id, template_id, name, offset_amount, offset_unit, offset_before, position
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			def.ID, tpl.ID, def.Name,
			def.Offset.Amount, string(def.Offset.Unit), boolToInt(def.Offset.Before), i,
		)
		if err != nil {
			return fmt.Errorf("inserting trigger definition %s: %w", def.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM template_sub_deadlines WHERE template_id = ?", tpl.ID); err != nil {
		return fmt.Errorf("clearing sub-deadline definitions for template %s: %w", tpl.ID, err)
	}
	for i, def := range tpl.SubDeadlines {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO template_sub_deadlines (
				id, template_id, title, offset_amount, offset_unit, offset_before,
				template_trigger_id, position
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			def.ID, tpl.ID, def.Title,
			def.Offset.Amount, string(def.Offset.Unit), boolToInt(def.Offset.Before),
			def.TemplateTriggerID, i,
		)
		if err != nil {
			return fmt.Errorf("inserting sub-deadline definition %s: %w", def.ID, err)
		}
	}

	return tx.Commit()
}

// DeleteTemplate removes a template and its definitions. Callers detach
// linked projects first (clearing template_id and the definition
// back-references) and persist them separately.
func (s *SQLiteStore) DeleteTemplate(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM templates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting template %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("template %s not found", id)
	}
	return nil
}

// GetTemplateByID retrieves a single template with its definitions.
func (s *SQLiteStore) GetTemplateByID(ctx context.Context, id string) (*model.Template, error) {
	var tpl model.Template
	err := s.db.QueryRowxContext(ctx, "SELECT * FROM templates WHERE id = ?", id).Scan(
		&tpl.ID, &tpl.Name, &tpl.CreatedAt, &tpl.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("getting template %s: %w", id, err)
	}
	if err := s.loadTemplateDefinitions(ctx, &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// GetTemplates retrieves all templates with their definitions, ordered
// by name.
func (s *SQLiteStore) GetTemplates(ctx context.Context) ([]model.Template, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM templates ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	var templates []model.Template
	for rows.Next() {
		var tpl model.Template
		if err := rows.Scan(&tpl.ID, &tpl.Name, &tpl.CreatedAt, &tpl.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning template row: %w", err)
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range templates {
		if err := s.loadTemplateDefinitions(ctx, &templates[i]); err != nil {
			return nil, err
		}
	}
	return templates, nil
}

// loadTemplateDefinitions populates a template's trigger and sub-deadline
// definitions in stored order.
func (s *SQLiteStore) loadTemplateDefinitions(ctx context.Context, tpl *model.Template) error {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM template_triggers WHERE template_id = ? ORDER BY position", tpl.ID)
	if err != nil {
		return fmt.Errorf("querying trigger definitions for template %s: %w", tpl.ID, err)
	}
	tpl.Triggers, err = collectTriggerDefinitions(rows)
	rows.Close()
	if err != nil {
		return err
	}

	rows, err = s.db.QueryxContext(ctx,
		"SELECT * FROM template_sub_deadlines WHERE template_id = ? ORDER BY position", tpl.ID)
	if err != nil {
		return fmt.Errorf("querying sub-deadline definitions for template %s: %w", tpl.ID, err)
	}
	tpl.SubDeadlines, err = collectSubDeadlineDefinitions(rows)
	rows.Close()
	return err
}

func collectTriggerDefinitions(rows *sqlx.Rows) ([]model.TemplateTrigger, error) {
	var defs []model.TemplateTrigger
	for rows.Next() {
		var (
			def       model.TemplateTrigger
			unit      string
			beforeInt int
			position  int
		)
		err := rows.Scan(
			&def.ID, &def.TemplateID, &def.Name,
			&def.Offset.Amount, &unit, &beforeInt, &position,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning trigger definition row: %w", err)
		}
		def.Offset.Unit = model.OffsetUnit(unit)
		def.Offset.Before = beforeInt != 0
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

func collectSubDeadlineDefinitions(rows *sqlx.Rows) ([]model.TemplateSubDeadline, error) {
	var defs []model.TemplateSubDeadline
	for rows.Next() {
		var (
			def       model.TemplateSubDeadline
			unit      string
			beforeInt int
			position  int
		)
		err := rows.Scan(
			&def.ID, &def.TemplateID, &def.Title,
			&def.Offset.Amount, &unit, &beforeInt,
			&def.TemplateTriggerID, &position,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning sub-deadline definition row: %w", err)
		}
		def.Offset.Unit = model.OffsetUnit(unit)
		def.Offset.Before = beforeInt != 0
		defs = append(defs, def)
	}
	return defs, rows.Err()
}
