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

// SaveProject upserts a project and replaces its sub-deadline rows in a
// single transaction. Triggers the sub-deadlines reference must already
// be persisted, so callers save triggers before projects and a partial
// write can never leave a sub-deadline pointing at a missing trigger.
func (s *SQLiteStore) SaveProject(ctx context.Context, project model.Project) error {
	if strings.TrimSpace(project.Title) == "" {
		return fmt.Errorf("project title must not be empty")
	}
	if project.ID == "" {
		project.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := upsertProjectRow(ctx, tx, project); err != nil {
		return err
	}

	if err := replaceSubDeadlines(ctx, tx, project); err != nil {
		return err
	}

	return tx.Commit()
}

// upsertProjectRow writes the project row itself; sub-deadlines are the
// caller's responsibility.
func upsertProjectRow(ctx context.Context, tx *sqlx.Tx, project model.Project) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO projects (
			id, title, final_deadline, completed,
			template_id, template_name, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		project.ID, project.Title, project.FinalDeadline.UTC(),
		boolToInt(project.Completed),
		project.TemplateID, project.TemplateName,
		project.CreatedAt, project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting project %s: %w", project.ID, err)
	}
	return nil
}

// replaceSubDeadlines removes rows dropped from the project and upserts
// the rest.
func replaceSubDeadlines(ctx context.Context, tx *sqlx.Tx, project model.Project) error {
	keep := make([]string, 0, len(project.SubDeadlines))
	for _, sub := range project.SubDeadlines {
		keep = append(keep, sub.ID)
	}

	if len(keep) == 0 {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM sub_deadlines WHERE project_id = ?", project.ID); err != nil {
			return fmt.Errorf("clearing sub-deadlines for project %s: %w", project.ID, err)
		}
	} else {
		query, args, err := sqlx.In(
			"DELETE FROM sub_deadlines WHERE project_id = ? AND id NOT IN (?)",
			project.ID, keep,
		)
		if err != nil {
			return fmt.Errorf("building sub-deadline delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("pruning sub-deadlines for project %s: %w", project.ID, err)
		}
	}

	const query = `
		INSERT OR REPLACE INTO sub_deadlines (
			id, project_id, title, date, completed, completed_at,
			template_sub_deadline_id, trigger_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing sub-deadline upsert: %w", err)
	}
	defer stmt.Close()

	for _, sub := range project.SubDeadlines {
		if sub.ID == "" {
			sub.ID = uuid.New().String()
		}
		if sub.CreatedAt.IsZero() {
			sub.CreatedAt = time.Now().UTC()
		}
		_, err := stmt.ExecContext(ctx,
			sub.ID, project.ID, sub.Title, sub.Date.UTC(),
			boolToInt(sub.Completed), sub.CompletedAt,
			sub.TemplateSubDeadlineID, sub.TriggerID,
			sub.CreatedAt, sub.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("upserting sub-deadline %s: %w", sub.ID, err)
		}
	}

	return nil
}

// DeleteProject removes a project. Sub-deadlines and triggers cascade at
// the schema level.
func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting project %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("project %s not found", id)
	}
	return nil
}

// GetProjectByID retrieves a single project with its sub-deadlines,
// ordered ascending by date.
func (s *SQLiteStore) GetProjectByID(ctx context.Context, id string) (*model.Project, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM projects WHERE id = ?", id)
	project, err := scanProject(row)
	if err != nil {
		return nil, fmt.Errorf("getting project %s: %w", id, err)
	}

	subs, err := s.getSubDeadlines(ctx, id)
	if err != nil {
		return nil, err
	}
	project.SubDeadlines = subs
	return &project, nil
}

// GetProjects retrieves all projects with their sub-deadlines, ordered
// by final deadline.
func (s *SQLiteStore) GetProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM projects ORDER BY final_deadline")
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range projects {
		subs, err := s.getSubDeadlines(ctx, projects[i].ID)
		if err != nil {
			return nil, err
		}
		projects[i].SubDeadlines = subs
	}

	return projects, nil
}

// getSubDeadlines loads a project's sub-deadlines ordered by date.
func (s *SQLiteStore) getSubDeadlines(ctx context.Context, projectID string) ([]model.SubDeadline, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM sub_deadlines WHERE project_id = ? ORDER BY date, title", projectID)
	if err != nil {
		return nil, fmt.Errorf("querying sub-deadlines for project %s: %w", projectID, err)
	}
	defer rows.Close()

	var subs []model.SubDeadline
	for rows.Next() {
		sub, err := scanSubDeadline(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// rowScanner is the scanning surface shared by sqlx.Row and sqlx.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanProject scans a project row.
func scanProject(row rowScanner) (model.Project, error) {
	var (
		project      model.Project
		completedInt int
	)

	err := row.Scan(
		&project.ID, &project.Title, &project.FinalDeadline, &completedInt,
		&project.TemplateID, &project.TemplateName,
		&project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		return model.Project{}, fmt.Errorf("scanning project row: %w", err)
	}

	project.Completed = completedInt != 0
	return project, nil
}

// scanSubDeadline scans a sub-deadline row.
func scanSubDeadline(row rowScanner) (model.SubDeadline, error) {
	var (
		sub          model.SubDeadline
		completedInt int
	)

	err := row.Scan(
		&sub.ID, &sub.ProjectID, &sub.Title, &sub.Date,
		&completedInt, &sub.CompletedAt,
		&sub.TemplateSubDeadlineID, &sub.TriggerID,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return model.SubDeadline{}, fmt.Errorf("scanning sub-deadline row: %w", err)
	}

	sub.Completed = completedInt != 0
	return sub, nil
}
