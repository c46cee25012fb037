package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/deadline-tracker/internal/engine"
	"github.com/nhle/deadline-tracker/internal/model"
)

// LoadState reads every collection into an engine State.
func (s *SQLiteStore) LoadState(ctx context.Context) (*engine.State, error) {
	state := engine.NewState()

	projects, err := s.GetProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading projects: %w", err)
	}
	for i := range projects {
		state.Projects[projects[i].ID] = &projects[i]
	}

	templates, err := s.GetTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	for i := range templates {
		state.Templates[templates[i].ID] = &templates[i]
	}

	triggers, err := s.GetTriggers(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading triggers: %w", err)
	}
	for i := range triggers {
		state.Triggers[triggers[i].ID] = &triggers[i]
	}

	return state, nil
}

// SaveSyncResult persists the records a synchronization pass changed:
// created triggers first, then dirty projects, then trigger deletions.
func (s *SQLiteStore) SaveSyncResult(ctx context.Context, state *engine.State, result engine.SyncResult) error {
	for _, trg := range result.CreatedTriggers {
		if err := s.SaveTrigger(ctx, *trg); err != nil {
			return err
		}
	}
	for _, projectID := range result.DirtyProjectIDs {
		project, ok := state.Projects[projectID]
		if !ok {
			continue
		}
		if err := s.SaveProject(ctx, *project); err != nil {
			return err
		}
	}
	for _, triggerID := range result.DeletedTriggerIDs {
		if err := s.DeleteTrigger(ctx, triggerID); err != nil {
			return err
		}
	}
	return nil
}

// SaveInstantiation persists a freshly instantiated project together
// with its triggers in a single transaction. The project row is written
// before the triggers and the triggers before the sub-deadlines, so the
// trigger_id references on gated sub-deadlines resolve; any failure
// rolls the whole instantiation back.
func (s *SQLiteStore) SaveInstantiation(ctx context.Context, project model.Project, triggers []model.Trigger) error {
	if strings.TrimSpace(project.Title) == "" {
		return fmt.Errorf("project title must not be empty")
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
	for _, trg := range triggers {
		if err := upsertTrigger(ctx, tx, trg); err != nil {
			return err
		}
	}
	if err := replaceSubDeadlines(ctx, tx, project); err != nil {
		return err
	}

	return tx.Commit()
}

// ReplaceAll replaces every collection wholesale inside one transaction.
// This is the backup-restore seam; it bypasses synchronization and the
// last write wins.
func (s *SQLiteStore) ReplaceAll(
	ctx context.Context,
	projects []model.Project,
	templates []model.Template,
	triggers []model.Trigger,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{
		"sub_deadlines", "triggers", "projects",
		"template_sub_deadlines", "template_triggers", "templates",
	} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("clearing collections: %w", err)
	}

	// Order matters: projects before the triggers that belong to them,
	// triggers before the sub-deadlines that reference them.
	for _, p := range projects {
		bare := p
		bare.SubDeadlines = nil
		if err := s.SaveProject(ctx, bare); err != nil {
			return err
		}
	}
	for _, trg := range triggers {
		if err := s.SaveTrigger(ctx, trg); err != nil {
			return err
		}
	}
	for _, p := range projects {
		if err := s.SaveProject(ctx, p); err != nil {
			return err
		}
	}
	for _, tpl := range templates {
		if err := s.SaveTemplate(ctx, tpl); err != nil {
			return err
		}
	}

	return nil
}
