package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/deadline-tracker/internal/engine"
	"github.com/nhle/deadline-tracker/internal/model"
	"github.com/nhle/deadline-tracker/tests/testutil"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleTemplate() model.Template {
	tplID := uuid.New().String()
	triggerDef := model.TemplateTrigger{
		ID:         uuid.New().String(),
		TemplateID: tplID,
		Name:       "Assets Received",
		Offset:     model.TimeOffset{Amount: 2, Unit: model.OffsetUnitWeeks, Before: true},
	}
	return model.Template{
		ID:   tplID,
		Name: "Monthly Video",
		Triggers: []model.TemplateTrigger{triggerDef},
		SubDeadlines: []model.TemplateSubDeadline{
			{
				ID:         uuid.New().String(),
				TemplateID: tplID,
				Title:      "Script",
				Offset:     model.TimeOffset{Amount: 7, Unit: model.OffsetUnitDays, Before: true},
			},
			{
				ID:                uuid.New().String(),
				TemplateID:        tplID,
				Title:             "Edit",
				Offset:            model.TimeOffset{Amount: 3, Unit: model.OffsetUnitDays, Before: true},
				TemplateTriggerID: &triggerDef.ID,
			},
		},
	}
}

func TestProjectRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	project := model.Project{
		ID:            uuid.New().String(),
		Title:         "April Video",
		FinalDeadline: day(2025, time.March, 31),
	}
	trigger := model.Trigger{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		Name:      "Assets Received",
	}
	completedAt := day(2025, time.March, 20)
	project.SubDeadlines = []model.SubDeadline{
		{
			ID:          uuid.New().String(),
			ProjectID:   project.ID,
			Title:       "Script",
			Date:        day(2025, time.March, 24),
			Completed:   true,
			CompletedAt: &completedAt,
		},
		{
			ID:        uuid.New().String(),
			ProjectID: project.ID,
			Title:     "Edit",
			Date:      day(2025, time.March, 28),
			TriggerID: &trigger.ID,
		},
	}

	// Triggers before the project that references them.
	require.NoError(t, s.SaveProject(ctx, model.Project{
		ID: project.ID, Title: project.Title, FinalDeadline: project.FinalDeadline,
	}))
	require.NoError(t, s.SaveTrigger(ctx, trigger))
	require.NoError(t, s.SaveProject(ctx, project))

	got, err := s.GetProjectByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "April Video", got.Title)
	assert.True(t, got.FinalDeadline.Equal(project.FinalDeadline))

	// Sub-deadlines come back ordered by date.
	require.Len(t, got.SubDeadlines, 2)
	assert.Equal(t, "Script", got.SubDeadlines[0].Title)
	assert.True(t, got.SubDeadlines[0].Completed)
	require.NotNil(t, got.SubDeadlines[0].CompletedAt)
	assert.Equal(t, "Edit", got.SubDeadlines[1].Title)
	require.NotNil(t, got.SubDeadlines[1].TriggerID)
	assert.Equal(t, trigger.ID, *got.SubDeadlines[1].TriggerID)
}

func TestSaveProjectPrunesRemovedSubDeadlines(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	project := model.Project{
		ID:            uuid.New().String(),
		Title:         "April Video",
		FinalDeadline: day(2025, time.March, 31),
		SubDeadlines: []model.SubDeadline{
			{ID: uuid.New().String(), Title: "Script", Date: day(2025, time.March, 24)},
			{ID: uuid.New().String(), Title: "Edit", Date: day(2025, time.March, 28)},
		},
	}
	require.NoError(t, s.SaveProject(ctx, project))

	project.SubDeadlines = project.SubDeadlines[:1]
	require.NoError(t, s.SaveProject(ctx, project))

	got, err := s.GetProjectByID(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, got.SubDeadlines, 1)
	assert.Equal(t, "Script", got.SubDeadlines[0].Title)
}

func TestDeleteTriggerUnlinksSubDeadlinesInSchema(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	project := model.Project{
		ID:            uuid.New().String(),
		Title:         "April Video",
		FinalDeadline: day(2025, time.March, 31),
	}
	require.NoError(t, s.SaveProject(ctx, project))

	trigger := model.Trigger{ID: uuid.New().String(), ProjectID: project.ID, Name: "Gate"}
	require.NoError(t, s.SaveTrigger(ctx, trigger))

	project.SubDeadlines = []model.SubDeadline{{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		Title:     "Gated step",
		Date:      day(2025, time.March, 28),
		TriggerID: &trigger.ID,
	}}
	require.NoError(t, s.SaveProject(ctx, project))

	require.NoError(t, s.DeleteTrigger(ctx, trigger.ID))

	got, err := s.GetProjectByID(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, got.SubDeadlines, 1)
	assert.Nil(t, got.SubDeadlines[0].TriggerID)

	assert.Error(t, s.DeleteTrigger(ctx, trigger.ID))
}

func TestTemplateRoundTripAndEdit(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	tpl := sampleTemplate()
	require.NoError(t, s.SaveTemplate(ctx, tpl))

	got, err := s.GetTemplateByID(ctx, tpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Monthly Video", got.Name)
	require.Len(t, got.Triggers, 1)
	assert.Equal(t, tpl.Triggers[0].Offset, got.Triggers[0].Offset)
	require.Len(t, got.SubDeadlines, 2)
	assert.Equal(t, "Script", got.SubDeadlines[0].Title)
	require.NotNil(t, got.SubDeadlines[1].TemplateTriggerID)
	assert.Equal(t, tpl.Triggers[0].ID, *got.SubDeadlines[1].TemplateTriggerID)

	// Editing replaces definitions but keeps stable IDs intact.
	tpl.SubDeadlines[0].Title = "Draft Script"
	tpl.SubDeadlines = tpl.SubDeadlines[:1]
	require.NoError(t, s.SaveTemplate(ctx, tpl))

	got, err = s.GetTemplateByID(ctx, tpl.ID)
	require.NoError(t, err)
	require.Len(t, got.SubDeadlines, 1)
	assert.Equal(t, "Draft Script", got.SubDeadlines[0].Title)
	assert.Equal(t, tpl.SubDeadlines[0].ID, got.SubDeadlines[0].ID)
}

func TestLoadStateAndSaveSyncResult(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	tpl := sampleTemplate()
	require.NoError(t, s.SaveTemplate(ctx, tpl))

	e := engine.New(engine.NewState())
	project, triggers := e.Instantiate(&tpl, "April Video", day(2025, time.March, 31))
	created := make([]model.Trigger, 0, len(triggers))
	for _, trg := range triggers {
		created = append(created, *trg)
	}
	require.NoError(t, s.SaveInstantiation(ctx, *project, created))

	state, err := s.LoadState(ctx)
	require.NoError(t, err)
	require.Len(t, state.Projects, 1)
	require.Len(t, state.Templates, 1)
	require.Len(t, state.Triggers, 1)

	// Run a rename through the loaded state and persist the result.
	loaded := engine.New(state)
	edited := tpl
	edited.SubDeadlines = append([]model.TemplateSubDeadline(nil), tpl.SubDeadlines...)
	edited.SubDeadlines[0].Title = "Draft Script"

	result := loaded.Synchronize(engine.Diff(&tpl, &edited), tpl.ID)
	require.Len(t, result.DirtyProjectIDs, 1)
	require.NoError(t, s.SaveSyncResult(ctx, state, result))

	got, err := s.GetProjectByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft Script", got.SubDeadlines[0].Title)
}

func TestSaveInstantiationPersistsGatedSubDeadlines(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	tpl := sampleTemplate()
	require.NoError(t, s.SaveTemplate(ctx, tpl))

	e := engine.New(engine.NewState())
	project, triggers := e.Instantiate(&tpl, "April Video", day(2025, time.March, 31))
	created := make([]model.Trigger, 0, len(triggers))
	for _, trg := range triggers {
		created = append(created, *trg)
	}
	require.NoError(t, s.SaveInstantiation(ctx, *project, created))

	// The whole instantiation must survive a reload, including the
	// sub-deadline whose trigger_id row the schema checks.
	state, err := s.LoadState(ctx)
	require.NoError(t, err)
	require.Len(t, state.Projects, 1)
	require.Len(t, state.Triggers, 1)

	got := state.Projects[project.ID]
	require.NotNil(t, got)
	require.Len(t, got.SubDeadlines, 2)

	var gated *model.SubDeadline
	for i := range got.SubDeadlines {
		if got.SubDeadlines[i].Title == "Edit" {
			gated = &got.SubDeadlines[i]
		}
	}
	require.NotNil(t, gated)
	require.NotNil(t, gated.TriggerID)
	assert.Equal(t, created[0].ID, *gated.TriggerID)
}

func TestReplaceAll(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	// Seed data that the restore must fully displace.
	old := model.Project{
		ID:            uuid.New().String(),
		Title:         "Old",
		FinalDeadline: day(2025, time.January, 1),
	}
	require.NoError(t, s.SaveProject(ctx, old))

	tpl := sampleTemplate()
	project := model.Project{
		ID:            uuid.New().String(),
		Title:         "Restored",
		FinalDeadline: day(2025, time.June, 30),
	}
	trigger := model.Trigger{ID: uuid.New().String(), ProjectID: project.ID, Name: "Gate"}
	project.SubDeadlines = []model.SubDeadline{{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		Title:     "Step",
		Date:      day(2025, time.June, 20),
		TriggerID: &trigger.ID,
	}}

	err := s.ReplaceAll(ctx,
		[]model.Project{project},
		[]model.Template{tpl},
		[]model.Trigger{trigger},
	)
	require.NoError(t, err)

	projects, err := s.GetProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Restored", projects[0].Title)
	require.Len(t, projects[0].SubDeadlines, 1)
	require.NotNil(t, projects[0].SubDeadlines[0].TriggerID)

	templates, err := s.GetTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, templates, 1)
}

func TestNotifications(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	subID := uuid.New().String()
	n := model.Notification{
		ProjectID: uuid.New().String(),
		EntityID:  subID,
		Message:   "Script due in 3 days",
	}
	require.NoError(t, s.CreateNotification(ctx, n))

	unread, err := s.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, "Script due in 3 days", unread[0].Message)

	seen, err := s.HasNotificationForEntity(ctx, subID, 24)
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = s.HasNotificationForEntity(ctx, "other", 24)
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkNotificationRead(ctx, unread[0].ID))
	unread, err = s.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	assert.Empty(t, unread)
}
