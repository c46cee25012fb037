package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/deadline-tracker/internal/model"
)

func TestSynchronizeOfIdenticalTemplatesIsNoOp(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	e.Instantiate(tpl, "April Video", day(2025, time.March, 31))

	result := e.Synchronize(Diff(tpl, cloneTemplate(tpl)), tpl.ID)

	assert.Empty(t, result.DirtyProjectIDs)
	assert.Empty(t, result.CreatedTriggers)
	assert.Empty(t, result.DeletedTriggerIDs)
}

func TestSynchronizeRenamePreservesEverythingElse(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	project, _ := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))

	// User work the rename must not clobber.
	e.ToggleCompletion(project.ID, project.SubDeadlines[0].ID)
	originalDate := project.SubDeadlines[0].Date
	originalLink := project.SubDeadlines[1].TriggerID

	newTpl := cloneTemplate(tpl)
	newTpl.SubDeadlines[0].Title = "Draft Script"

	result := e.Synchronize(Diff(tpl, newTpl), tpl.ID)

	require.Equal(t, []string{project.ID}, result.DirtyProjectIDs)
	script := project.SubDeadlines[0]
	assert.Equal(t, "Draft Script", script.Title)
	assert.Equal(t, originalDate, script.Date)
	assert.True(t, script.Completed)
	assert.NotNil(t, script.CompletedAt)
	assert.Equal(t, originalLink, project.SubDeadlines[1].TriggerID)
}

func TestSynchronizeReappliesSafely(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	project, _ := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))

	newTpl := cloneTemplate(tpl)
	newTrigger := model.TemplateTrigger{
		ID:         uuid.New().String(),
		TemplateID: newTpl.ID,
		Name:       "Sponsor Approved",
		Offset:     days(10, true),
	}
	newTpl.Triggers = append(newTpl.Triggers, newTrigger)
	newTpl.SubDeadlines = append(newTpl.SubDeadlines, model.TemplateSubDeadline{
		ID:                uuid.New().String(),
		TemplateID:        newTpl.ID,
		Title:             "Sponsor Segment",
		Offset:            days(5, true),
		TemplateTriggerID: &newTrigger.ID,
	})

	delta := Diff(tpl, newTpl)

	first := e.Synchronize(delta, tpl.ID)
	require.Equal(t, []string{project.ID}, first.DirtyProjectIDs)
	require.Len(t, first.CreatedTriggers, 1)
	assert.Len(t, project.SubDeadlines, 3)
	assert.Len(t, e.State().TriggersForProject(project.ID), 2)

	// Replaying the same delta changes nothing and duplicates nothing.
	second := e.Synchronize(delta, tpl.ID)
	assert.Empty(t, second.DirtyProjectIDs)
	assert.Empty(t, second.CreatedTriggers)
	assert.Len(t, project.SubDeadlines, 3)
	assert.Len(t, e.State().TriggersForProject(project.ID), 2)
}

func TestSynchronizeAddedSubDeadlineResolvesNewTrigger(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	project, _ := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))

	newTpl := cloneTemplate(tpl)
	newTrigger := model.TemplateTrigger{
		ID:         uuid.New().String(),
		TemplateID: newTpl.ID,
		Name:       "Sponsor Approved",
		Offset:     days(10, true),
	}
	newTpl.Triggers = append(newTpl.Triggers, newTrigger)
	newTpl.SubDeadlines = append(newTpl.SubDeadlines, model.TemplateSubDeadline{
		ID:                uuid.New().String(),
		TemplateID:        newTpl.ID,
		Title:             "Sponsor Segment",
		Offset:            days(5, true),
		TemplateTriggerID: &newTrigger.ID,
	})

	result := e.Synchronize(Diff(tpl, newTpl), tpl.ID)

	// The sub-deadline added in the same pass links to the trigger
	// created in the same pass, dated from the project's own deadline.
	require.Len(t, result.CreatedTriggers, 1)
	created := result.CreatedTriggers[0]
	require.NotNil(t, created.DueDate)
	assert.Equal(t, day(2025, time.March, 21), *created.DueDate)

	sponsor := findSubByTitle(t, project, "Sponsor Segment")
	assert.Equal(t, day(2025, time.March, 26), sponsor.Date)
	require.NotNil(t, sponsor.TriggerID)
	assert.Equal(t, created.ID, *sponsor.TriggerID)
}

func TestSynchronizeTriggerDeletionCascades(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	project, triggers := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))
	require.Len(t, triggers, 1)

	edit := findSubByTitle(t, project, "Edit")
	require.NotNil(t, edit.TriggerID)
	editDate := edit.Date

	newTpl := cloneTemplate(tpl)
	newTpl.Triggers = nil
	newTpl.SubDeadlines[1].TemplateTriggerID = nil

	result := e.Synchronize(Diff(tpl, newTpl), tpl.ID)

	require.Equal(t, []string{project.ID}, result.DirtyProjectIDs)
	assert.Equal(t, []string{triggers[0].ID}, result.DeletedTriggerIDs)
	assert.NotContains(t, e.State().Triggers, triggers[0].ID)

	edit = findSubByTitle(t, project, "Edit")
	assert.Nil(t, edit.TriggerID)
	assert.Equal(t, "Edit", edit.Title)
	assert.Equal(t, editDate, edit.Date)
}

func TestSynchronizeOffsetChangeRecomputesFromProjectDeadline(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	april, _ := e.Instantiate(tpl, "April Video", day(2025, time.April, 30))
	may, _ := e.Instantiate(tpl, "May Video", day(2025, time.May, 31))

	newTpl := cloneTemplate(tpl)
	newTpl.SubDeadlines[0].Offset = days(10, true)
	newTpl.Triggers[0].Offset = days(21, true)

	result := e.Synchronize(Diff(tpl, newTpl), tpl.ID)

	assert.Len(t, result.DirtyProjectIDs, 2)
	assert.Equal(t, day(2025, time.April, 20), findSubByTitle(t, april, "Script").Date)
	assert.Equal(t, day(2025, time.May, 21), findSubByTitle(t, may, "Script").Date)

	aprilTrigger := e.State().TriggersForProject(april.ID)[0]
	require.NotNil(t, aprilTrigger.DueDate)
	assert.Equal(t, day(2025, time.April, 9), *aprilTrigger.DueDate)
}

func TestSynchronizeIgnoresUnrelatedProjects(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	other := videoTemplate()
	other.Name = "Weekly Short"

	fromOther, _ := e.Instantiate(other, "Short #1", day(2025, time.June, 6))

	manual := &model.Project{
		ID:            uuid.New().String(),
		Title:         "Handmade",
		FinalDeadline: day(2025, time.July, 1),
		SubDeadlines: []model.SubDeadline{{
			ID:        uuid.New().String(),
			Title:     "Only step",
			Date:      day(2025, time.June, 20),
		}},
	}
	manual.SubDeadlines[0].ProjectID = manual.ID
	e.State().Projects[manual.ID] = manual

	newTpl := cloneTemplate(tpl)
	newTpl.SubDeadlines[0].Title = "Draft Script"

	result := e.Synchronize(Diff(tpl, newTpl), tpl.ID)

	assert.Empty(t, result.DirtyProjectIDs)
	assert.Equal(t, "Script", findSubByTitle(t, fromOther, "Script").Title)
	assert.Equal(t, "Only step", manual.SubDeadlines[0].Title)
}

func TestSynchronizeDoesNotRemoveSubDeadlinesForDeletedDefinitions(t *testing.T) {
	// Removing a sub-deadline definition from the template leaves the
	// materialized step in place, orphaned from its definition. Pinned
	// here so any future propagation of deletions is a deliberate change.
	e := newTestEngine()
	tpl := videoTemplate()
	project, _ := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))

	newTpl := cloneTemplate(tpl)
	newTpl.SubDeadlines = newTpl.SubDeadlines[1:]

	result := e.Synchronize(Diff(tpl, newTpl), tpl.ID)

	assert.Empty(t, result.DirtyProjectIDs)
	assert.NotNil(t, findSubByTitle(t, project, "Script"))
}

func TestSynchronizeResortsByDate(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	project, _ := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))

	// Push "Script" past "Edit".
	newTpl := cloneTemplate(tpl)
	newTpl.SubDeadlines[0].Offset = days(1, true)

	e.Synchronize(Diff(tpl, newTpl), tpl.ID)

	require.Len(t, project.SubDeadlines, 2)
	assert.Equal(t, "Edit", project.SubDeadlines[0].Title)
	assert.Equal(t, "Script", project.SubDeadlines[1].Title)
}

func findSubByTitle(t *testing.T, project *model.Project, title string) *model.SubDeadline {
	t.Helper()
	for i := range project.SubDeadlines {
		if project.SubDeadlines[i].Title == title {
			return &project.SubDeadlines[i]
		}
	}
	t.Fatalf("project %q has no sub-deadline titled %q", project.Title, title)
	return nil
}
