package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndUpdateProject(t *testing.T) {
	e := newTestEngine()

	p := e.CreateProject("April Video", day(2025, time.March, 31))
	require.NotNil(t, p)
	require.NotEmpty(t, p.ID)
	assert.Same(t, p, e.State().Projects[p.ID])
	assert.Nil(t, p.TemplateID)

	require.True(t, e.UpdateProjectBasics(p.ID, "April Video (cut)", day(2025, time.April, 7)))
	assert.Equal(t, "April Video (cut)", p.Title)
	assert.Equal(t, day(2025, time.April, 7), p.FinalDeadline)

	assert.False(t, e.UpdateProjectBasics("missing", "x", day(2025, time.April, 7)))
}

func TestUpdateProjectBasicsKeepsSubDeadlineDates(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	require.NoError(t, e.AddTemplate(tpl))

	p, _ := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))
	scriptDate := p.SubDeadlines[0].Date

	require.True(t, e.UpdateProjectBasics(p.ID, p.Title, day(2025, time.April, 30)))

	// Moving the final deadline never re-derives instantiated dates.
	assert.Equal(t, scriptDate, p.SubDeadlines[0].Date)
}

func TestDeleteProjectRemovesItsTriggers(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	require.NoError(t, e.AddTemplate(tpl))

	p, triggers := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))
	require.Len(t, triggers, 1)

	other := e.CreateProject("Untouched", day(2025, time.June, 1))

	require.True(t, e.DeleteProject(p.ID))
	assert.NotContains(t, e.State().Projects, p.ID)
	assert.NotContains(t, e.State().Triggers, triggers[0].ID)
	assert.Contains(t, e.State().Projects, other.ID)

	assert.False(t, e.DeleteProject(p.ID))
}

func TestSetProjectCompleted(t *testing.T) {
	e := newTestEngine()
	p := e.CreateProject("April Video", day(2025, time.March, 31))

	require.True(t, e.SetProjectCompleted(p.ID, true))
	assert.True(t, p.Completed)

	require.True(t, e.SetProjectCompleted(p.ID, false))
	assert.False(t, p.Completed)

	assert.False(t, e.SetProjectCompleted("missing", true))
}

func TestDeleteTemplateDetachesProjects(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	require.NoError(t, e.AddTemplate(tpl))

	p, triggers := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))
	manual := e.CreateProject("Manual", day(2025, time.June, 1))

	detached := e.DeleteTemplate(tpl.ID)
	assert.Equal(t, []string{p.ID}, detached)
	assert.NotContains(t, e.State().Templates, tpl.ID)

	// The project keeps its materialized deadlines but loses every
	// template back-reference.
	assert.Nil(t, p.TemplateID)
	assert.Empty(t, p.TemplateName)
	require.Len(t, p.SubDeadlines, 2)
	for _, sub := range p.SubDeadlines {
		assert.Nil(t, sub.TemplateSubDeadlineID)
	}
	assert.Nil(t, triggers[0].TemplateTriggerID)

	// The materialized trigger still gates its sub-deadline.
	edit := findSubByTitle(t, p, "Edit")
	require.NotNil(t, edit.TriggerID)
	assert.Equal(t, triggers[0].ID, *edit.TriggerID)

	assert.Nil(t, manual.TemplateID)
	assert.Nil(t, e.DeleteTemplate(tpl.ID))
}

func TestDeleteTemplateThenSynchronizeIsInert(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	require.NoError(t, e.AddTemplate(tpl))

	p, _ := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))

	edited := cloneTemplate(tpl)
	edited.SubDeadlines[0].Title = "Outline"
	delta := Diff(tpl, edited)

	e.DeleteTemplate(tpl.ID)

	// A delta applied after the template was deleted finds no linked
	// projects and changes nothing.
	result := e.Synchronize(delta, tpl.ID)
	assert.Empty(t, result.DirtyProjectIDs)
	assert.Equal(t, "Script", findSubByTitle(t, p, "Script").Title)
}
