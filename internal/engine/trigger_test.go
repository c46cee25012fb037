package engine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/deadline-tracker/internal/model"
)

func TestTriggerActivationGatesSubDeadline(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	project, triggers := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))
	trg := triggers[0]

	script := *findSubByTitle(t, project, "Script")
	edit := *findSubByTitle(t, project, "Edit")

	// Ungated steps are always active; gated steps follow the trigger.
	assert.True(t, e.IsSubDeadlineActive(script))
	assert.False(t, e.IsSubDeadlineActive(edit))

	require.True(t, e.ActivateTrigger(trg.ID))
	assert.True(t, e.IsSubDeadlineActive(edit))

	require.True(t, e.DeactivateTrigger(trg.ID))
	assert.False(t, e.IsSubDeadlineActive(edit))
}

func TestTriggerTransitionsAreIdempotentAndKeepHistory(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	_, triggers := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))
	trg := triggers[0]

	require.True(t, e.ActivateTrigger(trg.ID))
	firstActivation := trg.ActivatedAt
	require.NotNil(t, firstActivation)

	// Re-activating does not move the timestamp.
	require.True(t, e.ActivateTrigger(trg.ID))
	assert.Equal(t, firstActivation, trg.ActivatedAt)

	// Deactivation keeps the timestamp as history.
	require.True(t, e.DeactivateTrigger(trg.ID))
	assert.False(t, trg.IsActive)
	assert.Equal(t, firstActivation, trg.ActivatedAt)

	require.True(t, e.DeactivateTrigger(trg.ID))
	assert.Equal(t, firstActivation, trg.ActivatedAt)
}

func TestMissingTriggerOperationsDoNotPanic(t *testing.T) {
	e := newTestEngine()
	assert.False(t, e.ActivateTrigger("nope"))
	assert.False(t, e.DeactivateTrigger("nope"))
	assert.Empty(t, e.DeleteTrigger("nope"))
}

func TestDanglingTriggerReferenceMeansHidden(t *testing.T) {
	e := newTestEngine()
	missing := "not-a-trigger"
	sub := model.SubDeadline{
		ID:        uuid.New().String(),
		Title:     "Gated",
		TriggerID: &missing,
	}
	assert.False(t, e.IsSubDeadlineActive(sub))
}

func TestCompletionIndependentOfGating(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	project, _ := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))

	edit := findSubByTitle(t, project, "Edit")
	require.False(t, e.IsSubDeadlineActive(*edit))

	// A gated sub-deadline can still be completed.
	require.True(t, e.ToggleCompletion(project.ID, edit.ID))
	assert.True(t, edit.Completed)
	assert.NotNil(t, edit.CompletedAt)
	assert.False(t, e.IsSubDeadlineActive(*edit))

	require.True(t, e.ToggleCompletion(project.ID, edit.ID))
	assert.False(t, edit.Completed)
	assert.Nil(t, edit.CompletedAt)
}

func TestDeleteTriggerUnlinksEveryReferencingSubDeadline(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	project, triggers := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))
	trg := triggers[0]

	// A second, manually added sub-deadline gated by the same trigger.
	project.SubDeadlines = append(project.SubDeadlines, model.SubDeadline{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		Title:     "Color grade",
		Date:      day(2025, time.March, 29),
		TriggerID: &trg.ID,
	})

	touched := e.DeleteTrigger(trg.ID)

	assert.Equal(t, []string{project.ID}, touched)
	assert.NotContains(t, e.State().Triggers, trg.ID)
	for _, sub := range project.SubDeadlines {
		assert.Nil(t, sub.TriggerID)
	}
}

func TestAddTriggerRejectsDuplicateName(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	project, _ := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))

	_, err := e.AddTrigger(project.ID, "Assets Received", nil)
	var dup *ErrDuplicateName
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "trigger", dup.Kind)

	// Same name on a different project is fine.
	other, _ := e.Instantiate(tpl, "May Video", day(2025, time.May, 31))
	_ = other
	created, err := e.AddTrigger(uuid.New().String(), "Assets Received", nil)
	require.NoError(t, err)
	assert.NotNil(t, created)
}

func TestProjectCompletionPredicate(t *testing.T) {
	e := newTestEngine()
	tpl := videoTemplate()
	project, _ := e.Instantiate(tpl, "April Video", day(2025, time.March, 31))

	assert.False(t, project.IsFullyCompleted())

	for _, sub := range append([]model.SubDeadline(nil), project.SubDeadlines...) {
		e.ToggleCompletion(project.ID, sub.ID)
	}
	assert.True(t, project.IsFullyCompleted())

	// Empty projects are never implicitly complete, only by flag.
	empty := &model.Project{ID: uuid.New().String(), Title: "Empty"}
	assert.False(t, empty.IsFullyCompleted())
	empty.Completed = true
	assert.True(t, empty.IsFullyCompleted())
}
