package remind_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/deadline-tracker/internal/model"
	"github.com/nhle/deadline-tracker/internal/remind"
	"github.com/nhle/deadline-tracker/tests/testutil"
)

func TestScanOnce(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	project := model.Project{
		ID:            uuid.New().String(),
		Title:         "April Video",
		FinalDeadline: time.Now().AddDate(0, 0, 10),
	}
	require.NoError(t, s.SaveProject(ctx, project))

	gate := model.Trigger{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		Name:      "Assets Received",
	}
	require.NoError(t, s.SaveTrigger(ctx, gate))

	soon := time.Now().AddDate(0, 0, 2)
	farOut := time.Now().AddDate(0, 0, 30)
	project.SubDeadlines = []model.SubDeadline{
		{ID: uuid.New().String(), ProjectID: project.ID, Title: "Script", Date: soon},
		{ID: uuid.New().String(), ProjectID: project.ID, Title: "Upload", Date: farOut},
		{ID: uuid.New().String(), ProjectID: project.ID, Title: "Edit", Date: soon, TriggerID: &gate.ID},
		{ID: uuid.New().String(), ProjectID: project.ID, Title: "Done already", Date: soon, Completed: true},
	}
	require.NoError(t, s.SaveProject(ctx, project))

	scanner := remind.New(s, time.Minute, 7)
	count, err := scanner.ScanOnce(ctx)
	require.NoError(t, err)

	// "Script" is due inside the window. "Upload" is outside it, "Done
	// already" is completed, and "Edit" is hidden behind an inactive
	// trigger. The undated trigger itself produces nothing either.
	assert.Equal(t, 1, count)

	unread, err := s.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Contains(t, unread[0].Message, "Script")

	// Rescanning inside the dedupe window creates nothing new.
	count, err = scanner.ScanOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestScanOnceRemindsAboutPendingTriggerDueDates(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	project := model.Project{
		ID:            uuid.New().String(),
		Title:         "April Video",
		FinalDeadline: time.Now().AddDate(0, 0, 10),
	}
	require.NoError(t, s.SaveProject(ctx, project))

	due := time.Now().AddDate(0, 0, 3)
	pending := model.Trigger{
		ID:        uuid.New().String(),
		ProjectID: project.ID,
		Name:      "Assets Received",
		DueDate:   &due,
	}
	require.NoError(t, s.SaveTrigger(ctx, pending))

	scanner := remind.New(s, time.Minute, 7)
	count, err := scanner.ScanOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	unread, err := s.GetUnreadNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Contains(t, unread[0].Message, "Assets Received")
}
