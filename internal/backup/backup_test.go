package backup_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/deadline-tracker/internal/backup"
	"github.com/nhle/deadline-tracker/internal/model"
	"github.com/nhle/deadline-tracker/tests/testutil"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedStore(t *testing.T) (model.Project, model.Template) {
	t.Helper()
	return model.Project{
			ID:            uuid.New().String(),
			Title:         "April Video",
			FinalDeadline: day(2025, time.March, 31),
		}, model.Template{
			ID:   uuid.New().String(),
			Name: "Monthly Video",
		}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	project, tpl := seedStore(t)
	project.SubDeadlines = []model.SubDeadline{
		{
			ID:        uuid.New().String(),
			ProjectID: project.ID,
			Title:     "Script",
			Date:      day(2025, time.March, 24),
		},
	}
	require.NoError(t, s.SaveProject(ctx, project))
	require.NoError(t, s.SaveTemplate(ctx, tpl))

	snap, err := backup.Take(ctx, s)
	require.NoError(t, err)
	assert.Len(t, snap.Projects, 1)
	assert.Len(t, snap.Templates, 1)

	path, err := snap.Write(t.TempDir(), nil)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".json"))

	loaded, err := backup.Read(path, nil)
	require.NoError(t, err)

	restored := testutil.NewTestStore(t)
	require.NoError(t, loaded.Restore(ctx, restored))

	got, err := restored.GetProjectByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "April Video", got.Title)
	require.Len(t, got.SubDeadlines, 1)
	assert.Equal(t, "Script", got.SubDeadlines[0].Title)

	tpls, err := restored.GetTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, tpls, 1)
	assert.Equal(t, "Monthly Video", tpls[0].Name)
}

func TestRestoreReplacesExistingCollections(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	project, _ := seedStore(t)
	require.NoError(t, s.SaveProject(ctx, project))

	snap, err := backup.Take(ctx, s)
	require.NoError(t, err)

	stray := model.Project{
		ID:            uuid.New().String(),
		Title:         "Not In Snapshot",
		FinalDeadline: day(2025, time.June, 1),
	}
	require.NoError(t, s.SaveProject(ctx, stray))

	require.NoError(t, snap.Restore(ctx, s))

	projects, err := s.GetProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, project.ID, projects[0].ID)
}

func TestSealedRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	project, _ := seedStore(t)
	require.NoError(t, s.SaveProject(ctx, project))

	snap, err := backup.Take(ctx, s)
	require.NoError(t, err)

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)

	path, err := snap.Write(t.TempDir(), key)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".sealed"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, []byte("April Video")), "sealed archive must not expose plaintext")

	loaded, err := backup.Read(path, key)
	require.NoError(t, err)
	require.Len(t, loaded.Projects, 1)
	assert.Equal(t, "April Video", loaded.Projects[0].Title)
}

func TestReadSealedRejectsWrongKey(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	snap, err := backup.Take(ctx, s)
	require.NoError(t, err)

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)

	path, err := snap.Write(t.TempDir(), key)
	require.NoError(t, err)

	wrong := make([]byte, 32)
	_, err = rand.Read(wrong)
	require.NoError(t, err)

	_, err = backup.Read(path, wrong)
	assert.Error(t, err)

	_, err = backup.Read(path, nil)
	assert.Error(t, err)
}

func TestSealRejectsShortKey(t *testing.T) {
	_, err := backup.Seal([]byte("payload"), []byte("short"))
	assert.Error(t, err)
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deadline-future.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99}`), 0o600))

	_, err := backup.Read(path, nil)
	assert.Error(t, err)
}
