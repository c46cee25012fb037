// Package backup writes and restores whole-collection snapshots. Restore
// replaces every collection wholesale through the store: it bypasses
// template synchronization entirely and the last write wins.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nhle/deadline-tracker/internal/model"
	"github.com/nhle/deadline-tracker/internal/store"
)

// snapshotVersion is bumped when the snapshot format changes.
const snapshotVersion = 1

// Snapshot is a complete copy of every collection at a point in time.
type Snapshot struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`

	Projects  []model.Project  `json:"projects"`
	Templates []model.Template `json:"templates"`
	Triggers  []model.Trigger  `json:"triggers"`
}

// Take reads every collection from the store into a Snapshot.
func Take(ctx context.Context, s store.Store) (*Snapshot, error) {
	projects, err := s.GetProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading projects for snapshot: %w", err)
	}
	templates, err := s.GetTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading templates for snapshot: %w", err)
	}
	triggers, err := s.GetTriggers(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading triggers for snapshot: %w", err)
	}

	return &Snapshot{
		Version:   snapshotVersion,
		CreatedAt: time.Now().UTC(),
		Projects:  projects,
		Templates: templates,
		Triggers:  triggers,
	}, nil
}

// Write serializes the snapshot into dir, creating it if needed, and
// returns the archive path. When key is non-nil the payload is sealed
// with it (see Seal).
func (snap *Snapshot) Write(dir string, key []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling snapshot: %w", err)
	}

	name := fmt.Sprintf("deadline-%s.json", snap.CreatedAt.Format("20060102-150405"))
	if key != nil {
		data, err = Seal(data, key)
		if err != nil {
			return "", err
		}
		name += ".sealed"
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("writing snapshot to %s: %w", path, err)
	}
	return path, nil
}

// Read loads a snapshot archive. Sealed archives require the same key
// they were written with.
func Read(path string, key []byte) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}

	if filepath.Ext(path) == ".sealed" {
		if key == nil {
			return nil, fmt.Errorf("snapshot %s is sealed but no key was provided", path)
		}
		data, err = Open(data, key)
		if err != nil {
			return nil, err
		}
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	if snap.Version > snapshotVersion {
		return nil, fmt.Errorf("snapshot %s has version %d, newer than supported %d",
			path, snap.Version, snapshotVersion)
	}
	return &snap, nil
}

// Restore replaces the store's collections with the snapshot's contents.
func (snap *Snapshot) Restore(ctx context.Context, s store.Store) error {
	if err := s.ReplaceAll(ctx, snap.Projects, snap.Templates, snap.Triggers); err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	return nil
}
