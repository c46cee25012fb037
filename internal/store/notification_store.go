package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/deadline-tracker/internal/model"
)

// CreateNotification inserts a new notification record.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, project_id, entity_id, message, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.ProjectID, n.EntityID, n.Message,
		boolToInt(n.Read), n.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating notification: %w", err)
	}
	return nil
}

// GetUnreadNotifications retrieves all notifications that have not been
// read, ordered by creation time descending.
func (s *SQLiteStore) GetUnreadNotifications(ctx context.Context) ([]model.Notification, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM notifications WHERE read = 0 ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("querying unread notifications: %w", err)
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var (
			n       model.Notification
			readInt int
		)
		err := rows.Scan(&n.ID, &n.ProjectID, &n.EntityID, &n.Message, &readInt, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		n.Read = readInt != 0
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// MarkNotificationRead marks a single notification as read.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read = 1 WHERE id = ?", id,
	)
	if err != nil {
		return fmt.Errorf("marking notification %s as read: %w", id, err)
	}
	return nil
}

// HasNotificationForEntity reports whether a notification was already
// generated for the given entity within the last sinceHours hours. The
// reminder scanner uses this to avoid re-notifying every scan.
func (s *SQLiteStore) HasNotificationForEntity(ctx context.Context, entityID string, sinceHours int) (bool, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(sinceHours) * time.Hour)

	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM notifications WHERE entity_id = ? AND created_at >= ?",
		entityID, cutoff,
	)
	if err != nil {
		return false, fmt.Errorf("checking notifications for entity %s: %w", entityID, err)
	}
	return count > 0, nil
}
