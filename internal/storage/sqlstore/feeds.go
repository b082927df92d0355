package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/groupledger/internal/models"
)

// CreateNotification inserts an unread notification.
func (q *queries) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = q.unix()
	}

	_, err := q.exec(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, related_id, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, n.Title, n.Message, string(n.Type), nullString(n.RelatedID), boolInt(n.Read), n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (q *queries) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, title, message, type, related_id, is_read, created_at
		FROM notifications
		WHERE user_id = ?`
	if unreadOnly {
		query += ` AND is_read = 0`
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`

	rows, err := q.query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var (
			nType     string
			relatedID sql.NullString
			read      int64
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &nType, &relatedID, &read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Type = models.NotificationType(nType)
		n.RelatedID = relatedID.String
		n.Read = read != 0
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead marks one of userID's notifications as read.
func (q *queries) MarkNotificationRead(ctx context.Context, userID, notificationID string) error {
	res, err := q.exec(ctx,
		`UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return expectRows(res, "notification", notificationID)
}

// LogActivity appends an entry to the activity log.
func (q *queries) LogActivity(ctx context.Context, a *models.Activity) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt == 0 {
		a.CreatedAt = q.unix()
	}

	metadata := []byte("{}")
	if len(a.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(a.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode activity metadata: %w", err)
		}
	}

	_, err := q.exec(ctx, `
		INSERT INTO activities (id, action, description, user_id, group_id, entity_type, entity_id, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID,
		a.Action,
		a.Description,
		a.UserID,
		nullString(a.GroupID),
		nullString(a.EntityType),
		nullString(a.EntityID),
		string(metadata),
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	return nil
}

// ListActivity returns a group's activity log, newest first.
func (q *queries) ListActivity(ctx context.Context, groupID string, limit int) ([]*models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := q.query(ctx, `
		SELECT id, action, description, user_id, group_id, entity_type, entity_id, metadata, created_at
		FROM activities
		WHERE group_id = ?
		ORDER BY created_at DESC, id
		LIMIT ?
	`, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		a := &models.Activity{}
		var (
			group      sql.NullString
			entityType sql.NullString
			entityID   sql.NullString
			metadata   string
		)
		if err := rows.Scan(&a.ID, &a.Action, &a.Description, &a.UserID, &group, &entityType, &entityID, &metadata, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.GroupID = group.String
		a.EntityType = entityType.String
		a.EntityID = entityID.String
		if err := json.Unmarshal([]byte(metadata), &a.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode activity metadata: %w", err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity: %w", err)
	}
	return activities, nil
}
