package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/groupledger/internal/models"
	"github.com/mmynk/groupledger/internal/storage"
)

// CreateGroup inserts a new group with its members.
// Sets group.ID and group.CreatedAt if not already set.
func (q *queries) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = q.unix()
	}

	return q.inTx(ctx, func(tx *queries) error {
		_, err := tx.exec(ctx,
			`INSERT INTO user_groups (id, name, created_by, created_at) VALUES (?, ?, ?, ?)`,
			group.ID, group.Name, group.CreatedBy, group.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		for i := range group.Members {
			m := &group.Members[i]
			m.GroupID = group.ID
			if m.JoinedAt == 0 {
				m.JoinedAt = group.CreatedAt
			}
			_, err := tx.exec(ctx, `
				INSERT INTO group_members (group_id, user_id, role, position, joined_at)
				VALUES (?, ?, ?, ?, ?)
			`, m.GroupID, m.UserID, string(m.Role), i+1, m.JoinedAt)
			if err != nil {
				return fmt.Errorf("failed to insert member %s: %w", m.UserID, err)
			}
		}
		return nil
	})
}

// GetGroup retrieves a group by ID with its members in join order.
func (q *queries) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	err := q.queryRow(ctx,
		`SELECT id, name, created_by, created_at FROM user_groups WHERE id = ?`, groupID,
	).Scan(&group.ID, &group.Name, &group.CreatedBy, &group.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	members, err := q.listMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	group.Members = members

	return group, nil
}

// ListGroupsByUser retrieves all groups userID belongs to, ordered by created_at descending.
func (q *queries) ListGroupsByUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := q.query(ctx, `
		SELECT g.id, g.name, g.created_by, g.created_at
		FROM user_groups g
		JOIN group_members m ON m.group_id = g.id
		WHERE m.user_id = ?
		ORDER BY g.created_at DESC, g.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var groups []*models.Group
	for rows.Next() {
		g := &models.Group{}
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedBy, &g.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating groups: %w", err)
	}
	rows.Close()

	// Members are loaded after the cursor is closed; SQLite runs on one connection.
	for _, g := range groups {
		members, err := q.listMembers(ctx, g.ID)
		if err != nil {
			return nil, err
		}
		g.Members = members
	}

	return groups, nil
}

func (q *queries) listMembers(ctx context.Context, groupID string) ([]models.GroupMember, error) {
	rows, err := q.query(ctx, `
		SELECT m.group_id, m.user_id, m.role, m.joined_at, COALESCE(u.display_name, '')
		FROM group_members m
		LEFT JOIN users u ON u.id = m.user_id
		WHERE m.group_id = ?
		ORDER BY m.position
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []models.GroupMember
	for rows.Next() {
		var m models.GroupMember
		var role string
		if err := rows.Scan(&m.GroupID, &m.UserID, &role, &m.JoinedAt, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		m.Role = models.Role(role)
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return members, nil
}

// AddGroupMember appends a member to the group's join order.
func (q *queries) AddGroupMember(ctx context.Context, member *models.GroupMember) error {
	if member.JoinedAt == 0 {
		member.JoinedAt = q.unix()
	}

	return q.inTx(ctx, func(tx *queries) error {
		var groups, existing int
		err := tx.queryRow(ctx, `SELECT COUNT(*) FROM user_groups WHERE id = ?`, member.GroupID).Scan(&groups)
		if err != nil {
			return fmt.Errorf("failed to check group: %w", err)
		}
		if groups == 0 {
			return fmt.Errorf("group %s: %w", member.GroupID, storage.ErrNotFound)
		}

		err = tx.queryRow(ctx,
			`SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id = ?`,
			member.GroupID, member.UserID,
		).Scan(&existing)
		if err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("user %s already in group %s: %w", member.UserID, member.GroupID, storage.ErrConflict)
		}

		_, err = tx.exec(ctx, `
			INSERT INTO group_members (group_id, user_id, role, position, joined_at)
			SELECT ?, ?, ?, COALESCE(MAX(position), 0) + 1, ?
			FROM group_members WHERE group_id = ?
		`, member.GroupID, member.UserID, string(member.Role), member.JoinedAt, member.GroupID)
		if err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		return nil
	})
}

// RemoveGroupMember deletes a membership. Expenses and settlements that
// reference the user are kept.
func (q *queries) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	res, err := q.exec(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`, groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return expectRows(res, "member", userID)
}

// DeleteGroup deletes a group. Members, categories and expenses cascade.
func (q *queries) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := q.exec(ctx, `DELETE FROM user_groups WHERE id = ?`, groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return expectRows(res, "group", groupID)
}

// LockGroup takes a row lock on the group. Postgres uses SELECT ... FOR UPDATE;
// SQLite has a single writer and one connection, so the read is enough.
func (q *queries) LockGroup(ctx context.Context, groupID string) error {
	query := `SELECT id FROM user_groups WHERE id = ?`
	if q.dialect == Postgres {
		query += ` FOR UPDATE`
	}
	var id string
	err := q.queryRow(ctx, query, groupID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock group: %w", err)
	}
	return nil
}
