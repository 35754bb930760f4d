package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tgienger/teamboard/internal/models"
)

// UpsertMember adds a user to a project or changes their role
func (db *DB) UpsertMember(ctx context.Context, projectID int64, userID string, role models.Role) (*models.ProjectMember, error) {
	_, err := db.q.ExecContext(ctx, `
		INSERT INTO project_members (project_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(project_id, user_id) DO UPDATE SET role = excluded.role
	`, projectID, userID, string(role), db.now())
	if err != nil {
		return nil, err
	}
	return db.GetMembership(ctx, projectID, userID)
}

// GetMembership returns the membership row for (project, user), or nil
func (db *DB) GetMembership(ctx context.Context, projectID int64, userID string) (*models.ProjectMember, error) {
	m := &models.ProjectMember{}
	var role string
	err := db.q.QueryRowContext(ctx, `
		SELECT id, project_id, user_id, role, joined_at
		FROM project_members WHERE project_id = ? AND user_id = ?
	`, projectID, userID).Scan(&m.ID, &m.ProjectID, &m.UserID, &role, &m.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.Role = models.Role(role)
	return m, nil
}

// ListMembers returns all members of a project, oldest first
func (db *DB) ListMembers(ctx context.Context, projectID int64) ([]models.ProjectMember, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT id, project_id, user_id, role, joined_at
		FROM project_members
		WHERE project_id = ?
		ORDER BY joined_at ASC, id ASC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.ProjectMember
	for rows.Next() {
		var m models.ProjectMember
		var role string
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Role = models.Role(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

// UserMemberships maps project ID to the user's membership in that project
func (db *DB) UserMemberships(ctx context.Context, userID string) (map[int64]*models.ProjectMember, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT id, project_id, user_id, role, joined_at
		FROM project_members WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memberships := make(map[int64]*models.ProjectMember)
	for rows.Next() {
		m := &models.ProjectMember{}
		var role string
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.UserID, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Role = models.Role(role)
		memberships[m.ProjectID] = m
	}
	return memberships, rows.Err()
}

// RemoveMember removes a user from a project; removing a non-member is a no-op
func (db *DB) RemoveMember(ctx context.Context, projectID int64, userID string) error {
	_, err := db.q.ExecContext(ctx, "DELETE FROM project_members WHERE project_id = ? AND user_id = ?", projectID, userID)
	return err
}
