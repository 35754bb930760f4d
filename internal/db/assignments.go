package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tgienger/teamboard/internal/models"
)

const assignmentColumns = "id, task_id, user_id, assigned_by, permission, note, assigned_at"

func scanAssignment(row interface{ Scan(...any) error }, a *models.Assignment) error {
	var perm string
	err := row.Scan(&a.ID, &a.TaskID, &a.UserID, &a.AssignedByID, &perm, &a.Note, &a.AssignedAt)
	a.Permission = models.Permission(perm)
	return err
}

// UpsertAssignment assigns a user to a task; an existing assignment gets the
// new permission and note instead of a duplicate row
func (db *DB) UpsertAssignment(ctx context.Context, a *models.Assignment) (*models.Assignment, error) {
	_, err := db.q.ExecContext(ctx, `
		INSERT INTO task_assignments (task_id, user_id, assigned_by, permission, note, assigned_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(task_id, user_id) DO UPDATE SET permission = excluded.permission, note = excluded.note
	`, a.TaskID, a.UserID, a.AssignedByID, string(a.Permission), a.Note, db.now())
	if err != nil {
		return nil, err
	}
	return db.GetAssignment(ctx, a.TaskID, a.UserID)
}

// GetAssignment returns the assignment for (task, user), or nil
func (db *DB) GetAssignment(ctx context.Context, taskID int64, userID string) (*models.Assignment, error) {
	a := &models.Assignment{}
	err := scanAssignment(db.q.QueryRowContext(ctx, `
		SELECT `+assignmentColumns+` FROM task_assignments WHERE task_id = ? AND user_id = ?
	`, taskID, userID), a)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAssignments returns all assignments on a task
func (db *DB) ListAssignments(ctx context.Context, taskID int64) ([]models.Assignment, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT `+assignmentColumns+` FROM task_assignments WHERE task_id = ? ORDER BY assigned_at, id
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []models.Assignment
	for rows.Next() {
		var a models.Assignment
		if err := scanAssignment(rows, &a); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// UserAssignments maps task ID to the user's assignment on that task
func (db *DB) UserAssignments(ctx context.Context, userID string) (map[int64]*models.Assignment, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT `+assignmentColumns+` FROM task_assignments WHERE user_id = ?
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make(map[int64]*models.Assignment)
	for rows.Next() {
		a := &models.Assignment{}
		if err := scanAssignment(rows, a); err != nil {
			return nil, err
		}
		assignments[a.TaskID] = a
	}
	return assignments, rows.Err()
}

// DeleteAssignment removes a user's assignment from a task; idempotent
func (db *DB) DeleteAssignment(ctx context.Context, taskID int64, userID string) error {
	_, err := db.q.ExecContext(ctx, "DELETE FROM task_assignments WHERE task_id = ? AND user_id = ?", taskID, userID)
	return err
}
