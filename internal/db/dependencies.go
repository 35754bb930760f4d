package db

import (
	"context"
	"strings"

	"github.com/tgienger/teamboard/internal/models"
)

// DependencyExists reports whether taskID already depends on dependsOnID
func (db *DB) DependencyExists(ctx context.Context, taskID, dependsOnID int64) (bool, error) {
	var n int
	err := db.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM task_dependencies WHERE task_id = ? AND depends_on_task_id = ?
	`, taskID, dependsOnID).Scan(&n)
	return n > 0, err
}

// InsertDependency records that taskID waits on dependsOnID
func (db *DB) InsertDependency(ctx context.Context, taskID, dependsOnID int64) error {
	_, err := db.q.ExecContext(ctx, `
		INSERT INTO task_dependencies (task_id, depends_on_task_id, created_at) VALUES (?, ?, ?)
	`, taskID, dependsOnID, db.now())
	return err
}

// DeleteDependency removes an edge; removing a missing edge is a no-op
func (db *DB) DeleteDependency(ctx context.Context, taskID, dependsOnID int64) error {
	_, err := db.q.ExecContext(ctx, `
		DELETE FROM task_dependencies WHERE task_id = ? AND depends_on_task_id = ?
	`, taskID, dependsOnID)
	return err
}

// ListDependencies returns the edges where taskID is the dependent side,
// with the prerequisite task attached
func (db *DB) ListDependencies(ctx context.Context, taskID int64) ([]models.Dependency, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT d.id, d.task_id, d.depends_on_task_id, d.created_at, `+taskColumns+`
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.depends_on_task_id
		WHERE d.task_id = ?
		ORDER BY d.created_at, d.id
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deps []models.Dependency
	for rows.Next() {
		var d models.Dependency
		var t models.Task
		var status string
		if err := rows.Scan(&d.ID, &d.TaskID, &d.DependsOnID, &d.CreatedAt,
			&t.ID, &t.OwnerID, &t.ProjectID, &t.Title, &t.Description, &t.Priority, &t.DueDate,
			&t.Completed, &t.CompletedAt, &status, &t.Position, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.Status = models.Status(status)
		d.DependsOn = &t
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// ListBlockers returns the prerequisites of taskID that are not completed
func (db *DB) ListBlockers(ctx context.Context, taskID int64) ([]models.Task, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.depends_on_task_id
		WHERE d.task_id = ? AND t.completed = 0
		ORDER BY t.id
	`, taskID)
	if err != nil {
		return nil, err
	}
	return scanTasks(rows)
}

// HasIncompletePrerequisite reports whether any prerequisite of taskID is not completed
func (db *DB) HasIncompletePrerequisite(ctx context.Context, taskID int64) (bool, error) {
	var n int
	err := db.q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.depends_on_task_id
		WHERE d.task_id = ? AND t.completed = 0
	`, taskID).Scan(&n)
	return n > 0, err
}

// BlockedTaskIDs returns the subset of ids that currently have an incomplete prerequisite
func (db *DB) BlockedTaskIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	blocked := make(map[int64]bool)
	if len(ids) == 0 {
		return blocked, nil
	}

	for start := 0; start < len(ids); start += maxInParams {
		end := min(start+maxInParams, len(ids))
		if err := db.blockedChunk(ctx, ids[start:end], blocked); err != nil {
			return nil, err
		}
	}
	return blocked, nil
}

// maxInParams stays below SQLite's default host parameter limit
const maxInParams = 500

func (db *DB) blockedChunk(ctx context.Context, ids []int64, blocked map[int64]bool) error {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.q.QueryContext(ctx, `
		SELECT DISTINCT d.task_id
		FROM task_dependencies d
		JOIN tasks t ON t.id = d.depends_on_task_id
		WHERE t.completed = 0 AND d.task_id IN (`+placeholders(len(ids))+`)
	`, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		blocked[id] = true
	}
	return rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
