package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/tgienger/teamboard/internal/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

const taskColumns = `t.id, t.owner_id, t.project_id, t.title, t.description, t.priority, t.due_date,
	t.completed, t.completed_at, t.status, t.position, t.created_at, t.updated_at`

func scanTask(row interface{ Scan(...any) error }, t *models.Task) error {
	var status string
	err := row.Scan(&t.ID, &t.OwnerID, &t.ProjectID, &t.Title, &t.Description, &t.Priority, &t.DueDate,
		&t.Completed, &t.CompletedAt, &status, &t.Position, &t.CreatedAt, &t.UpdatedAt)
	t.Status = models.Status(status)
	return err
}

func scanTasks(rows *sql.Rows) ([]models.Task, error) {
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// CreateTask inserts a task and returns it as stored
func (db *DB) CreateTask(ctx context.Context, t *models.Task) (*models.Task, error) {
	now := db.now()
	status := t.Status
	if status == "" {
		status = models.StatusTodo
	}
	result, err := db.q.ExecContext(ctx, `
		INSERT INTO tasks (owner_id, project_id, title, description, priority, due_date,
			completed, completed_at, status, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.OwnerID, t.ProjectID, t.Title, t.Description, int(t.Priority), utcPtr(t.DueDate),
		t.Completed, utcPtr(t.CompletedAt), string(status), t.Position, now, now)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetTask(ctx, id)
}

// GetTask retrieves a task by ID with its assignments. Returns nil, nil when missing.
func (db *DB) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	t := &models.Task{}
	err := scanTask(db.q.QueryRowContext(ctx, `
		SELECT `+taskColumns+` FROM tasks t WHERE t.id = ?
	`, id), t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	assignments, err := db.ListAssignments(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Assignments = assignments

	return t, nil
}

// TaskExists reports whether a task row exists
func (db *DB) TaskExists(ctx context.Context, id int64) (bool, error) {
	var n int
	err := db.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM tasks WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

// TaskFilter narrows ListCandidateTasks. Nil and empty fields do not
// constrain the result.
type TaskFilter struct {
	ProjectID   *int64
	Query       string
	Priority    *models.Priority
	Completed   *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ListCandidateTasks returns every task the user might see: owned, in a
// project they own or belong to, or directly assigned. f narrows the result.
// Final visibility is still decided by the caller.
func (db *DB) ListCandidateTasks(ctx context.Context, userID string, f TaskFilter) ([]models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks t
		WHERE (t.owner_id = ?
			OR t.project_id IN (SELECT project_id FROM project_members WHERE user_id = ?)
			OR t.project_id IN (SELECT id FROM projects WHERE owner_id = ?)
			OR t.id IN (SELECT task_id FROM task_assignments WHERE user_id = ?))
	`
	args := []any{userID, userID, userID, userID}

	if f.ProjectID != nil {
		query += " AND t.project_id = ?"
		args = append(args, *f.ProjectID)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		like := "%" + likeEscaper.Replace(q) + "%"
		query += ` AND (lower(t.title) LIKE ? ESCAPE '\' OR lower(t.description) LIKE ? ESCAPE '\')`
		args = append(args, like, like)
	}
	if f.Priority != nil {
		query += " AND t.priority = ?"
		args = append(args, int(*f.Priority))
	}
	if f.Completed != nil {
		query += " AND t.completed = ?"
		args = append(args, *f.Completed)
	}
	if f.CreatedFrom != nil {
		query += " AND t.created_at >= ?"
		args = append(args, f.CreatedFrom.UTC())
	}
	if f.CreatedTo != nil {
		query += " AND t.created_at <= ?"
		args = append(args, f.CreatedTo.UTC())
	}

	query += " ORDER BY t.status, t.position, t.id"

	rows, err := db.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanTasks(rows)
}

// UpdateTask updates a task's editable content
func (db *DB) UpdateTask(ctx context.Context, t *models.Task) error {
	_, err := db.q.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, priority = ?, due_date = ?, updated_at = ?
		WHERE id = ?
	`, t.Title, t.Description, int(t.Priority), utcPtr(t.DueDate), db.now(), t.ID)
	return err
}

// SetTaskStatus writes the Kanban status together with the completion flag and timestamp
func (db *DB) SetTaskStatus(ctx context.Context, id int64, status models.Status, completed bool, completedAt *time.Time) error {
	_, err := db.q.ExecContext(ctx, `
		UPDATE tasks SET status = ?, completed = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`, string(status), completed, utcPtr(completedAt), db.now(), id)
	return err
}

// SetTaskPosition writes a task's ordinal within its column. Siblings are not renumbered.
func (db *DB) SetTaskPosition(ctx context.Context, id int64, position int) error {
	_, err := db.q.ExecContext(ctx, `
		UPDATE tasks SET position = ?, updated_at = ? WHERE id = ?
	`, position, db.now(), id)
	return err
}

// NextPosition returns one past the highest position in the column that a
// new task would join
func (db *DB) NextPosition(ctx context.Context, ownerID string, projectID *int64, status models.Status) (int, error) {
	var maxPos sql.NullInt64
	var err error
	if projectID != nil {
		err = db.q.QueryRowContext(ctx, `
			SELECT MAX(position) FROM tasks WHERE project_id = ? AND status = ?
		`, *projectID, string(status)).Scan(&maxPos)
	} else {
		err = db.q.QueryRowContext(ctx, `
			SELECT MAX(position) FROM tasks WHERE owner_id = ? AND project_id IS NULL AND status = ?
		`, ownerID, string(status)).Scan(&maxPos)
	}
	if err != nil {
		return 0, err
	}
	if !maxPos.Valid {
		return 0, nil
	}
	return int(maxPos.Int64) + 1, nil
}

// DeleteTask deletes a task; assignments, dependencies, time entries and comments cascade
func (db *DB) DeleteTask(ctx context.Context, id int64) error {
	_, err := db.q.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	return err
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
