package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tgienger/teamboard/internal/models"
)

// CreateComment creates a new comment on a task
func (db *DB) CreateComment(ctx context.Context, taskID int64, userID, content string) (*models.Comment, error) {
	result, err := db.q.ExecContext(ctx, `
		INSERT INTO comments (task_id, user_id, content, created_at) VALUES (?, ?, ?, ?)
	`, taskID, userID, content, db.now())
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetComment(ctx, id)
}

// GetComment retrieves a comment by ID
func (db *DB) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	c := &models.Comment{}
	err := db.q.QueryRowContext(ctx, `
		SELECT id, task_id, user_id, content, created_at
		FROM comments WHERE id = ?
	`, id).Scan(&c.ID, &c.TaskID, &c.UserID, &c.Content, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetTaskComments retrieves all comments for a task, oldest first
func (db *DB) GetTaskComments(ctx context.Context, taskID int64) ([]models.Comment, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT id, task_id, user_id, content, created_at
		FROM comments
		WHERE task_id = ?
		ORDER BY created_at ASC, id ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
