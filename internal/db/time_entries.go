package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/tgienger/teamboard/internal/models"
)

const timeEntryColumns = "id, task_id, user_id, start_time, end_time, notes, is_manual, created_at"

func scanTimeEntry(row interface{ Scan(...any) error }, e *models.TimeEntry) error {
	return row.Scan(&e.ID, &e.TaskID, &e.UserID, &e.StartTime, &e.EndTime, &e.Notes, &e.IsManual, &e.CreatedAt)
}

// InsertTimeEntry stores a new entry. A second open entry for the same user
// violates idx_time_entries_one_open.
func (db *DB) InsertTimeEntry(ctx context.Context, e *models.TimeEntry) (*models.TimeEntry, error) {
	result, err := db.q.ExecContext(ctx, `
		INSERT INTO time_entries (task_id, user_id, start_time, end_time, notes, is_manual, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.TaskID, e.UserID, e.StartTime.UTC(), utcPtr(e.EndTime), e.Notes, e.IsManual, db.now())
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetTimeEntry(ctx, id)
}

// GetTimeEntry retrieves an entry by ID. Returns nil, nil when missing.
func (db *DB) GetTimeEntry(ctx context.Context, id int64) (*models.TimeEntry, error) {
	e := &models.TimeEntry{}
	err := scanTimeEntry(db.q.QueryRowContext(ctx, `
		SELECT `+timeEntryColumns+` FROM time_entries WHERE id = ?
	`, id), e)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// OpenEntryForUser returns the user's running timer on any task, or nil
func (db *DB) OpenEntryForUser(ctx context.Context, userID string) (*models.TimeEntry, error) {
	e := &models.TimeEntry{}
	err := scanTimeEntry(db.q.QueryRowContext(ctx, `
		SELECT `+timeEntryColumns+` FROM time_entries WHERE user_id = ? AND end_time IS NULL
	`, userID), e)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// OpenEntry returns the user's running timer on exactly this task, or nil
func (db *DB) OpenEntry(ctx context.Context, taskID int64, userID string) (*models.TimeEntry, error) {
	e := &models.TimeEntry{}
	err := scanTimeEntry(db.q.QueryRowContext(ctx, `
		SELECT `+timeEntryColumns+` FROM time_entries WHERE task_id = ? AND user_id = ? AND end_time IS NULL
	`, taskID, userID), e)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// CloseTimeEntry sets the end time of a running entry
func (db *DB) CloseTimeEntry(ctx context.Context, id int64, end time.Time) error {
	_, err := db.q.ExecContext(ctx, `
		UPDATE time_entries SET end_time = ? WHERE id = ? AND end_time IS NULL
	`, end.UTC(), id)
	return err
}

// ListTimeEntries returns every entry for a task, most recent start first
func (db *DB) ListTimeEntries(ctx context.Context, taskID int64) ([]models.TimeEntry, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT `+timeEntryColumns+`
		FROM time_entries
		WHERE task_id = ?
		ORDER BY start_time DESC, id DESC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.TimeEntry
	for rows.Next() {
		var e models.TimeEntry
		if err := scanTimeEntry(rows, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
