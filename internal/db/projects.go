package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tgienger/teamboard/internal/models"
)

const projectColumns = "id, owner_id, title, description, created_at, updated_at"

func scanProject(row interface{ Scan(...any) error }, p *models.Project) error {
	return row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.CreatedAt, &p.UpdatedAt)
}

// CreateProject creates a new project and records its creator as Owner
func (db *DB) CreateProject(ctx context.Context, ownerID, title, description string) (*models.Project, error) {
	var project *models.Project
	err := db.WithTx(ctx, func(tx *DB) error {
		now := tx.now()
		result, err := tx.q.ExecContext(ctx, `
			INSERT INTO projects (owner_id, title, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
		`, ownerID, title, description, now, now)
		if err != nil {
			return err
		}

		id, err := result.LastInsertId()
		if err != nil {
			return err
		}

		if _, err := tx.UpsertMember(ctx, id, ownerID, models.RoleOwner); err != nil {
			return err
		}

		project, err = tx.GetProject(ctx, id)
		return err
	})
	return project, err
}

// GetProject retrieves a project by ID. Returns nil, nil when missing.
func (db *DB) GetProject(ctx context.Context, id int64) (*models.Project, error) {
	p := &models.Project{}
	err := scanProject(db.q.QueryRowContext(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE id = ?
	`, id), p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListUserProjects returns projects the user owns or belongs to
func (db *DB) ListUserProjects(ctx context.Context, userID string) ([]models.Project, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE owner_id = ? OR id IN (SELECT project_id FROM project_members WHERE user_id = ?)
		ORDER BY updated_at DESC, id DESC
	`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := scanProject(rows, &p); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject updates a project
func (db *DB) UpdateProject(ctx context.Context, id int64, title, description string) error {
	_, err := db.q.ExecContext(ctx, `
		UPDATE projects SET title = ?, description = ?, updated_at = ?
		WHERE id = ?
	`, title, description, db.now(), id)
	return err
}

// DeleteProject deletes a project along with its members and tasks
func (db *DB) DeleteProject(ctx context.Context, id int64) error {
	_, err := db.q.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	return err
}
