// Package workflow owns a task's Kanban status and column position, keeping
// the completion flag and timestamp in step with the status.
package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/access"
	"github.com/tgienger/teamboard/internal/db"
	"github.com/tgienger/teamboard/internal/deps"
	tberrors "github.com/tgienger/teamboard/internal/errors"
	"github.com/tgienger/teamboard/internal/models"
)

// Card is a task as it appears on the board.
type Card struct {
	models.Task
	Blocked bool `json:"blocked"`
}

// Board maps each status to its column, ordered by position.
type Board map[models.Status][]Card

// Change describes the effect of a status update.
type Change struct {
	Task *models.Task
	From models.Status
	// Completed is true only when the update moved the task into Done.
	Completed bool
}

// Engine applies workflow transitions.
type Engine struct {
	db    *db.DB
	graph *deps.Graph
	log   *logrus.Entry
	now   func() time.Time
}

// NewEngine creates an Engine. now defaults to time.Now.
func NewEngine(database *db.DB, graph *deps.Graph, log *logrus.Entry, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{db: database, graph: graph, log: log, now: now}
}

// LoadVisible fetches a task with the rows that decide access, returning
// NotFound when it is missing or userID cannot see it.
func LoadVisible(ctx context.Context, database *db.DB, taskID int64, userID string) (*models.Task, access.Capabilities, error) {
	task, err := database.GetTask(ctx, taskID)
	if err != nil {
		return nil, access.Capabilities{}, err
	}
	if task == nil {
		return nil, access.Capabilities{}, tberrors.TaskNotFound(taskID)
	}

	grants, err := LoadGrants(ctx, database, task, userID)
	if err != nil {
		return nil, access.Capabilities{}, err
	}

	caps := access.Resolve(task, userID, grants)
	if !caps.View {
		return nil, caps, tberrors.TaskNotFound(taskID)
	}
	return task, caps, nil
}

// LoadGrants reads the project, membership and assignment rows for task.
func LoadGrants(ctx context.Context, database *db.DB, task *models.Task, userID string) (access.Grants, error) {
	var g access.Grants
	if task.ProjectID != nil {
		project, err := database.GetProject(ctx, *task.ProjectID)
		if err != nil {
			return g, err
		}
		membership, err := database.GetMembership(ctx, *task.ProjectID, userID)
		if err != nil {
			return g, err
		}
		g.Project = project
		g.Membership = membership
	}
	assignment, err := database.GetAssignment(ctx, task.ID, userID)
	if err != nil {
		return g, err
	}
	g.Assignment = assignment
	return g, nil
}

// UpdateStatus moves a task to status. Entering Done stamps the completion
// time unless the task was already complete; leaving Done clears it.
func (e *Engine) UpdateStatus(ctx context.Context, taskID int64, status models.Status, userID string) (*Change, error) {
	const op = "workflow.Engine.UpdateStatus"
	log := e.log.WithField("operation", op).WithFields(logrus.Fields{"task_id": taskID, "status": status})

	if !models.IsValidStatus(status) {
		return nil, tberrors.ValidationError{Field: "status", Reason: fmt.Sprintf("%q is not one of Todo, InProgress, Done", status)}
	}

	var change *Change
	err := e.db.WithTx(ctx, func(tx *db.DB) error {
		task, _, err := LoadVisible(ctx, tx, taskID, userID)
		if err != nil {
			return err
		}

		from := task.Status
		completed := status == models.StatusDone
		completedAt := task.CompletedAt
		switch {
		case completed && !task.Completed:
			now := e.now().UTC()
			completedAt = &now
		case !completed:
			completedAt = nil
		}

		if err := tx.SetTaskStatus(ctx, taskID, status, completed, completedAt); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		updated, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return err
		}
		change = &Change{Task: updated, From: from, Completed: completed && !task.Completed}
		return nil
	})
	if err != nil {
		log.WithError(err).Debug("status update refused")
		return nil, err
	}

	log.WithField("from", change.From).Info("task status updated")
	return change, nil
}

// UpdatePosition sets a task's ordinal within its column. Other tasks in the
// column keep their positions, so two tasks may share one.
func (e *Engine) UpdatePosition(ctx context.Context, taskID int64, position int, userID string) (*models.Task, error) {
	const op = "workflow.Engine.UpdatePosition"
	log := e.log.WithField("operation", op).WithFields(logrus.Fields{"task_id": taskID, "position": position})

	var updated *models.Task
	err := e.db.WithTx(ctx, func(tx *db.DB) error {
		if _, _, err := LoadVisible(ctx, tx, taskID, userID); err != nil {
			return err
		}
		if err := tx.SetTaskPosition(ctx, taskID, position); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		var err error
		updated, err = tx.GetTask(ctx, taskID)
		return err
	})
	if err != nil {
		log.WithError(err).Debug("position update refused")
		return nil, err
	}

	log.Debug("task position updated")
	return updated, nil
}

// GetBoard groups every task visible to userID by status. A non-nil
// projectID limits the board to that project.
func (e *Engine) GetBoard(ctx context.Context, userID string, projectID *int64) (Board, error) {
	const op = "workflow.Engine.GetBoard"

	tasks, err := e.VisibleTasks(ctx, userID, db.TaskFilter{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids := make([]int64, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	blocked, err := e.graph.BlockedSet(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	board := make(Board, len(models.Statuses))
	for _, s := range models.Statuses {
		board[s] = []Card{}
	}
	for _, t := range tasks {
		board[t.Status] = append(board[t.Status], Card{Task: t, Blocked: blocked[t.ID]})
	}
	for _, column := range board {
		sort.SliceStable(column, func(i, j int) bool {
			if column[i].Position != column[j].Position {
				return column[i].Position < column[j].Position
			}
			return column[i].ID < column[j].ID
		})
	}

	e.log.WithField("operation", op).WithFields(logrus.Fields{"user_id": userID, "tasks": len(tasks)}).Debug("board assembled")
	return board, nil
}

// VisibleTasks returns the tasks userID may view that match f.
func (e *Engine) VisibleTasks(ctx context.Context, userID string, f db.TaskFilter) ([]models.Task, error) {
	candidates, err := e.db.ListCandidateTasks(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	memberships, err := e.db.UserMemberships(ctx, userID)
	if err != nil {
		return nil, err
	}
	assignments, err := e.db.UserAssignments(ctx, userID)
	if err != nil {
		return nil, err
	}

	projects := make(map[int64]*models.Project)
	visible := make([]models.Task, 0, len(candidates))
	for i := range candidates {
		t := &candidates[i]
		g := access.Grants{Assignment: assignments[t.ID]}
		if t.ProjectID != nil {
			pid := *t.ProjectID
			project, ok := projects[pid]
			if !ok {
				if project, err = e.db.GetProject(ctx, pid); err != nil {
					return nil, err
				}
				projects[pid] = project
			}
			g.Project = project
			g.Membership = memberships[pid]
		}
		if access.CanView(t, userID, g) {
			visible = append(visible, *t)
		}
	}
	return visible, nil
}
