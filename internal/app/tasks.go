package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/access"
	"github.com/tgienger/teamboard/internal/db"
	tberrors "github.com/tgienger/teamboard/internal/errors"
	"github.com/tgienger/teamboard/internal/models"
)

// NewTask is the input to CreateTask.
type NewTask struct {
	Title       string
	Description string
	Priority    models.Priority
	DueDate     *time.Time
	ProjectID   *int64
	// Assignees receive Editor permission on the new task.
	Assignees []string
}

// TaskPatch lists the fields UpdateTask may change. Nil fields are kept.
type TaskPatch struct {
	Title        *string
	Description  *string
	Priority     *models.Priority
	DueDate      *time.Time
	ClearDueDate bool
}

// TaskFilter narrows ListTasks. From and To bound the creation time.
// Limit <= 0 returns every match after Offset.
type TaskFilter struct {
	ProjectID *int64
	Query     string
	Priority  *models.Priority
	Completed *bool
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// MaxPageSize caps TaskFilter.Limit.
const MaxPageSize = 100

// TaskDetail is a task as seen by one user.
type TaskDetail struct {
	models.Task
	Blocked  bool                `json:"blocked"`
	Blockers []models.Task       `json:"blockers,omitempty"`
	Access   access.Capabilities `json:"-"`
}

// CreateTask creates a task owned by userID.
func (s *Service) CreateTask(ctx context.Context, userID string, in NewTask) (*models.Task, error) {
	const op = "app.Service.CreateTask"
	log := s.log.WithField("operation", op).WithField("user_id", userID)

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, tberrors.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if err := validatePriority(in.Priority); err != nil {
		return nil, err
	}
	if in.DueDate != nil && !in.DueDate.After(s.now()) {
		return nil, tberrors.ValidationError{Field: "due date", Reason: "must be in the future"}
	}

	if in.ProjectID != nil {
		_, role, err := s.projectRole(ctx, *in.ProjectID, userID)
		if err != nil {
			return nil, err
		}
		if !access.CanContribute(role) {
			return nil, tberrors.UnauthorizedError{UserID: userID, Action: "create tasks in this project"}
		}
	}

	var created *models.Task
	var assignments []models.Assignment
	err := s.db.WithTx(ctx, func(tx *db.DB) error {
		pos, err := tx.NextPosition(ctx, userID, in.ProjectID, models.StatusTodo)
		if err != nil {
			return err
		}
		created, err = tx.CreateTask(ctx, &models.Task{
			OwnerID:     userID,
			ProjectID:   in.ProjectID,
			Title:       title,
			Description: strings.TrimSpace(in.Description),
			Priority:    in.Priority,
			DueDate:     in.DueDate,
			Status:      models.StatusTodo,
			Position:    pos,
		})
		if err != nil {
			return err
		}

		for _, assignee := range in.Assignees {
			assignee = strings.TrimSpace(assignee)
			if assignee == "" || assignee == userID {
				continue
			}
			a, err := tx.UpsertAssignment(ctx, &models.Assignment{
				TaskID:       created.ID,
				UserID:       assignee,
				AssignedByID: userID,
				Permission:   models.PermissionEditor,
			})
			if err != nil {
				return err
			}
			assignments = append(assignments, *a)
		}
		if len(assignments) > 0 {
			created.Assignments = assignments
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for _, a := range assignments {
		s.events.AssignmentMade(*created, a)
	}
	s.events.SyncTask(*created)

	log.WithField("task_id", created.ID).Info("task created")
	return created, nil
}

// GetTask returns a task userID may see. With LockBlockedTasks set, a
// blocked task yields a BlockedError instead.
func (s *Service) GetTask(ctx context.Context, userID string, taskID int64) (*TaskDetail, error) {
	detail, err := s.InspectTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if s.opts.LockBlockedTasks && detail.Blocked {
		return nil, blockedError(taskID, detail.Blockers)
	}
	return detail, nil
}

// InspectTask is GetTask without the blocked-task lock. The board uses it
// so a blocked card can still show what it is waiting on.
func (s *Service) InspectTask(ctx context.Context, userID string, taskID int64) (*TaskDetail, error) {
	task, caps, err := s.visibleTask(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	blockers, err := s.graph.GetBlockers(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &TaskDetail{Task: *task, Blocked: len(blockers) > 0, Blockers: blockers, Access: caps}, nil
}

// ListTasks returns the tasks userID may see that match f, in board order,
// along with the number of matches before Limit and Offset were applied.
func (s *Service) ListTasks(ctx context.Context, userID string, f TaskFilter) ([]models.Task, int, error) {
	if err := validateFilter(f); err != nil {
		return nil, 0, err
	}
	if f.ProjectID != nil {
		if _, _, err := s.projectRole(ctx, *f.ProjectID, userID); err != nil {
			return nil, 0, err
		}
	}

	tasks, err := s.workflow.VisibleTasks(ctx, userID, db.TaskFilter{
		ProjectID:   f.ProjectID,
		Query:       f.Query,
		Priority:    f.Priority,
		Completed:   f.Completed,
		CreatedFrom: f.From,
		CreatedTo:   f.To,
	})
	if err != nil {
		return nil, 0, err
	}

	total := len(tasks)
	if f.Offset >= total {
		return []models.Task{}, total, nil
	}
	tasks = tasks[f.Offset:]
	if f.Limit > 0 && f.Limit < len(tasks) {
		tasks = tasks[:f.Limit]
	}
	return tasks, total, nil
}

func validateFilter(f TaskFilter) error {
	if f.Priority != nil {
		if err := validatePriority(*f.Priority); err != nil {
			return err
		}
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return tberrors.ValidationError{Field: "to", Reason: "must not be before from"}
	}
	if f.Limit < 0 || f.Limit > MaxPageSize {
		return tberrors.ValidationError{Field: "limit", Reason: fmt.Sprintf("must be between 0 and %d", MaxPageSize)}
	}
	if f.Offset < 0 {
		return tberrors.ValidationError{Field: "offset", Reason: "must not be negative"}
	}
	return nil
}

// UpdateTask applies patch to a task userID may edit.
func (s *Service) UpdateTask(ctx context.Context, userID string, taskID int64, patch TaskPatch) (*models.Task, error) {
	const op = "app.Service.UpdateTask"

	task, err := s.editableTask(ctx, taskID, userID, "edit this task")
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, tberrors.ValidationError{Field: "title", Reason: "must not be empty"}
		}
		task.Title = title
	}
	if patch.Description != nil {
		task.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Priority != nil {
		if err := validatePriority(*patch.Priority); err != nil {
			return nil, err
		}
		task.Priority = *patch.Priority
	}
	switch {
	case patch.ClearDueDate:
		task.DueDate = nil
	case patch.DueDate != nil:
		if !patch.DueDate.After(s.now()) {
			return nil, tberrors.ValidationError{Field: "due date", Reason: "must be in the future"}
		}
		task.DueDate = patch.DueDate
	}

	if err := s.db.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	updated, err := s.db.GetTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.events.SyncTask(*updated)
	s.log.WithField("operation", op).WithField("task_id", taskID).Info("task updated")
	return updated, nil
}

// DeleteTask removes a task userID may edit, along with its dependencies,
// assignments, time entries and comments.
func (s *Service) DeleteTask(ctx context.Context, userID string, taskID int64) error {
	const op = "app.Service.DeleteTask"

	if _, err := s.editableTask(ctx, taskID, userID, "delete this task"); err != nil {
		return err
	}
	if err := s.db.DeleteTask(ctx, taskID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.events.DeleteTask(taskID)
	s.log.WithField("operation", op).WithField("task_id", taskID).Info("task deleted")
	return nil
}

// Assign grants assignee direct access to a task. Re-assigning updates the
// permission and note.
func (s *Service) Assign(ctx context.Context, userID string, taskID int64, assignee string, perm models.Permission, note string) (*models.Assignment, error) {
	const op = "app.Service.Assign"

	assignee = strings.TrimSpace(assignee)
	if assignee == "" {
		return nil, tberrors.ValidationError{Field: "assignee", Reason: "must not be empty"}
	}
	if perm == "" {
		perm = models.PermissionEditor
	}
	if !models.IsValidPermission(perm) {
		return nil, tberrors.ValidationError{Field: "permission", Reason: fmt.Sprintf("%q is not one of Viewer, Editor", perm)}
	}

	task, err := s.editableTask(ctx, taskID, userID, "assign this task")
	if err != nil {
		return nil, err
	}
	if assignee == task.OwnerID {
		return nil, tberrors.InvalidOperationError{Reason: "the task owner already has full access"}
	}

	a, err := s.db.UpsertAssignment(ctx, &models.Assignment{
		TaskID:       taskID,
		UserID:       assignee,
		AssignedByID: userID,
		Permission:   perm,
		Note:         strings.TrimSpace(note),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.events.AssignmentMade(*task, *a)
	s.log.WithField("operation", op).WithFields(logrus.Fields{"task_id": taskID, "assignee": assignee, "permission": perm}).Info("task assigned")
	return a, nil
}

// Unassign removes assignee's direct access. Assignees may remove
// themselves; anyone else needs edit access.
func (s *Service) Unassign(ctx context.Context, userID string, taskID int64, assignee string) error {
	const op = "app.Service.Unassign"

	if assignee == userID {
		if _, _, err := s.visibleTask(ctx, taskID, userID); err != nil {
			return err
		}
	} else if _, err := s.editableTask(ctx, taskID, userID, "change assignments on this task"); err != nil {
		return err
	}

	if err := s.db.DeleteAssignment(ctx, taskID, assignee); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.WithField("operation", op).WithFields(logrus.Fields{"task_id": taskID, "assignee": assignee}).Info("assignment removed")
	return nil
}

// ListAssignments returns the direct grants on a task userID may see.
func (s *Service) ListAssignments(ctx context.Context, userID string, taskID int64) ([]models.Assignment, error) {
	if _, _, err := s.visibleTask(ctx, taskID, userID); err != nil {
		return nil, err
	}
	return s.db.ListAssignments(ctx, taskID)
}

// AddComment posts a comment on a task userID may see.
func (s *Service) AddComment(ctx context.Context, userID string, taskID int64, content string) (*models.Comment, error) {
	const op = "app.Service.AddComment"

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, tberrors.ValidationError{Field: "content", Reason: "must not be empty"}
	}
	task, _, err := s.visibleTask(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	comment, err := s.db.CreateComment(ctx, taskID, userID, content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.events.CommentAdded(*task, *comment)
	s.log.WithField("operation", op).WithField("task_id", taskID).Debug("comment added")
	return comment, nil
}

// ListComments returns a task's comments, oldest first.
func (s *Service) ListComments(ctx context.Context, userID string, taskID int64) ([]models.Comment, error) {
	if _, _, err := s.visibleTask(ctx, taskID, userID); err != nil {
		return nil, err
	}
	return s.db.GetTaskComments(ctx, taskID)
}

func validatePriority(p models.Priority) error {
	if p < models.PriorityLow || p > models.PriorityCritical {
		return tberrors.ValidationError{Field: "priority", Reason: "must be between 0 (low) and 3 (critical)"}
	}
	return nil
}

func blockedError(taskID int64, blockers []models.Task) tberrors.BlockedError {
	ids := make([]int64, len(blockers))
	for i, b := range blockers {
		ids[i] = b.ID
	}
	return tberrors.BlockedError{TaskID: taskID, BlockedBy: ids}
}
