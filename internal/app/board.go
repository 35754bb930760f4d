package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	tberrors "github.com/tgienger/teamboard/internal/errors"
	"github.com/tgienger/teamboard/internal/models"
	"github.com/tgienger/teamboard/internal/timetrack"
	"github.com/tgienger/teamboard/internal/workflow"
)

// TimeReport is a task's time history with its total.
type TimeReport struct {
	Entries []models.TimeEntry `json:"entries"`
	Total   time.Duration      `json:"-"`
	// Formatted is Total as hh:mm:ss.
	Formatted string `json:"total"`
}

// GetBoard returns userID's Kanban board, optionally for one project.
func (s *Service) GetBoard(ctx context.Context, userID string, projectID *int64) (workflow.Board, error) {
	if projectID != nil {
		if _, _, err := s.projectRole(ctx, *projectID, userID); err != nil {
			return nil, err
		}
	}
	return s.workflow.GetBoard(ctx, userID, projectID)
}

// UpdateStatus moves a task to another column. Completing a task notifies
// its owner; any change re-syncs the calendar.
func (s *Service) UpdateStatus(ctx context.Context, userID string, taskID int64, status models.Status) (*models.Task, error) {
	change, err := s.workflow.UpdateStatus(ctx, taskID, status, userID)
	if err != nil {
		return nil, err
	}
	if change.Completed {
		s.events.TaskCompleted(*change.Task, userID)
	}
	s.events.SyncTask(*change.Task)
	return change.Task, nil
}

// UpdatePosition sets a task's position within its column.
func (s *Service) UpdatePosition(ctx context.Context, userID string, taskID int64, position int) (*models.Task, error) {
	if position < 0 {
		return nil, tberrors.ValidationError{Field: "position", Reason: "must not be negative"}
	}
	return s.workflow.UpdatePosition(ctx, taskID, position, userID)
}

// AddDependency makes taskID wait on prereqID. The caller must be able to
// edit taskID and see prereqID.
func (s *Service) AddDependency(ctx context.Context, userID string, taskID, prereqID int64) error {
	if taskID == prereqID {
		return tberrors.ValidationError{Field: "dependency", Reason: "task cannot depend on itself"}
	}
	if _, err := s.editableTask(ctx, taskID, userID, "change dependencies of this task"); err != nil {
		return err
	}
	if _, _, err := s.visibleTask(ctx, prereqID, userID); err != nil {
		return err
	}
	if err := s.graph.AddDependency(ctx, taskID, prereqID); err != nil {
		return err
	}
	s.log.WithField("operation", "app.Service.AddDependency").
		WithFields(logrus.Fields{"task_id": taskID, "prereq_id": prereqID, "user_id": userID}).Info("dependency added")
	return nil
}

// RemoveDependency deletes the edge taskID -> prereqID if present.
func (s *Service) RemoveDependency(ctx context.Context, userID string, taskID, prereqID int64) error {
	if _, err := s.editableTask(ctx, taskID, userID, "change dependencies of this task"); err != nil {
		return err
	}
	return s.graph.RemoveDependency(ctx, taskID, prereqID)
}

// GetDependencies lists the prerequisites of a task userID may see.
func (s *Service) GetDependencies(ctx context.Context, userID string, taskID int64) ([]models.Dependency, error) {
	if _, _, err := s.visibleTask(ctx, taskID, userID); err != nil {
		return nil, err
	}
	return s.graph.GetDependencies(ctx, taskID)
}

// GetBlockers lists the incomplete prerequisites of a task userID may see.
func (s *Service) GetBlockers(ctx context.Context, userID string, taskID int64) ([]models.Task, error) {
	if _, _, err := s.visibleTask(ctx, taskID, userID); err != nil {
		return nil, err
	}
	return s.graph.GetBlockers(ctx, taskID)
}

// IsBlocked reports whether a task userID may see has incomplete prerequisites.
func (s *Service) IsBlocked(ctx context.Context, userID string, taskID int64) (bool, error) {
	if _, _, err := s.visibleTask(ctx, taskID, userID); err != nil {
		return false, err
	}
	return s.graph.IsBlocked(ctx, taskID)
}

// StartTimer starts userID's timer on a task they can see.
func (s *Service) StartTimer(ctx context.Context, userID string, taskID int64) (*models.TimeEntry, error) {
	if _, _, err := s.visibleTask(ctx, taskID, userID); err != nil {
		return nil, err
	}
	return s.timer.StartTimer(ctx, taskID, userID)
}

// StopTimer stops userID's timer on a task.
func (s *Service) StopTimer(ctx context.Context, userID string, taskID int64) (*models.TimeEntry, error) {
	return s.timer.StopTimer(ctx, taskID, userID)
}

// ActiveTimer returns userID's running timer, or nil.
func (s *Service) ActiveTimer(ctx context.Context, userID string) (*models.TimeEntry, error) {
	return s.timer.ActiveTimer(ctx, userID)
}

// LogManual records hand-entered time on a task userID can see.
func (s *Service) LogManual(ctx context.Context, userID string, taskID int64, start, end time.Time, notes string) (*models.TimeEntry, error) {
	if _, _, err := s.visibleTask(ctx, taskID, userID); err != nil {
		return nil, err
	}
	return s.timer.LogManual(ctx, taskID, userID, start, end, notes)
}

// TimeReport returns the history and total time of a task userID can see.
func (s *Service) TimeReport(ctx context.Context, userID string, taskID int64) (*TimeReport, error) {
	if _, _, err := s.visibleTask(ctx, taskID, userID); err != nil {
		return nil, err
	}
	entries, err := s.timer.GetTaskHistory(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.TimeEntry{}
	}
	total := timetrack.Total(entries)
	return &TimeReport{Entries: entries, Total: total, Formatted: timetrack.FormatDuration(total)}, nil
}
