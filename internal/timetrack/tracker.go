// Package timetrack records time spent on tasks. A user has at most one
// running timer across all tasks, and a blocked task cannot be started.
package timetrack

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/db"
	"github.com/tgienger/teamboard/internal/deps"
	tberrors "github.com/tgienger/teamboard/internal/errors"
	"github.com/tgienger/teamboard/internal/models"
)

// Options toggle tracker policy.
type Options struct {
	// GateManual applies the blocked check to manual entries as well.
	GateManual bool
}

// Tracker manages time entries.
type Tracker struct {
	db    *db.DB
	graph *deps.Graph
	log   *logrus.Entry
	now   func() time.Time
	opts  Options
}

// NewTracker creates a Tracker. now defaults to time.Now.
func NewTracker(database *db.DB, graph *deps.Graph, log *logrus.Entry, now func() time.Time, opts Options) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{db: database, graph: graph, log: log, now: now, opts: opts}
}

// StartTimer opens a timer for userID on taskID.
func (t *Tracker) StartTimer(ctx context.Context, taskID int64, userID string) (*models.TimeEntry, error) {
	const op = "timetrack.Tracker.StartTimer"
	log := t.log.WithField("operation", op).WithFields(logrus.Fields{"task_id": taskID, "user_id": userID})

	var entry *models.TimeEntry
	err := t.db.WithTx(ctx, func(tx *db.DB) error {
		if err := requireTask(ctx, tx, taskID); err != nil {
			return err
		}
		if err := t.graph.Bind(tx).Blocked(ctx, taskID); err != nil {
			return err
		}

		open, err := tx.OpenEntryForUser(ctx, userID)
		if err != nil {
			return err
		}
		if open != nil {
			return runningTimerConflict(open.TaskID)
		}

		entry, err = tx.InsertTimeEntry(ctx, &models.TimeEntry{
			TaskID:    taskID,
			UserID:    userID,
			StartTime: t.now().UTC(),
		})
		if db.IsUniqueViolation(err) {
			return tberrors.ConflictError{Reason: "a timer is already running for this user"}
		}
		return err
	})
	if err != nil {
		log.WithError(err).Debug("timer not started")
		return nil, err
	}

	log.WithField("entry_id", entry.ID).Info("timer started")
	return entry, nil
}

// StopTimer closes userID's running timer on taskID.
func (t *Tracker) StopTimer(ctx context.Context, taskID int64, userID string) (*models.TimeEntry, error) {
	const op = "timetrack.Tracker.StopTimer"
	log := t.log.WithField("operation", op).WithFields(logrus.Fields{"task_id": taskID, "user_id": userID})

	var entry *models.TimeEntry
	err := t.db.WithTx(ctx, func(tx *db.DB) error {
		open, err := tx.OpenEntry(ctx, taskID, userID)
		if err != nil {
			return err
		}
		if open == nil {
			return tberrors.InvalidOperationError{Reason: fmt.Sprintf("no running timer on task #%d", taskID)}
		}

		end := t.now().UTC()
		if end.Before(open.StartTime) {
			end = open.StartTime
		}
		if err := tx.CloseTimeEntry(ctx, open.ID, end); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		entry, err = tx.GetTimeEntry(ctx, open.ID)
		return err
	})
	if err != nil {
		log.WithError(err).Debug("timer not stopped")
		return nil, err
	}

	log.WithField("elapsed", entry.Duration().String()).Info("timer stopped")
	return entry, nil
}

// LogManual records a finished span of work entered by hand.
func (t *Tracker) LogManual(ctx context.Context, taskID int64, userID string, start, end time.Time, notes string) (*models.TimeEntry, error) {
	const op = "timetrack.Tracker.LogManual"
	log := t.log.WithField("operation", op).WithFields(logrus.Fields{"task_id": taskID, "user_id": userID})

	if !end.After(start) {
		return nil, tberrors.ValidationError{Field: "time range", Reason: "end must be after start"}
	}

	var entry *models.TimeEntry
	err := t.db.WithTx(ctx, func(tx *db.DB) error {
		if err := requireTask(ctx, tx, taskID); err != nil {
			return err
		}
		if t.opts.GateManual {
			if err := t.graph.Bind(tx).Blocked(ctx, taskID); err != nil {
				return err
			}
		}

		end := end.UTC()
		var err error
		entry, err = tx.InsertTimeEntry(ctx, &models.TimeEntry{
			TaskID:    taskID,
			UserID:    userID,
			StartTime: start.UTC(),
			EndTime:   &end,
			Notes:     strings.TrimSpace(notes),
			IsManual:  true,
		})
		return err
	})
	if err != nil {
		log.WithError(err).Debug("manual entry refused")
		return nil, err
	}

	log.WithField("duration", entry.Duration().String()).Info("manual time logged")
	return entry, nil
}

// GetTaskHistory returns every entry on taskID, most recent start first.
func (t *Tracker) GetTaskHistory(ctx context.Context, taskID int64) ([]models.TimeEntry, error) {
	entries, err := t.db.ListTimeEntries(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("timetrack.Tracker.GetTaskHistory: %w", err)
	}
	return entries, nil
}

// GetTotalTimeSpent sums closed entries on taskID. Running timers are not counted.
func (t *Tracker) GetTotalTimeSpent(ctx context.Context, taskID int64) (time.Duration, error) {
	entries, err := t.GetTaskHistory(ctx, taskID)
	if err != nil {
		return 0, err
	}
	return Total(entries), nil
}

// ActiveTimer returns userID's running timer on any task, or nil.
func (t *Tracker) ActiveTimer(ctx context.Context, userID string) (*models.TimeEntry, error) {
	entry, err := t.db.OpenEntryForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("timetrack.Tracker.ActiveTimer: %w", err)
	}
	return entry, nil
}

// Total sums the durations of the closed entries.
func Total(entries []models.TimeEntry) time.Duration {
	var total time.Duration
	for _, e := range entries {
		total += e.Duration()
	}
	return total
}

// FormatDuration renders d as hh:mm:ss. Hours are not capped at 24.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}

func requireTask(ctx context.Context, tx *db.DB, taskID int64) error {
	ok, err := tx.TaskExists(ctx, taskID)
	if err != nil {
		return err
	}
	if !ok {
		return tberrors.TaskNotFound(taskID)
	}
	return nil
}

func runningTimerConflict(taskID int64) tberrors.ConflictError {
	return tberrors.ConflictError{Reason: fmt.Sprintf("a timer is already running on task #%d; stop it first", taskID)}
}
