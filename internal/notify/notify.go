// Package notify delivers side effects of task changes: user notifications
// and calendar mirroring. Delivery is best effort; failures are logged and
// never reach the caller.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/models"
)

// Notifier tells users about events on tasks they care about.
type Notifier interface {
	TaskCompleted(ctx context.Context, task models.Task, by string) error
	CommentAdded(ctx context.Context, task models.Task, comment models.Comment) error
	AssignmentMade(ctx context.Context, task models.Task, assignment models.Assignment) error
}

// CalendarSyncer mirrors tasks with due dates into an external calendar.
type CalendarSyncer interface {
	SyncTask(ctx context.Context, task models.Task) error
	DeleteTask(ctx context.Context, taskID int64) error
}

// Dispatcher fans events out to a Notifier and a CalendarSyncer in the
// background. Either may be nil.
type Dispatcher struct {
	notifier Notifier
	calendar CalendarSyncer
	log      *logrus.Entry
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. Each delivery gets its own context
// bounded by timeout.
func NewDispatcher(n Notifier, c CalendarSyncer, log *logrus.Entry, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{notifier: n, calendar: c, log: log, timeout: timeout}
}

// TaskCompleted schedules a completion notice.
func (d *Dispatcher) TaskCompleted(task models.Task, by string) {
	if d == nil || d.notifier == nil {
		return
	}
	d.run("notify.TaskCompleted", task.ID, func(ctx context.Context) error {
		return d.notifier.TaskCompleted(ctx, task, by)
	})
}

// CommentAdded schedules a comment notice.
func (d *Dispatcher) CommentAdded(task models.Task, comment models.Comment) {
	if d == nil || d.notifier == nil {
		return
	}
	d.run("notify.CommentAdded", task.ID, func(ctx context.Context) error {
		return d.notifier.CommentAdded(ctx, task, comment)
	})
}

// AssignmentMade schedules an assignment notice.
func (d *Dispatcher) AssignmentMade(task models.Task, assignment models.Assignment) {
	if d == nil || d.notifier == nil {
		return
	}
	d.run("notify.AssignmentMade", task.ID, func(ctx context.Context) error {
		return d.notifier.AssignmentMade(ctx, task, assignment)
	})
}

// SyncTask schedules a calendar update. Tasks without a due date are removed
// from the calendar instead.
func (d *Dispatcher) SyncTask(task models.Task) {
	if d == nil || d.calendar == nil {
		return
	}
	if task.DueDate == nil {
		d.DeleteTask(task.ID)
		return
	}
	d.run("calendar.SyncTask", task.ID, func(ctx context.Context) error {
		return d.calendar.SyncTask(ctx, task)
	})
}

// DeleteTask schedules removal of a task's calendar event.
func (d *Dispatcher) DeleteTask(taskID int64) {
	if d == nil || d.calendar == nil {
		return
	}
	d.run("calendar.DeleteTask", taskID, func(ctx context.Context) error {
		return d.calendar.DeleteTask(ctx, taskID)
	})
}

// Wait blocks until every scheduled delivery has finished.
func (d *Dispatcher) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}

func (d *Dispatcher) run(op string, taskID int64, fn func(ctx context.Context) error) {
	log := d.log.WithField("operation", op).WithField("task_id", taskID)

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", fmt.Sprint(r)).Warn("delivery panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			log.WithError(err).Warn("delivery failed")
			return
		}
		log.Debug("delivered")
	}()
}
