package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/models"
)

// LogNotifier writes notifications to the log. It stands in for push and
// email delivery.
type LogNotifier struct {
	Log *logrus.Entry
}

func (n LogNotifier) TaskCompleted(_ context.Context, task models.Task, by string) error {
	n.Log.WithFields(logrus.Fields{"task_id": task.ID, "owner_id": task.OwnerID, "by": by}).
		Infof("task %q completed", task.Title)
	return nil
}

func (n LogNotifier) CommentAdded(_ context.Context, task models.Task, comment models.Comment) error {
	n.Log.WithFields(logrus.Fields{"task_id": task.ID, "owner_id": task.OwnerID, "by": comment.UserID}).
		Infof("new comment on %q", task.Title)
	return nil
}

func (n LogNotifier) AssignmentMade(_ context.Context, task models.Task, a models.Assignment) error {
	n.Log.WithFields(logrus.Fields{"task_id": task.ID, "assignee": a.UserID, "by": a.AssignedByID, "permission": a.Permission}).
		Infof("assigned to %q", task.Title)
	return nil
}

// LogCalendar records calendar changes in the log.
type LogCalendar struct {
	Log *logrus.Entry
}

func (c LogCalendar) SyncTask(_ context.Context, task models.Task) error {
	c.Log.WithFields(logrus.Fields{"task_id": task.ID, "due": task.DueDate}).Debug("calendar event upserted")
	return nil
}

func (c LogCalendar) DeleteTask(_ context.Context, taskID int64) error {
	c.Log.WithField("task_id", taskID).Debug("calendar event removed")
	return nil
}
