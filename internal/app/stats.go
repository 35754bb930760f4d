package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/db"
	tberrors "github.com/tgienger/teamboard/internal/errors"
	"github.com/tgienger/teamboard/internal/models"
)

// Stats window limits, in days.
const (
	DefaultStatsDays = 7
	MaxStatsDays     = 30
)

// Stats summarises the tasks one user can see.
type Stats struct {
	Total            int                   `json:"total"`
	Completed        int                   `json:"completed"`
	InProgress       int                   `json:"in_progress"`
	Overdue          int                   `json:"overdue"`
	CompletionRate   float64               `json:"completion_rate"`
	CreatedToday     int                   `json:"created_today"`
	CreatedThisWeek  int                   `json:"created_this_week"`
	CreatedThisMonth int                   `json:"created_this_month"`
	ByStatus         map[models.Status]int `json:"by_status"`
	ByPriority       map[string]int        `json:"by_priority"`
	PerDay           []DayCount            `json:"per_day"`
}

// DayCount is the activity of one UTC calendar day.
type DayCount struct {
	Date      string `json:"date"`
	Created   int    `json:"created"`
	Completed int    `json:"completed"`
}

// Stats computes dashboard figures over every task userID may see,
// optionally within one project. days sets the PerDay window and defaults
// to DefaultStatsDays when zero.
func (s *Service) Stats(ctx context.Context, userID string, projectID *int64, days int) (*Stats, error) {
	const op = "app.Service.Stats"

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if days == 0 {
		days = DefaultStatsDays
	}
	if days < 1 || days > MaxStatsDays {
		return nil, tberrors.ValidationError{Field: "days", Reason: fmt.Sprintf("must be between 1 and %d", MaxStatsDays)}
	}
	if projectID != nil {
		if _, _, err := s.projectRole(ctx, *projectID, userID); err != nil {
			return nil, err
		}
	}

	tasks, err := s.workflow.VisibleTasks(ctx, userID, db.TaskFilter{ProjectID: projectID})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	stats := computeStats(tasks, s.now().UTC(), days)
	s.log.WithField("operation", op).WithFields(logrus.Fields{"user_id": userID, "tasks": stats.Total}).Debug("stats computed")
	return stats, nil
}

func computeStats(tasks []models.Task, now time.Time, days int) *Stats {
	today := truncateDay(now)
	weekAgo := today.AddDate(0, 0, -7)
	monthAgo := today.AddDate(0, 0, -30)

	stats := &Stats{
		ByStatus:   make(map[models.Status]int, len(models.Statuses)),
		ByPriority: make(map[string]int, len(models.Priorities)),
		PerDay:     make([]DayCount, days),
	}
	for _, st := range models.Statuses {
		stats.ByStatus[st] = 0
	}
	for _, p := range models.Priorities {
		stats.ByPriority[p.String()] = 0
	}

	first := today.AddDate(0, 0, -(days - 1))
	for i := range stats.PerDay {
		stats.PerDay[i].Date = first.AddDate(0, 0, i).Format(time.DateOnly)
	}
	dayIndex := func(t time.Time) int {
		d := truncateDay(t.UTC())
		if d.Before(first) || d.After(today) {
			return -1
		}
		return int(d.Sub(first).Hours() / 24)
	}

	for _, t := range tasks {
		stats.Total++
		stats.ByStatus[t.Status]++
		stats.ByPriority[t.Priority.String()]++

		if t.Completed {
			stats.Completed++
		} else if t.DueDate != nil && t.DueDate.Before(now) {
			stats.Overdue++
		}
		if t.Status == models.StatusInProgress {
			stats.InProgress++
		}

		created := t.CreatedAt.UTC()
		if !created.Before(today) {
			stats.CreatedToday++
		}
		if !created.Before(weekAgo) {
			stats.CreatedThisWeek++
		}
		if !created.Before(monthAgo) {
			stats.CreatedThisMonth++
		}

		if i := dayIndex(created); i >= 0 {
			stats.PerDay[i].Created++
		}
		if t.Completed && t.CompletedAt != nil {
			if i := dayIndex(*t.CompletedAt); i >= 0 {
				stats.PerDay[i].Completed++
			}
		}
	}

	if stats.Total > 0 {
		rate := float64(stats.Completed) / float64(stats.Total) * 100
		stats.CompletionRate = math.Round(rate*100) / 100
	}
	return stats
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
