// Package testutil provides shared fixtures for teamboard tests.
package testutil

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/db"
	"github.com/tgienger/teamboard/internal/models"
)

// OpenDB creates a fresh database in a temp directory, closed on cleanup.
func OpenDB(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "teamboard.db"), db.Options{})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

// Logger returns a logger that discards output.
func Logger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at a fixed instant.
func NewClock() *Clock {
	return &Clock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MakeTask inserts a personal task owned by owner.
func MakeTask(t *testing.T, database *db.DB, owner, title string) *models.Task {
	t.Helper()

	task, err := database.CreateTask(context.Background(), &models.Task{OwnerID: owner, Title: title})
	if err != nil {
		t.Fatalf("Failed to create task %q: %v", title, err)
	}
	return task
}

// MakeProjectTask inserts a task inside projectID owned by owner.
func MakeProjectTask(t *testing.T, database *db.DB, projectID int64, owner, title string) *models.Task {
	t.Helper()

	task, err := database.CreateTask(context.Background(), &models.Task{OwnerID: owner, ProjectID: &projectID, Title: title})
	if err != nil {
		t.Fatalf("Failed to create task %q: %v", title, err)
	}
	return task
}

// Complete marks a task Done directly in storage.
func Complete(t *testing.T, database *db.DB, taskID int64) {
	t.Helper()

	now := time.Now().UTC()
	if err := database.SetTaskStatus(context.Background(), taskID, models.StatusDone, true, &now); err != nil {
		t.Fatalf("Failed to complete task %d: %v", taskID, err)
	}
}
