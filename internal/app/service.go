// Package app is the entry point used by the REST server, the CLI and the
// TUI. It applies access policy on top of the workflow, dependency and time
// tracking engines and fires notifications after successful changes.
package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/access"
	"github.com/tgienger/teamboard/internal/db"
	"github.com/tgienger/teamboard/internal/deps"
	tberrors "github.com/tgienger/teamboard/internal/errors"
	"github.com/tgienger/teamboard/internal/models"
	"github.com/tgienger/teamboard/internal/notify"
	"github.com/tgienger/teamboard/internal/timetrack"
	"github.com/tgienger/teamboard/internal/workflow"
)

// Options configure a Service.
type Options struct {
	// Now defaults to time.Now.
	Now func() time.Time
	// LockBlockedTasks makes GetTask refuse blocked tasks.
	LockBlockedTasks bool
	// GateManualTime refuses manual time entries on blocked tasks.
	GateManualTime bool
}

// Service exposes every user-facing operation.
type Service struct {
	db       *db.DB
	graph    *deps.Graph
	workflow *workflow.Engine
	timer    *timetrack.Tracker
	events   *notify.Dispatcher
	log      *logrus.Entry
	now      func() time.Time
	opts     Options
}

// New wires the engines around database. events may be nil.
func New(database *db.DB, events *notify.Dispatcher, log *logrus.Entry, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	graph := deps.NewGraph(database, log)
	return &Service{
		db:       database,
		graph:    graph,
		workflow: workflow.NewEngine(database, graph, log, opts.Now),
		timer:    timetrack.NewTracker(database, graph, log, opts.Now, timetrack.Options{GateManual: opts.GateManualTime}),
		events:   events,
		log:      log,
		now:      opts.Now,
		opts:     opts,
	}
}

// visibleTask loads a task userID may see.
func (s *Service) visibleTask(ctx context.Context, taskID int64, userID string) (*models.Task, access.Capabilities, error) {
	return workflow.LoadVisible(ctx, s.db, taskID, userID)
}

// editableTask loads a task userID may edit. Invisible tasks are reported
// as not found; visible but read-only ones as unauthorized.
func (s *Service) editableTask(ctx context.Context, taskID int64, userID, action string) (*models.Task, error) {
	task, caps, err := s.visibleTask(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	if !caps.Edit {
		return nil, tberrors.UnauthorizedError{UserID: userID, Action: action}
	}
	return task, nil
}

// projectRole returns userID's role in projectID. Users with no role get
// NotFound so that project existence is not disclosed.
func (s *Service) projectRole(ctx context.Context, projectID int64, userID string) (*models.Project, models.Role, error) {
	project, err := s.db.GetProject(ctx, projectID)
	if err != nil {
		return nil, models.RoleNone, err
	}
	if project == nil {
		return nil, models.RoleNone, tberrors.ProjectNotFound(projectID)
	}
	membership, err := s.db.GetMembership(ctx, projectID, userID)
	if err != nil {
		return nil, models.RoleNone, err
	}
	role := access.RoleOf(project, userID, membership)
	if role == models.RoleNone {
		return nil, models.RoleNone, tberrors.ProjectNotFound(projectID)
	}
	return project, role, nil
}

func requireUser(userID string) error {
	if userID == "" {
		return tberrors.ValidationError{Field: "user", Reason: "caller identity is required"}
	}
	return nil
}
