// Package deps maintains the prerequisite graph between tasks and derives
// whether a task is blocked.
//
// Only a direct two-node cycle (A->B then B->A) is rejected. Longer cycles
// such as A->B->C->A are accepted; that is the current contract.
package deps

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/db"
	tberrors "github.com/tgienger/teamboard/internal/errors"
	"github.com/tgienger/teamboard/internal/models"
)

// Graph manages task dependency edges stored in the database.
type Graph struct {
	db  *db.DB
	log *logrus.Entry
}

// NewGraph creates a Graph backed by database.
func NewGraph(database *db.DB, log *logrus.Entry) *Graph {
	return &Graph{db: database, log: log}
}

// Bind returns a Graph that reads and writes through tx, for use inside
// db.WithTx callbacks.
func (g *Graph) Bind(tx *db.DB) *Graph {
	return &Graph{db: tx, log: g.log}
}

// AddDependency records that taskID waits on prereqID. Re-adding an existing
// edge succeeds without change.
func (g *Graph) AddDependency(ctx context.Context, taskID, prereqID int64) error {
	const op = "deps.Graph.AddDependency"
	log := g.log.WithField("operation", op).WithFields(logrus.Fields{"task_id": taskID, "prereq_id": prereqID})

	if taskID == prereqID {
		return tberrors.ValidationError{Field: "dependency", Reason: "task cannot depend on itself"}
	}

	err := g.db.WithTx(ctx, func(tx *db.DB) error {
		for _, id := range []int64{taskID, prereqID} {
			ok, err := tx.TaskExists(ctx, id)
			if err != nil {
				return err
			}
			if !ok {
				return tberrors.TaskNotFound(id)
			}
		}

		exists, err := tx.DependencyExists(ctx, taskID, prereqID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		reverse, err := tx.DependencyExists(ctx, prereqID, taskID)
		if err != nil {
			return err
		}
		if reverse {
			return tberrors.ConflictError{Reason: fmt.Sprintf("circular dependency: task #%d already depends on task #%d", prereqID, taskID)}
		}

		if err := tx.InsertDependency(ctx, taskID, prereqID); err != nil {
			if db.IsUniqueViolation(err) {
				return nil
			}
			return err
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Debug("add dependency refused")
		return err
	}

	log.Debug("dependency added")
	return nil
}

// RemoveDependency deletes the edge if present.
func (g *Graph) RemoveDependency(ctx context.Context, taskID, prereqID int64) error {
	const op = "deps.Graph.RemoveDependency"

	if err := g.db.DeleteDependency(ctx, taskID, prereqID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	g.log.WithField("operation", op).WithFields(logrus.Fields{"task_id": taskID, "prereq_id": prereqID}).Debug("dependency removed")
	return nil
}

// IsBlocked reports whether any prerequisite of taskID is incomplete.
func (g *Graph) IsBlocked(ctx context.Context, taskID int64) (bool, error) {
	blocked, err := g.db.HasIncompletePrerequisite(ctx, taskID)
	if err != nil {
		return false, fmt.Errorf("deps.Graph.IsBlocked: %w", err)
	}
	return blocked, nil
}

// GetBlockers returns the prerequisites of taskID that are incomplete.
func (g *Graph) GetBlockers(ctx context.Context, taskID int64) ([]models.Task, error) {
	blockers, err := g.db.ListBlockers(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("deps.Graph.GetBlockers: %w", err)
	}
	return blockers, nil
}

// GetDependencies returns every edge where taskID is the dependent side,
// with the prerequisite task attached.
func (g *Graph) GetDependencies(ctx context.Context, taskID int64) ([]models.Dependency, error) {
	deps, err := g.db.ListDependencies(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("deps.Graph.GetDependencies: %w", err)
	}
	return deps, nil
}

// BlockedSet returns which of ids are currently blocked.
func (g *Graph) BlockedSet(ctx context.Context, ids []int64) (map[int64]bool, error) {
	blocked, err := g.db.BlockedTaskIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("deps.Graph.BlockedSet: %w", err)
	}
	return blocked, nil
}

// Blocked returns a BlockedError naming taskID's blockers, or nil when the
// task is free to proceed.
func (g *Graph) Blocked(ctx context.Context, taskID int64) error {
	blockers, err := g.GetBlockers(ctx, taskID)
	if err != nil {
		return err
	}
	if len(blockers) == 0 {
		return nil
	}
	ids := make([]int64, len(blockers))
	for i, b := range blockers {
		ids[i] = b.ID
	}
	return tberrors.BlockedError{TaskID: taskID, BlockedBy: ids}
}
