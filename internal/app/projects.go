package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tgienger/teamboard/internal/access"
	"github.com/tgienger/teamboard/internal/db"
	tberrors "github.com/tgienger/teamboard/internal/errors"
	"github.com/tgienger/teamboard/internal/models"
)

// ProjectSummary is a project together with the caller's role in it.
type ProjectSummary struct {
	models.Project
	Role models.Role `json:"role"`
}

// ProjectDetail adds the member list to a summary.
type ProjectDetail struct {
	ProjectSummary
	Members []models.ProjectMember `json:"members"`
}

// CreateProject creates a project owned by userID.
func (s *Service) CreateProject(ctx context.Context, userID, title, description string) (*models.Project, error) {
	const op = "app.Service.CreateProject"

	if err := requireUser(userID); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, tberrors.ValidationError{Field: "title", Reason: "must not be empty"}
	}

	project, err := s.db.CreateProject(ctx, userID, title, strings.TrimSpace(description))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.WithField("operation", op).WithFields(logrus.Fields{"project_id": project.ID, "owner_id": userID}).Info("project created")
	return project, nil
}

// ListProjects returns the projects userID owns or belongs to.
func (s *Service) ListProjects(ctx context.Context, userID string) ([]ProjectSummary, error) {
	const op = "app.Service.ListProjects"

	projects, err := s.db.ListUserProjects(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	memberships, err := s.db.UserMemberships(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	summaries := make([]ProjectSummary, 0, len(projects))
	for i := range projects {
		p := projects[i]
		summaries = append(summaries, ProjectSummary{
			Project: p,
			Role:    access.RoleOf(&p, userID, memberships[p.ID]),
		})
	}
	return summaries, nil
}

// GetProject returns a project with its members.
func (s *Service) GetProject(ctx context.Context, userID string, projectID int64) (*ProjectDetail, error) {
	project, role, err := s.projectRole(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	members, err := s.db.ListMembers(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("app.Service.GetProject: %w", err)
	}
	return &ProjectDetail{
		ProjectSummary: ProjectSummary{Project: *project, Role: role},
		Members:        members,
	}, nil
}

// UpdateProject changes a project's title and description. Owner only.
func (s *Service) UpdateProject(ctx context.Context, userID string, projectID int64, title, description string) (*models.Project, error) {
	const op = "app.Service.UpdateProject"

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, tberrors.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if err := s.requireProjectOwner(ctx, projectID, userID, "update this project"); err != nil {
		return nil, err
	}

	if err := s.db.UpdateProject(ctx, projectID, title, strings.TrimSpace(description)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.WithField("operation", op).WithField("project_id", projectID).Info("project updated")
	return s.db.GetProject(ctx, projectID)
}

// DeleteProject removes a project and all of its tasks. Owner only.
func (s *Service) DeleteProject(ctx context.Context, userID string, projectID int64) error {
	const op = "app.Service.DeleteProject"

	if err := s.requireProjectOwner(ctx, projectID, userID, "delete this project"); err != nil {
		return err
	}

	tasks, err := s.db.ListCandidateTasks(ctx, userID, db.TaskFilter{ProjectID: &projectID})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.db.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, t := range tasks {
		s.events.DeleteTask(t.ID)
	}

	s.log.WithField("operation", op).WithFields(logrus.Fields{"project_id": projectID, "tasks": len(tasks)}).Info("project deleted")
	return nil
}

// AddMember adds memberID to a project, or changes their role. Owner only.
func (s *Service) AddMember(ctx context.Context, userID string, projectID int64, memberID string, role models.Role) (*models.ProjectMember, error) {
	const op = "app.Service.AddMember"

	memberID = strings.TrimSpace(memberID)
	if memberID == "" {
		return nil, tberrors.ValidationError{Field: "user", Reason: "member id is required"}
	}
	if !models.IsValidRole(role) {
		return nil, tberrors.ValidationError{Field: "role", Reason: fmt.Sprintf("%q is not one of Owner, Editor, Viewer", role)}
	}
	if err := s.requireProjectOwner(ctx, projectID, userID, "manage project members"); err != nil {
		return nil, err
	}

	member, err := s.db.UpsertMember(ctx, projectID, memberID, role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.WithField("operation", op).WithFields(logrus.Fields{"project_id": projectID, "member": memberID, "role": role}).Info("member added")
	return member, nil
}

// RemoveMember removes memberID from a project. Owner only; the project
// owner cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, userID string, projectID int64, memberID string) error {
	const op = "app.Service.RemoveMember"

	project, role, err := s.projectRole(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !access.CanManageProject(role) {
		return tberrors.UnauthorizedError{UserID: userID, Action: "manage project members"}
	}
	if memberID == project.OwnerID {
		return tberrors.InvalidOperationError{Reason: "the project owner cannot be removed"}
	}

	if err := s.db.RemoveMember(ctx, projectID, memberID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.WithField("operation", op).WithFields(logrus.Fields{"project_id": projectID, "member": memberID}).Info("member removed")
	return nil
}

func (s *Service) requireProjectOwner(ctx context.Context, projectID int64, userID, action string) error {
	_, role, err := s.projectRole(ctx, projectID, userID)
	if err != nil {
		return err
	}
	if !access.CanManageProject(role) {
		return tberrors.UnauthorizedError{UserID: userID, Action: action}
	}
	return nil
}
