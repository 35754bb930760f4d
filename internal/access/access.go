// Package access decides what a user may do with a task or project.
//
// Everything here is a pure function over rows the caller has already
// loaded. Absence of access is reported as a zero Capabilities value, never
// as an error, so callers can answer "not found" instead of "forbidden".
package access

import "github.com/tgienger/teamboard/internal/models"

// Grants are the rows that can give a user access to a task.
// Membership and Assignment are nil when no such row exists.
type Grants struct {
	Project    *models.Project
	Membership *models.ProjectMember
	Assignment *models.Assignment
}

// Capabilities is the resolved access of one user to one task.
type Capabilities struct {
	View       bool
	Edit       bool
	Owner      bool
	Role       models.Role
	Permission models.Permission
}

// Resolve computes userID's capabilities on task.
func Resolve(task *models.Task, userID string, g Grants) Capabilities {
	if task == nil || userID == "" {
		return Capabilities{}
	}

	var c Capabilities
	if task.OwnerID == userID {
		c.Owner = true
		c.View = true
		c.Edit = true
	}

	if task.ProjectID != nil {
		membership := g.Membership
		if membership != nil && membership.ProjectID != *task.ProjectID {
			membership = nil
		}
		project := g.Project
		if project != nil && project.ID != *task.ProjectID {
			project = nil
		}
		c.Role = RoleOf(project, userID, membership)
		if c.Role != models.RoleNone {
			c.View = true
		}
		if c.Role == models.RoleOwner || c.Role == models.RoleEditor {
			c.Edit = true
		}
	}

	if a := g.Assignment; a != nil && a.TaskID == task.ID && a.UserID == userID {
		c.Permission = a.Permission
		c.View = true
		if a.Permission == models.PermissionEditor {
			c.Edit = true
		}
	}

	return c
}

// CanView reports whether userID may see task.
func CanView(task *models.Task, userID string, g Grants) bool {
	return Resolve(task, userID, g).View
}

// CanEdit reports whether userID may change task's content.
func CanEdit(task *models.Task, userID string, g Grants) bool {
	return Resolve(task, userID, g).Edit
}

// RoleOf returns userID's role in project. The project owner is always Owner,
// even without a membership row.
func RoleOf(project *models.Project, userID string, membership *models.ProjectMember) models.Role {
	if userID == "" {
		return models.RoleNone
	}
	if project != nil && project.OwnerID == userID {
		return models.RoleOwner
	}
	if membership != nil && membership.UserID == userID {
		if project != nil && membership.ProjectID != project.ID {
			return models.RoleNone
		}
		return membership.Role
	}
	return models.RoleNone
}

// CanManageProject reports whether role allows editing or deleting the
// project and changing its members.
func CanManageProject(role models.Role) bool {
	return role == models.RoleOwner
}

// CanContribute reports whether role allows creating and editing tasks in the project.
func CanContribute(role models.Role) bool {
	return role == models.RoleOwner || role == models.RoleEditor
}
