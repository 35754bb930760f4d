//nolint:testpackage // Tests require internal access for thorough testing
package access

import (
	"testing"

	"github.com/tgienger/teamboard/internal/models"
)

func projectTask(id, projectID int64, owner string) *models.Task {
	return &models.Task{ID: id, OwnerID: owner, ProjectID: &projectID, Status: models.StatusTodo}
}

func TestCanView(t *testing.T) {
	project := &models.Project{ID: 10, OwnerID: "alice"}
	task := projectTask(1, 10, "bob")

	tests := []struct {
		name   string
		user   string
		grants Grants
		want   bool
	}{
		{"task owner", "bob", Grants{}, true},
		{"project owner without membership row", "alice", Grants{Project: project}, true},
		{"viewer member", "carol", Grants{Project: project, Membership: &models.ProjectMember{ProjectID: 10, UserID: "carol", Role: models.RoleViewer}}, true},
		{"editor member", "dave", Grants{Membership: &models.ProjectMember{ProjectID: 10, UserID: "dave", Role: models.RoleEditor}}, true},
		{"direct assignee", "erin", Grants{Assignment: &models.Assignment{TaskID: 1, UserID: "erin", Permission: models.PermissionViewer}}, true},
		{"unrelated user", "mallory", Grants{Project: project}, false},
		{"membership in another project", "carol", Grants{Membership: &models.ProjectMember{ProjectID: 99, UserID: "carol", Role: models.RoleOwner}}, false},
		{"assignment on another task", "erin", Grants{Assignment: &models.Assignment{TaskID: 2, UserID: "erin", Permission: models.PermissionEditor}}, false},
		{"empty user", "", Grants{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanView(task, tt.user, tt.grants); got != tt.want {
				t.Errorf("CanView(%q) = %v, want %v", tt.user, got, tt.want)
			}
		})
	}
}

func TestCanViewPersonalTask(t *testing.T) {
	task := &models.Task{ID: 3, OwnerID: "bob"}
	member := &models.ProjectMember{ProjectID: 10, UserID: "carol", Role: models.RoleOwner}

	if CanView(task, "carol", Grants{Membership: member}) {
		t.Error("project membership should not expose a task outside the project")
	}
	if !CanView(task, "bob", Grants{}) {
		t.Error("owner should see personal task")
	}
}

func TestCanEdit(t *testing.T) {
	task := projectTask(1, 10, "bob")

	tests := []struct {
		name   string
		user   string
		grants Grants
		want   bool
	}{
		{"task owner", "bob", Grants{}, true},
		{"editor member", "dave", Grants{Membership: &models.ProjectMember{ProjectID: 10, UserID: "dave", Role: models.RoleEditor}}, true},
		{"viewer member", "carol", Grants{Membership: &models.ProjectMember{ProjectID: 10, UserID: "carol", Role: models.RoleViewer}}, false},
		{"editor assignee", "erin", Grants{Assignment: &models.Assignment{TaskID: 1, UserID: "erin", Permission: models.PermissionEditor}}, true},
		{"viewer assignee", "erin", Grants{Assignment: &models.Assignment{TaskID: 1, UserID: "erin", Permission: models.PermissionViewer}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanEdit(task, tt.user, tt.grants); got != tt.want {
				t.Errorf("CanEdit(%q) = %v, want %v", tt.user, got, tt.want)
			}
		})
	}
}

func TestRoleOf(t *testing.T) {
	project := &models.Project{ID: 10, OwnerID: "alice"}

	tests := []struct {
		name       string
		user       string
		membership *models.ProjectMember
		want       models.Role
	}{
		{"owner id match", "alice", nil, models.RoleOwner},
		{"owner id wins over membership", "alice", &models.ProjectMember{ProjectID: 10, UserID: "alice", Role: models.RoleViewer}, models.RoleOwner},
		{"editor row", "dave", &models.ProjectMember{ProjectID: 10, UserID: "dave", Role: models.RoleEditor}, models.RoleEditor},
		{"viewer row", "carol", &models.ProjectMember{ProjectID: 10, UserID: "carol", Role: models.RoleViewer}, models.RoleViewer},
		{"no row", "mallory", nil, models.RoleNone},
		{"row for someone else", "mallory", &models.ProjectMember{ProjectID: 10, UserID: "dave", Role: models.RoleEditor}, models.RoleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoleOf(project, tt.user, tt.membership); got != tt.want {
				t.Errorf("RoleOf(%q) = %q, want %q", tt.user, got, tt.want)
			}
		})
	}
}

func TestProjectPolicy(t *testing.T) {
	if !CanManageProject(models.RoleOwner) || CanManageProject(models.RoleEditor) {
		t.Error("only owners manage projects")
	}
	if !CanContribute(models.RoleEditor) || CanContribute(models.RoleViewer) || CanContribute(models.RoleNone) {
		t.Error("owners and editors contribute, viewers do not")
	}
}
