package models

import (
	"strconv"
	"strings"
	"time"
)

// Status is a task's Kanban column
type Status string

const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "InProgress"
	StatusDone       Status = "Done"
)

// Statuses lists the board columns in display order
var Statuses = []Status{StatusTodo, StatusInProgress, StatusDone}

// IsValidStatus reports whether s names one of the three columns
func IsValidStatus(s Status) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

// Role is a project membership level
type Role string

const (
	RoleNone   Role = ""
	RoleOwner  Role = "Owner"
	RoleEditor Role = "Editor"
	RoleViewer Role = "Viewer"
)

// IsValidRole reports whether r is a role that can be stored on a membership
func IsValidRole(r Role) bool {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	default:
		return false
	}
}

// Permission is a direct per-task grant
type Permission string

const (
	PermissionViewer Permission = "Viewer"
	PermissionEditor Permission = "Editor"
)

// IsValidPermission reports whether p is a recognised assignment permission
func IsValidPermission(p Permission) bool {
	return p == PermissionViewer || p == PermissionEditor
}

// Priority orders tasks from low to critical
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// Priorities lists every priority in ascending order
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

// String returns the lower-case name used by the CLI and TUI
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	}
	return "unknown"
}

// ParsePriority accepts a priority name or its number.
func ParsePriority(s string) (Priority, bool) {
	for _, p := range Priorities {
		if strings.EqualFold(s, p.String()) || s == strconv.Itoa(int(p)) {
			return p, true
		}
	}
	return 0, false
}

// Project represents a shared project
type Project struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectMember grants a user a role within a project
type ProjectMember struct {
	ID        int64     `json:"id"`
	ProjectID int64     `json:"project_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
}

// Assignment grants a user direct access to a task
type Assignment struct {
	ID           int64      `json:"id"`
	TaskID       int64      `json:"task_id"`
	UserID       string     `json:"user_id"`
	AssignedByID string     `json:"assigned_by_id"`
	Permission   Permission `json:"permission"`
	Note         string     `json:"note"`
	AssignedAt   time.Time  `json:"assigned_at"`
}

// Dependency means TaskID waits on DependsOnID
type Dependency struct {
	ID          int64     `json:"id"`
	TaskID      int64     `json:"task_id"`
	DependsOnID int64     `json:"depends_on_id"`
	CreatedAt   time.Time `json:"created_at"`
	DependsOn   *Task     `json:"depends_on,omitempty"` // populated when listing dependencies
}

// TimeEntry is a tracked span of work; EndTime is nil while the timer runs
type TimeEntry struct {
	ID        int64      `json:"id"`
	TaskID    int64      `json:"task_id"`
	UserID    string     `json:"user_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Notes     string     `json:"notes"`
	IsManual  bool       `json:"is_manual"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsOpen reports whether the entry is a running timer
func (e TimeEntry) IsOpen() bool {
	return e.EndTime == nil
}

// Duration returns the elapsed time of a closed entry, zero while open
func (e TimeEntry) Duration() time.Duration {
	if e.EndTime == nil {
		return 0
	}
	return e.EndTime.Sub(e.StartTime)
}

// Comment represents a comment on a task
type Comment struct {
	ID        int64     `json:"id"`
	TaskID    int64     `json:"task_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Task represents a single work item
type Task struct {
	ID          int64        `json:"id"`
	OwnerID     string       `json:"owner_id"`
	ProjectID   *int64       `json:"project_id,omitempty"`   // nil for personal tasks
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Priority    Priority     `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	Completed   bool         `json:"completed"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
	Status      Status       `json:"status"`
	Position    int          `json:"position"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	Assignments []Assignment `json:"assignments,omitempty"`  // populated when loading task details
}

// InProject reports whether the task belongs to the given project
func (t Task) InProject(projectID int64) bool {
	return t.ProjectID != nil && *t.ProjectID == projectID
}
