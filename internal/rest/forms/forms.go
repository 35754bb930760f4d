// Package forms parses and validates request bodies and path parameters.
package forms

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tgienger/teamboard/internal/app"
	tberrors "github.com/tgienger/teamboard/internal/errors"
	"github.com/tgienger/teamboard/internal/models"
)

// ParamID reads a positive integer path parameter.
func ParamID(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, tberrors.ValidationError{Field: name, Reason: fmt.Sprintf("%q is not a valid id", raw)}
	}
	return id, nil
}

// QueryID reads an optional positive integer query parameter.
func QueryID(c *gin.Context, name string) (*int64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, tberrors.ValidationError{Field: name, Reason: fmt.Sprintf("%q is not a valid id", raw)}
	}
	return &id, nil
}

// ParseTaskFilter reads the listing query: project_id, q, priority (name or
// number), completed, from and to (RFC 3339 creation time bounds), limit and
// offset.
func ParseTaskFilter(c *gin.Context) (app.TaskFilter, error) {
	var f app.TaskFilter
	var err error

	if f.ProjectID, err = QueryID(c, "project_id"); err != nil {
		return f, err
	}
	f.Query = strings.TrimSpace(c.Query("q"))

	if raw := c.Query("priority"); raw != "" {
		p, ok := models.ParsePriority(raw)
		if !ok {
			return f, tberrors.ValidationError{Field: "priority", Reason: fmt.Sprintf("%q is not a priority", raw)}
		}
		f.Priority = &p
	}
	if raw := c.Query("completed"); raw != "" {
		done, err := strconv.ParseBool(raw)
		if err != nil {
			return f, tberrors.ValidationError{Field: "completed", Reason: fmt.Sprintf("%q is not a boolean", raw)}
		}
		f.Completed = &done
	}
	if f.From, err = queryTime(c, "from"); err != nil {
		return f, err
	}
	if f.To, err = queryTime(c, "to"); err != nil {
		return f, err
	}
	if f.Limit, err = QueryInt(c, "limit", 0); err != nil {
		return f, err
	}
	if f.Offset, err = QueryInt(c, "offset", 0); err != nil {
		return f, err
	}
	return f, nil
}

// QueryInt reads an optional integer query parameter.
func QueryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, tberrors.ValidationError{Field: name, Reason: fmt.Sprintf("%q is not a number", raw)}
	}
	return n, nil
}

func queryTime(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, tberrors.ValidationError{Field: name, Reason: fmt.Sprintf("%q is not an RFC 3339 time or date", raw)}
}

func bind(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return tberrors.ValidationError{Reason: "invalid request structure"}
	}
	return nil
}

// StatusForm moves a task to another column.
type StatusForm struct {
	Status models.Status `json:"status"`
}

// ParseStatus reads a StatusForm.
func ParseStatus(c *gin.Context) (*StatusForm, error) {
	f := &StatusForm{}
	if err := bind(c, f); err != nil {
		return nil, err
	}
	if f.Status == "" {
		return nil, tberrors.ValidationError{Field: "status", Reason: "missed value"}
	}
	return f, nil
}

// PositionForm sets a task's column position.
type PositionForm struct {
	Position *int `json:"position"`
}

// ParsePosition reads a PositionForm.
func ParsePosition(c *gin.Context) (int, error) {
	f := &PositionForm{}
	if err := bind(c, f); err != nil {
		return 0, err
	}
	if f.Position == nil {
		return 0, tberrors.ValidationError{Field: "position", Reason: "missed value"}
	}
	return *f.Position, nil
}

// ManualTimeForm is a hand-entered span of work.
type ManualTimeForm struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     string    `json:"notes"`
}

// ParseManualTime reads a ManualTimeForm. Timestamps are RFC 3339.
func ParseManualTime(c *gin.Context) (*ManualTimeForm, error) {
	f := &ManualTimeForm{}
	if err := bind(c, f); err != nil {
		return nil, err
	}
	if f.StartTime.IsZero() {
		return nil, tberrors.ValidationError{Field: "start_time", Reason: "missed value"}
	}
	if f.EndTime.IsZero() {
		return nil, tberrors.ValidationError{Field: "end_time", Reason: "missed value"}
	}
	return f, nil
}

// TaskForm creates a task or patches one. Absent fields are left unchanged
// on update.
type TaskForm struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Priority     *models.Priority `json:"priority"`
	DueDate      *time.Time       `json:"due_date"`
	ClearDueDate bool             `json:"clear_due_date"`
	ProjectID    *int64           `json:"project_id"`
	Assignees    []string         `json:"assignees"`
}

// ParseTask reads a TaskForm. requireTitle is set for creation.
func ParseTask(c *gin.Context, requireTitle bool) (*TaskForm, error) {
	f := &TaskForm{}
	if err := bind(c, f); err != nil {
		return nil, err
	}
	if requireTitle && (f.Title == nil || strings.TrimSpace(*f.Title) == "") {
		return nil, tberrors.ValidationError{Field: "title", Reason: "missed value"}
	}
	return f, nil
}

// ProjectForm creates or renames a project.
type ProjectForm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ParseProject reads a ProjectForm.
func ParseProject(c *gin.Context) (*ProjectForm, error) {
	f := &ProjectForm{}
	if err := bind(c, f); err != nil {
		return nil, err
	}
	if strings.TrimSpace(f.Title) == "" {
		return nil, tberrors.ValidationError{Field: "title", Reason: "missed value"}
	}
	return f, nil
}

// MemberForm adds a user to a project.
type MemberForm struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
}

// ParseMember reads a MemberForm.
func ParseMember(c *gin.Context) (*MemberForm, error) {
	f := &MemberForm{}
	if err := bind(c, f); err != nil {
		return nil, err
	}
	if strings.TrimSpace(f.UserID) == "" {
		return nil, tberrors.ValidationError{Field: "user_id", Reason: "missed value"}
	}
	return f, nil
}

// AssignmentForm grants a user access to a task.
type AssignmentForm struct {
	UserID     string            `json:"user_id"`
	Permission models.Permission `json:"permission"`
	Note       string            `json:"note"`
}

// ParseAssignment reads an AssignmentForm.
func ParseAssignment(c *gin.Context) (*AssignmentForm, error) {
	f := &AssignmentForm{}
	if err := bind(c, f); err != nil {
		return nil, err
	}
	if strings.TrimSpace(f.UserID) == "" {
		return nil, tberrors.ValidationError{Field: "user_id", Reason: "missed value"}
	}
	return f, nil
}

// CommentForm posts a comment.
type CommentForm struct {
	Content string `json:"content"`
}

// ParseComment reads a CommentForm.
func ParseComment(c *gin.Context) (*CommentForm, error) {
	f := &CommentForm{}
	if err := bind(c, f); err != nil {
		return nil, err
	}
	if strings.TrimSpace(f.Content) == "" {
		return nil, tberrors.ValidationError{Field: "content", Reason: "missed value"}
	}
	return f, nil
}
