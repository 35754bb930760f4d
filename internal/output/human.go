package output

import (
	"fmt"
	"strings"

	"github.com/tgienger/teamboard/internal/app"
	"github.com/tgienger/teamboard/internal/models"
	"github.com/tgienger/teamboard/internal/timetrack"
	"github.com/tgienger/teamboard/internal/workflow"
)

const timeLayout = "2006-01-02 15:04"

// HumanFormatter formats output for human-readable terminal display.
type HumanFormatter struct{}

// NewHumanFormatter creates a new HumanFormatter.
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// FormatTask formats a single task for display.
func (f *HumanFormatter) FormatTask(t *app.TaskDetail) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[#%d] %s\n", t.ID, t.Title)
	fmt.Fprintf(&sb, "  Status:   %s (position %d)\n", t.Status, t.Position)
	fmt.Fprintf(&sb, "  Priority: %s\n", t.Priority)
	fmt.Fprintf(&sb, "  Owner:    %s\n", t.OwnerID)
	if t.ProjectID != nil {
		fmt.Fprintf(&sb, "  Project:  #%d\n", *t.ProjectID)
	}
	if t.DueDate != nil {
		fmt.Fprintf(&sb, "  Due:      %s\n", t.DueDate.Local().Format(timeLayout))
	}
	if t.CompletedAt != nil {
		fmt.Fprintf(&sb, "  Done:     %s\n", t.CompletedAt.Local().Format(timeLayout))
	}
	if len(t.Blockers) > 0 {
		fmt.Fprintf(&sb, "  Blocked:  %s\n", taskRefs(t.Blockers))
	}
	for _, a := range t.Assignments {
		fmt.Fprintf(&sb, "  Assigned: %s (%s)\n", a.UserID, a.Permission)
	}
	if t.Description != "" {
		sb.WriteString("\n")
		sb.WriteString(t.Description)
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatTaskList formats a list of tasks for display.
func (f *HumanFormatter) FormatTaskList(tasks []models.Task) string {
	if len(tasks) == 0 {
		return "No tasks found.\n"
	}

	var sb strings.Builder
	for _, t := range tasks {
		sb.WriteString(f.formatTaskLine(t, false))
	}
	return sb.String()
}

// formatTaskLine formats a single task as a compact one-liner.
func (f *HumanFormatter) formatTaskLine(t models.Task, blocked bool) string {
	mark := ""
	if blocked {
		mark = " [blocked]"
	}
	return fmt.Sprintf("%s %s [#%d] %s%s\n", statusIcon(t.Status), priorityMark(t.Priority), t.ID, t.Title, mark)
}

// FormatBoard lists each column in board order.
func (f *HumanFormatter) FormatBoard(b workflow.Board) string {
	var sb strings.Builder
	for i, s := range models.Statuses {
		if i > 0 {
			sb.WriteString("\n")
		}
		column := b[s]
		fmt.Fprintf(&sb, "%s (%d)\n", s, len(column))
		for _, c := range column {
			sb.WriteString("  ")
			sb.WriteString(f.formatTaskLine(c.Task, c.Blocked))
		}
	}
	return sb.String()
}

// FormatProjects lists projects with the caller's role.
func (f *HumanFormatter) FormatProjects(projects []app.ProjectSummary) string {
	if len(projects) == 0 {
		return "No projects found.\n"
	}

	var sb strings.Builder
	for _, p := range projects {
		fmt.Fprintf(&sb, "[#%d] %s (%s)\n", p.ID, p.Title, p.Role)
	}
	return sb.String()
}

// FormatProject shows a project and its members.
func (f *HumanFormatter) FormatProject(p *app.ProjectDetail) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "[#%d] %s\n", p.ID, p.Title)
	fmt.Fprintf(&sb, "  Owner:    %s\n", p.OwnerID)
	fmt.Fprintf(&sb, "  Your role: %s\n", p.Role)
	if p.Description != "" {
		fmt.Fprintf(&sb, "  %s\n", p.Description)
	}
	sb.WriteString("\nMembers:\n")
	for _, m := range p.Members {
		fmt.Fprintf(&sb, "  %-20s %s\n", m.UserID, m.Role)
	}
	return sb.String()
}

// FormatDependencies lists prerequisites with their state.
func (f *HumanFormatter) FormatDependencies(deps []models.Dependency) string {
	if len(deps) == 0 {
		return "No dependencies.\n"
	}

	var sb strings.Builder
	for _, d := range deps {
		if d.DependsOn == nil {
			fmt.Fprintf(&sb, "  waits on #%d\n", d.DependsOnID)
			continue
		}
		fmt.Fprintf(&sb, "  waits on %s [#%d] %s\n", statusIcon(d.DependsOn.Status), d.DependsOnID, d.DependsOn.Title)
	}
	return sb.String()
}

// FormatTimeEntry shows one time entry.
func (f *HumanFormatter) FormatTimeEntry(e *models.TimeEntry) string {
	return f.formatEntryLine(*e)
}

func (f *HumanFormatter) formatEntryLine(e models.TimeEntry) string {
	kind := "timer"
	if e.IsManual {
		kind = "manual"
	}
	end := "running"
	if e.EndTime != nil {
		end = e.EndTime.Local().Format(timeLayout)
	}
	line := fmt.Sprintf("%s  %s -> %s  %s  %s (#%d)", timetrack.FormatDuration(e.Duration()),
		e.StartTime.Local().Format(timeLayout), end, kind, e.UserID, e.TaskID)
	if e.Notes != "" {
		line += "  " + e.Notes
	}
	return line + "\n"
}

// FormatTimeReport lists entries followed by the total.
func (f *HumanFormatter) FormatTimeReport(r *app.TimeReport) string {
	var sb strings.Builder
	for _, e := range r.Entries {
		sb.WriteString(f.formatEntryLine(e))
	}
	fmt.Fprintf(&sb, "Total: %s\n", r.Formatted)
	return sb.String()
}

// FormatStats prints the dashboard summary and a bar per day.
func (f *HumanFormatter) FormatStats(s *app.Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tasks:       %d (%d done, %d in progress, %d overdue)\n", s.Total, s.Completed, s.InProgress, s.Overdue)
	fmt.Fprintf(&sb, "Completion:  %.2f%%\n", s.CompletionRate)
	fmt.Fprintf(&sb, "Created:     %d today, %d this week, %d this month\n", s.CreatedToday, s.CreatedThisWeek, s.CreatedThisMonth)

	parts := make([]string, 0, len(models.Priorities))
	for _, p := range models.Priorities {
		parts = append(parts, fmt.Sprintf("%s %d", p, s.ByPriority[p.String()]))
	}
	fmt.Fprintf(&sb, "Priority:    %s\n", strings.Join(parts, ", "))

	if len(s.PerDay) > 0 {
		sb.WriteString("\nDay         created  done\n")
		for _, d := range s.PerDay {
			fmt.Fprintf(&sb, "%s  %7d  %4d  %s\n", d.Date, d.Created, d.Completed, strings.Repeat("#", d.Created))
		}
	}
	return sb.String()
}

// FormatError formats an error for display.
func (f *HumanFormatter) FormatError(err error) string {
	return fmt.Sprintf("Error: %s\n", err.Error())
}

// FormatMessage formats a simple message.
func (f *HumanFormatter) FormatMessage(msg string) string {
	return msg + "\n"
}

func statusIcon(s models.Status) string {
	switch s {
	case models.StatusTodo:
		return "[ ]"
	case models.StatusInProgress:
		return "[*]"
	case models.StatusDone:
		return "[X]"
	default:
		return "[?]"
	}
}

func priorityMark(p models.Priority) string {
	switch p {
	case models.PriorityCritical:
		return "P0"
	case models.PriorityHigh:
		return "P1"
	case models.PriorityMedium:
		return "P2"
	case models.PriorityLow:
		return "P3"
	default:
		return "P?"
	}
}

func taskRefs(tasks []models.Task) string {
	refs := make([]string, len(tasks))
	for i, t := range tasks {
		refs[i] = fmt.Sprintf("#%d", t.ID)
	}
	return strings.Join(refs, ", ")
}
