// Package output renders command results for the terminal.
package output

import (
	"fmt"

	"github.com/tgienger/teamboard/internal/app"
	"github.com/tgienger/teamboard/internal/models"
	"github.com/tgienger/teamboard/internal/workflow"
)

// Formatter defines the interface for output formatting.
type Formatter interface {
	FormatTask(t *app.TaskDetail) string
	FormatTaskList(tasks []models.Task) string
	FormatBoard(b workflow.Board) string
	FormatProjects(projects []app.ProjectSummary) string
	FormatProject(p *app.ProjectDetail) string
	FormatDependencies(deps []models.Dependency) string
	FormatTimeEntry(e *models.TimeEntry) string
	FormatTimeReport(r *app.TimeReport) string
	FormatStats(s *app.Stats) string
	FormatError(err error) string
	FormatMessage(msg string) string
}

// Output formats accepted by New.
const (
	FormatHuman = "human"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// New returns the formatter for name.
func New(name string) (Formatter, error) {
	switch name {
	case "", FormatHuman:
		return NewHumanFormatter(), nil
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want human, json or yaml)", name)
	}
}
