package output

import (
	"github.com/tgienger/teamboard/internal/app"
	"github.com/tgienger/teamboard/internal/models"
	"github.com/tgienger/teamboard/internal/workflow"
)

// structured renders every result as a document through marshal. JSON and
// YAML share it.
type structured struct {
	marshal func(v any) string
}

// boardDoc keeps the columns in board order rather than map order.
type boardDoc struct {
	Todo       []workflow.Card `json:"Todo"`
	InProgress []workflow.Card `json:"InProgress"`
	Done       []workflow.Card `json:"Done"`
}

type errorDoc struct {
	Error string `json:"error"`
}

type messageDoc struct {
	Message string `json:"message"`
}

func (f structured) FormatTask(t *app.TaskDetail) string {
	return f.marshal(t)
}

func (f structured) FormatTaskList(tasks []models.Task) string {
	if tasks == nil {
		tasks = []models.Task{}
	}
	return f.marshal(tasks)
}

func (f structured) FormatBoard(b workflow.Board) string {
	return f.marshal(boardDoc{
		Todo:       nonNil(b[models.StatusTodo]),
		InProgress: nonNil(b[models.StatusInProgress]),
		Done:       nonNil(b[models.StatusDone]),
	})
}

func (f structured) FormatProjects(projects []app.ProjectSummary) string {
	if projects == nil {
		projects = []app.ProjectSummary{}
	}
	return f.marshal(projects)
}

func (f structured) FormatProject(p *app.ProjectDetail) string {
	return f.marshal(p)
}

func (f structured) FormatDependencies(deps []models.Dependency) string {
	if deps == nil {
		deps = []models.Dependency{}
	}
	return f.marshal(deps)
}

func (f structured) FormatTimeEntry(e *models.TimeEntry) string {
	return f.marshal(e)
}

func (f structured) FormatTimeReport(r *app.TimeReport) string {
	return f.marshal(r)
}

func (f structured) FormatStats(s *app.Stats) string {
	return f.marshal(s)
}

func (f structured) FormatError(err error) string {
	return f.marshal(errorDoc{Error: err.Error()})
}

func (f structured) FormatMessage(msg string) string {
	return f.marshal(messageDoc{Message: msg})
}

func nonNil(cards []workflow.Card) []workflow.Card {
	if cards == nil {
		return []workflow.Card{}
	}
	return cards
}
