// Package ui is the terminal Kanban board.
package ui

import (
	"context"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/teamboard/internal/app"
	"github.com/tgienger/teamboard/internal/models"
	"github.com/tgienger/teamboard/internal/ui/views"
)

// Settings persists UI state between sessions
type Settings interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// lastBoardAll marks the cross-project board in the saved setting
const lastBoardAll = "all"

// Currently active view
type View int

const (
	ViewProjects View = iota
	ViewBoard
)

type App struct {
	svc         *app.Service
	settings    Settings
	user        string
	currentView View
	projectList *views.ProjectListView
	board       *views.BoardView
	width       int
	height      int
}

// NewApp creates the application for user
func NewApp(svc *app.Service, settings Settings, user string) *App {
	return &App{
		svc:         svc,
		settings:    settings,
		user:        user,
		currentView: ViewProjects,
		projectList: views.NewProjectListView(svc, user),
	}
}

// LastBoardKey is the setting that remembers user's last board: a project
// id, "all" for the cross-project board, or empty for the picker
func LastBoardKey(user string) string {
	return "last_board:" + user
}

func (a *App) settingKey() string {
	return LastBoardKey(a.user)
}

func (a *App) Init() tea.Cmd {
	ctx := context.Background()

	// Reopen the last board this user looked at
	last, err := a.settings.GetSetting(ctx, a.settingKey())
	if err == nil && last != "" {
		if last == lastBoardAll {
			return a.openBoard(nil)
		}
		if id, err := strconv.ParseInt(last, 10, 64); err == nil {
			if detail, err := a.svc.GetProject(ctx, a.user, id); err == nil {
				return a.openBoard(&detail.Project)
			}
		}
	}

	return a.projectList.Init()
}

func (a *App) openBoard(project *models.Project) tea.Cmd {
	a.currentView = ViewBoard
	a.board = views.NewBoardView(a.svc, a.user, project)

	last := lastBoardAll
	if project != nil {
		last = strconv.FormatInt(project.ID, 10)
	}
	_ = a.settings.SetSetting(context.Background(), a.settingKey(), last)

	return tea.Batch(
		a.board.Init(),
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// the project list persists, so keep its size current
		a.projectList.Update(msg)

	case views.SelectedProject:
		return a, a.openBoard(msg.Project)

	case views.BackToProjects:
		a.currentView = ViewProjects
		_ = a.settings.SetSetting(context.Background(), a.settingKey(), "")
		return a, tea.Batch(
			a.projectList.Init(),
			func() tea.Msg {
				return tea.WindowSizeMsg{Width: a.width, Height: a.height}
			},
		)
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	case ViewBoard:
		_, cmd = a.board.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	if a.currentView == ViewBoard && a.board != nil {
		return a.board.View()
	}
	return a.projectList.View()
}
