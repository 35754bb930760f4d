package views

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/teamboard/internal/app"
	tberrors "github.com/tgienger/teamboard/internal/errors"
	"github.com/tgienger/teamboard/internal/models"
	"github.com/tgienger/teamboard/internal/testutil"
)

func press(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send delivers msg and feeds the resulting command's message back, the way
// the runtime would for a single synchronous step.
func send(t *testing.T, v *BoardView, msg tea.Msg) {
	t.Helper()
	_, cmd := v.Update(msg)
	if cmd == nil {
		return
	}
	if next := cmd(); next != nil {
		if _, ok := next.(timerTickMsg); ok {
			return
		}
		v.Update(next)
	}
}

func newBoard(t *testing.T) (*BoardView, *app.Service) {
	t.Helper()
	svc := app.New(testutil.OpenDB(t), nil, testutil.Logger(), app.Options{})
	v := NewBoardView(svc, "alice", nil)
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return v, svc
}

func mustCreate(t *testing.T, svc *app.Service, title string) *models.Task {
	t.Helper()
	task, err := svc.CreateTask(context.Background(), "alice", app.NewTask{Title: title})
	if err != nil {
		t.Fatalf("CreateTask(%q): %v", title, err)
	}
	return task
}

func TestBoardMoveStatusAndTimer(t *testing.T) {
	v, svc := newBoard(t)
	ctx := context.Background()

	docs := mustCreate(t, svc, "Write docs")
	ship := mustCreate(t, svc, "Ship release")
	if err := svc.AddDependency(ctx, "alice", ship.ID, docs.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}

	send(t, v, v.Init()())
	if !v.loaded {
		t.Fatal("board not loaded")
	}
	if got := len(v.board[models.StatusTodo]); got != 2 {
		t.Fatalf("Todo column has %d cards, want 2", got)
	}
	if !strings.Contains(v.View(), "⛔") {
		t.Error("blocked task is not flagged on the board")
	}

	// docs is first in Todo; move it right and the cursor follows
	send(t, v, press("]"))
	if v.err != nil {
		t.Fatalf("move: %v", v.err)
	}
	if v.col != 1 {
		t.Errorf("cursor column = %d, want 1", v.col)
	}
	task, err := svc.GetTask(ctx, "alice", docs.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if task.Status != models.StatusInProgress {
		t.Errorf("status = %s, want InProgress", task.Status)
	}

	send(t, v, press("s"))
	if v.timer == nil || v.timer.TaskID != docs.ID {
		t.Fatalf("timer = %+v, want running on #%d", v.timer, docs.ID)
	}
	if !strings.Contains(v.notice, "Started timer") {
		t.Errorf("notice = %q", v.notice)
	}

	send(t, v, press("s"))
	if v.timer != nil {
		t.Errorf("timer still running after second toggle: %+v", v.timer)
	}

	send(t, v, press("]"))
	if v.col != 2 {
		t.Errorf("cursor column = %d, want 2", v.col)
	}
	todo := v.board[models.StatusTodo]
	if len(todo) != 1 || todo[0].ID != ship.ID || todo[0].Blocked {
		t.Errorf("Todo = %+v, want unblocked #%d", todo, ship.ID)
	}
}

func TestBoardDetailOfBlockedTask(t *testing.T) {
	svc := app.New(testutil.OpenDB(t), nil, testutil.Logger(), app.Options{LockBlockedTasks: true})
	v := NewBoardView(svc, "alice", nil)
	v.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	ctx := context.Background()

	docs := mustCreate(t, svc, "Write docs")
	ship := mustCreate(t, svc, "Ship release")
	if err := svc.AddDependency(ctx, "alice", ship.ID, docs.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	if _, err := svc.GetTask(ctx, "alice", ship.ID); !tberrors.Is(err, tberrors.KindBlocked) {
		t.Fatalf("GetTask = %v, want Blocked under the lock", err)
	}

	send(t, v, v.Init()())
	send(t, v, press("j"))
	send(t, v, tea.KeyMsg{Type: tea.KeyEnter})
	if v.err != nil {
		t.Fatalf("open detail: %v", v.err)
	}
	if !v.viewing || v.detail == nil || v.detail.ID != ship.ID {
		t.Fatalf("detail = %+v, want #%d open", v.detail, ship.ID)
	}
	if !v.detail.Blocked || len(v.detail.Blockers) != 1 || v.detail.Blockers[0].ID != docs.ID {
		t.Errorf("blockers = %+v, want #%d", v.detail.Blockers, docs.ID)
	}
	if !strings.Contains(v.View(), "Write docs") {
		t.Error("detail view does not list the blocking task")
	}
}

func TestBoardTimerOnBlockedTask(t *testing.T) {
	v, svc := newBoard(t)
	ctx := context.Background()

	docs := mustCreate(t, svc, "Write docs")
	ship := mustCreate(t, svc, "Ship release")
	if err := svc.AddDependency(ctx, "alice", ship.ID, docs.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	send(t, v, v.Init()())

	send(t, v, press("j"))
	if card, _ := v.selected(); card.ID != ship.ID {
		t.Fatalf("selected #%d, want #%d", card.ID, ship.ID)
	}
	send(t, v, press("s"))
	if !tberrors.Is(v.err, tberrors.KindBlocked) {
		t.Errorf("err = %v, want blocked", v.err)
	}
	if timer, _ := svc.ActiveTimer(ctx, "alice"); timer != nil {
		t.Errorf("timer started on blocked task: %+v", timer)
	}
}

func TestBoardReorder(t *testing.T) {
	v, svc := newBoard(t)

	first := mustCreate(t, svc, "First")
	second := mustCreate(t, svc, "Second")
	send(t, v, v.Init()())

	send(t, v, press("J"))
	if v.err != nil {
		t.Fatalf("reorder: %v", v.err)
	}
	todo := v.board[models.StatusTodo]
	if len(todo) != 2 || todo[0].ID != second.ID || todo[1].ID != first.ID {
		t.Fatalf("Todo order = %+v, want #%d then #%d", todo, second.ID, first.ID)
	}
	if v.rows[0] != 1 {
		t.Errorf("cursor row = %d, want 1", v.rows[0])
	}

	// the first column has nowhere further left to go
	if _, cmd := v.Update(press("[")); cmd != nil {
		t.Error("moving left from Todo produced a command")
	}
}

func TestBoardCreateTask(t *testing.T) {
	v, svc := newBoard(t)
	send(t, v, v.Init()())

	send(t, v, press("n"))
	if !v.editing || !v.editingNew {
		t.Fatal("new task form not open")
	}
	v.editTitle.SetValue("Plan sprint")
	v.editPriority.SetValue("critical")
	send(t, v, tea.KeyMsg{Type: tea.KeyCtrlS})

	if v.editing {
		t.Error("form still open after save")
	}
	tasks, _, err := svc.ListTasks(context.Background(), "alice", app.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Plan sprint" || tasks[0].Priority != models.PriorityCritical {
		t.Errorf("tasks = %+v", tasks)
	}
}
