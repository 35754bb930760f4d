//nolint:testpackage // Tests require internal access for thorough testing
package app

import (
	"context"
	"sync"
	"testing"
	"time"

	tberrors "github.com/tgienger/teamboard/internal/errors"
	"github.com/tgienger/teamboard/internal/models"
	"github.com/tgienger/teamboard/internal/notify"
	"github.com/tgienger/teamboard/internal/testutil"
)

type recordingNotifier struct {
	mu        sync.Mutex
	completed []int64
	comments  []string
	assigned  []string
	synced    []int64
	deleted   []int64
}

func (r *recordingNotifier) TaskCompleted(_ context.Context, task models.Task, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, task.ID)
	return nil
}

func (r *recordingNotifier) CommentAdded(_ context.Context, _ models.Task, c models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments = append(r.comments, c.Content)
	return nil
}

func (r *recordingNotifier) AssignmentMade(_ context.Context, _ models.Task, a models.Assignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assigned = append(r.assigned, a.UserID)
	return nil
}

func (r *recordingNotifier) SyncTask(_ context.Context, task models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.synced = append(r.synced, task.ID)
	return nil
}

func (r *recordingNotifier) DeleteTask(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, id)
	return nil
}

type harness struct {
	svc    *Service
	events *notify.Dispatcher
	rec    *recordingNotifier
	clock  *testutil.Clock
}

func newHarness(t *testing.T, opts Options) harness {
	t.Helper()
	database := testutil.OpenDB(t)
	clock := testutil.NewClock()
	log := testutil.Logger()
	rec := &recordingNotifier{}
	events := notify.NewDispatcher(rec, rec, log, time.Second)
	opts.Now = clock.Now
	return harness{svc: New(database, events, log, opts), events: events, rec: rec, clock: clock}
}

func (h harness) task(t *testing.T, owner string, projectID *int64, title string) *models.Task {
	t.Helper()
	task, err := h.svc.CreateTask(context.Background(), owner, NewTask{Title: title, ProjectID: projectID})
	if err != nil {
		t.Fatalf("CreateTask(%q): %v", title, err)
	}
	return task
}

func assertKind(t *testing.T, err error, want tberrors.Kind) {
	t.Helper()
	if got := tberrors.KindOf(err); err == nil || got != want {
		t.Errorf("error = %v (kind %v), want kind %v", err, got, want)
	}
}

func TestProjectMembership(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	project, err := h.svc.CreateProject(ctx, "owner", "  Launch  ", "q3")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if project.Title != "Launch" {
		t.Errorf("title = %q, want trimmed", project.Title)
	}

	_, err = h.svc.CreateProject(ctx, "owner", " ", "")
	assertKind(t, err, tberrors.KindValidation)

	if _, err := h.svc.AddMember(ctx, "owner", project.ID, "ed", models.RoleEditor); err != nil {
		t.Fatalf("AddMember(ed): %v", err)
	}
	if _, err := h.svc.AddMember(ctx, "owner", project.ID, "vi", models.RoleViewer); err != nil {
		t.Fatalf("AddMember(vi): %v", err)
	}

	_, err = h.svc.AddMember(ctx, "owner", project.ID, "x", "Admin")
	assertKind(t, err, tberrors.KindValidation)
	_, err = h.svc.AddMember(ctx, "ed", project.ID, "x", models.RoleViewer)
	assertKind(t, err, tberrors.KindUnauthorized)
	_, err = h.svc.UpdateProject(ctx, "vi", project.ID, "Renamed", "")
	assertKind(t, err, tberrors.KindUnauthorized)
	_, err = h.svc.UpdateProject(ctx, "stranger", project.ID, "Renamed", "")
	assertKind(t, err, tberrors.KindNotFound)
	err = h.svc.RemoveMember(ctx, "owner", project.ID, "owner")
	assertKind(t, err, tberrors.KindInvalidOperation)

	detail, err := h.svc.GetProject(ctx, "vi", project.ID)
	if err != nil {
		t.Fatalf("GetProject: %v", err)
	}
	if detail.Role != models.RoleViewer || len(detail.Members) != 3 {
		t.Errorf("detail = role %s, %d members; want Viewer, 3", detail.Role, len(detail.Members))
	}

	// re-adding changes the role instead of duplicating
	if _, err := h.svc.AddMember(ctx, "owner", project.ID, "vi", models.RoleEditor); err != nil {
		t.Fatalf("AddMember again: %v", err)
	}
	summaries, err := h.svc.ListProjects(ctx, "vi")
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Role != models.RoleEditor {
		t.Errorf("ListProjects = %+v, want one project as Editor", summaries)
	}

	if err := h.svc.RemoveMember(ctx, "owner", project.ID, "vi"); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	_, err = h.svc.GetProject(ctx, "vi", project.ID)
	assertKind(t, err, tberrors.KindNotFound)

	if _, err := h.svc.UpdateProject(ctx, "owner", project.ID, "Renamed", "desc"); err != nil {
		t.Errorf("UpdateProject by owner: %v", err)
	}
	if err := h.svc.DeleteProject(ctx, "owner", project.ID); err != nil {
		t.Errorf("DeleteProject by owner: %v", err)
	}
}

func TestCreateTask(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	project, _ := h.svc.CreateProject(ctx, "owner", "P", "")
	_, _ = h.svc.AddMember(ctx, "owner", project.ID, "vi", models.RoleViewer)
	_, _ = h.svc.AddMember(ctx, "owner", project.ID, "ed", models.RoleEditor)

	past := h.clock.Now().Add(-time.Hour)
	future := h.clock.Now().Add(48 * time.Hour)

	tests := []struct {
		name string
		user string
		in   NewTask
		want tberrors.Kind
	}{
		{"empty title", "u1", NewTask{Title: "   "}, tberrors.KindValidation},
		{"past due date", "u1", NewTask{Title: "t", DueDate: &past}, tberrors.KindValidation},
		{"bad priority", "u1", NewTask{Title: "t", Priority: 7}, tberrors.KindValidation},
		{"negative priority", "u1", NewTask{Title: "t", Priority: -1}, tberrors.KindValidation},
		{"viewer in project", "vi", NewTask{Title: "t", ProjectID: &project.ID}, tberrors.KindUnauthorized},
		{"outsider in project", "u1", NewTask{Title: "t", ProjectID: &project.ID}, tberrors.KindNotFound},
		{"no caller", "", NewTask{Title: "t"}, tberrors.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.CreateTask(ctx, tt.user, tt.in)
			assertKind(t, err, tt.want)
		})
	}

	first, err := h.svc.CreateTask(ctx, "ed", NewTask{Title: "first", ProjectID: &project.ID, DueDate: &future, Assignees: []string{"helper", "ed"}})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	second := h.task(t, "owner", &project.ID, "second")
	urgent, err := h.svc.CreateTask(ctx, "u1", NewTask{Title: "urgent", Priority: models.PriorityCritical})
	if err != nil || urgent.Priority != models.PriorityCritical {
		t.Errorf("critical task = %+v, %v", urgent, err)
	}
	if first.Status != models.StatusTodo || first.Completed {
		t.Errorf("new task = %s completed=%v, want Todo", first.Status, first.Completed)
	}
	if second.Position != first.Position+1 {
		t.Errorf("positions = %d, %d; want consecutive", first.Position, second.Position)
	}
	if len(first.Assignments) != 1 || first.Assignments[0].Permission != models.PermissionEditor {
		t.Errorf("assignments = %+v, want one Editor grant", first.Assignments)
	}

	h.events.Wait()
	if len(h.rec.assigned) != 1 || h.rec.assigned[0] != "helper" {
		t.Errorf("assignment notices = %v", h.rec.assigned)
	}
}

func TestTaskAccess(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	project, _ := h.svc.CreateProject(ctx, "owner", "P", "")
	_, _ = h.svc.AddMember(ctx, "owner", project.ID, "vi", models.RoleViewer)
	task := h.task(t, "owner", &project.ID, "shared")
	personal := h.task(t, "owner", nil, "personal")
	if _, err := h.svc.Assign(ctx, "owner", personal.ID, "reader", models.PermissionViewer, ""); err != nil {
		t.Fatalf("Assign(reader): %v", err)
	}
	if _, err := h.svc.Assign(ctx, "owner", personal.ID, "writer", models.PermissionEditor, "pls review"); err != nil {
		t.Fatalf("Assign(writer): %v", err)
	}

	title := "renamed"
	tests := []struct {
		name     string
		user     string
		taskID   int64
		viewKind tberrors.Kind // zero means visible
		editKind tberrors.Kind // zero means editable
	}{
		{"owner", "owner", task.ID, 0, 0},
		{"project viewer", "vi", task.ID, 0, tberrors.KindUnauthorized},
		{"stranger", "nobody", task.ID, tberrors.KindNotFound, tberrors.KindNotFound},
		{"viewer assignee", "reader", personal.ID, 0, tberrors.KindUnauthorized},
		{"editor assignee", "writer", personal.ID, 0, 0},
		{"assignee of another task", "reader", task.ID, tberrors.KindNotFound, tberrors.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.GetTask(ctx, tt.user, tt.taskID)
			if tt.viewKind == 0 && err != nil {
				t.Errorf("GetTask: %v", err)
			} else if tt.viewKind != 0 {
				assertKind(t, err, tt.viewKind)
			}

			_, err = h.svc.UpdateTask(ctx, tt.user, tt.taskID, TaskPatch{Title: &title})
			if tt.editKind == 0 && err != nil {
				t.Errorf("UpdateTask: %v", err)
			} else if tt.editKind != 0 {
				assertKind(t, err, tt.editKind)
			}
		})
	}

	_, err := h.svc.Assign(ctx, "owner", personal.ID, "owner", models.PermissionEditor, "")
	assertKind(t, err, tberrors.KindInvalidOperation)
	_, err = h.svc.Assign(ctx, "owner", personal.ID, "x", "Admin", "")
	assertKind(t, err, tberrors.KindValidation)

	// assignees can drop themselves, but not others
	err = h.svc.Unassign(ctx, "reader", personal.ID, "writer")
	assertKind(t, err, tberrors.KindUnauthorized)
	if err := h.svc.Unassign(ctx, "reader", personal.ID, "reader"); err != nil {
		t.Fatalf("self Unassign: %v", err)
	}
	_, err = h.svc.GetTask(ctx, "reader", personal.ID)
	assertKind(t, err, tberrors.KindNotFound)
}

func TestGetTaskLocking(t *testing.T) {
	tests := []struct {
		name string
		lock bool
	}{
		{"locked", true},
		{"unlocked", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{LockBlockedTasks: tt.lock})
			ctx := context.Background()
			a := h.task(t, "u1", nil, "A")
			b := h.task(t, "u1", nil, "B")
			if err := h.svc.AddDependency(ctx, "u1", a.ID, b.ID); err != nil {
				t.Fatalf("AddDependency: %v", err)
			}

			detail, err := h.svc.GetTask(ctx, "u1", a.ID)
			if tt.lock {
				assertKind(t, err, tberrors.KindBlocked)
				return
			}
			if err != nil {
				t.Fatalf("GetTask: %v", err)
			}
			if !detail.Blocked || len(detail.Blockers) != 1 || detail.Blockers[0].ID != b.ID {
				t.Errorf("detail = blocked %v, blockers %v", detail.Blocked, detail.Blockers)
			}

			if _, err := h.svc.UpdateStatus(ctx, "u1", b.ID, models.StatusDone); err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
			detail, err = h.svc.GetTask(ctx, "u1", a.ID)
			if err != nil || detail.Blocked {
				t.Errorf("after completing prerequisite: %+v, %v", detail, err)
			}
		})
	}
}

func TestUpdateStatusNotifiesOnce(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	task := h.task(t, "u1", nil, "A")

	for _, s := range []models.Status{models.StatusInProgress, models.StatusDone, models.StatusDone} {
		if _, err := h.svc.UpdateStatus(ctx, "u1", task.ID, s); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", s, err)
		}
	}
	_, err := h.svc.UpdateStatus(ctx, "u1", task.ID, "Later")
	assertKind(t, err, tberrors.KindValidation)
	_, err = h.svc.UpdatePosition(ctx, "u1", task.ID, -1)
	assertKind(t, err, tberrors.KindValidation)

	h.events.Wait()
	if len(h.rec.completed) != 1 {
		t.Errorf("completion notices = %d, want 1", len(h.rec.completed))
	}
}

// Moving a card only needs view access; content edits still need Editor.
func TestViewerMovesCards(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	project, _ := h.svc.CreateProject(ctx, "owner", "P", "")
	_, _ = h.svc.AddMember(ctx, "owner", project.ID, "vi", models.RoleViewer)
	task := h.task(t, "owner", &project.ID, "shared")

	done, err := h.svc.UpdateStatus(ctx, "vi", task.ID, models.StatusDone)
	if err != nil {
		t.Fatalf("UpdateStatus by viewer: %v", err)
	}
	if !done.Completed {
		t.Errorf("task not completed after viewer moved it to Done")
	}
	moved, err := h.svc.UpdatePosition(ctx, "vi", task.ID, 7)
	if err != nil {
		t.Fatalf("UpdatePosition by viewer: %v", err)
	}
	if moved.Position != 7 {
		t.Errorf("position = %d, want 7", moved.Position)
	}

	title := "renamed"
	_, err = h.svc.UpdateTask(ctx, "vi", task.ID, TaskPatch{Title: &title})
	assertKind(t, err, tberrors.KindUnauthorized)
	_, err = h.svc.UpdateStatus(ctx, "nobody", task.ID, models.StatusTodo)
	assertKind(t, err, tberrors.KindNotFound)

	h.events.Wait()
	if len(h.rec.completed) != 1 || h.rec.completed[0] != task.ID {
		t.Errorf("completion notices = %v, want [%d]", h.rec.completed, task.ID)
	}
}

func TestDependencyGating(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	project, _ := h.svc.CreateProject(ctx, "owner", "P", "")
	_, _ = h.svc.AddMember(ctx, "owner", project.ID, "vi", models.RoleViewer)
	a := h.task(t, "owner", &project.ID, "A")
	b := h.task(t, "owner", &project.ID, "B")
	secret := h.task(t, "other", nil, "secret")

	assertKind(t, h.svc.AddDependency(ctx, "owner", a.ID, a.ID), tberrors.KindValidation)
	assertKind(t, h.svc.AddDependency(ctx, "vi", a.ID, b.ID), tberrors.KindUnauthorized)
	assertKind(t, h.svc.AddDependency(ctx, "owner", a.ID, secret.ID), tberrors.KindNotFound)
	assertKind(t, h.svc.AddDependency(ctx, "nobody", a.ID, b.ID), tberrors.KindNotFound)

	if err := h.svc.AddDependency(ctx, "owner", a.ID, b.ID); err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	assertKind(t, h.svc.AddDependency(ctx, "owner", b.ID, a.ID), tberrors.KindConflict)

	deps, err := h.svc.GetDependencies(ctx, "vi", a.ID)
	if err != nil || len(deps) != 1 {
		t.Errorf("GetDependencies = %v, %v", deps, err)
	}
	blocked, err := h.svc.IsBlocked(ctx, "vi", a.ID)
	if err != nil || !blocked {
		t.Errorf("IsBlocked = %v, %v; want true", blocked, err)
	}
	_, err = h.svc.GetBlockers(ctx, "nobody", a.ID)
	assertKind(t, err, tberrors.KindNotFound)

	if err := h.svc.RemoveDependency(ctx, "owner", a.ID, b.ID); err != nil {
		t.Fatalf("RemoveDependency: %v", err)
	}
	if blocked, _ := h.svc.IsBlocked(ctx, "owner", a.ID); blocked {
		t.Error("task still blocked after removing its only dependency")
	}
}

func TestTimeReport(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	task := h.task(t, "u1", nil, "A")

	if _, err := h.svc.StartTimer(ctx, "stranger", task.ID); !tberrors.Is(err, tberrors.KindNotFound) {
		t.Errorf("StartTimer by stranger = %v, want NotFound", err)
	}
	if _, err := h.svc.StartTimer(ctx, "u1", task.ID); err != nil {
		t.Fatalf("StartTimer: %v", err)
	}
	h.clock.Advance(time.Hour + 2*time.Minute + 3*time.Second)
	if _, err := h.svc.StopTimer(ctx, "u1", task.ID); err != nil {
		t.Fatalf("StopTimer: %v", err)
	}
	start := h.clock.Now()
	if _, err := h.svc.LogManual(ctx, "u1", task.ID, start, start.Add(time.Hour), "review"); err != nil {
		t.Fatalf("LogManual: %v", err)
	}

	report, err := h.svc.TimeReport(ctx, "u1", task.ID)
	if err != nil {
		t.Fatalf("TimeReport: %v", err)
	}
	if len(report.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(report.Entries))
	}
	if report.Formatted != "02:02:03" {
		t.Errorf("total = %s, want 02:02:03", report.Formatted)
	}
}

func TestCommentsAndDelete(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	task := h.task(t, "u1", nil, "A")

	_, err := h.svc.AddComment(ctx, "u1", task.ID, "  ")
	assertKind(t, err, tberrors.KindValidation)
	_, err = h.svc.AddComment(ctx, "stranger", task.ID, "hi")
	assertKind(t, err, tberrors.KindNotFound)

	if _, err := h.svc.AddComment(ctx, "u1", task.ID, "first"); err != nil {
		t.Fatalf("AddComment: %v", err)
	}
	comments, err := h.svc.ListComments(ctx, "u1", task.ID)
	if err != nil || len(comments) != 1 || comments[0].Content != "first" {
		t.Errorf("ListComments = %+v, %v", comments, err)
	}

	assertKind(t, h.svc.DeleteTask(ctx, "stranger", task.ID), tberrors.KindNotFound)
	if err := h.svc.DeleteTask(ctx, "u1", task.ID); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	_, err = h.svc.GetTask(ctx, "u1", task.ID)
	assertKind(t, err, tberrors.KindNotFound)

	h.events.Wait()
	if len(h.rec.comments) != 1 || len(h.rec.deleted) == 0 {
		t.Errorf("events: comments %v, deleted %v", h.rec.comments, h.rec.deleted)
	}
}
