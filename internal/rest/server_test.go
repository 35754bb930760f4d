package rest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tgienger/teamboard/internal/app"
	tberrors "github.com/tgienger/teamboard/internal/errors"
	"github.com/tgienger/teamboard/internal/rest/response"
	"github.com/tgienger/teamboard/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type client struct {
	t       *testing.T
	handler http.Handler
}

func newClient(t *testing.T, opts app.Options) *client {
	t.Helper()
	database := testutil.OpenDB(t)
	log := testutil.Logger()
	svc := app.New(database, nil, log, opts)
	return &client{t: t, handler: NewServer(svc, log, Options{}).Handler()}
}

func (c *client) do(user, method, path string, body any) *httptest.ResponseRecorder {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	return w
}

func (c *client) create(user, path string, body any) map[string]any {
	c.t.Helper()
	w := c.do(user, http.MethodPost, path, body)
	if w.Code != http.StatusCreated {
		c.t.Fatalf("POST %s = %d: %s", path, w.Code, w.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		c.t.Fatalf("decode: %v", err)
	}
	return out
}

func idOf(t *testing.T, doc map[string]any) int64 {
	t.Helper()
	id, ok := doc["id"].(float64)
	if !ok {
		t.Fatalf("document has no id: %v", doc)
	}
	return int64(id)
}

func path(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind tberrors.Kind
		want int
	}{
		{tberrors.KindNotFound, http.StatusNotFound},
		{tberrors.KindValidation, http.StatusBadRequest},
		{tberrors.KindConflict, http.StatusConflict},
		{tberrors.KindBlocked, http.StatusConflict},
		{tberrors.KindInvalidOperation, http.StatusBadRequest},
		{tberrors.KindUnauthorized, http.StatusForbidden},
		{tberrors.KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := response.StatusFor(tt.kind); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestMissingIdentity(t *testing.T) {
	c := newClient(t, app.Options{})

	w := c.do("", http.MethodGet, "/api/board", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID response header")
	}

	if w := c.do("", http.MethodGet, "/healthz", nil); w.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", w.Code)
	}
}

func TestKanbanFlow(t *testing.T) {
	c := newClient(t, app.Options{})

	a := idOf(t, c.create("u1", "/api/tasks", map[string]any{"title": "A"}))
	b := idOf(t, c.create("u1", "/api/tasks", map[string]any{"title": "B"}))

	if w := c.do("u1", http.MethodPost, path("/api/tasks/%d/dependencies/%d", a, b), nil); w.Code != http.StatusCreated {
		t.Fatalf("add dependency = %d: %s", w.Code, w.Body.String())
	}
	if w := c.do("u1", http.MethodPost, path("/api/tasks/%d/dependencies/%d", b, a), nil); w.Code != http.StatusConflict {
		t.Errorf("reverse dependency = %d, want 409", w.Code)
	}
	if w := c.do("u1", http.MethodPost, path("/api/tasks/%d/dependencies/%d", a, a), nil); w.Code != http.StatusBadRequest {
		t.Errorf("self dependency = %d, want 400", w.Code)
	}

	w := c.do("u1", http.MethodPost, path("/api/tasks/%d/time/start", a), nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("start on blocked task = %d, want 409", w.Code)
	}
	var blocked response.Error
	_ = json.Unmarshal(w.Body.Bytes(), &blocked)
	if blocked.Kind != "blocked" || len(blocked.BlockedBy) != 1 || blocked.BlockedBy[0] != b {
		t.Errorf("blocked body = %+v", blocked)
	}

	w = c.do("u1", http.MethodGet, path("/api/tasks/%d/dependencies/blockers", a), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("blockers = %d", w.Code)
	}

	if w := c.do("u1", http.MethodPut, path("/api/kanban/%d/status", b), map[string]any{"status": "Done"}); w.Code != http.StatusOK {
		t.Fatalf("status Done = %d: %s", w.Code, w.Body.String())
	}
	if w := c.do("u1", http.MethodPut, path("/api/kanban/%d/status", b), map[string]any{"status": "Archived"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad status = %d, want 400", w.Code)
	}
	if w := c.do("u1", http.MethodPut, path("/api/kanban/%d/position", a), map[string]any{"position": 4}); w.Code != http.StatusOK {
		t.Errorf("position = %d", w.Code)
	}
	if w := c.do("u1", http.MethodPut, path("/api/kanban/%d/position", a), map[string]any{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing position = %d, want 400", w.Code)
	}

	if w := c.do("u1", http.MethodPost, path("/api/tasks/%d/time/start", a), nil); w.Code != http.StatusCreated {
		t.Fatalf("start = %d: %s", w.Code, w.Body.String())
	}
	if w := c.do("u1", http.MethodPost, path("/api/tasks/%d/time/start", b), nil); w.Code != http.StatusConflict {
		t.Errorf("second start = %d, want 409", w.Code)
	}
	if w := c.do("u1", http.MethodPost, path("/api/tasks/%d/time/stop", b), nil); w.Code != http.StatusBadRequest {
		t.Errorf("stop without timer = %d, want 400", w.Code)
	}
	if w := c.do("u1", http.MethodPost, path("/api/tasks/%d/time/stop", a), nil); w.Code != http.StatusOK {
		t.Errorf("stop = %d", w.Code)
	}

	start := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	manual := map[string]any{"start_time": start, "end_time": start.Add(45 * time.Minute), "notes": "pairing"}
	if w := c.do("u1", http.MethodPost, path("/api/tasks/%d/time/manual", a), manual); w.Code != http.StatusCreated {
		t.Fatalf("manual = %d: %s", w.Code, w.Body.String())
	}
	backwards := map[string]any{"start_time": start, "end_time": start.Add(-time.Minute)}
	if w := c.do("u1", http.MethodPost, path("/api/tasks/%d/time/manual", a), backwards); w.Code != http.StatusBadRequest {
		t.Errorf("backwards manual = %d, want 400", w.Code)
	}

	w = c.do("u1", http.MethodGet, path("/api/tasks/%d/time", a), nil)
	var report struct {
		Entries []map[string]any `json:"entries"`
		Total   string           `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Entries) != 2 || len(report.Total) != len("00:45:00") {
		t.Errorf("report = %+v", report)
	}

	w = c.do("u1", http.MethodGet, "/api/board", nil)
	var board map[string][]map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &board); err != nil {
		t.Fatalf("decode board: %v", err)
	}
	if len(board["Todo"]) != 1 || len(board["Done"]) != 1 || board["InProgress"] == nil {
		t.Errorf("board = %v", board)
	}
	if board["Todo"][0]["blocked"] != false {
		t.Errorf("task A should be unblocked after B is done: %v", board["Todo"][0])
	}
}

func TestVisibilityOverHTTP(t *testing.T) {
	c := newClient(t, app.Options{})

	project := idOf(t, c.create("owner", "/api/projects", map[string]any{"title": "P"}))
	task := idOf(t, c.create("owner", "/api/tasks", map[string]any{"title": "T", "project_id": project}))
	c.create("owner", path("/api/projects/%d/members", project), map[string]any{"user_id": "vi", "role": "Viewer"})

	tests := []struct {
		name   string
		user   string
		method string
		path   string
		body   any
		want   int
	}{
		{"stranger reads task", "x", http.MethodGet, path("/api/tasks/%d", task), nil, http.StatusNotFound},
		{"viewer reads task", "vi", http.MethodGet, path("/api/tasks/%d", task), nil, http.StatusOK},
		{"viewer edits task", "vi", http.MethodPatch, path("/api/tasks/%d", task), map[string]any{"title": "new"}, http.StatusForbidden},
		{"viewer moves task", "vi", http.MethodPut, path("/api/kanban/%d/status", task), map[string]any{"status": "InProgress"}, http.StatusOK},
		{"viewer renames project", "vi", http.MethodPut, path("/api/projects/%d", project), map[string]any{"title": "Q"}, http.StatusForbidden},
		{"owner removes self", "owner", http.MethodDelete, path("/api/projects/%d/members/owner", project), nil, http.StatusBadRequest},
		{"stranger reads project", "x", http.MethodGet, path("/api/projects/%d", project), nil, http.StatusNotFound},
		{"bad task id", "owner", http.MethodGet, "/api/tasks/abc", nil, http.StatusBadRequest},
		{"empty comment", "vi", http.MethodPost, path("/api/tasks/%d/comments", task), map[string]any{"content": " "}, http.StatusBadRequest},
		{"viewer comments", "vi", http.MethodPost, path("/api/tasks/%d/comments", task), map[string]any{"content": "lgtm"}, http.StatusCreated},
		{"owner assigns", "owner", http.MethodPost, path("/api/tasks/%d/assignments", task), map[string]any{"user_id": "ed", "permission": "Editor"}, http.StatusCreated},
		{"assignee edits", "ed", http.MethodPatch, path("/api/tasks/%d", task), map[string]any{"title": "renamed"}, http.StatusOK},
		{"stranger deletes", "x", http.MethodDelete, path("/api/tasks/%d", task), nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := c.do(tt.user, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("%s %s = %d, want %d: %s", tt.method, tt.path, w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestLockedTaskReturnsConflict(t *testing.T) {
	c := newClient(t, app.Options{LockBlockedTasks: true})

	a := idOf(t, c.create("u1", "/api/tasks", map[string]any{"title": "A"}))
	b := idOf(t, c.create("u1", "/api/tasks", map[string]any{"title": "B"}))
	c.do("u1", http.MethodPost, path("/api/tasks/%d/dependencies/%d", a, b), nil)

	if w := c.do("u1", http.MethodGet, path("/api/tasks/%d", a), nil); w.Code != http.StatusConflict {
		t.Errorf("locked task = %d, want 409", w.Code)
	}
	if w := c.do("u1", http.MethodDelete, path("/api/tasks/%d/dependencies/%d", a, b), nil); w.Code != http.StatusNoContent {
		t.Errorf("remove dependency = %d, want 204", w.Code)
	}
	if w := c.do("u1", http.MethodGet, path("/api/tasks/%d", a), nil); w.Code != http.StatusOK {
		t.Errorf("unlocked task = %d, want 200", w.Code)
	}
}

func TestTaskListFilters(t *testing.T) {
	c := newClient(t, app.Options{})

	project := idOf(t, c.create("u1", "/api/projects", map[string]any{"title": "P"}))
	c.create("u1", "/api/tasks", map[string]any{"title": "Write release notes", "priority": 2})
	c.create("u1", "/api/tasks", map[string]any{"title": "Fix login", "description": "release blocker", "priority": 3, "project_id": project})
	done := idOf(t, c.create("u1", "/api/tasks", map[string]any{"title": "Order pizza"}))
	c.create("u2", "/api/tasks", map[string]any{"title": "Someone else's release"})
	if w := c.do("u1", http.MethodPut, path("/api/kanban/%d/status", done), map[string]any{"status": "Done"}); w.Code != http.StatusOK {
		t.Fatalf("complete = %d: %s", w.Code, w.Body.String())
	}

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format(time.DateOnly)
	tests := []struct {
		name  string
		query string
		want  int
		total string
	}{
		{"everything", "", http.StatusOK, "3"},
		{"search title and description", "?q=RELEASE", http.StatusOK, "2"},
		{"search escapes wildcards", "?q=%25", http.StatusOK, "0"},
		{"priority by name", "?priority=critical", http.StatusOK, "1"},
		{"priority by number", "?priority=2", http.StatusOK, "1"},
		{"completed", "?completed=true", http.StatusOK, "1"},
		{"open in project", path("?completed=false&project_id=%d", project), http.StatusOK, "1"},
		{"created before tomorrow", "?to=" + tomorrow, http.StatusOK, "3"},
		{"created from tomorrow", "?from=" + tomorrow, http.StatusOK, "0"},
		{"first page", "?limit=2", http.StatusOK, "3"},
		{"past the end", "?offset=10", http.StatusOK, "3"},
		{"bad priority", "?priority=urgent", http.StatusBadRequest, ""},
		{"bad completed", "?completed=maybe", http.StatusBadRequest, ""},
		{"bad date", "?from=yesterday", http.StatusBadRequest, ""},
		{"inverted range", "?from=2026-03-02&to=2026-03-01", http.StatusBadRequest, ""},
		{"limit too large", "?limit=1000", http.StatusBadRequest, ""},
		{"negative offset", "?offset=-1", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := c.do("u1", http.MethodGet, "/api/tasks"+tt.query, nil)
			if w.Code != tt.want {
				t.Fatalf("GET %s = %d, want %d: %s", tt.query, w.Code, tt.want, w.Body.String())
			}
			if tt.want != http.StatusOK {
				return
			}
			if got := w.Header().Get("X-Total-Count"); got != tt.total {
				t.Errorf("X-Total-Count = %s, want %s", got, tt.total)
			}
		})
	}

	w := c.do("u1", http.MethodGet, "/api/tasks?limit=2&offset=1", nil)
	var page []map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(page) != 2 {
		t.Errorf("page has %d tasks, want 2", len(page))
	}
}

func TestDashboard(t *testing.T) {
	c := newClient(t, app.Options{})

	a := idOf(t, c.create("u1", "/api/tasks", map[string]any{"title": "A", "priority": 3}))
	c.create("u1", "/api/tasks", map[string]any{"title": "B"})
	if w := c.do("u1", http.MethodPut, path("/api/kanban/%d/status", a), map[string]any{"status": "Done"}); w.Code != http.StatusOK {
		t.Fatalf("complete = %d", w.Code)
	}

	w := c.do("u1", http.MethodGet, "/api/dashboard?days=3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard = %d: %s", w.Code, w.Body.String())
	}
	var stats app.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Total != 2 || stats.Completed != 1 || stats.CompletionRate != 50 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.ByPriority["critical"] != 1 || stats.ByPriority["low"] != 1 {
		t.Errorf("by priority = %v", stats.ByPriority)
	}
	if len(stats.PerDay) != 3 {
		t.Errorf("per day = %+v, want 3 days", stats.PerDay)
	}

	if w := c.do("u1", http.MethodGet, "/api/dashboard?days=90", nil); w.Code != http.StatusBadRequest {
		t.Errorf("days=90 = %d, want 400", w.Code)
	}
	if w := c.do("u1", http.MethodGet, "/api/dashboard?project_id=99", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown project = %d, want 404", w.Code)
	}
}
