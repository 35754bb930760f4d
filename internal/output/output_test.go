package output

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tgienger/teamboard/internal/app"
	"github.com/tgienger/teamboard/internal/models"
	"github.com/tgienger/teamboard/internal/workflow"
)

func sampleBoard() workflow.Board {
	return workflow.Board{
		models.StatusTodo: {
			{Task: models.Task{ID: 1, Title: "write", Status: models.StatusTodo}},
			{Task: models.Task{ID: 2, Title: "review", Status: models.StatusTodo, Priority: models.PriorityHigh}, Blocked: true},
		},
		models.StatusDone: {
			{Task: models.Task{ID: 3, Title: "plan", Status: models.StatusDone, Completed: true}},
		},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"", false},
		{"human", false},
		{"json", false},
		{"yaml", false},
		{"xml", true},
	}
	for _, tt := range tests {
		_, err := New(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("New(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestHumanBoard(t *testing.T) {
	out := NewHumanFormatter().FormatBoard(sampleBoard())

	for _, want := range []string{"Todo (2)", "InProgress (0)", "Done (1)", "[#2] review [blocked]", "[X] P3 [#3] plan"} {
		if !strings.Contains(out, want) {
			t.Errorf("board output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Todo") > strings.Index(out, "Done") {
		t.Error("columns out of order")
	}
}

func TestJSONBoardKeepsColumns(t *testing.T) {
	out := NewJSONFormatter().FormatBoard(sampleBoard())

	var doc map[string][]map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if len(doc["Todo"]) != 2 || len(doc["InProgress"]) != 0 || len(doc["Done"]) != 1 {
		t.Errorf("columns = %d/%d/%d", len(doc["Todo"]), len(doc["InProgress"]), len(doc["Done"]))
	}
	if doc["Todo"][1]["blocked"] != true || doc["Todo"][1]["title"] != "review" {
		t.Errorf("second card = %v", doc["Todo"][1])
	}
}

func TestYAMLUsesJSONFieldNames(t *testing.T) {
	end := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	report := &app.TimeReport{
		Entries: []models.TimeEntry{{
			ID: 1, TaskID: 9, UserID: "u1",
			StartTime: end.Add(-time.Hour), EndTime: &end, Notes: "true",
		}},
		Total:     time.Hour,
		Formatted: "01:00:00",
	}

	out := NewYAMLFormatter().FormatTimeReport(report)
	if strings.Contains(out, "{") {
		t.Errorf("expected block style YAML:\n%s", out)
	}

	var doc struct {
		Entries []struct {
			TaskID int64  `yaml:"task_id"`
			Notes  string `yaml:"notes"`
		} `yaml:"entries"`
		Total string `yaml:"total"`
	}
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, out)
	}
	if doc.Total != "01:00:00" || len(doc.Entries) != 1 || doc.Entries[0].TaskID != 9 {
		t.Errorf("decoded = %+v", doc)
	}
	if doc.Entries[0].Notes != "true" {
		t.Errorf("string that looks like a bool lost its quoting: %q", doc.Entries[0].Notes)
	}
}

func TestFormatError(t *testing.T) {
	err := errors.New("boom")
	if got := NewHumanFormatter().FormatError(err); got != "Error: boom\n" {
		t.Errorf("human error = %q", got)
	}
	if got := NewJSONFormatter().FormatError(err); !strings.Contains(got, `"error": "boom"`) {
		t.Errorf("json error = %q", got)
	}
	if got := NewYAMLFormatter().FormatError(err); got != "error: boom\n" {
		t.Errorf("yaml error = %q", got)
	}
}

func TestFormatStats(t *testing.T) {
	stats := &app.Stats{
		Total:          4,
		Completed:      1,
		InProgress:     2,
		Overdue:        1,
		CompletionRate: 25,
		ByPriority:     map[string]int{"low": 1, "critical": 3},
		PerDay: []app.DayCount{
			{Date: "2026-03-13", Created: 1},
			{Date: "2026-03-14", Created: 3, Completed: 1},
		},
	}

	out := NewHumanFormatter().FormatStats(stats)
	for _, want := range []string{"4 (1 done, 2 in progress, 1 overdue)", "25.00%", "critical 3", "medium 0", "2026-03-14        3     1  ###"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(NewJSONFormatter().FormatStats(stats)), &doc); err != nil {
		t.Fatalf("json stats: %v", err)
	}
	if doc["completion_rate"] != 25.0 {
		t.Errorf("completion_rate = %v, want 25", doc["completion_rate"])
	}
}
