package models

import "testing"

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in   string
		want Priority
		ok   bool
	}{
		{"low", PriorityLow, true},
		{"Medium", PriorityMedium, true},
		{"2", PriorityHigh, true},
		{"CRITICAL", PriorityCritical, true},
		{"3", PriorityCritical, true},
		{"4", 0, false},
		{"urgent", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParsePriority(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParsePriority(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
