//nolint:testpackage // Tests require internal access for thorough testing
package errors

import (
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", TaskNotFound(4), KindNotFound},
		{"validation", ValidationError{Field: "status", Reason: "unknown"}, KindValidation},
		{"conflict", ConflictError{Reason: "circular dependency"}, KindConflict},
		{"blocked", BlockedError{TaskID: 1, BlockedBy: []int64{2}}, KindBlocked},
		{"invalid operation", InvalidOperationError{Reason: "no running timer"}, KindInvalidOperation},
		{"unauthorized", UnauthorizedError{UserID: "u1", Action: "delete project"}, KindUnauthorized},
		{"wrapped", fmt.Errorf("start timer: %w", BlockedError{TaskID: 1}), KindBlocked},
		{"plain", fmt.Errorf("disk on fire"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestBlockedError(t *testing.T) {
	err := BlockedError{TaskID: 7, BlockedBy: []int64{2, 3}}
	want := "task #7 is blocked by incomplete prerequisites: #2, #3"
	if got := err.Error(); got != want {
		t.Errorf("BlockedError.Error() = %q, want %q", got, want)
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		err  ValidationError
		want string
	}{
		{ValidationError{Field: "status", Reason: "must be one of Todo, InProgress, Done"}, "invalid status: must be one of Todo, InProgress, Done"},
		{ValidationError{Reason: "task cannot depend on itself"}, "invalid input: task cannot depend on itself"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("ValidationError.Error() = %q, want %q", got, tt.want)
		}
	}
}
