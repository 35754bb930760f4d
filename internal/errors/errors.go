//nolint:revive // Package name intentionally matches stdlib for domain clarity
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so callers can map it without reading messages.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindValidation
	KindConflict
	KindBlocked
	KindInvalidOperation
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindBlocked:
		return "blocked"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// NotFoundError indicates an entity is missing or not visible to the caller.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// ValidationError indicates malformed input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ConflictError indicates the operation clashes with existing state.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string {
	return "conflict: " + e.Reason
}

// BlockedError indicates a task has incomplete prerequisites.
type BlockedError struct {
	TaskID    int64
	BlockedBy []int64
}

func (e BlockedError) Error() string {
	ids := make([]string, len(e.BlockedBy))
	for i, id := range e.BlockedBy {
		ids[i] = fmt.Sprintf("#%d", id)
	}
	return fmt.Sprintf("task #%d is blocked by incomplete prerequisites: %s", e.TaskID, strings.Join(ids, ", "))
}

// InvalidOperationError indicates the operation does not apply to the current state.
type InvalidOperationError struct {
	Reason string
}

func (e InvalidOperationError) Error() string {
	return "invalid operation: " + e.Reason
}

// UnauthorizedError indicates the caller lacks the role or permission for an action.
type UnauthorizedError struct {
	UserID string
	Action string
}

func (e UnauthorizedError) Error() string {
	return fmt.Sprintf("user %s is not allowed to %s", e.UserID, e.Action)
}

// KindOf classifies err, unwrapping as needed. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	var (
		notFound   NotFoundError
		validation ValidationError
		conflict   ConflictError
		blocked    BlockedError
		invalidOp  InvalidOperationError
		unauth     UnauthorizedError
	)
	switch {
	case err == nil:
		return KindInternal
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &blocked):
		return KindBlocked
	case errors.As(err, &conflict):
		return KindConflict
	case errors.As(err, &invalidOp):
		return KindInvalidOperation
	case errors.As(err, &unauth):
		return KindUnauthorized
	default:
		return KindInternal
	}
}

// Is reports whether err is of the given kind.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// TaskNotFound is shorthand for a missing or hidden task.
func TaskNotFound(id int64) NotFoundError {
	return NotFoundError{Entity: "task", ID: fmt.Sprintf("%d", id)}
}

// ProjectNotFound is shorthand for a missing or hidden project.
func ProjectNotFound(id int64) NotFoundError {
	return NotFoundError{Entity: "project", ID: fmt.Sprintf("%d", id)}
}
