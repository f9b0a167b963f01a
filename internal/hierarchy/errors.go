package hierarchy

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by lookup failures so callers can errors.Is on it.
var ErrNotFound = errors.New("not found")

// ErrDerivedStatus is returned when a caller tries to set the status of a
// task that has subtasks. Non-leaf status is derived from the children and
// has no public setter.
var ErrDerivedStatus = errors.New("hierarchy: status of a task with subtasks is derived from its subtasks and cannot be set directly")

// CrossProjectParentError reports an attempt to parent a task under a task
// belonging to a different project. This indicates a caller bug or tampering
// and fails the operation outright.
type CrossProjectParentError struct {
	TaskProject   string
	ParentProject string
}

func (e *CrossProjectParentError) Error() string {
	return fmt.Sprintf("hierarchy: cannot parent across projects (task project %s, parent project %s)", e.TaskProject, e.ParentProject)
}

// CorruptHierarchyError reports a detected cycle or dangling ancestor
// reference. It means a prior invariant breach slipped through; the operation
// aborts and the caller should log loudly.
type CorruptHierarchyError struct {
	TaskID string
	Detail string
}

func (e *CorruptHierarchyError) Error() string {
	return fmt.Sprintf("hierarchy: corrupt tree at task %s: %s", e.TaskID, e.Detail)
}

// StaleValidationError reports that the anchor parent's constraints changed
// between a lock-free batch validation and its commit. Retryable: re-run
// validation against fresh state.
type StaleValidationError struct {
	ParentID string
}

func (e *StaleValidationError) Error() string {
	return fmt.Sprintf("hierarchy: parent task %s changed since validation, re-validate and retry", e.ParentID)
}
