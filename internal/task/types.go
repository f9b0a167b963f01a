// Package task defines the shared task vocabulary — status and priority
// enums — plus the constraint validators applied to task candidates before
// they enter a project hierarchy.
//
// The validators are pure: they read the candidate values and the anchor
// parent's values and return structured Violation records. Batch variants
// never stop at the first offending item; they return one result per
// candidate in input order so callers can report the complete list.
package task

import "fmt"

// --- Status enum ---

// Status is a task's lifecycle state. For leaf tasks the status is
// authoritative; for tasks with subtasks it is derived from the children
// and must never be written directly.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// validStatuses is the set of allowed statuses.
var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
}

// ValidateStatus returns an error if the status is not recognized.
func ValidateStatus(s Status) error {
	if !validStatuses[s] {
		return fmt.Errorf("invalid task status %q: must be one of: pending, in_progress, completed", s)
	}
	return nil
}

// --- Priority enum ---

// Priority is a task's urgency, totally ordered low < medium < high.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// validPriorities is the set of allowed priorities.
var validPriorities = map[Priority]bool{
	PriorityLow:    true,
	PriorityMedium: true,
	PriorityHigh:   true,
}

// ValidatePriority returns an error if the priority is not recognized.
func ValidatePriority(p Priority) error {
	if !validPriorities[p] {
		return fmt.Errorf("invalid task priority %q: must be one of: low, medium, high", p)
	}
	return nil
}

// Level returns the ordinal priority level: low=1, medium=2, high=3.
// Unknown priorities map to 0 and therefore sort below everything.
func (p Priority) Level() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	}
	return 0
}

// Max returns the higher of two priorities.
func (p Priority) Max(other Priority) Priority {
	if other.Level() > p.Level() {
		return other
	}
	return p
}
