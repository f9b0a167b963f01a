package hierarchy

import (
	"time"

	"github.com/taskdeck/taskdeck/internal/task"
)

// ComputeDueDate derives a default due date for a proposed subtask strictly
// from its direct parent's due date. Ancestors further up and the owning
// project are never consulted.
//
// Rules:
//   - no parent due date, or the parent's due date is already past → nil
//     (a subtask is never backdated)
//   - otherwise the remaining window between today and the parent's due date
//     is sliced by priority: high lands in the first third, medium in the
//     first two thirds, low uses the full window — always at least one day
//     out and never after the parent's due date
//
// The result is date-only in UTC.
func ComputeDueDate(parentDue *time.Time, priority task.Priority, now time.Time) *time.Time {
	if parentDue == nil {
		return nil
	}
	today := dateOnly(now)
	due := dateOnly(*parentDue)
	if due.Before(today) {
		return nil
	}

	days := int(due.Sub(today).Hours() / 24)
	if days == 0 {
		d := due
		return &d
	}

	var num int
	switch priority {
	case task.PriorityHigh:
		num = 1
	case task.PriorityLow:
		num = 3
	default:
		num = 2
	}
	offset := (days*num + 2) / 3
	if offset < 1 {
		offset = 1
	}

	candidate := today.AddDate(0, 0, offset)
	if candidate.After(due) {
		candidate = due
	}
	return &candidate
}
