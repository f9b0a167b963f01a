package hierarchy_test

import (
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/internal/hierarchy"
	"github.com/taskdeck/taskdeck/internal/task"
)

var ddNow = time.Date(2026, time.September, 1, 15, 30, 0, 0, time.UTC)

func TestComputeDueDate_NoParentDue(t *testing.T) {
	if got := hierarchy.ComputeDueDate(nil, task.PriorityHigh, ddNow); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestComputeDueDate_PastParentDue(t *testing.T) {
	past := time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC)
	if got := hierarchy.ComputeDueDate(&past, task.PriorityLow, ddNow); got != nil {
		t.Errorf("subtask backdated to %v, want nil", got)
	}
}

func TestComputeDueDate_PrioritySlices(t *testing.T) {
	// 9-day window from 2026-09-01 to 2026-09-10.
	due := time.Date(2026, time.September, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		priority task.Priority
		wantDay  int
	}{
		{task.PriorityHigh, 4},   // first third
		{task.PriorityMedium, 7}, // first two thirds
		{task.PriorityLow, 10},   // full window
		{task.Priority(""), 7},   // unstated behaves like medium
	}
	for _, tt := range tests {
		got := hierarchy.ComputeDueDate(&due, tt.priority, ddNow)
		if got == nil {
			t.Fatalf("%q: got nil", tt.priority)
		}
		want := time.Date(2026, time.September, tt.wantDay, 0, 0, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Errorf("%q: got %v, want %v", tt.priority, got, want)
		}
	}
}

func TestComputeDueDate_NeverAfterParentDue(t *testing.T) {
	due := time.Date(2026, time.September, 3, 0, 0, 0, 0, time.UTC)
	for _, pr := range []task.Priority{task.PriorityHigh, task.PriorityMedium, task.PriorityLow} {
		got := hierarchy.ComputeDueDate(&due, pr, ddNow)
		if got == nil {
			t.Fatalf("%q: got nil", pr)
		}
		if got.After(due) {
			t.Errorf("%q: %v is after the parent's due date", pr, got)
		}
	}
}

func TestComputeDueDate_MinimumOneDayOut(t *testing.T) {
	// A 1-day window still lands tomorrow, not today.
	due := time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC)
	got := hierarchy.ComputeDueDate(&due, task.PriorityHigh, ddNow)
	if got == nil || !got.Equal(due) {
		t.Errorf("got %v, want %v", got, due)
	}
}

func TestComputeDueDate_SameDayParentDue(t *testing.T) {
	// Parent due today: the subtask is due today as well, not nil.
	due := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	got := hierarchy.ComputeDueDate(&due, task.PriorityLow, ddNow)
	if got == nil || !got.Equal(due) {
		t.Errorf("got %v, want %v", got, due)
	}
}

func TestComputeDueDate_DateOnlyUTC(t *testing.T) {
	due := time.Date(2026, time.September, 10, 23, 59, 0, 0, time.FixedZone("X", 3600))
	got := hierarchy.ComputeDueDate(&due, task.PriorityHigh, ddNow)
	if got == nil {
		t.Fatal("got nil")
	}
	if got.Location() != time.UTC {
		t.Errorf("result not UTC: %v", got.Location())
	}
	h, m, sec := got.Clock()
	if h != 0 || m != 0 || sec != 0 {
		t.Errorf("result not date-only: %v", got)
	}
}
