package hierarchy_test

import (
	"errors"
	"testing"
	"time"

	"github.com/taskdeck/taskdeck/internal/hierarchy"
	"github.com/taskdeck/taskdeck/internal/sizing"
	"github.com/taskdeck/taskdeck/internal/task"
)

// ─── Insert validation ──────────────────────────────────────────────────────

func TestCreateTask_SubtaskDefaultsToParentPriority(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	high := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "high", Priority: task.PriorityHigh})
	sub := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &high.ID, Title: "sub"})
	if sub.Priority != task.PriorityHigh {
		t.Errorf("subtask under high parent got %q, want high", sub.Priority)
	}

	// Under a low parent the default floors at medium, which still satisfies
	// the constraint.
	low := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "low", Priority: task.PriorityLow})
	sub2 := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &low.ID, Title: "sub2"})
	if sub2.Priority != task.PriorityMedium {
		t.Errorf("subtask under low parent got %q, want medium", sub2.Priority)
	}
}

func TestCreateTask_RejectsLowerPriorityThanParent(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	parent := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "parent", Priority: task.PriorityHigh})
	_, err := s.CreateTask(hierarchy.CreateTaskParams{
		ProjectID: p.ID, ParentID: &parent.ID, Title: "weak", Priority: task.PriorityLow,
	})
	var v *task.Violation
	if !errors.As(err, &v) || v.Kind != task.ViolationPriorityBelowParent {
		t.Fatalf("got %v, want priority violation", err)
	}
	if v.Message() != "Subtask 'weak' cannot have lower priority than its parent" {
		t.Errorf("message = %q", v.Message())
	}
}

func TestCreateTask_RejectsNonFibonacciPoints(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	_, err := s.CreateTask(hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "t", StoryPoints: intp(4)})
	var v *task.Violation
	if !errors.As(err, &v) || v.Kind != task.ViolationNotFibonacci {
		t.Fatalf("got %v, want Fibonacci violation", err)
	}
}

func TestCreateTask_RejectsPointsAboveAncestorCeiling(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	// m caps descendants at 5; the unsized middle layer does not reset it.
	root := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "root", Size: sizing.SizeM})
	mid := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &root.ID, Title: "mid"})

	_, err := s.CreateTask(hierarchy.CreateTaskParams{
		ProjectID: p.ID, ParentID: &mid.ID, Title: "deep", StoryPoints: intp(8),
	})
	var v *task.Violation
	if !errors.As(err, &v) || v.Kind != task.ViolationPointsAboveCeiling {
		t.Fatalf("got %v, want ceiling violation", err)
	}
	if v.Message() != "Subtask 'deep' has 8 story points, but maximum allowed is 5" {
		t.Errorf("message = %q", v.Message())
	}

	// Within the ceiling it goes through.
	if _, err := s.CreateTask(hierarchy.CreateTaskParams{
		ProjectID: p.ID, ParentID: &mid.ID, Title: "ok", StoryPoints: intp(5),
	}); err != nil {
		t.Fatalf("5 points under m rejected: %v", err)
	}
}

func TestCreateTask_RejectsSizeOnSubtask(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	parent := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "parent"})
	_, err := s.CreateTask(hierarchy.CreateTaskParams{
		ProjectID: p.ID, ParentID: &parent.ID, Title: "sized", Size: sizing.SizeS,
	})
	var v *task.Violation
	if !errors.As(err, &v) || v.Kind != task.ViolationSizeOnSubtask {
		t.Fatalf("got %v, want size-on-subtask violation", err)
	}
}

func TestCreateTask_RejectsCrossProjectParent(t *testing.T) {
	s := newTestStore(t)
	p1 := newProject(t, s)
	p2, err := s.CreateProject("other", nil)
	if err != nil {
		t.Fatal(err)
	}

	parent := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p1.ID, Title: "parent"})
	_, err = s.CreateTask(hierarchy.CreateTaskParams{ProjectID: p2.ID, ParentID: &parent.ID, Title: "stray"})
	var cross *hierarchy.CrossProjectParentError
	if !errors.As(err, &cross) {
		t.Fatalf("got %v, want CrossProjectParentError", err)
	}
}

// ─── Cascade delete ─────────────────────────────────────────────────────────

func TestDeleteTask_CascadesSubtree(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	root := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "root"})
	mid := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &root.ID, Title: "mid"})
	leafA := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &mid.ID, Title: "leaf-a"})
	leafB := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &mid.ID, Title: "leaf-b"})

	n, err := s.DeleteTask(mid.ID)
	if err != nil {
		t.Fatalf("DeleteTask error: %v", err)
	}
	if n != 3 {
		t.Errorf("deleted %d tasks, want 3", n)
	}

	for _, id := range []string{mid.ID, leafA.ID, leafB.ID} {
		if _, err := s.GetTask(id); !errors.Is(err, hierarchy.ErrNotFound) {
			t.Errorf("task %s survived the cascade", id)
		}
	}

	// The former parent is a leaf again with its own status authoritative.
	root, err = s.GetTask(root.ID)
	if err != nil {
		t.Fatal(err)
	}
	if root.HasChildren {
		t.Error("root still reports children")
	}
	if root.Status != task.StatusPending || root.Completion != 0 {
		t.Errorf("root status/completion = %q/%.0f after cascade", root.Status, root.Completion)
	}
}

func TestDeleteTask_ClosesSiblingGap(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	parent := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "parent"})
	a := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &parent.ID, Title: "a"})
	b := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &parent.ID, Title: "b"})
	c := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &parent.ID, Title: "c"})

	if _, err := s.DeleteTask(b.ID); err != nil {
		t.Fatal(err)
	}

	a, _ = s.GetTask(a.ID)
	c, _ = s.GetTask(c.ID)
	if a.SortOrder != 1 || c.SortOrder != 2 {
		t.Errorf("sibling orders after delete: a=%d c=%d, want 1 and 2", a.SortOrder, c.SortOrder)
	}
}

// ─── Reparent ───────────────────────────────────────────────────────────────

func TestReparent_RecomputesPathAndDepth(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	a := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "a"})
	b := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "b"})
	a1 := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &a.ID, Title: "a1"})
	a11 := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &a1.ID, Title: "a11"})

	moved, err := s.Reparent(a1.ID, &b.ID)
	if err != nil {
		t.Fatalf("Reparent error: %v", err)
	}
	if moved.ParentID == nil || *moved.ParentID != b.ID {
		t.Errorf("parent = %v, want %s", moved.ParentID, b.ID)
	}
	if moved.Depth != 1 || len(moved.Path) != 1 || moved.Path[0] != b.ID {
		t.Errorf("moved node: depth=%d path=%v", moved.Depth, moved.Path)
	}

	// The grandchild follows with the substituted prefix.
	a11, _ = s.GetTask(a11.ID)
	if a11.Depth != 2 || len(a11.Path) != 2 || a11.Path[0] != b.ID || a11.Path[1] != a1.ID {
		t.Errorf("descendant: depth=%d path=%v", a11.Depth, a11.Path)
	}

	// The old parent is a leaf again.
	a, _ = s.GetTask(a.ID)
	if a.HasChildren {
		t.Error("old parent still reports children")
	}
}

func TestReparent_ToTopLevel(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	a := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "a"})
	a1 := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &a.ID, Title: "a1"})

	moved, err := s.Reparent(a1.ID, nil)
	if err != nil {
		t.Fatalf("Reparent to top level error: %v", err)
	}
	if !moved.IsTopLevel() || moved.Depth != 0 || len(moved.Path) != 0 {
		t.Errorf("moved node not top level: %+v", moved)
	}
	if moved.SortOrder != 2 {
		t.Errorf("appended sort_order = %d, want 2", moved.SortOrder)
	}
}

func TestReparent_RejectsOwnDescendant(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	a := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "a"})
	a1 := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &a.ID, Title: "a1"})

	if _, err := s.Reparent(a.ID, &a1.ID); err == nil {
		t.Fatal("moving a task under its own descendant was accepted")
	}
	if _, err := s.Reparent(a.ID, &a.ID); err == nil {
		t.Fatal("moving a task under itself was accepted")
	}
}

func TestReparent_RejectsCeilingBreachOnNewChain(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	big := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "big", Size: sizing.SizeL})
	tiny := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "tiny", Size: sizing.SizeXS})
	sub := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &big.ID, Title: "sub", StoryPoints: intp(8)})

	_, err := s.Reparent(sub.ID, &tiny.ID)
	var v *task.Violation
	if !errors.As(err, &v) || v.Kind != task.ViolationPointsAboveCeiling {
		t.Fatalf("got %v, want ceiling violation", err)
	}

	// Nothing moved.
	sub, _ = s.GetTask(sub.ID)
	if *sub.ParentID != big.ID {
		t.Error("rejected reparent still moved the task")
	}
}

// ─── Field updates ──────────────────────────────────────────────────────────

func TestSetStatus_RejectsDerivedStatus(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	parent := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "parent"})
	mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &parent.ID, Title: "child"})

	_, err := s.SetStatus(parent.ID, task.StatusCompleted)
	if !errors.Is(err, hierarchy.ErrDerivedStatus) {
		t.Fatalf("got %v, want ErrDerivedStatus", err)
	}
}

func TestSetPriority_FloorsDescendants(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	root := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "root", Priority: task.PriorityLow})
	mid := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &root.ID, Title: "mid", Priority: task.PriorityMedium})
	leaf := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &mid.ID, Title: "leaf", Priority: task.PriorityMedium})

	if _, err := s.SetPriority(root.ID, task.PriorityHigh); err != nil {
		t.Fatalf("SetPriority error: %v", err)
	}

	for _, id := range []string{mid.ID, leaf.ID} {
		n, _ := s.GetTask(id)
		if n.Priority != task.PriorityHigh {
			t.Errorf("descendant %q priority = %q, want high", n.Title, n.Priority)
		}
	}
}

func TestSetPriority_RejectsBelowParent(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	parent := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "parent", Priority: task.PriorityHigh})
	child := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &parent.ID, Title: "child"})

	_, err := s.SetPriority(child.ID, task.PriorityLow)
	var v *task.Violation
	if !errors.As(err, &v) || v.Kind != task.ViolationPriorityBelowParent {
		t.Fatalf("got %v, want priority violation", err)
	}
}

func TestSetStoryPoints_TracksInitialAndChanges(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	n := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "t"})

	n, err := s.SetStoryPoints(n.ID, 3)
	if err != nil {
		t.Fatalf("first estimate error: %v", err)
	}
	if *n.InitialStoryPoints != 3 || *n.CurrentStoryPoints != 3 || n.StoryPointsChangeCount != 0 {
		t.Errorf("after first estimate: %+v", n)
	}

	// Same value again: no-op, counter untouched.
	n, err = s.SetStoryPoints(n.ID, 3)
	if err != nil {
		t.Fatal(err)
	}
	if n.StoryPointsChangeCount != 0 {
		t.Errorf("no-op re-estimate bumped counter to %d", n.StoryPointsChangeCount)
	}

	n, err = s.SetStoryPoints(n.ID, 8)
	if err != nil {
		t.Fatal(err)
	}
	if *n.InitialStoryPoints != 3 || *n.CurrentStoryPoints != 8 || n.StoryPointsChangeCount != 1 {
		t.Errorf("after re-estimate: initial=%d current=%d count=%d", *n.InitialStoryPoints, *n.CurrentStoryPoints, n.StoryPointsChangeCount)
	}

	if _, err := s.SetStoryPoints(n.ID, 6); err == nil {
		t.Error("non-Fibonacci re-estimate accepted")
	}
}

func TestSetSize_RejectsWhenSubtreeWouldBreach(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	root := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "root", Size: sizing.SizeL})
	mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, ParentID: &root.ID, Title: "sub", StoryPoints: intp(8)})

	_, err := s.SetSize(root.ID, sizing.SizeS)
	var v *task.Violation
	if !errors.As(err, &v) || v.Kind != task.ViolationPointsAboveCeiling {
		t.Fatalf("got %v, want ceiling violation", err)
	}

	// Keeping the ceiling at or above the estimates is fine.
	if _, err := s.SetSize(root.ID, sizing.SizeXL); err != nil {
		t.Fatalf("valid size change rejected: %v", err)
	}
}

// ─── Breakdown commit ───────────────────────────────────────────────────────

func TestCommitSubtasks_DerivesDueDatesAndOrder(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	restore := hierarchy.SetTimeNow(func() time.Time {
		return time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	})
	defer restore()

	parent := mustCreate(t, s, hierarchy.CreateTaskParams{
		ProjectID: p.ID, Title: "parent", DueDate: datep(2026, time.September, 10),
	})
	_, snap, err := s.SnapshotParent(parent.ID)
	if err != nil {
		t.Fatal(err)
	}

	created, err := s.CommitSubtasks(parent.ID, snap, []hierarchy.CreateTaskParams{
		{Title: "urgent", Priority: task.PriorityHigh},
		{Title: "normal", Priority: task.PriorityMedium},
		{Title: "later", Priority: task.PriorityMedium},
	})
	if err != nil {
		t.Fatalf("CommitSubtasks error: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("created %d subtasks, want 3", len(created))
	}

	// Input order is preserved as sibling order.
	for i, n := range created {
		if n.SortOrder != i+1 {
			t.Errorf("subtask %d sort_order = %d", i, n.SortOrder)
		}
	}

	// 9-day window: high lands in the first third, medium in the first two
	// thirds, and nothing passes the parent's due date.
	if created[0].DueDate == nil || !created[0].DueDate.Equal(*datep(2026, time.September, 4)) {
		t.Errorf("high-priority due date = %v, want 2026-09-04", created[0].DueDate)
	}
	if created[1].DueDate == nil || !created[1].DueDate.Equal(*datep(2026, time.September, 7)) {
		t.Errorf("medium-priority due date = %v, want 2026-09-07", created[1].DueDate)
	}
	for _, n := range created {
		if n.DueDate.After(*parent.DueDate) {
			t.Errorf("subtask %q due %v after parent due", n.Title, n.DueDate)
		}
	}
}

func TestCommitSubtasks_StaleSnapshot(t *testing.T) {
	s := newTestStore(t)
	p := newProject(t, s)

	parent := mustCreate(t, s, hierarchy.CreateTaskParams{ProjectID: p.ID, Title: "parent", Priority: task.PriorityMedium})
	_, snap, err := s.SnapshotParent(parent.ID)
	if err != nil {
		t.Fatal(err)
	}

	// The parent changes between validation and commit.
	if _, err := s.SetPriority(parent.ID, task.PriorityHigh); err != nil {
		t.Fatal(err)
	}

	_, err = s.CommitSubtasks(parent.ID, snap, []hierarchy.CreateTaskParams{{Title: "sub"}})
	var stale *hierarchy.StaleValidationError
	if !errors.As(err, &stale) {
		t.Fatalf("got %v, want StaleValidationError", err)
	}

	// Nothing was written.
	kids, err := s.Children(parent.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(kids) != 0 {
		t.Errorf("stale commit wrote %d subtasks", len(kids))
	}
}
