package hierarchy

import (
	"errors"

	"github.com/taskdeck/taskdeck/internal/task"
)

// ─── Status aggregation ──────────────────────────────────────────────────────
//
// Leaf status is authoritative. Non-leaf status and every node's completion
// percentage are derived projections, recomputed and persisted write-through
// on each mutation that can change them. A non-leaf's completion is the
// arithmetic mean of its children's completion percentages, which makes the
// aggregate depth-weighted rather than a flat leaf-count ratio.

// DeriveStatus computes a parent's status from its children's statuses:
// all completed → completed, all pending → pending, any other mix →
// in_progress.
func DeriveStatus(children []task.Status) task.Status {
	allCompleted, allPending := true, true
	for _, st := range children {
		if st != task.StatusCompleted {
			allCompleted = false
		}
		if st != task.StatusPending {
			allPending = false
		}
	}
	switch {
	case allCompleted:
		return task.StatusCompleted
	case allPending:
		return task.StatusPending
	default:
		return task.StatusInProgress
	}
}

// statusCompletion is the completion percentage of a leaf.
func statusCompletion(st task.Status) float64 {
	if st == task.StatusCompleted {
		return 100.0
	}
	return 0.0
}

// RecomputeStatus derives a task's current status without persisting
// anything. For a leaf the stored status is returned unchanged; for a task
// with children the status is derived from the children's current statuses.
// Idempotent: repeated calls without an intervening mutation agree.
func (s *Store) RecomputeStatus(id string) (task.Status, error) {
	n, err := s.getTask(s.db, id)
	if err != nil {
		return "", err
	}
	kids, err := s.children(s.db, id)
	if err != nil {
		return "", err
	}
	if len(kids) == 0 {
		return n.Status, nil
	}
	statuses := make([]task.Status, len(kids))
	for i, k := range kids {
		statuses[i] = k.Status
	}
	return DeriveStatus(statuses), nil
}

// CompletionPercentage returns a task's stored completion percentage.
func (s *Store) CompletionPercentage(id string) (float64, error) {
	n, err := s.getTask(s.db, id)
	if err != nil {
		return 0, err
	}
	return n.Completion, nil
}

// recomputeUpward recomputes derived status and completion for every
// ancestor from startID up to the root, persisting changed values. It must
// run inside the transaction of the mutation that triggered it so no reader
// observes a half-propagated chain. A revisited ancestor means the parent
// chain loops and aborts with CorruptHierarchyError.
func (s *Store) recomputeUpward(q dbtx, startID *string) error {
	visited := map[string]bool{}
	cur := startID
	for cur != nil {
		id := *cur
		if visited[id] {
			return &CorruptHierarchyError{TaskID: id, Detail: "ancestor cycle during status propagation"}
		}
		visited[id] = true

		n, err := s.getTask(q, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return &CorruptHierarchyError{TaskID: id, Detail: "dangling parent reference during status propagation"}
			}
			return err
		}

		kids, err := s.children(q, id)
		if err != nil {
			return err
		}

		status := n.Status
		var completion float64
		if len(kids) == 0 {
			// The node became (or stayed) a leaf: its status is whatever was
			// last explicitly set, and its completion follows from it.
			completion = statusCompletion(n.Status)
		} else {
			statuses := make([]task.Status, len(kids))
			sum := 0.0
			for i, k := range kids {
				statuses[i] = k.Status
				sum += k.Completion
			}
			status = DeriveStatus(statuses)
			completion = sum / float64(len(kids))
		}

		if status != n.Status || completion != n.Completion {
			if _, err := q.Exec(
				`UPDATE tasks SET status = ?, completion = ?, updated_at = datetime('now') WHERE id = ?`,
				status, completion, id,
			); err != nil {
				return err
			}
		}

		cur = n.ParentID
	}
	return nil
}
