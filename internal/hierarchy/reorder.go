package hierarchy

import (
	"fmt"
)

// ReorderOutsideParentMessage is the contractual rejection for moving a
// subtask out of its parent's sibling block. Upstream consumers surface it
// verbatim.
const ReorderOutsideParentMessage = "Subtasks cannot be moved outside their parent task context. Use the edit form to change the parent."

// ReorderResult reports the outcome of a reorder request. A constraint
// rejection is a normal result with Success=false, not an error.
type ReorderResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// flatEntry is one row of a project's flattened display order.
type flatEntry struct {
	node  *TaskNode
	index int // 1-based position in the flattened order
}

// flatOrder walks the project tree depth-first by sort_order and returns the
// flattened display order. Rows unreachable from the top level mean a
// dangling parent reference and abort with CorruptHierarchyError.
func (s *Store) flatOrder(q dbtx, projectID string) ([]flatEntry, error) {
	all, err := s.queryTasks(q,
		`SELECT `+taskColumns+` FROM tasks t WHERE t.project_id = ? ORDER BY t.sort_order`,
		projectID,
	)
	if err != nil {
		return nil, err
	}

	byParent := make(map[string][]*TaskNode)
	var roots []*TaskNode
	for _, n := range all {
		if n.ParentID == nil {
			roots = append(roots, n)
		} else {
			byParent[*n.ParentID] = append(byParent[*n.ParentID], n)
		}
	}

	var out []flatEntry
	var walk func(n *TaskNode)
	walk = func(n *TaskNode) {
		out = append(out, flatEntry{node: n, index: len(out) + 1})
		for _, c := range byParent[n.ID] {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}

	if len(out) != len(all) {
		return nil, &CorruptHierarchyError{TaskID: projectID, Detail: "tasks unreachable from the top level"}
	}
	return out, nil
}

// ReorderTo moves a task to newPosition within the project's flattened
// display order.
//
// A task with a parent may only land on positions inside its parent's
// contiguous sibling block; anything outside is rejected unconditionally —
// reordering never changes a task's parent, confirmed or not. Top-level
// tasks may be placed at any top-level position. Within the valid range the
// siblings between the old and new slots shift by one so sort_order stays
// contiguous and gap-free.
//
// With confirmed=true the mover's priority is raised to at least the
// parent's level when the rebalancing needs it; with confirmed=false the
// position still changes and priority is left untouched.
func (s *Store) ReorderTo(id string, newPosition int, confirmed bool) (*ReorderResult, error) {
	pre, err := s.GetTask(id)
	if err != nil {
		return nil, err
	}

	lock := s.projectLock(pre.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("hierarchy: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	node, err := s.getTask(tx, id)
	if err != nil {
		return nil, err
	}
	flat, err := s.flatOrder(tx, node.ProjectID)
	if err != nil {
		return nil, err
	}

	var targetOrder int
	if node.ParentID != nil {
		// Bounds of the sibling block within the flattened order.
		first, last, count := 0, 0, 0
		for _, e := range flat {
			if equalParent(e.node.ParentID, node.ParentID) {
				if count == 0 {
					first = e.index
				}
				last = e.index
				count++
			}
		}
		if newPosition < first || newPosition > last {
			return &ReorderResult{Success: false, Message: ReorderOutsideParentMessage}, nil
		}
		// The target slot is the last sibling at or before the requested
		// flat position.
		for _, e := range flat {
			if equalParent(e.node.ParentID, node.ParentID) && e.index <= newPosition {
				targetOrder = e.node.SortOrder
			}
		}
		if targetOrder < 1 {
			targetOrder = 1
		}
	} else {
		count := 0
		targetOrder = 0
		for _, e := range flat {
			if e.node.ParentID == nil {
				count++
				if e.index <= newPosition {
					targetOrder = e.node.SortOrder
				}
			}
		}
		if targetOrder < 1 {
			targetOrder = 1
		}
		if targetOrder > count {
			targetOrder = count
		}
	}

	if err := s.moveWithinSiblings(tx, node, targetOrder); err != nil {
		return nil, err
	}

	if confirmed && node.ParentID != nil {
		parent, err := s.getTask(tx, *node.ParentID)
		if err != nil {
			return nil, err
		}
		if node.Priority.Level() < parent.Priority.Level() {
			if _, err := tx.Exec(
				`UPDATE tasks SET priority = ?, updated_at = datetime('now') WHERE id = ?`,
				parent.Priority, id,
			); err != nil {
				return nil, fmt.Errorf("hierarchy: raise priority: %w", err)
			}
			if err := s.floorDescendantPriorities(tx, id, parent.Priority); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("hierarchy: commit: %w", err)
	}
	return &ReorderResult{Success: true, Message: fmt.Sprintf("Task moved to position %d", targetOrder)}, nil
}

// moveWithinSiblings shifts the siblings between the node's old and new
// sort_order by one and writes the node's new slot.
func (s *Store) moveWithinSiblings(q dbtx, n *TaskNode, target int) error {
	if target == n.SortOrder {
		return nil
	}

	var err error
	if n.ParentID == nil {
		if target < n.SortOrder {
			_, err = q.Exec(
				`UPDATE tasks SET sort_order = sort_order + 1
				 WHERE project_id = ? AND parent_id IS NULL AND sort_order >= ? AND sort_order < ?`,
				n.ProjectID, target, n.SortOrder,
			)
		} else {
			_, err = q.Exec(
				`UPDATE tasks SET sort_order = sort_order - 1
				 WHERE project_id = ? AND parent_id IS NULL AND sort_order > ? AND sort_order <= ?`,
				n.ProjectID, n.SortOrder, target,
			)
		}
	} else {
		if target < n.SortOrder {
			_, err = q.Exec(
				`UPDATE tasks SET sort_order = sort_order + 1
				 WHERE parent_id = ? AND sort_order >= ? AND sort_order < ?`,
				*n.ParentID, target, n.SortOrder,
			)
		} else {
			_, err = q.Exec(
				`UPDATE tasks SET sort_order = sort_order - 1
				 WHERE parent_id = ? AND sort_order > ? AND sort_order <= ?`,
				*n.ParentID, n.SortOrder, target,
			)
		}
	}
	if err != nil {
		return fmt.Errorf("hierarchy: shift siblings: %w", err)
	}

	if _, err := q.Exec(
		`UPDATE tasks SET sort_order = ?, updated_at = datetime('now') WHERE id = ?`, target, n.ID,
	); err != nil {
		return fmt.Errorf("hierarchy: move task: %w", err)
	}
	return nil
}
