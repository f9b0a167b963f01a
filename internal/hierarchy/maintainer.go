package hierarchy

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/sizing"
	"github.com/taskdeck/taskdeck/internal/task"
)

// ─── Insert ──────────────────────────────────────────────────────────────────

// CreateTask inserts a single task. Subtasks are validated against the
// parent's priority and the nearest sized ancestor's story-point ceiling
// before anything is written; ancestor status and completion are recomputed
// in the same transaction.
func (s *Store) CreateTask(p CreateTaskParams) (*TaskNode, error) {
	if p.ProjectID == "" {
		return nil, fmt.Errorf("hierarchy: project id is required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return nil, fmt.Errorf("hierarchy: task title is required")
	}
	if p.Status == "" {
		p.Status = task.StatusPending
	}
	if err := task.ValidateStatus(p.Status); err != nil {
		return nil, fmt.Errorf("hierarchy: %w", err)
	}
	if p.Priority != "" {
		if err := task.ValidatePriority(p.Priority); err != nil {
			return nil, fmt.Errorf("hierarchy: %w", err)
		}
	}
	if p.Size != "" && !sizing.ValidSize(p.Size) {
		return nil, &sizing.InvalidSizeError{Size: string(p.Size)}
	}
	if _, err := s.GetProject(p.ProjectID); err != nil {
		return nil, err
	}

	lock := s.projectLock(p.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("hierarchy: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var path []string
	depth := 0

	if p.ParentID != nil {
		parent, err := s.getTask(tx, *p.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.ProjectID != p.ProjectID {
			return nil, &CrossProjectParentError{TaskProject: p.ProjectID, ParentProject: parent.ProjectID}
		}
		if p.Priority == "" {
			p.Priority = task.PriorityMedium.Max(parent.Priority)
		}

		cand := task.Candidate{Title: p.Title, Priority: p.Priority, Points: p.StoryPoints, Size: p.Size}
		if v := task.SubtaskSize(cand); v != nil {
			return nil, v
		}
		if v := task.AgainstParentPriority(cand, parent.Priority); v != nil {
			return nil, v
		}
		ceiling, err := s.nearestCeiling(tx, parent)
		if err != nil {
			return nil, err
		}
		if v := task.AgainstSizeCeiling(cand, ceiling, s.cfg.Policy); v != nil {
			return nil, v
		}

		path = append(append([]string{}, parent.Path...), parent.ID)
		depth = parent.Depth + 1
	} else {
		if p.Priority == "" {
			p.Priority = task.PriorityMedium
		}
		cand := task.Candidate{Title: p.Title, Priority: p.Priority, Points: p.StoryPoints}
		if v := task.AgainstSizeCeiling(cand, "", s.cfg.Policy); v != nil {
			return nil, v
		}
	}

	order, err := s.nextSortOrder(tx, p.ProjectID, p.ParentID)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: next sort order: %w", err)
	}

	id := uuid.NewString()
	if err := s.insertTask(tx, id, path, depth, order, p); err != nil {
		return nil, err
	}
	if p.ParentID != nil {
		if err := s.recomputeUpward(tx, p.ParentID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("hierarchy: commit: %w", err)
	}
	return s.GetTask(id)
}

func (s *Store) insertTask(q dbtx, id string, path []string, depth, order int, p CreateTaskParams) error {
	var parentID any
	if p.ParentID != nil {
		parentID = *p.ParentID
	}
	var size any
	if p.Size != "" {
		size = string(p.Size)
	}
	var initial, current any
	if p.StoryPoints != nil {
		initial, current = *p.StoryPoints, *p.StoryPoints
	}
	var iteration any
	if p.IterationID != "" {
		iteration = p.IterationID
	}

	_, err := q.Exec(
		`INSERT INTO tasks (id, project_id, parent_id, path, depth, sort_order,
		                    title, description, status, priority, size,
		                    initial_story_points, current_story_points, story_points_change_count,
		                    completion, due_date, iteration_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		id, p.ProjectID, parentID, joinPath(path), depth, order,
		p.Title, p.Description, p.Status, p.Priority, size,
		initial, current,
		statusCompletion(p.Status), dateString(p.DueDate), iteration,
	)
	if err != nil {
		return fmt.Errorf("hierarchy: insert task: %w", err)
	}
	return nil
}

// nextSortOrder returns the next free position at the end of a sibling group.
func (s *Store) nextSortOrder(q dbtx, projectID string, parentID *string) (int, error) {
	var n int
	var err error
	if parentID == nil {
		err = q.QueryRow(
			`SELECT COALESCE(MAX(sort_order), 0) FROM tasks WHERE project_id = ? AND parent_id IS NULL`,
			projectID,
		).Scan(&n)
	} else {
		err = q.QueryRow(
			`SELECT COALESCE(MAX(sort_order), 0) FROM tasks WHERE parent_id = ?`,
			*parentID,
		).Scan(&n)
	}
	return n + 1, err
}

// closeGap shifts the node's former right-hand siblings down by one so the
// sibling group stays contiguous after the node leaves it.
func (s *Store) closeGap(q dbtx, n *TaskNode) error {
	var err error
	if n.ParentID == nil {
		_, err = q.Exec(
			`UPDATE tasks SET sort_order = sort_order - 1
			 WHERE project_id = ? AND parent_id IS NULL AND sort_order > ?`,
			n.ProjectID, n.SortOrder,
		)
	} else {
		_, err = q.Exec(
			`UPDATE tasks SET sort_order = sort_order - 1
			 WHERE parent_id = ? AND sort_order > ?`,
			*n.ParentID, n.SortOrder,
		)
	}
	if err != nil {
		return fmt.Errorf("hierarchy: close sibling gap: %w", err)
	}
	return nil
}

// ─── Delete (cascade) ────────────────────────────────────────────────────────

// DeleteTask removes a task and its entire subtree in one atomic operation,
// closes the sibling gap, and recomputes the former parent's chain. Returns
// the number of tasks removed.
func (s *Store) DeleteTask(id string) (int, error) {
	pre, err := s.GetTask(id)
	if err != nil {
		return 0, err
	}

	lock := s.projectLock(pre.ProjectID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("hierarchy: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	node, err := s.getTask(tx, id)
	if err != nil {
		return 0, err
	}
	sub, err := s.subtree(tx, id)
	if err != nil {
		return 0, err
	}

	placeholders := make([]string, len(sub))
	args := make([]any, len(sub))
	for i, n := range sub {
		placeholders[i] = "?"
		args[i] = n.ID
	}
	// Children reference parents, so delete leaves first.
	for i, j := 0, len(args)-1; i < j; i, j = i+1, j-1 {
		args[i], args[j] = args[j], args[i]
	}
	if _, err := tx.Exec(
		`DELETE FROM tasks WHERE id IN (`+strings.Join(placeholders, ", ")+`)`, args...,
	); err != nil {
		return 0, fmt.Errorf("hierarchy: delete subtree: %w", err)
	}

	if err := s.closeGap(tx, node); err != nil {
		return 0, err
	}
	if node.ParentID != nil {
		if err := s.recomputeUpward(tx, node.ParentID); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("hierarchy: commit: %w", err)
	}
	return len(sub), nil
}

// ─── Reparent ────────────────────────────────────────────────────────────────

// Reparent moves a task (and its subtree) under a new parent, or to the top
// level when newParentID is nil. The priority constraint is re-validated
// against the new parent and every estimated task in the subtree is checked
// against the ceiling it would see on the new chain; any violation fails the
// whole operation with no partial state. Path and depth are recomputed for
// the node and every descendant, the old sibling gap is closed, and the node
// is appended to the new sibling ordering.
func (s *Store) Reparent(id string, newParentID *string) (*TaskNode, error) {
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

	// Same parent: nothing to do.
	if equalParent(node.ParentID, newParentID) {
		return node, nil
	}

	var newParent *TaskNode
	outerCeiling := sizing.Size("")
	newPath := []string{}
	newDepth := 0

	if newParentID != nil {
		newParent, err = s.getTask(tx, *newParentID)
		if err != nil {
			return nil, err
		}
		if newParent.ProjectID != node.ProjectID {
			return nil, &CrossProjectParentError{TaskProject: node.ProjectID, ParentProject: newParent.ProjectID}
		}
		if newParent.ID == node.ID || pathContains(newParent.Path, node.ID) {
			return nil, fmt.Errorf("hierarchy: cannot move task %q under itself or its own descendant", id)
		}

		cand := task.Candidate{Title: node.Title, Priority: node.Priority, Points: node.CurrentStoryPoints}
		if v := task.AgainstParentPriority(cand, newParent.Priority); v != nil {
			return nil, v
		}
		outerCeiling, err = s.nearestCeiling(tx, newParent)
		if err != nil {
			return nil, err
		}

		newPath = append(append([]string{}, newParent.Path...), newParent.ID)
		newDepth = newParent.Depth + 1
	}

	sub, err := s.subtree(tx, id)
	if err != nil {
		return nil, err
	}
	if v := checkSubtreeCeilings(sub, node.Size, outerCeiling, s.cfg.Policy); v != nil {
		return nil, v
	}

	if err := s.closeGap(tx, node); err != nil {
		return nil, err
	}
	order, err := s.nextSortOrder(tx, node.ProjectID, newParentID)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: next sort order: %w", err)
	}

	var parentArg any
	if newParentID != nil {
		parentArg = *newParentID
	}
	if _, err := tx.Exec(
		`UPDATE tasks SET parent_id = ?, path = ?, depth = ?, sort_order = ?, updated_at = datetime('now')
		 WHERE id = ?`,
		parentArg, joinPath(newPath), newDepth, order, id,
	); err != nil {
		return nil, fmt.Errorf("hierarchy: reparent: %w", err)
	}

	// Descendants keep their relative ancestry below the moved node: depth
	// shifts by a constant delta and the path prefix up to the node is
	// substituted with the new chain.
	delta := newDepth - node.Depth
	oldPrefix := len(node.Path)
	for _, d := range sub[1:] {
		dPath := append(append([]string{}, newPath...), d.Path[oldPrefix:]...)
		if _, err := tx.Exec(
			`UPDATE tasks SET path = ?, depth = ?, updated_at = datetime('now') WHERE id = ?`,
			joinPath(dPath), d.Depth+delta, d.ID,
		); err != nil {
			return nil, fmt.Errorf("hierarchy: update descendant path: %w", err)
		}
	}

	if node.ParentID != nil {
		if err := s.recomputeUpward(tx, node.ParentID); err != nil {
			return nil, err
		}
	}
	if newParentID != nil {
		if err := s.recomputeUpward(tx, newParentID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("hierarchy: commit: %w", err)
	}
	return s.GetTask(id)
}

func equalParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// checkSubtreeCeilings validates every estimated task in a subtree (BFS
// order, root first) against the story-point ceiling it would see when the
// nearest sized ancestor above the root is outerCeiling. Sized tasks inside
// the subtree shadow the outer ceiling for their own descendants; rootSize
// overrides the root's stored size so callers can test a pending change.
func checkSubtreeCeilings(sub []*TaskNode, rootSize sizing.Size, outerCeiling sizing.Size, policy sizing.Policy) *task.Violation {
	if len(sub) == 0 {
		return nil
	}
	root := sub[0]
	byID := make(map[string]*TaskNode, len(sub))
	for _, n := range sub {
		byID[n.ID] = n
	}
	sizeOf := func(n *TaskNode) sizing.Size {
		if n.ID == root.ID {
			return rootSize
		}
		return n.Size
	}

	for _, d := range sub {
		if d.CurrentStoryPoints == nil {
			continue
		}
		ceiling := outerCeiling
		if d.ID != root.ID {
			cur := d
			for cur.ParentID != nil {
				p, ok := byID[*cur.ParentID]
				if !ok {
					break
				}
				if sz := sizeOf(p); sz != "" {
					ceiling = sz
					break
				}
				if p.ID == root.ID {
					break
				}
				cur = p
			}
		}
		cand := task.Candidate{Title: d.Title, Points: d.CurrentStoryPoints}
		if v := task.AgainstSizeCeiling(cand, ceiling, policy); v != nil {
			return v
		}
	}
	return nil
}

// ─── Field updates ───────────────────────────────────────────────────────────

// SetStatus sets a leaf task's status and propagates derived status and
// completion up to the root in the same transaction. Tasks with subtasks
// have derived status and reject direct writes.
func (s *Store) SetStatus(id string, st task.Status) (*TaskNode, error) {
	if err := task.ValidateStatus(st); err != nil {
		return nil, fmt.Errorf("hierarchy: %w", err)
	}
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
	if node.HasChildren {
		return nil, ErrDerivedStatus
	}

	if _, err := tx.Exec(
		`UPDATE tasks SET status = ?, completion = ?, updated_at = datetime('now') WHERE id = ?`,
		st, statusCompletion(st), id,
	); err != nil {
		return nil, fmt.Errorf("hierarchy: set status: %w", err)
	}
	if err := s.recomputeUpward(tx, node.ParentID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("hierarchy: commit: %w", err)
	}
	return s.GetTask(id)
}

// SetPriority updates a task's priority. The priority monotonicity
// constraint is validated against the parent; raising a task's priority
// floors every descendant below the new level up to it so the constraint
// keeps holding throughout the subtree.
func (s *Store) SetPriority(id string, p task.Priority) (*TaskNode, error) {
	if err := task.ValidatePriority(p); err != nil {
		return nil, fmt.Errorf("hierarchy: %w", err)
	}
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
	if node.ParentID != nil {
		parent, err := s.getTask(tx, *node.ParentID)
		if err != nil {
			return nil, err
		}
		cand := task.Candidate{Title: node.Title, Priority: p}
		if v := task.AgainstParentPriority(cand, parent.Priority); v != nil {
			return nil, v
		}
	}

	if _, err := tx.Exec(
		`UPDATE tasks SET priority = ?, updated_at = datetime('now') WHERE id = ?`, p, id,
	); err != nil {
		return nil, fmt.Errorf("hierarchy: set priority: %w", err)
	}
	if err := s.floorDescendantPriorities(tx, id, p); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("hierarchy: commit: %w", err)
	}
	return s.GetTask(id)
}

// floorDescendantPriorities raises every descendant whose priority level is
// below min up to min.
func (s *Store) floorDescendantPriorities(q dbtx, rootID string, min task.Priority) error {
	sub, err := s.subtree(q, rootID)
	if err != nil {
		return err
	}
	for _, d := range sub[1:] {
		if d.Priority.Level() < min.Level() {
			if _, err := q.Exec(
				`UPDATE tasks SET priority = ?, updated_at = datetime('now') WHERE id = ?`, min, d.ID,
			); err != nil {
				return fmt.Errorf("hierarchy: floor descendant priority: %w", err)
			}
		}
	}
	return nil
}

// SetStoryPoints updates a task's current story points after validating
// Fibonacci membership and the nearest sized ancestor's ceiling. The first
// estimate sets initial and current together; later changes touch only
// current and bump the change counter. Re-estimating to the same value is a
// no-op.
func (s *Store) SetStoryPoints(id string, points int) (*TaskNode, error) {
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

	ceiling := sizing.Size("")
	if node.ParentID != nil {
		parent, err := s.getTask(tx, *node.ParentID)
		if err != nil {
			return nil, err
		}
		ceiling, err = s.nearestCeiling(tx, parent)
		if err != nil {
			return nil, err
		}
	}
	cand := task.Candidate{Title: node.Title, Points: &points}
	if v := task.AgainstSizeCeiling(cand, ceiling, s.cfg.Policy); v != nil {
		return nil, v
	}

	switch {
	case node.CurrentStoryPoints == nil:
		if _, err := tx.Exec(
			`UPDATE tasks SET initial_story_points = ?, current_story_points = ?, updated_at = datetime('now') WHERE id = ?`,
			points, points, id,
		); err != nil {
			return nil, fmt.Errorf("hierarchy: set story points: %w", err)
		}
	case *node.CurrentStoryPoints == points:
		return node, nil
	default:
		if _, err := tx.Exec(
			`UPDATE tasks SET current_story_points = ?,
			        story_points_change_count = story_points_change_count + 1,
			        updated_at = datetime('now')
			 WHERE id = ?`,
			points, id,
		); err != nil {
			return nil, fmt.Errorf("hierarchy: set story points: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("hierarchy: commit: %w", err)
	}
	return s.GetTask(id)
}

// SetSize updates a task's size (empty clears it). The change is rejected if
// any estimated task in the subtree would exceed the ceiling it sees after
// the change.
func (s *Store) SetSize(id string, size sizing.Size) (*TaskNode, error) {
	if size != "" && !sizing.ValidSize(size) {
		return nil, &sizing.InvalidSizeError{Size: string(size)}
	}
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

	outerCeiling := sizing.Size("")
	if node.ParentID != nil {
		parent, err := s.getTask(tx, *node.ParentID)
		if err != nil {
			return nil, err
		}
		outerCeiling, err = s.nearestCeiling(tx, parent)
		if err != nil {
			return nil, err
		}
	}
	sub, err := s.subtree(tx, id)
	if err != nil {
		return nil, err
	}
	if v := checkSubtreeCeilings(sub, size, outerCeiling, s.cfg.Policy); v != nil {
		return nil, v
	}

	var sizeArg any
	if size != "" {
		sizeArg = string(size)
	}
	if _, err := tx.Exec(
		`UPDATE tasks SET size = ?, updated_at = datetime('now') WHERE id = ?`, sizeArg, id,
	); err != nil {
		return nil, fmt.Errorf("hierarchy: set size: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("hierarchy: commit: %w", err)
	}
	return s.GetTask(id)
}

// SetDueDate sets or clears a task's due date.
func (s *Store) SetDueDate(id string, due *time.Time) (*TaskNode, error) {
	if _, err := s.GetTask(id); err != nil {
		return nil, err
	}
	if _, err := s.db.Exec(
		`UPDATE tasks SET due_date = ?, updated_at = datetime('now') WHERE id = ?`,
		dateString(due), id,
	); err != nil {
		return nil, fmt.Errorf("hierarchy: set due date: %w", err)
	}
	return s.GetTask(id)
}

// SetIteration assigns a task to an iteration (empty clears the assignment).
func (s *Store) SetIteration(id, iterationID string) (*TaskNode, error) {
	if _, err := s.GetTask(id); err != nil {
		return nil, err
	}
	var arg any
	if iterationID != "" {
		arg = iterationID
	}
	if _, err := s.db.Exec(
		`UPDATE tasks SET iteration_id = ?, updated_at = datetime('now') WHERE id = ?`, arg, id,
	); err != nil {
		return nil, fmt.Errorf("hierarchy: set iteration: %w", err)
	}
	return s.GetTask(id)
}

// ─── Breakdown batch commit ──────────────────────────────────────────────────

// ParentSnapshot captures the validation-time view of the anchor parent's
// constraints. Commit compares it against fresh state to detect that a
// lock-free validation went stale.
type ParentSnapshot struct {
	Priority    task.Priority
	CeilingSize sizing.Size
}

// SnapshotParent loads the anchor parent and the constraint snapshot used
// for optimistic re-validation at commit time. It runs without the project
// lock; batch validation is a pure read.
func (s *Store) SnapshotParent(parentID string) (*TaskNode, ParentSnapshot, error) {
	parent, err := s.getTask(s.db, parentID)
	if err != nil {
		return nil, ParentSnapshot{}, err
	}
	ceiling, err := s.nearestCeiling(s.db, parent)
	if err != nil {
		return nil, ParentSnapshot{}, err
	}
	return parent, ParentSnapshot{Priority: parent.Priority, CeilingSize: ceiling}, nil
}

// CommitSubtasks atomically inserts an accepted breakdown batch under the
// anchor parent. It re-acquires the project lock, re-reads the parent, and
// fails with a retryable StaleValidationError if the parent's priority or
// effective size ceiling changed since the snapshot was taken. Due dates are
// derived from the direct parent's due date; inbound values are discarded.
func (s *Store) CommitSubtasks(parentID string, snap ParentSnapshot, items []CreateTaskParams) ([]*TaskNode, error) {
	if len(items) == 0 {
		return nil, nil
	}
	pre, err := s.GetTask(parentID)
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

	parent, err := s.getTask(tx, parentID)
	if err != nil {
		return nil, err
	}
	ceiling, err := s.nearestCeiling(tx, parent)
	if err != nil {
		return nil, err
	}
	if parent.Priority != snap.Priority || ceiling != snap.CeilingSize {
		return nil, &StaleValidationError{ParentID: parentID}
	}

	order, err := s.nextSortOrder(tx, parent.ProjectID, &parentID)
	if err != nil {
		return nil, fmt.Errorf("hierarchy: next sort order: %w", err)
	}
	path := append(append([]string{}, parent.Path...), parent.ID)
	now := timeNow()

	ids := make([]string, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.Title) == "" {
			return nil, fmt.Errorf("hierarchy: subtask title is required")
		}
		if it.Status == "" {
			it.Status = task.StatusPending
		}
		if err := task.ValidateStatus(it.Status); err != nil {
			return nil, fmt.Errorf("hierarchy: %w", err)
		}
		if it.Priority == "" {
			it.Priority = task.PriorityMedium.Max(parent.Priority)
		}

		// Constraints were checked lock-free by the caller; re-check against
		// the fresh parent so a concurrent change cannot slip a violation in.
		cand := task.Candidate{Title: it.Title, Priority: it.Priority, Points: it.StoryPoints, Size: it.Size}
		if v := task.SubtaskSize(cand); v != nil {
			return nil, v
		}
		if v := task.AgainstParentPriority(cand, parent.Priority); v != nil {
			return nil, v
		}
		if v := task.AgainstSizeCeiling(cand, ceiling, s.cfg.Policy); v != nil {
			return nil, v
		}

		it.ProjectID = parent.ProjectID
		it.ParentID = &parentID
		it.DueDate = ComputeDueDate(parent.DueDate, it.Priority, now)

		id := uuid.NewString()
		if err := s.insertTask(tx, id, path, parent.Depth+1, order, it); err != nil {
			return nil, err
		}
		ids = append(ids, id)
		order++
	}

	if err := s.recomputeUpward(tx, &parentID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("hierarchy: commit: %w", err)
	}

	created := make([]*TaskNode, 0, len(ids))
	for _, id := range ids {
		n, err := s.GetTask(id)
		if err != nil {
			return nil, err
		}
		created = append(created, n)
	}
	return created, nil
}
