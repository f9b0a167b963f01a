package task

import "github.com/taskdeck/taskdeck/internal/sizing"

// Candidate is the validator-facing view of a proposed or updated task.
// Points is nil when the candidate carries no estimate; Size is empty for
// subtask-level candidates (any non-empty value is itself a violation in
// breakdown batches).
type Candidate struct {
	Title    string
	Priority Priority
	Points   *int
	Size     sizing.Size
}

// --- Priority constraint ---

// AgainstParentPriority checks the priority monotonicity constraint: a child
// may never have a lower priority level than its parent. A candidate with no
// resolvable parent (empty parent priority) is unconstrained. Returns nil
// when the candidate is valid.
func AgainstParentPriority(c Candidate, parent Priority) *Violation {
	if parent == "" {
		return nil
	}
	if c.Priority == "" {
		// Unstated priorities inherit the parent's level downstream and
		// can never violate the constraint.
		return nil
	}
	if c.Priority.Level() < parent.Level() {
		return &Violation{Kind: ViolationPriorityBelowParent, TaskTitle: c.Title}
	}
	return nil
}

// PriorityBatch validates every candidate independently against the same
// anchor parent. The result has one entry per candidate in input order,
// nil for valid items.
func PriorityBatch(candidates []Candidate, parent Priority) []*Violation {
	out := make([]*Violation, len(candidates))
	for i, c := range candidates {
		out[i] = AgainstParentPriority(c, parent)
	}
	return out
}

// --- Story-point constraint ---

// AgainstSizeCeiling checks a candidate's story points for Fibonacci
// membership and, when ceiling is non-empty, against the ceiling implied by
// that size under the given policy. A candidate without points is valid.
// Returns nil when the candidate is valid.
func AgainstSizeCeiling(c Candidate, ceiling sizing.Size, policy sizing.Policy) *Violation {
	if c.Points == nil {
		return nil
	}
	points := *c.Points
	if !sizing.IsFibonacci(points) {
		return &Violation{Kind: ViolationNotFibonacci, TaskTitle: c.Title, Actual: points}
	}
	if ceiling == "" {
		return nil
	}
	max, err := policy.MaxPoints(ceiling)
	if err != nil {
		// Unknown ceiling sizes are rejected before they reach the store,
		// so treat the candidate as unconstrained here.
		return nil
	}
	if points > max {
		return &Violation{Kind: ViolationPointsAboveCeiling, TaskTitle: c.Title, Actual: points, Max: max}
	}
	return nil
}

// PointsBatch validates every candidate's story points against the same
// ceiling size. One entry per candidate in input order, nil for valid items.
func PointsBatch(candidates []Candidate, ceiling sizing.Size, policy sizing.Policy) []*Violation {
	out := make([]*Violation, len(candidates))
	for i, c := range candidates {
		out[i] = AgainstSizeCeiling(c, ceiling, policy)
	}
	return out
}

// SubtaskSize rejects candidates that carry a size: only tasks intended to
// be broken down are sized, never the subtasks proposed under them.
func SubtaskSize(c Candidate) *Violation {
	if c.Size != "" {
		return &Violation{Kind: ViolationSizeOnSubtask, TaskTitle: c.Title}
	}
	return nil
}
