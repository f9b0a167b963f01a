package task

import "fmt"

// ViolationKind discriminates the constraint a candidate broke.
type ViolationKind string

const (
	ViolationPriorityBelowParent ViolationKind = "priority_below_parent"
	ViolationNotFibonacci        ViolationKind = "not_fibonacci"
	ViolationPointsAboveCeiling  ViolationKind = "points_above_ceiling"
	ViolationSizeOnSubtask       ViolationKind = "size_on_subtask"
)

// Violation is a structured validation failure. Violations carry the runtime
// values involved; the human-readable wording is produced only by Message so
// the exact templates live in one place. Upstream consumers pattern-match on
// substrings like "cannot have lower priority" and "maximum allowed is", so
// the templates are part of the contract.
type Violation struct {
	Kind      ViolationKind
	TaskTitle string
	Actual    int
	Max       int
}

// Message renders the violation as its contractual human-readable string.
func (v *Violation) Message() string {
	switch v.Kind {
	case ViolationPriorityBelowParent:
		return fmt.Sprintf("Subtask '%s' cannot have lower priority than its parent", v.TaskTitle)
	case ViolationNotFibonacci:
		return fmt.Sprintf("Subtask '%s' has %d story points, which is not a Fibonacci value (1, 2, 3, 5, 8, 13, 21, 34, 55, 89)", v.TaskTitle, v.Actual)
	case ViolationPointsAboveCeiling:
		return fmt.Sprintf("Subtask '%s' has %d story points, but maximum allowed is %d", v.TaskTitle, v.Actual, v.Max)
	case ViolationSizeOnSubtask:
		return fmt.Sprintf("Subtask '%s' must not carry a size: sizes belong to tasks being broken down", v.TaskTitle)
	}
	return fmt.Sprintf("Subtask '%s' failed validation (%s)", v.TaskTitle, v.Kind)
}

// Error makes a Violation usable as a per-field validation error on
// single-task operations. Batch operations collect violations instead of
// returning them as errors.
func (v *Violation) Error() string {
	return v.Message()
}

// Messages renders a violation list in order, skipping nil entries.
// Batch validators return one slot per candidate, nil meaning valid.
func Messages(violations []*Violation) []string {
	var out []string
	for _, v := range violations {
		if v != nil {
			out = append(out, v.Message())
		}
	}
	return out
}
