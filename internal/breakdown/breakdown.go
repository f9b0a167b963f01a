// Package breakdown validates externally-proposed subtask batches — AI- or
// form-sourced — against an anchor parent task and commits accepted batches
// atomically.
//
// Validation is a pure, lock-free read: it collects every violation in input
// order and accepts the batch only when there are none (all-or-nothing,
// never per-item partial acceptance). Commit re-acquires the project lock
// and re-validates against fresh parent state; if the parent's priority or
// effective size ceiling changed in between, the whole commit fails with a
// retryable StaleValidationError.
package breakdown

import (
	"github.com/taskdeck/taskdeck/internal/hierarchy"
	"github.com/taskdeck/taskdeck/internal/sizing"
	"github.com/taskdeck/taskdeck/internal/task"
)

// ProposedTask is one inbound candidate subtask record. Due dates on inbound
// records are advisory only — the engine derives the committed due date from
// the direct parent's due date. A size on a subtask-level record is a
// violation.
type ProposedTask struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Status      task.Status   `json:"status,omitempty"`
	Priority    task.Priority `json:"priority,omitempty"`
	StoryPoints *int          `json:"story_points,omitempty"`
	Size        string        `json:"size,omitempty"`
	DueDate     string        `json:"due_date,omitempty"`
}

// Result is the batch validation outcome. Violations are human-readable and
// ordered by candidate; callers surface them verbatim.
type Result struct {
	Accepted   bool     `json:"accepted"`
	Violations []string `json:"violations,omitempty"`
}

// Planner runs breakdown validation and commit against a hierarchy store.
type Planner struct {
	store *hierarchy.Store
}

// NewPlanner creates a Planner backed by the given store.
func NewPlanner(store *hierarchy.Store) *Planner {
	return &Planner{store: store}
}

// Validate runs the lock-free first pass for a proposed batch against the
// anchor parent. The returned snapshot must be passed to Commit so the
// commit can detect stale validations.
func (p *Planner) Validate(parentID string, proposed []ProposedTask) (*Result, hierarchy.ParentSnapshot, error) {
	parent, snap, err := p.store.SnapshotParent(parentID)
	if err != nil {
		return nil, snap, err
	}

	var msgs []string
	for _, pt := range proposed {
		cand := task.Candidate{
			Title:    pt.Title,
			Priority: pt.Priority,
			Points:   pt.StoryPoints,
			Size:     sizing.Size(pt.Size),
		}
		if pt.Status != "" {
			if err := task.ValidateStatus(pt.Status); err != nil {
				msgs = append(msgs, "Subtask '"+pt.Title+"': "+err.Error())
			}
		}
		if pt.Priority != "" {
			if err := task.ValidatePriority(pt.Priority); err != nil {
				msgs = append(msgs, "Subtask '"+pt.Title+"': "+err.Error())
				// An unknown priority cannot be ordered against the parent's.
				cand.Priority = ""
			}
		}
		if v := task.SubtaskSize(cand); v != nil {
			msgs = append(msgs, v.Message())
		}
		if v := task.AgainstParentPriority(cand, parent.Priority); v != nil {
			msgs = append(msgs, v.Message())
		}
		if v := task.AgainstSizeCeiling(cand, snap.CeilingSize, p.store.Policy()); v != nil {
			msgs = append(msgs, v.Message())
		}
	}

	return &Result{Accepted: len(msgs) == 0, Violations: msgs}, snap, nil
}

// Commit inserts a previously validated batch under the anchor parent. The
// snapshot must come from the Validate call that accepted the batch; a
// StaleValidationError means the parent changed and the caller should
// re-validate and retry.
func (p *Planner) Commit(parentID string, proposed []ProposedTask, snap hierarchy.ParentSnapshot) ([]*hierarchy.TaskNode, error) {
	items := make([]hierarchy.CreateTaskParams, len(proposed))
	for i, pt := range proposed {
		items[i] = hierarchy.CreateTaskParams{
			Title:       pt.Title,
			Description: pt.Description,
			Status:      pt.Status,
			Priority:    pt.Priority,
			StoryPoints: pt.StoryPoints,
		}
	}
	return p.store.CommitSubtasks(parentID, snap, items)
}

// Propose is the one-shot entry point: validate, and commit only when the
// whole batch is accepted. A rejected batch returns the violation list with
// nothing written.
func (p *Planner) Propose(parentID string, proposed []ProposedTask) (*Result, []*hierarchy.TaskNode, error) {
	res, snap, err := p.Validate(parentID, proposed)
	if err != nil {
		return nil, nil, err
	}
	if !res.Accepted {
		return res, nil, nil
	}
	created, err := p.Commit(parentID, proposed, snap)
	if err != nil {
		return res, nil, err
	}
	return res, created, nil
}
