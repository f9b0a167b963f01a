package hierarchy

import (
	"fmt"
	"strings"

	"github.com/taskdeck/taskdeck/internal/task"
)

// TaskView is the per-task view model handed to presentation layers.
type TaskView struct {
	ID                     string        `json:"id"`
	Title                  string        `json:"title"`
	Description            string        `json:"description,omitempty"`
	Status                 task.Status   `json:"status"`
	Priority               task.Priority `json:"priority"`
	Depth                  int           `json:"depth"`
	IsLeaf                 bool          `json:"is_leaf"`
	IsTopLevel             bool          `json:"is_top_level"`
	HasChildren            bool          `json:"has_children"`
	ParentID               *string       `json:"parent_id,omitempty"`
	CompletionPercentage   float64       `json:"completion_percentage"`
	CurrentStoryPoints     *int          `json:"current_story_points,omitempty"`
	InitialStoryPoints     *int          `json:"initial_story_points,omitempty"`
	StoryPointsChangeCount int           `json:"story_points_change_count"`
	DueDate                string        `json:"due_date,omitempty"`
}

func viewOf(n *TaskNode) *TaskView {
	v := &TaskView{
		ID:                     n.ID,
		Title:                  n.Title,
		Description:            n.Description,
		Status:                 n.Status,
		Priority:               n.Priority,
		Depth:                  n.Depth,
		IsLeaf:                 n.IsLeaf(),
		IsTopLevel:             n.IsTopLevel(),
		HasChildren:            n.HasChildren,
		ParentID:               n.ParentID,
		CompletionPercentage:   n.Completion,
		CurrentStoryPoints:     n.CurrentStoryPoints,
		InitialStoryPoints:     n.InitialStoryPoints,
		StoryPointsChangeCount: n.StoryPointsChangeCount,
	}
	if n.DueDate != nil {
		v.DueDate = n.DueDate.Format(dateLayout)
	}
	return v
}

// ViewTask returns the view model for a single task.
func (s *Store) ViewTask(id string) (*TaskView, error) {
	n, err := s.GetTask(id)
	if err != nil {
		return nil, err
	}
	return viewOf(n), nil
}

// ProjectTree returns a project's tasks as view models in flattened display
// order (depth-first by sort_order).
func (s *Store) ProjectTree(projectID string) ([]*TaskView, error) {
	if _, err := s.GetProject(projectID); err != nil {
		return nil, err
	}
	flat, err := s.flatOrder(s.db, projectID)
	if err != nil {
		return nil, err
	}
	views := make([]*TaskView, 0, len(flat))
	for _, e := range flat {
		views = append(views, viewOf(e.node))
	}
	return views, nil
}

// LeafTaskFilter narrows a leaf-task query. Empty fields match everything.
type LeafTaskFilter struct {
	IterationID string
	Status      task.Status
}

// LeafTasks returns a project's leaf tasks — the only directly assignable
// unit of work — optionally filtered by iteration and status. Non-leaf
// nodes never appear in the result, so point totals computed from it are
// not double-counted.
func (s *Store) LeafTasks(projectID string, f LeafTaskFilter) ([]*TaskNode, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t
		WHERE t.project_id = ?
		  AND NOT EXISTS(SELECT 1 FROM tasks c WHERE c.parent_id = t.id)`
	args := []any{projectID}

	if f.IterationID != "" {
		query += " AND t.iteration_id = ?"
		args = append(args, f.IterationID)
	}
	if f.Status != "" {
		if err := task.ValidateStatus(f.Status); err != nil {
			return nil, fmt.Errorf("hierarchy: %w", err)
		}
		query += " AND t.status = ?"
		args = append(args, f.Status)
	}
	query += " ORDER BY t.depth, t.sort_order"

	return s.queryTasks(s.db, query, args...)
}

// FormatTree renders a project tree as markdown for tool output.
func FormatTree(projectName string, views []*TaskView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", projectName)
	if len(views) == 0 {
		b.WriteString("_No tasks yet._\n")
		return b.String()
	}

	for _, v := range views {
		indent := strings.Repeat("  ", v.Depth)
		fmt.Fprintf(&b, "%s- %s **%s** (%s, %s", indent, statusGlyph(v.Status), v.Title, v.Status, v.Priority)
		if v.CurrentStoryPoints != nil {
			fmt.Fprintf(&b, ", %d pts", *v.CurrentStoryPoints)
		}
		if v.DueDate != "" {
			fmt.Fprintf(&b, ", due %s", v.DueDate)
		}
		fmt.Fprintf(&b, ") — %.0f%%\n", v.CompletionPercentage)
	}
	return b.String()
}

func statusGlyph(st task.Status) string {
	switch st {
	case task.StatusCompleted:
		return "[x]"
	case task.StatusInProgress:
		return "[~]"
	default:
		return "[ ]"
	}
}
