package hierarchy

import (
	"strings"
	"time"

	"github.com/taskdeck/taskdeck/internal/sizing"
	"github.com/taskdeck/taskdeck/internal/task"
)

// Project is the scope for one task tree. All hierarchy operations are
// confined to a single project; cross-project parenting is forbidden.
type Project struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	CreatedAt string     `json:"created_at"`
}

// TaskNode is one node in a project's task tree.
//
// Path holds the ancestor chain root-to-immediate-parent and, together with
// Depth, is recomputed whenever ancestry changes. SortOrder is unique and
// contiguous within a sibling group, starting at 1. Completion and, for
// non-leaf nodes, Status are derived fields maintained by the aggregator.
type TaskNode struct {
	ID                     string        `json:"id"`
	ProjectID              string        `json:"project_id"`
	ParentID               *string       `json:"parent_id,omitempty"`
	Path                   []string      `json:"path"`
	Depth                  int           `json:"depth"`
	SortOrder              int           `json:"sort_order"`
	Title                  string        `json:"title"`
	Description            string        `json:"description,omitempty"`
	Status                 task.Status   `json:"status"`
	Priority               task.Priority `json:"priority"`
	Size                   sizing.Size   `json:"size,omitempty"`
	InitialStoryPoints     *int          `json:"initial_story_points,omitempty"`
	CurrentStoryPoints     *int          `json:"current_story_points,omitempty"`
	StoryPointsChangeCount int           `json:"story_points_change_count"`
	Completion             float64       `json:"completion_percentage"`
	DueDate                *time.Time    `json:"due_date,omitempty"`
	IterationID            string        `json:"iteration_id,omitempty"`
	HasChildren            bool          `json:"has_children"`
	CreatedAt              string        `json:"created_at"`
	UpdatedAt              string        `json:"updated_at"`
}

// IsTopLevel reports whether the task has no parent.
func (n *TaskNode) IsTopLevel() bool {
	return n.ParentID == nil
}

// IsLeaf reports whether the task has no children. Leaves are the only unit
// of directly assignable work.
func (n *TaskNode) IsLeaf() bool {
	return !n.HasChildren
}

// CreateTaskParams holds the input for creating a single task.
type CreateTaskParams struct {
	ProjectID   string
	ParentID    *string
	Title       string
	Description string
	Status      task.Status   // defaults to pending
	Priority    task.Priority // defaults to medium, or the parent's priority if higher
	Size        sizing.Size   // only valid on tasks without a parent
	StoryPoints *int
	DueDate     *time.Time
	IterationID string
}

// --- Path encoding ---

// Paths are persisted as id chains joined with "/", root first.
const pathSep = "/"

func joinPath(path []string) string {
	return strings.Join(path, pathSep)
}

func splitPath(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, pathSep)
}

func pathContains(path []string, id string) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}
