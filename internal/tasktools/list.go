package tasktools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/taskdeck/taskdeck/internal/hierarchy"
	"github.com/taskdeck/taskdeck/internal/task"
)

// ListTool handles the task_list MCP tool: a project's leaf tasks — the only
// directly assignable unit of work — optionally filtered by iteration and
// status.
type ListTool struct {
	store *hierarchy.Store
}

// NewListTool creates a ListTool with the given store.
func NewListTool(store *hierarchy.Store) *ListTool {
	return &ListTool{store: store}
}

// Definition returns the MCP tool definition for task_list.
func (t *ListTool) Definition() mcp.Tool {
	return mcp.NewTool("task_list",
		mcp.WithDescription(
			"List a project's leaf tasks (tasks without subtasks — the assignable unit of work). "+
				"Parent tasks never appear, so story-point totals over the result are not "+
				"double-counted. Filter by iteration and/or status.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project to list"),
		),
		mcp.WithString("iteration_id",
			mcp.Description("Only tasks assigned to this iteration"),
		),
		mcp.WithString("status",
			mcp.Description("Only tasks with this status: pending | in_progress | completed"),
		),
	)
}

// Handle processes the task_list tool call.
func (t *ListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := req.GetString("project_id", "")
	if projectID == "" {
		return mcp.NewToolResultError("'project_id' is required"), nil
	}

	if _, err := t.store.GetProject(projectID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load project: %v", err)), nil
	}

	nodes, err := t.store.LeafTasks(projectID, hierarchy.LeafTaskFilter{
		IterationID: req.GetString("iteration_id", ""),
		Status:      task.Status(req.GetString("status", "")),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list tasks: %v", err)), nil
	}

	views := make([]*hierarchy.TaskView, 0, len(nodes))
	for _, n := range nodes {
		view, err := t.store.ViewTask(n.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to load task: %v", err)), nil
		}
		views = append(views, view)
	}
	return mcp.NewToolResultText(renderJSON(views)), nil
}
