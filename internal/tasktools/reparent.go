package tasktools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/taskdeck/taskdeck/internal/hierarchy"
)

// ReparentTool handles the task_reparent MCP tool: moving a task and its
// whole subtree under a new parent, or to the top level.
type ReparentTool struct {
	store *hierarchy.Store
}

// NewReparentTool creates a ReparentTool with the given store.
func NewReparentTool(store *hierarchy.Store) *ReparentTool {
	return &ReparentTool{store: store}
}

// Definition returns the MCP tool definition for task_reparent.
func (t *ReparentTool) Definition() mcp.Tool {
	return mcp.NewTool("task_reparent",
		mcp.WithDescription(
			"Move a task (with its entire subtree) under a new parent in the same project, "+
				"or to the top level when new_parent_id is omitted. The move is rejected when it "+
				"would cross projects, create a cycle, break the priority constraint against the "+
				"new parent, or push any estimated descendant over the ceiling it would see on "+
				"the new chain. Depth and ancestry are recomputed for every moved task.",
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task to move"),
		),
		mcp.WithString("new_parent_id",
			mcp.Description("New parent task — omit to move the task to the top level"),
		),
	)
}

// Handle processes the task_reparent tool call.
func (t *ReparentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("task_id", "")
	if id == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}

	node, err := t.store.Reparent(id, optionalString(req.GetString("new_parent_id", "")))
	if err != nil {
		var cross *hierarchy.CrossProjectParentError
		if errors.As(err, &cross) {
			return mcp.NewToolResultError(cross.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to reparent task: %v", err)), nil
	}

	view, err := t.store.ViewTask(node.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load moved task: %v", err)), nil
	}
	return mcp.NewToolResultText(renderJSON(view)), nil
}
