package tasktools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/taskdeck/taskdeck/internal/hierarchy"
)

// DeleteTool handles the task_delete MCP tool: cascade deletion of a task
// and its entire subtree.
type DeleteTool struct {
	store *hierarchy.Store
}

// NewDeleteTool creates a DeleteTool with the given store.
func NewDeleteTool(store *hierarchy.Store) *DeleteTool {
	return &DeleteTool{store: store}
}

// Definition returns the MCP tool definition for task_delete.
func (t *DeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("task_delete",
		mcp.WithDescription(
			"Delete a task and every task below it in one atomic operation. "+
				"Sibling ordering stays contiguous and the former parent's status and "+
				"completion are recomputed. This cannot be undone.",
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task to delete (its whole subtree goes with it)"),
		),
	)
}

// Handle processes the task_delete tool call.
func (t *DeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("task_id", "")
	if id == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}

	n, err := t.store.DeleteTask(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete task: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted %d task(s)", n)), nil
}
