package tasktools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/taskdeck/taskdeck/internal/hierarchy"
)

// ReorderTool handles the task_reorder MCP tool: moving a task to a new
// position in the project's flattened display order. A subtask can only land
// inside its parent's sibling block; the rejection message for anything
// outside is part of the contract and surfaced verbatim.
type ReorderTool struct {
	store *hierarchy.Store
}

// NewReorderTool creates a ReorderTool with the given store.
func NewReorderTool(store *hierarchy.Store) *ReorderTool {
	return &ReorderTool{store: store}
}

// Definition returns the MCP tool definition for task_reorder.
func (t *ReorderTool) Definition() mcp.Tool {
	return mcp.NewTool("task_reorder",
		mcp.WithDescription(
			"Move a task to a new position in the project's flattened display order. "+
				"Subtasks may only move within their parent's sibling block; reordering never "+
				"changes a task's parent (use task_reparent for that). Top-level tasks may take "+
				"any top-level position. With confirmed=true the move may raise the task's "+
				"priority to the parent's level.",
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task to move"),
		),
		mcp.WithNumber("position",
			mcp.Required(),
			mcp.Description("Target position in the flattened display order (1-based)"),
		),
		mcp.WithBoolean("confirmed",
			mcp.Description("Allow the move to raise the task's priority to the parent's level"),
		),
	)
}

// Handle processes the task_reorder tool call.
func (t *ReorderTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("task_id", "")
	if id == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}
	position := intArg(req, "position", 0)
	if position < 1 {
		return mcp.NewToolResultError("'position' must be a positive integer"), nil
	}

	res, err := t.store.ReorderTo(id, position, boolArg(req, "confirmed", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to reorder task: %v", err)), nil
	}
	return mcp.NewToolResultText(renderJSON(res)), nil
}
