package tasktools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/taskdeck/taskdeck/internal/hierarchy"
	"github.com/taskdeck/taskdeck/internal/sizing"
	"github.com/taskdeck/taskdeck/internal/task"
)

// UpdateTool handles the task_update MCP tool: field updates on a single
// task. Each provided field is applied through the engine operation that
// enforces its constraint; omitted fields are left untouched.
type UpdateTool struct {
	store *hierarchy.Store
}

// NewUpdateTool creates an UpdateTool with the given store.
func NewUpdateTool(store *hierarchy.Store) *UpdateTool {
	return &UpdateTool{store: store}
}

// Definition returns the MCP tool definition for task_update.
func (t *UpdateTool) Definition() mcp.Tool {
	return mcp.NewTool("task_update",
		mcp.WithDescription(
			"Update fields on a task. Status writes are only allowed on leaf tasks — "+
				"a task with subtasks derives its status and completion from them. "+
				"Raising priority floors every descendant up to the new level. "+
				"Story points must stay Fibonacci and within the nearest sized ancestor's ceiling; "+
				"re-estimates bump the change counter. "+
				"Set clear_due_date to remove the due date.",
		),
		mcp.WithString("task_id",
			mcp.Required(),
			mcp.Description("Task to update"),
		),
		mcp.WithString("status",
			mcp.Description("New status: pending | in_progress | completed (leaf tasks only)"),
		),
		mcp.WithString("priority",
			mcp.Description("New priority: low | medium | high (must stay at or above the parent's)"),
		),
		mcp.WithNumber("story_points",
			mcp.Description("New story point estimate (Fibonacci)"),
		),
		mcp.WithString("size",
			mcp.Description("New size: xs | s | m | l | xl, or 'none' to clear"),
		),
		mcp.WithString("due_date",
			mcp.Description("New due date (YYYY-MM-DD)"),
		),
		mcp.WithBoolean("clear_due_date",
			mcp.Description("Remove the due date"),
		),
		mcp.WithString("iteration_id",
			mcp.Description("Iteration to assign, or 'none' to clear"),
		),
	)
}

// Handle processes the task_update tool call, applying the provided fields in
// a fixed order and stopping at the first rejection.
func (t *UpdateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("task_id", "")
	if id == "" {
		return mcp.NewToolResultError("'task_id' is required"), nil
	}

	applied := 0

	if st := req.GetString("status", ""); st != "" {
		if _, err := t.store.SetStatus(id, task.Status(st)); err != nil {
			if errors.Is(err, hierarchy.ErrDerivedStatus) {
				return mcp.NewToolResultError(
					"this task has subtasks; its status is derived from them — update the subtasks instead",
				), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("failed to set status: %v", err)), nil
		}
		applied++
	}
	if pr := req.GetString("priority", ""); pr != "" {
		if _, err := t.store.SetPriority(id, task.Priority(pr)); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to set priority: %v", err)), nil
		}
		applied++
	}
	if points := intArg(req, "story_points", 0); points > 0 {
		if _, err := t.store.SetStoryPoints(id, points); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to set story points: %v", err)), nil
		}
		applied++
	}
	if sz := req.GetString("size", ""); sz != "" {
		if sz == "none" {
			sz = ""
		}
		if _, err := t.store.SetSize(id, sizing.Size(sz)); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to set size: %v", err)), nil
		}
		applied++
	}
	if boolArg(req, "clear_due_date", false) {
		if _, err := t.store.SetDueDate(id, nil); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to clear due date: %v", err)), nil
		}
		applied++
	} else if ds := req.GetString("due_date", ""); ds != "" {
		due, err := parseDateArg(ds)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if _, err := t.store.SetDueDate(id, due); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to set due date: %v", err)), nil
		}
		applied++
	}
	if it := req.GetString("iteration_id", ""); it != "" {
		if it == "none" {
			it = ""
		}
		if _, err := t.store.SetIteration(id, it); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to set iteration: %v", err)), nil
		}
		applied++
	}

	if applied == 0 {
		return mcp.NewToolResultError("no fields to update — provide at least one of status, priority, story_points, size, due_date, clear_due_date, iteration_id"), nil
	}

	view, err := t.store.ViewTask(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load updated task: %v", err)), nil
	}
	return mcp.NewToolResultText(renderJSON(view)), nil
}
