package tasktools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/taskdeck/taskdeck/internal/hierarchy"
	"github.com/taskdeck/taskdeck/internal/sizing"
	"github.com/taskdeck/taskdeck/internal/task"
)

// CreateTool handles the task_create MCP tool. It inserts one task — top
// level or under a parent — with the hierarchy engine enforcing the priority
// and story-point constraints before anything is written.
type CreateTool struct {
	store *hierarchy.Store
}

// NewCreateTool creates a CreateTool with the given store.
func NewCreateTool(store *hierarchy.Store) *CreateTool {
	return &CreateTool{store: store}
}

// Definition returns the MCP tool definition for task_create.
func (t *CreateTool) Definition() mcp.Tool {
	return mcp.NewTool("task_create",
		mcp.WithDescription(
			"Create a task. With parent_id the task becomes a subtask and must satisfy "+
				"the hierarchy constraints: priority at or above the parent's, story points "+
				"from the Fibonacci set and within the nearest sized ancestor's ceiling. "+
				"Size (xs/s/m/l/xl) is only meaningful on top-level tasks.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project the task belongs to"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Task title"),
		),
		mcp.WithString("description",
			mcp.Description("Task description"),
		),
		mcp.WithString("parent_id",
			mcp.Description("Parent task ID — omit for a top-level task"),
		),
		mcp.WithString("status",
			mcp.Description("Initial status: pending | in_progress | completed (default pending). Ignored once the task has subtasks; status is then derived."),
		),
		mcp.WithString("priority",
			mcp.Description("Priority: low | medium | high. Subtasks default to the parent's priority, at least medium."),
		),
		mcp.WithNumber("story_points",
			mcp.Description("Story point estimate — must be a Fibonacci number (1, 2, 3, 5, 8, 13, 21, 34, 55, 89)"),
		),
		mcp.WithString("size",
			mcp.Description("T-shirt size for top-level tasks: xs | s | m | l | xl. Caps descendant story points."),
		),
		mcp.WithString("due_date",
			mcp.Description("Due date (YYYY-MM-DD)"),
		),
		mcp.WithString("iteration_id",
			mcp.Description("Iteration to assign the task to"),
		),
	)
}

// Handle processes the task_create tool call.
func (t *CreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := req.GetString("project_id", "")
	title := req.GetString("title", "")
	if projectID == "" || title == "" {
		return mcp.NewToolResultError("'project_id' and 'title' are required"), nil
	}

	due, err := parseDateArg(req.GetString("due_date", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p := hierarchy.CreateTaskParams{
		ProjectID:   projectID,
		ParentID:    optionalString(req.GetString("parent_id", "")),
		Title:       title,
		Description: req.GetString("description", ""),
		Status:      task.Status(req.GetString("status", "")),
		Priority:    task.Priority(req.GetString("priority", "")),
		Size:        sizing.Size(req.GetString("size", "")),
		DueDate:     due,
		IterationID: req.GetString("iteration_id", ""),
	}
	if points := intArg(req, "story_points", 0); points > 0 {
		p.StoryPoints = &points
	}

	node, err := t.store.CreateTask(p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create task: %v", err)), nil
	}
	view, err := t.store.ViewTask(node.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load created task: %v", err)), nil
	}
	return mcp.NewToolResultText(renderJSON(view)), nil
}
