package tasktools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/taskdeck/taskdeck/internal/hierarchy"
)

// TreeTool handles the task_tree MCP tool: the project's task tree in
// flattened display order.
type TreeTool struct {
	store *hierarchy.Store
}

// NewTreeTool creates a TreeTool with the given store.
func NewTreeTool(store *hierarchy.Store) *TreeTool {
	return &TreeTool{store: store}
}

// Definition returns the MCP tool definition for task_tree.
func (t *TreeTool) Definition() mcp.Tool {
	return mcp.NewTool("task_tree",
		mcp.WithDescription(
			"Show a project's task tree in display order (depth-first by position), "+
				"with status, priority, story points, due dates and completion percentages. "+
				"format=json returns the raw view models instead of markdown.",
		),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project to show"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: markdown (default) | json"),
		),
	)
}

// Handle processes the task_tree tool call.
func (t *TreeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID := req.GetString("project_id", "")
	if projectID == "" {
		return mcp.NewToolResultError("'project_id' is required"), nil
	}

	project, err := t.store.GetProject(projectID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load project: %v", err)), nil
	}
	views, err := t.store.ProjectTree(projectID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load task tree: %v", err)), nil
	}

	if req.GetString("format", "markdown") == "json" {
		return mcp.NewToolResultText(renderJSON(views)), nil
	}
	return mcp.NewToolResultText(hierarchy.FormatTree(project.Name, views)), nil
}
