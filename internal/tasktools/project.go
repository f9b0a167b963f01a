package tasktools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/taskdeck/taskdeck/internal/hierarchy"
)

// ProjectCreateTool handles the project_create MCP tool.
type ProjectCreateTool struct {
	store *hierarchy.Store
}

// NewProjectCreateTool creates a ProjectCreateTool with the given store.
func NewProjectCreateTool(store *hierarchy.Store) *ProjectCreateTool {
	return &ProjectCreateTool{store: store}
}

// Definition returns the MCP tool definition for project_create.
func (t *ProjectCreateTool) Definition() mcp.Tool {
	return mcp.NewTool("project_create",
		mcp.WithDescription(
			"Create a project: an isolated scope owning one task tree. "+
				"Tasks never reference parents outside their own project.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Project name"),
		),
		mcp.WithString("due_date",
			mcp.Description("Optional project due date (YYYY-MM-DD). Informational only; subtask due dates derive from their direct parent task, never the project."),
		),
	)
}

// Handle processes the project_create tool call.
func (t *ProjectCreateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}
	due, err := parseDateArg(req.GetString("due_date", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p, err := t.store.CreateProject(name, due)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create project: %v", err)), nil
	}
	return mcp.NewToolResultText(renderJSON(p)), nil
}
