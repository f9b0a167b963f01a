package tasktools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/taskdeck/taskdeck/internal/breakdown"
	"github.com/taskdeck/taskdeck/internal/hierarchy"
)

// BreakdownTool handles the task_breakdown MCP tool: batch validation and
// atomic commit of proposed subtasks under a parent task. Rejected batches
// are normal results carrying the violation messages verbatim — nothing is
// written unless every candidate passes.
type BreakdownTool struct {
	planner *breakdown.Planner
	store   *hierarchy.Store
}

// NewBreakdownTool creates a BreakdownTool with the given planner and store.
func NewBreakdownTool(planner *breakdown.Planner, store *hierarchy.Store) *BreakdownTool {
	return &BreakdownTool{planner: planner, store: store}
}

// Definition returns the MCP tool definition for task_breakdown.
func (t *BreakdownTool) Definition() mcp.Tool {
	return mcp.NewTool("task_breakdown",
		mcp.WithDescription(
			"Validate a batch of proposed subtasks against a parent task and, when every "+
				"candidate passes, commit them atomically in the given order. "+
				"Checks per candidate: priority at or above the parent's, story points from the "+
				"Fibonacci set and within the nearest sized ancestor's ceiling, no size on subtasks. "+
				"All-or-nothing: one violation rejects the whole batch with nothing written. "+
				"Committed subtasks get due dates derived from the parent's due date by priority. "+
				"Set commit=false to validate only.",
		),
		mcp.WithString("parent_id",
			mcp.Required(),
			mcp.Description("Parent task the subtasks go under"),
		),
		mcp.WithString("subtasks",
			mcp.Required(),
			mcp.Description(
				"JSON array of proposed subtasks, e.g. "+
					`[{"title": "...", "description": "...", "priority": "high", "story_points": 3}]`,
			),
		),
		mcp.WithBoolean("commit",
			mcp.Description("Commit the batch when it validates (default true). false = dry run."),
		),
	)
}

// Handle processes the task_breakdown tool call.
func (t *BreakdownTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	parentID := req.GetString("parent_id", "")
	raw := req.GetString("subtasks", "")
	if parentID == "" || raw == "" {
		return mcp.NewToolResultError("'parent_id' and 'subtasks' are required"), nil
	}

	var proposed []breakdown.ProposedTask
	if err := json.Unmarshal([]byte(raw), &proposed); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'subtasks' must be a JSON array of subtask objects: %v", err)), nil
	}
	if len(proposed) == 0 {
		return mcp.NewToolResultError("'subtasks' must contain at least one subtask"), nil
	}

	if !boolArg(req, "commit", true) {
		res, _, err := t.planner.Validate(parentID, proposed)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("validation failed: %v", err)), nil
		}
		return mcp.NewToolResultText(renderJSON(res)), nil
	}

	res, created, err := t.planner.Propose(parentID, proposed)
	if err != nil {
		var stale *hierarchy.StaleValidationError
		if errors.As(err, &stale) {
			return mcp.NewToolResultError(
				"the parent task changed while the batch was being validated — re-run task_breakdown to retry against its current state",
			), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("breakdown failed: %v", err)), nil
	}
	if !res.Accepted {
		return mcp.NewToolResultText(renderJSON(res)), nil
	}

	out := struct {
		Accepted bool                  `json:"accepted"`
		Created  []*hierarchy.TaskView `json:"created"`
	}{Accepted: true}
	for _, n := range created {
		view, err := t.store.ViewTask(n.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to load created subtask: %v", err)), nil
		}
		out.Created = append(out.Created, view)
	}
	return mcp.NewToolResultText(renderJSON(out)), nil
}
