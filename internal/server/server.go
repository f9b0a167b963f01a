// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it loads configuration, opens the hierarchy
// store, and injects it into the tools that depend on it. No business logic
// lives here — only wiring.
package server

import (
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/taskdeck/taskdeck/internal/breakdown"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/hierarchy"
	"github.com/taskdeck/taskdeck/internal/tasktools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all tools registered.
// This is the single place where all dependencies are resolved.
//
// The returned cleanup function closes the hierarchy store's database
// connection and must be called on shutdown (typically via defer). It is
// always non-nil.
func New() (*server.MCPServer, func(), error) {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return nil, noop, err
	}
	storeCfg, err := cfg.HierarchyConfig()
	if err != nil {
		return nil, noop, err
	}

	store, err := hierarchy.New(storeCfg)
	if err != nil {
		return nil, noop, fmt.Errorf("opening hierarchy store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Printf("WARNING: hierarchy store close: %v", err)
		}
	}

	planner := breakdown.NewPlanner(store)

	s := server.NewMCPServer(
		"taskdeck",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Projects ---

	projectCreate := tasktools.NewProjectCreateTool(store)
	s.AddTool(projectCreate.Definition(), projectCreate.Handle)

	// --- Task CRUD ---

	create := tasktools.NewCreateTool(store)
	s.AddTool(create.Definition(), create.Handle)

	update := tasktools.NewUpdateTool(store)
	s.AddTool(update.Definition(), update.Handle)

	del := tasktools.NewDeleteTool(store)
	s.AddTool(del.Definition(), del.Handle)

	// --- Structure ---

	breakdownTool := tasktools.NewBreakdownTool(planner, store)
	s.AddTool(breakdownTool.Definition(), breakdownTool.Handle)

	reorder := tasktools.NewReorderTool(store)
	s.AddTool(reorder.Definition(), reorder.Handle)

	reparent := tasktools.NewReparentTool(store)
	s.AddTool(reparent.Definition(), reparent.Handle)

	// --- Views ---

	tree := tasktools.NewTreeTool(store)
	s.AddTool(tree.Definition(), tree.Handle)

	list := tasktools.NewListTool(store)
	s.AddTool(list.Definition(), list.Handle)

	return s, cleanup, nil
}

// noop is the default cleanup when initialization fails before the store
// opens.
func noop() {}

// serverInstructions returns the system instructions that tell the AI how to
// use taskdeck effectively.
func serverInstructions() string {
	return `You have access to taskdeck, a task hierarchy MCP server.

taskdeck manages project task trees with governed breakdown: tasks nest to
any depth, and the server enforces structural rules so AI-generated breakdowns
stay consistent with human planning.

## Core rules the server enforces (do not try to work around them)

- Status on a task with subtasks is DERIVED: all subtasks completed →
  completed, all pending → pending, otherwise in_progress. Completion is the
  recursive mean of the subtasks' completion. Update leaf tasks only; parents
  follow automatically.
- A subtask's priority is never below its parent's. Raising a parent's
  priority raises descendants up to it.
- Story points must come from the Fibonacci set (1, 2, 3, 5, 8, 13, 21, 34,
  55, 89) and must not exceed the ceiling of the nearest sized ancestor
  (xs→2, s→3, m→5, l→8, xl→13). Size belongs on top-level tasks only.
- Breakdown batches are all-or-nothing: one failing subtask rejects the whole
  batch with nothing written. Fix the reported violations and resubmit the
  full batch.
- Reordering moves a task within its parent's sibling block only; it never
  changes the parent. Use task_reparent to move a task to a different parent.
- Deleting a task deletes its entire subtree.

## Typical workflow

1. project_create — one project per body of work
2. task_create — top-level tasks, with size and due date where known
3. task_breakdown — propose subtasks in batches; surface any violations to
   the user verbatim and revise the batch
4. task_update — progress status on leaf tasks as work completes
5. task_tree / task_list — show structure or pick up assignable leaf work

## Breakdown tips

- Give each proposed subtask a Fibonacci estimate within the parent's
  ceiling; omit the estimate when genuinely unknown rather than guessing
  an invalid value.
- Do not set due dates on proposed subtasks — the server derives them from
  the parent's due date by priority (high lands earliest).
- If a commit reports that the parent changed mid-validation, re-run the
  breakdown against the parent's current state.`
}
