// Taskdeck: task hierarchy MCP server.
//
// A stdio MCP server that manages project task trees with governed
// breakdown: derived status aggregation, priority monotonicity, Fibonacci
// story points under sized-ancestor ceilings, and due-date inheritance.
//
// Usage:
//
//	taskdeck serve    # Start MCP server (stdio transport)
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	taskserver "github.com/taskdeck/taskdeck/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("taskdeck v%s\n", taskserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := taskserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Graceful shutdown on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	_ = ctx // stdio server manages its own lifecycle

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Taskdeck v%s — task hierarchy MCP server

Usage:
  taskdeck serve    Start the MCP server (stdio transport)

Configuration:
  Config file: ~/.taskdeck/taskdeck.yaml (override with $TASKDECK_CONFIG)

  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "taskdeck": {
        "command": "taskdeck",
        "args": ["serve"]
      }
    }
  }
`, taskserver.Version)
}
