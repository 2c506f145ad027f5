// Taskpilot MCP server.
//
// Exposes the project-management operation catalog as MCP tools over stdio,
// backed by the same durable session store as the chat binary. Any MCP
// client (or tool-calling model host) can mutate and query the session
// state through the published tool schemas.
//
// Usage:
//
//	taskpilot-mcp serve
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"

	"github.com/avictorio/taskpilot/internal/catalog"
	"github.com/avictorio/taskpilot/internal/config"
	"github.com/avictorio/taskpilot/internal/mcpserver"
	"github.com/avictorio/taskpilot/internal/session"
	"github.com/avictorio/taskpilot/internal/store"
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
		fmt.Printf("taskpilot-mcp v%s\n", mcpserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Logs go to stderr so they never interfere with the stdio transport.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	st, err := store.New(store.Config{
		DataDir:       cfg.DataDir,
		RetryAttempts: cfg.StoreRetryAttempts,
		RetryBackoff:  cfg.StoreRetryBackoff,
	})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	sessions := session.NewManager(st, cfg.HistoryWindow)
	cat := catalog.New(sessions)

	s, err := mcpserver.New(sessions, cat, cfg.AppName, cfg.UserID)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Taskpilot MCP v%s — project-management state tools over MCP

Usage:
  taskpilot-mcp serve    Start the MCP server (stdio transport)

Configuration:
  Add to your MCP client config:

  {
    "mcpServers": {
      "taskpilot": {
        "command": "taskpilot-mcp",
        "args": ["serve"]
      }
    }
  }
`, mcpserver.Version)
}
