// Cortex: knowledge engine MCP server for multi-agent coding work.
//
// It keeps a durable picture of a codebase (entities, flows, memories,
// task state) and serves it to AI coding agents over MCP.
//
// Usage:
//
//	cortex serve     # Start MCP server (stdio transport)
//	cortex version   # Print the version
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	cortexserver "github.com/HendryAvila/cortex/internal/server"
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
		fmt.Printf("cortex v%s\n", cortexserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := cortexserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Stdio transport owns stdout; anything we print goes to stderr.
	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Cortex v%s - knowledge engine MCP server

Usage:
  cortex serve     Start the MCP server (stdio transport)
  cortex version   Print the version

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "cortex": {
        "command": "cortex",
        "args": ["serve"]
      }
    }
  }

Environment:
  CORTEX_DATA_DIR            Where the database lives (default ~/.cortex)
  CORTEX_GRAPH_MAX_AGE       Staleness window for contexts (default 10m)
  CORTEX_BUILD_TIMEOUT       Code graph build budget (default 60s)
  CORTEX_EMBED_TIMEOUT       Embedding budget (default 15s)
  CORTEX_MAX_RETRIES         Subtask retries before failure (default 3)
  CORTEX_MAX_SEARCH_RESULTS  Semantic search cap (default 20)
`, cortexserver.Version)
}
