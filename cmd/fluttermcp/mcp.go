// Package main provides the MCP command for the fluttermcp CLI.
package main

import (
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/fluttermcp/cli/internal/mcp"
	"github.com/fluttermcp/cli/internal/runmon"
	"github.com/fluttermcp/cli/internal/telemetry"
)

// mcpLogStreamAddr, when non-empty, enables the WebSocket log stream.
var mcpLogStreamAddr string

// mcpCmd is the parent command for MCP operations.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long: `MCP (Model Context Protocol) server commands.

The MCP server lets AI agents create Flutter projects, apply validated
code fixes, and run apps on Android emulators through the Model Context
Protocol.

Commands:
  serve  - Start the MCP server over stdio`,
}

// mcpServeCmd starts the MCP server.
var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server over stdio",
	Long: `Start the fluttermcp MCP server over stdio.

This command starts an MCP server that communicates via JSON-RPC over
stdin/stdout. It's designed to be launched by AI hosts like Cursor or
Claude Desktop.

The server exposes the following tools:
  - create_flutter_project: Scaffold a new Flutter project
  - read_project_file / list_project_files: Inspect project sources
  - apply_fix / apply_batch_fixes: Validated, atomic file edits
  - pub_get: Resolve package dependencies
  - list_emulators / list_devices / ensure_emulator: Device management
  - run_app / stop_app / get_app_logs: Run sessions with log capture

With --log-stream, classified app output is also rebroadcast over a
local WebSocket endpoint so logs can be tailed from a browser.

Example Cursor configuration:
  {
    "mcpServers": {
      "flutter": {
        "command": "fluttermcp",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().StringVar(&mcpLogStreamAddr, "log-stream", "", "Serve app logs over WebSocket on this address (e.g. 127.0.0.1:9223)")
	mcpCmd.AddCommand(mcpServeCmd)
}

// runMCPServe starts the MCP server and blocks until the client
// disconnects or the process receives an interrupt.
func runMCPServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown := telemetry.Init(ctx, "fluttermcp", version)
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Debug("Telemetry shutdown failed", "error", err)
		}
	}()

	var hub *runmon.Hub
	if mcpLogStreamAddr != "" {
		hub = runmon.NewHub()
		if _, err := hub.Listen(mcpLogStreamAddr); err != nil {
			return err
		}
		defer hub.Close()
	}

	server := mcp.NewServer(version, hub)
	log.Info("Starting MCP server", "version", version)
	return server.Run(ctx)
}
