// Package mcp implements the fluttermcp MCP server.
//
// The server exposes Flutter project and device operations as tools that
// AI agents call over the Model Context Protocol. Domain failures are
// reported inside structured tool outputs (success flag plus remediation
// text), never as protocol errors.
package mcp

import (
	"context"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fluttermcp/cli/internal/emulator"
	"github.com/fluttermcp/cli/internal/fix"
	"github.com/fluttermcp/cli/internal/runmon"
	"github.com/fluttermcp/cli/internal/toolchain"
)

// Server wires the MCP server to the Flutter toolchain subsystems.
type Server struct {
	mcpServer *mcp.Server
	runner    toolchain.Runner
	tc        *toolchain.Toolchain
	registry  *emulator.Registry
	orch      *emulator.Orchestrator
	fixes     *fix.Service
	sessions  *runmon.SessionRegistry

	// hub, when non-nil, rebroadcasts run session events over WebSocket.
	hub *runmon.Hub

	workDir string
	version string
}

// NewServer creates the fluttermcp MCP server.
//
// Parameters:
//   - version: the CLI version string
//   - hub: optional log stream hub (nil to disable)
//
// Returns:
//   - *Server: a new server instance
func NewServer(version string, hub *runmon.Hub) *Server {
	workDir, err := os.Getwd()
	if err != nil {
		workDir = "."
	}

	runner := &toolchain.ExecRunner{}
	tc := toolchain.Discover()
	registry := emulator.NewRegistry(runner, tc)

	s := &Server{
		runner:   runner,
		tc:       tc,
		registry: registry,
		orch:     emulator.NewOrchestrator(registry, runner, tc),
		fixes:    fix.NewService(runner, tc),
		sessions: runmon.NewSessionRegistry(),
		hub:      hub,
		workDir:  workDir,
		version:  version,
	}

	s.mcpServer = mcp.NewServer(
		&mcp.Implementation{
			Name:    "fluttermcp",
			Version: version,
		},
		nil,
	)

	s.registerProjectTools()
	s.registerFixTools()
	s.registerDeviceTools()

	return s
}

// Run starts the MCP server over stdio and blocks until the client
// disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// boolPtr returns a pointer to a bool value. Used for ToolAnnotations fields.
func boolPtr(b bool) *bool { return &b }

// resolveRoot returns dir if set, the server working directory otherwise.
func (s *Server) resolveRoot(dir string) string {
	if dir == "" {
		return s.workDir
	}
	return dir
}
