// Package main provides the config command for the fluttermcp CLI.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/fluttermcp/cli/internal/ui"
)

var configCopy bool

// configCmd prints the MCP client configuration snippet.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print MCP client configuration",
	Long: `Print the JSON snippet that registers fluttermcp with an MCP host.

Paste the output into your host's MCP server configuration (Cursor's
mcp.json, Claude Desktop's claude_desktop_config.json, and so on).

EXAMPLES:
  fluttermcp config           # Print the snippet
  fluttermcp config --copy    # Also copy it to the clipboard`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configCopy, "copy", false, "Copy the snippet to the clipboard")
}

// runConfig renders the client snippet, optionally copying it.
func runConfig(cmd *cobra.Command, args []string) error {
	command := "fluttermcp"
	if exe, err := os.Executable(); err == nil {
		command = exe
	}

	snippet := map[string]any{
		"mcpServers": map[string]any{
			"flutter": map[string]any{
				"command": command,
				"args":    []string{"mcp", "serve"},
			},
		},
	}

	out, err := json.MarshalIndent(snippet, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	if configCopy {
		if err := clipboard.WriteAll(string(out)); err != nil {
			ui.PrintWarning("Could not copy to clipboard: %v", err)
			return nil
		}
		ui.PrintSuccess("Copied to clipboard")
	}
	return nil
}
