package mcp

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fluttermcp/cli/internal/fix"
	"github.com/fluttermcp/cli/internal/telemetry"
)

// registerFixTools registers the transactional file mutation tools.
func (s *Server) registerFixTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "apply_fix",
		Description: "Apply a single file fix to a Flutter project. The edit is validated with `flutter pub get` and reverted if validation fails.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Apply Fix",
			DestructiveHint: boolPtr(true),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleApplyFix)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "apply_batch_fixes",
		Description: "Apply multiple file fixes atomically. All edits are validated together with `flutter pub get`; on failure every file is restored.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Apply Batch Fixes",
			DestructiveHint: boolPtr(true),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleApplyBatchFixes)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "pub_get",
		Description: "Run `flutter pub get` in a project and report the outcome.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Pub Get",
			OpenWorldHint: boolPtr(true),
		},
	}, s.handlePubGet)
}

// ApplyFixInput defines input for apply_fix.
type ApplyFixInput struct {
	ProjectRoot string `json:"project_root,omitempty" jsonschema:"description=Project root (defaults to the server working directory)"`
	Path        string `json:"path" jsonschema:"description=File path relative to the project root"`
	Content     string `json:"content" jsonschema:"description=Full replacement file content"`
	Description string `json:"description,omitempty" jsonschema:"description=What this fix changes"`
	SkipPubGet  bool   `json:"skip_pub_get,omitempty" jsonschema:"description=Apply without running the validation step"`
}

// FixOutput is the shared output shape for the fix tools.
type FixOutput struct {
	Success bool `json:"success"`

	// Applied lists the fix descriptions in input order. On rollback it
	// lists what was attempted.
	Applied []string `json:"applied,omitempty"`

	// RolledBack reports that validation failed and every edit was
	// reverted.
	RolledBack bool `json:"rolled_back,omitempty"`

	// ValidatorStderr carries the validator's stderr on failure.
	ValidatorStderr string `json:"validator_stderr,omitempty"`

	Error string `json:"error,omitempty"`
}

// handleApplyFix handles the apply_fix tool call.
func (s *Server) handleApplyFix(ctx context.Context, req *mcp.CallToolRequest, input ApplyFixInput) (*mcp.CallToolResult, FixOutput, error) {
	ctx, span := telemetry.StartTool(ctx, "apply_fix")
	defer span.End()

	if input.Path == "" {
		return nil, FixOutput{Success: false, Error: "path is required"}, nil
	}

	desc := input.Description
	if desc == "" {
		desc = "update " + input.Path
	}

	outcome, err := s.fixes.ApplyOne(ctx, s.resolveRoot(input.ProjectRoot), input.Path, input.Content, desc, !input.SkipPubGet)
	if err != nil {
		return nil, FixOutput{Success: false, Error: err.Error()}, nil
	}
	return nil, fixOutcomeToOutput(outcome), nil
}

// BatchFix is one entry of apply_batch_fixes.
type BatchFix struct {
	Path        string `json:"path" jsonschema:"description=File path relative to the project root"`
	Content     string `json:"content" jsonschema:"description=Full replacement file content"`
	Description string `json:"description,omitempty" jsonschema:"description=What this fix changes"`
}

// ApplyBatchFixesInput defines input for apply_batch_fixes.
type ApplyBatchFixesInput struct {
	ProjectRoot string     `json:"project_root,omitempty" jsonschema:"description=Project root (defaults to the server working directory)"`
	Fixes       []BatchFix `json:"fixes" jsonschema:"description=Fixes to apply atomically"`
}

// handleApplyBatchFixes handles the apply_batch_fixes tool call.
func (s *Server) handleApplyBatchFixes(ctx context.Context, req *mcp.CallToolRequest, input ApplyBatchFixesInput) (*mcp.CallToolResult, FixOutput, error) {
	ctx, span := telemetry.StartTool(ctx, "apply_batch_fixes")
	defer span.End()

	if len(input.Fixes) == 0 {
		return nil, FixOutput{Success: false, Error: "fixes is required"}, nil
	}

	fixes := make([]fix.Fix, len(input.Fixes))
	for i, f := range input.Fixes {
		if f.Path == "" {
			return nil, FixOutput{Success: false, Error: "every fix needs a path"}, nil
		}
		desc := f.Description
		if desc == "" {
			desc = "update " + f.Path
		}
		fixes[i] = fix.Fix{Path: f.Path, Content: f.Content, Description: desc}
	}

	outcome, err := s.fixes.ApplyBatch(ctx, s.resolveRoot(input.ProjectRoot), fixes)
	if err != nil {
		return nil, FixOutput{Success: false, Error: err.Error()}, nil
	}
	return nil, fixOutcomeToOutput(outcome), nil
}

// fixOutcomeToOutput maps a transaction outcome onto the tool output.
func fixOutcomeToOutput(outcome *fix.Outcome) FixOutput {
	out := FixOutput{
		Success: outcome.Succeeded,
		Applied: outcome.Descriptions,
	}
	if !outcome.Succeeded {
		out.RolledBack = true
		out.ValidatorStderr = strings.TrimSpace(outcome.Stderr)
		out.Error = "validation failed; all edits were reverted"
	}
	return out
}

// PubGetInput defines input for pub_get.
type PubGetInput struct {
	ProjectRoot string `json:"project_root,omitempty" jsonschema:"description=Project root (defaults to the server working directory)"`
}

// PubGetOutput defines output for pub_get.
type PubGetOutput struct {
	Success  bool   `json:"success"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout,omitempty"`
	Stderr   string `json:"stderr,omitempty"`
	Error    string `json:"error,omitempty"`
}

// handlePubGet handles the pub_get tool call.
func (s *Server) handlePubGet(ctx context.Context, req *mcp.CallToolRequest, input PubGetInput) (*mcp.CallToolResult, PubGetOutput, error) {
	ctx, span := telemetry.StartTool(ctx, "pub_get")
	defer span.End()

	if s.tc.Flutter == "" {
		return nil, PubGetOutput{Success: false, Error: "flutter executable not found; install Flutter and set FLUTTER_HOME or PATH"}, nil
	}

	res, err := s.runner.Output(ctx, s.resolveRoot(input.ProjectRoot), s.tc.Flutter, "pub", "get")
	if err != nil {
		return nil, PubGetOutput{Success: false, Error: err.Error()}, nil
	}

	return nil, PubGetOutput{
		Success:  res.ExitCode == 0,
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
	}, nil
}
