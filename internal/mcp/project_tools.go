package mcp

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fluttermcp/cli/internal/project"
	"github.com/fluttermcp/cli/internal/telemetry"
)

// registerProjectTools registers project scaffolding and inspection tools.
func (s *Server) registerProjectTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "create_flutter_project",
		Description: "Create a new Flutter project via `flutter create`. Writes project config and a VS Code launch configuration.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Create Flutter Project",
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleCreateProject)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "read_project_file",
		Description: "Read a file from a Flutter project. The path is relative to the project root.",
		Annotations: &mcp.ToolAnnotations{
			Title:          "Read Project File",
			ReadOnlyHint:   true,
			IdempotentHint: true,
		},
	}, s.handleReadFile)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_project_files",
		Description: "List source and config files in a Flutter project, skipping build output and tool caches.",
		Annotations: &mcp.ToolAnnotations{
			Title:          "List Project Files",
			ReadOnlyHint:   true,
			IdempotentHint: true,
		},
	}, s.handleListFiles)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_server_info",
		Description: "Get server version, resolved SDK tool paths, and the current project's identity if one is present.",
		Annotations: &mcp.ToolAnnotations{
			Title:        "Get Server Info",
			ReadOnlyHint: true,
		},
	}, s.handleServerInfo)
}

// CreateProjectInput defines input for create_flutter_project.
type CreateProjectInput struct {
	Name      string `json:"name" jsonschema:"description=Project name in lower_snake_case"`
	Dir       string `json:"dir,omitempty" jsonschema:"description=Parent directory (defaults to the server working directory)"`
	Org       string `json:"org,omitempty" jsonschema:"description=Reverse-domain organization such as com.example"`
	Platforms string `json:"platforms,omitempty" jsonschema:"description=Comma-separated platforms such as android,ios,web"`
	Template  string `json:"template,omitempty" jsonschema:"description=Flutter create template (app, package, plugin)"`
}

// CreateProjectOutput defines output for create_flutter_project.
type CreateProjectOutput struct {
	Success     bool   `json:"success"`
	ProjectRoot string `json:"project_root,omitempty"`
	Error       string `json:"error,omitempty"`
}

// handleCreateProject handles the create_flutter_project tool call.
func (s *Server) handleCreateProject(ctx context.Context, req *mcp.CallToolRequest, input CreateProjectInput) (*mcp.CallToolResult, CreateProjectOutput, error) {
	ctx, span := telemetry.StartTool(ctx, "create_flutter_project")
	defer span.End()

	if input.Name == "" {
		return nil, CreateProjectOutput{Success: false, Error: "name is required"}, nil
	}

	root, err := project.Create(ctx, s.runner, s.tc, project.CreateParams{
		Dir:       s.resolveRoot(input.Dir),
		Name:      input.Name,
		Org:       input.Org,
		Platforms: input.Platforms,
		Template:  input.Template,
	})
	if err != nil {
		return nil, CreateProjectOutput{Success: false, Error: err.Error()}, nil
	}

	return nil, CreateProjectOutput{Success: true, ProjectRoot: root}, nil
}

// ReadFileInput defines input for read_project_file.
type ReadFileInput struct {
	ProjectRoot string `json:"project_root,omitempty" jsonschema:"description=Project root (defaults to the server working directory)"`
	Path        string `json:"path" jsonschema:"description=File path relative to the project root"`
}

// ReadFileOutput defines output for read_project_file.
type ReadFileOutput struct {
	Success bool   `json:"success"`
	Path    string `json:"path,omitempty"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleReadFile handles the read_project_file tool call.
func (s *Server) handleReadFile(ctx context.Context, req *mcp.CallToolRequest, input ReadFileInput) (*mcp.CallToolResult, ReadFileOutput, error) {
	_, span := telemetry.StartTool(ctx, "read_project_file")
	defer span.End()

	if input.Path == "" {
		return nil, ReadFileOutput{Success: false, Error: "path is required"}, nil
	}

	root := s.resolveRoot(input.ProjectRoot)
	target, err := securePath(root, input.Path)
	if err != nil {
		return nil, ReadFileOutput{Success: false, Error: err.Error()}, nil
	}

	content, err := os.ReadFile(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ReadFileOutput{Success: false, Error: "file not found: " + input.Path}, nil
		}
		return nil, ReadFileOutput{Success: false, Error: err.Error()}, nil
	}

	return nil, ReadFileOutput{Success: true, Path: input.Path, Content: string(content)}, nil
}

// ListFilesInput defines input for list_project_files.
type ListFilesInput struct {
	ProjectRoot string `json:"project_root,omitempty" jsonschema:"description=Project root (defaults to the server working directory)"`
	MaxFiles    int    `json:"max_files,omitempty" jsonschema:"description=Maximum entries to return (default 500)"`
}

// ListFilesOutput defines output for list_project_files.
type ListFilesOutput struct {
	Success   bool     `json:"success"`
	Files     []string `json:"files,omitempty"`
	Truncated bool     `json:"truncated,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// skippedDirs are never descended into when listing project files.
var skippedDirs = map[string]bool{
	".git":       true,
	".dart_tool": true,
	".idea":      true,
	"build":      true,
	".gradle":    true,
}

// handleListFiles handles the list_project_files tool call.
func (s *Server) handleListFiles(ctx context.Context, req *mcp.CallToolRequest, input ListFilesInput) (*mcp.CallToolResult, ListFilesOutput, error) {
	_, span := telemetry.StartTool(ctx, "list_project_files")
	defer span.End()

	root := s.resolveRoot(input.ProjectRoot)
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, ListFilesOutput{Success: false, Error: "project root not found: " + root}, nil
	}

	limit := input.MaxFiles
	if limit <= 0 {
		limit = 500
	}

	var files []string
	truncated := false
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		if len(files) >= limit {
			truncated = true
			return filepath.SkipAll
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, ListFilesOutput{Success: false, Error: err.Error()}, nil
	}

	sort.Strings(files)
	return nil, ListFilesOutput{Success: true, Files: files, Truncated: truncated}, nil
}

// ServerInfoInput defines input for get_server_info.
type ServerInfoInput struct {
	ProjectRoot string `json:"project_root,omitempty" jsonschema:"description=Project root to inspect (defaults to the server working directory)"`
}

// ServerInfoOutput defines output for get_server_info.
type ServerInfoOutput struct {
	Version      string `json:"version"`
	WorkDir      string `json:"work_dir"`
	FlutterPath  string `json:"flutter_path,omitempty"`
	ADBPath      string `json:"adb_path,omitempty"`
	EmulatorPath string `json:"emulator_path,omitempty"`
	MissingTools string `json:"missing_tools,omitempty"`
	ProjectName  string `json:"project_name,omitempty"`
	ProjectDesc  string `json:"project_description,omitempty"`
}

// handleServerInfo handles the get_server_info tool call.
func (s *Server) handleServerInfo(ctx context.Context, req *mcp.CallToolRequest, input ServerInfoInput) (*mcp.CallToolResult, ServerInfoOutput, error) {
	_, span := telemetry.StartTool(ctx, "get_server_info")
	defer span.End()

	out := ServerInfoOutput{
		Version:      s.version,
		WorkDir:      s.workDir,
		FlutterPath:  s.tc.Flutter,
		ADBPath:      s.tc.ADB,
		EmulatorPath: s.tc.Emulator,
		MissingTools: strings.Join(s.tc.Missing(), ", "),
	}

	root := s.resolveRoot(input.ProjectRoot)
	if pubspec, err := project.ReadPubspec(root); err == nil {
		out.ProjectName = pubspec.Name
		out.ProjectDesc = pubspec.Description
	}

	return nil, out, nil
}

// securePath resolves rel against root and rejects traversal outside it.
func securePath(root, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("path %q must be relative to the project root", rel)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	target := filepath.Clean(filepath.Join(absRoot, rel))
	if target != absRoot && !strings.HasPrefix(target, absRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the project root", rel)
	}
	return target, nil
}
