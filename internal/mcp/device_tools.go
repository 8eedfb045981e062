package mcp

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fluttermcp/cli/internal/emulator"
	"github.com/fluttermcp/cli/internal/project"
	"github.com/fluttermcp/cli/internal/runmon"
	"github.com/fluttermcp/cli/internal/telemetry"
	"github.com/fluttermcp/cli/internal/toolchain"
	"github.com/fluttermcp/cli/internal/watch"
)

// registerDeviceTools registers emulator and run-session tools.
func (s *Server) registerDeviceTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_emulators",
		Description: "List installed emulator images and currently running emulators.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Emulators",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(true),
		},
	}, s.handleListEmulators)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_devices",
		Description: "List every device the Flutter tool can target, including emulators, physical devices, and web.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "List Devices",
			ReadOnlyHint:  true,
			OpenWorldHint: boolPtr(true),
		},
	}, s.handleListDevices)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "ensure_emulator",
		Description: "Guarantee a running Android emulator: no-op if one is active, otherwise launch an image and wait for it to boot.",
		Annotations: &mcp.ToolAnnotations{
			Title:         "Ensure Emulator",
			OpenWorldHint: boolPtr(true),
		},
	}, s.handleEnsureEmulator)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "run_app",
		Description: "Run the Flutter app on a device. Brings up an emulator if needed, then launches `flutter run` detached with output monitoring. Returns a session id.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Run App",
			DestructiveHint: boolPtr(false),
			OpenWorldHint:   boolPtr(true),
		},
	}, s.handleRunApp)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "stop_app",
		Description: "Stop a running app session started by run_app.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Stop App",
			DestructiveHint: boolPtr(true),
		},
	}, s.handleStopApp)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_app_logs",
		Description: "Get recent classified output lines from a run session.",
		Annotations: &mcp.ToolAnnotations{
			Title:        "Get App Logs",
			ReadOnlyHint: true,
		},
	}, s.handleGetAppLogs)
}

// ListEmulatorsInput defines input for list_emulators.
type ListEmulatorsInput struct{}

// ListEmulatorsOutput defines output for list_emulators.
type ListEmulatorsOutput struct {
	Images  []string `json:"images"`
	Running []string `json:"running"`
}

// handleListEmulators handles the list_emulators tool call.
func (s *Server) handleListEmulators(ctx context.Context, req *mcp.CallToolRequest, input ListEmulatorsInput) (*mcp.CallToolResult, ListEmulatorsOutput, error) {
	ctx, span := telemetry.StartTool(ctx, "list_emulators")
	defer span.End()

	running := make([]string, 0)
	for serial := range s.registry.ListRunning(ctx) {
		running = append(running, serial)
	}
	sort.Strings(running)

	images := s.registry.ListImages(ctx)
	if images == nil {
		images = []string{}
	}

	return nil, ListEmulatorsOutput{Images: images, Running: running}, nil
}

// ListDevicesInput defines input for list_devices.
type ListDevicesInput struct{}

// ListDevicesOutput defines output for list_devices.
type ListDevicesOutput struct {
	Devices []emulator.Device `json:"devices"`
}

// handleListDevices handles the list_devices tool call.
func (s *Server) handleListDevices(ctx context.Context, req *mcp.CallToolRequest, input ListDevicesInput) (*mcp.CallToolResult, ListDevicesOutput, error) {
	ctx, span := telemetry.StartTool(ctx, "list_devices")
	defer span.End()

	devices := s.registry.ListConnected(ctx)
	if devices == nil {
		devices = []emulator.Device{}
	}
	return nil, ListDevicesOutput{Devices: devices}, nil
}

// EnsureEmulatorInput defines input for ensure_emulator.
type EnsureEmulatorInput struct {
	Image string `json:"image,omitempty" jsonschema:"description=Preferred emulator image name; defaults to the first installed image"`
}

// EnsureEmulatorOutput defines output for ensure_emulator.
type EnsureEmulatorOutput struct {
	Success bool `json:"success"`

	// AvailableImages lists installed images when the requested one was
	// not found.
	AvailableImages []string `json:"available_images,omitempty"`

	Error string `json:"error,omitempty"`
}

// handleEnsureEmulator handles the ensure_emulator tool call.
func (s *Server) handleEnsureEmulator(ctx context.Context, req *mcp.CallToolRequest, input EnsureEmulatorInput) (*mcp.CallToolResult, EnsureEmulatorOutput, error) {
	ctx, span := telemetry.StartTool(ctx, "ensure_emulator")
	defer span.End()

	if err := s.orch.EnsureRunning(ctx, input.Image); err != nil {
		out := EnsureEmulatorOutput{Success: false, Error: err.Error()}
		var notFound *emulator.ImageNotFoundError
		if errors.As(err, &notFound) {
			out.AvailableImages = notFound.Available
		}
		return nil, out, nil
	}
	return nil, EnsureEmulatorOutput{Success: true}, nil
}

// RunAppInput defines input for run_app.
type RunAppInput struct {
	ProjectRoot string `json:"project_root,omitempty" jsonschema:"description=Project root (defaults to the server working directory)"`
	DeviceID    string `json:"device_id,omitempty" jsonschema:"description=Device to run on; when empty an emulator is brought up and used"`
	Image       string `json:"image,omitempty" jsonschema:"description=Preferred emulator image when bring-up is needed"`
	Flavor      string `json:"flavor,omitempty" jsonschema:"description=Build flavor passed as --flavor"`
	HotReload   bool   `json:"hot_reload,omitempty" jsonschema:"description=Watch lib/ and hot reload on Dart changes"`
}

// RunAppOutput defines output for run_app.
type RunAppOutput struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	DeviceID  string `json:"device_id,omitempty"`
	Watching  bool   `json:"watching,omitempty"`
	Error     string `json:"error,omitempty"`
}

// handleRunApp handles the run_app tool call.
func (s *Server) handleRunApp(ctx context.Context, req *mcp.CallToolRequest, input RunAppInput) (*mcp.CallToolResult, RunAppOutput, error) {
	ctx, span := telemetry.StartTool(ctx, "run_app")
	defer span.End()

	root := s.resolveRoot(input.ProjectRoot)
	if !project.IsFlutterProject(root) {
		return nil, RunAppOutput{Success: false, Error: "no pubspec.yaml found in " + root + "; not a Flutter project"}, nil
	}
	if s.tc.Flutter == "" {
		return nil, RunAppOutput{Success: false, Error: "flutter executable not found; install Flutter and set FLUTTER_HOME or PATH"}, nil
	}

	cfg, cfgErr := project.LoadConfig(root)
	if cfgErr != nil {
		cfg = &project.Config{}
	}

	deviceID := input.DeviceID
	if deviceID == "" {
		image := input.Image
		if image == "" {
			image = cfg.Device.PreferredImage
		}
		if err := s.orch.EnsureRunning(ctx, image); err != nil {
			return nil, RunAppOutput{Success: false, Error: err.Error()}, nil
		}
		deviceID = firstSerial(s.registry.ListRunning(ctx))
		if deviceID == "" {
			return nil, RunAppOutput{Success: false, Error: "emulator booted but no device is visible to adb"}, nil
		}
	}

	args := []string{"run", "-d", deviceID}
	flavor := input.Flavor
	if flavor == "" {
		flavor = cfg.Run.Flavor
	}
	if flavor != "" {
		args = append(args, "--flavor", flavor)
	}
	args = append(args, cfg.Run.ExtraArgs...)

	proc, err := toolchain.StartDetached(root, s.tc.Flutter, args...)
	if err != nil {
		return nil, RunAppOutput{Success: false, Error: err.Error()}, nil
	}

	var watcher *watch.Watcher
	sess := s.sessions.Track(proc, deviceID, root, func() {
		if watcher != nil {
			watcher.Stop()
		}
	})
	if s.hub != nil {
		s.hub.Relay(sess.Monitor)
	}

	watching := false
	if input.HotReload || cfg.Watch.Enabled {
		watcher, err = watch.Start(root, cfg.Watch.Debounce(), sess.HotReload)
		if err != nil {
			log.Warn("Failed to start hot reload watcher", "error", err)
		} else {
			watching = true
		}
	}

	return nil, RunAppOutput{
		Success:   true,
		SessionID: sess.ID,
		DeviceID:  deviceID,
		Watching:  watching,
	}, nil
}

// StopAppInput defines input for stop_app.
type StopAppInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session id returned by run_app"`
}

// StopAppOutput defines output for stop_app.
type StopAppOutput struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// handleStopApp handles the stop_app tool call.
func (s *Server) handleStopApp(ctx context.Context, req *mcp.CallToolRequest, input StopAppInput) (*mcp.CallToolResult, StopAppOutput, error) {
	_, span := telemetry.StartTool(ctx, "stop_app")
	defer span.End()

	if input.SessionID == "" {
		return nil, StopAppOutput{Success: false, Error: "session_id is required"}, nil
	}
	sess := s.sessions.Get(input.SessionID)
	if sess == nil {
		return nil, StopAppOutput{Success: false, Error: "unknown session: " + input.SessionID}, nil
	}
	if err := sess.Stop(); err != nil {
		return nil, StopAppOutput{Success: false, Error: err.Error()}, nil
	}
	return nil, StopAppOutput{Success: true}, nil
}

// GetAppLogsInput defines input for get_app_logs.
type GetAppLogsInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session id returned by run_app"`
	Limit     int    `json:"limit,omitempty" jsonschema:"description=Maximum lines to return (default 100)"`
	ErrorOnly bool   `json:"errors_only,omitempty" jsonschema:"description=Return only lines classified as errors"`
}

// AppLogLine is one classified output line.
type AppLogLine struct {
	Stream         string `json:"stream"`
	Classification string `json:"classification"`
	Line           string `json:"line"`
	Time           string `json:"time"`
}

// GetAppLogsOutput defines output for get_app_logs.
type GetAppLogsOutput struct {
	Success bool         `json:"success"`
	Lines   []AppLogLine `json:"lines,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// handleGetAppLogs handles the get_app_logs tool call.
func (s *Server) handleGetAppLogs(ctx context.Context, req *mcp.CallToolRequest, input GetAppLogsInput) (*mcp.CallToolResult, GetAppLogsOutput, error) {
	_, span := telemetry.StartTool(ctx, "get_app_logs")
	defer span.End()

	if input.SessionID == "" {
		return nil, GetAppLogsOutput{Success: false, Error: "session_id is required"}, nil
	}
	sess := s.sessions.Get(input.SessionID)
	if sess == nil {
		return nil, GetAppLogsOutput{Success: false, Error: "unknown session: " + input.SessionID}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 100
	}

	var lines []AppLogLine
	for _, ev := range sess.Monitor.Recent(limit) {
		if input.ErrorOnly && ev.Classification != runmon.ClassError {
			continue
		}
		lines = append(lines, AppLogLine{
			Stream:         string(ev.Stream),
			Classification: string(ev.Classification),
			Line:           ev.Line,
			Time:           ev.Time.Format(time.RFC3339),
		})
	}

	return nil, GetAppLogsOutput{Success: true, Lines: lines}, nil
}

// firstSerial returns the lexicographically first running serial, for a
// deterministic run target.
func firstSerial(running map[string]bool) string {
	serials := make([]string, 0, len(running))
	for serial := range running {
		serials = append(serials, serial)
	}
	if len(serials) == 0 {
		return ""
	}
	sort.Strings(serials)
	return serials[0]
}
