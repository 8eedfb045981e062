package runmon

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/fluttermcp/cli/internal/toolchain"
)

// Session is one monitored `flutter run` invocation.
type Session struct {
	// ID is the unique session identifier handed back to the agent.
	ID string

	// DeviceID is the device the app was launched on.
	DeviceID string

	// ProjectRoot is the project the app was launched from.
	ProjectRoot string

	// StartedAt is when the session began.
	StartedAt time.Time

	// Monitor consumes and classifies the process output.
	Monitor *Monitor

	proc  *toolchain.Detached
	stopf func()

	mu      sync.Mutex
	stopped bool
}

// HotReload writes the hot reload keystroke to the running process.
func (s *Session) HotReload() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.proc == nil {
		return fmt.Errorf("session %s is not running", s.ID)
	}
	_, err := io.WriteString(s.proc.Stdin, "r\n")
	return err
}

// Stop terminates the child process. Idempotent.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true

	if s.stopf != nil {
		s.stopf()
	}
	if s.proc == nil {
		return nil
	}

	// Ask Flutter to quit cleanly first; fall back to killing it.
	_, _ = io.WriteString(s.proc.Stdin, "q\n")
	_ = s.proc.Stdin.Close()

	select {
	case <-s.Monitor.Done():
		return nil
	case <-time.After(3 * time.Second):
	}

	if s.proc.Cmd.Process != nil {
		if err := s.proc.Cmd.Process.Kill(); err != nil {
			return fmt.Errorf("failed to kill session %s: %w", s.ID, err)
		}
	}
	return nil
}

// SessionRegistry tracks every run session for the life of the server.
// The set is append-only; finished sessions stay listed with their final
// output history until the server exits.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	order    []string
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Track creates a session for a started process, attaches its monitor,
// and registers it. onStop, if non-nil, runs when the session is stopped
// (used to tear down the file watcher).
func (r *SessionRegistry) Track(proc *toolchain.Detached, deviceID, projectRoot string, onStop func()) *Session {
	id := uuid.NewString()
	s := &Session{
		ID:          id,
		DeviceID:    deviceID,
		ProjectRoot: projectRoot,
		StartedAt:   time.Now(),
		Monitor:     NewMonitor(id),
		proc:        proc,
		stopf:       onStop,
	}
	s.Monitor.Attach(proc.Stdout, proc.Stderr)

	// Reap the child when its streams close so it does not linger.
	go func() {
		<-s.Monitor.Done()
		_ = proc.Cmd.Wait()
		log.Debug("Run session exited", "session", id)
	}()

	r.mu.Lock()
	r.sessions[id] = s
	r.order = append(r.order, id)
	r.mu.Unlock()

	log.Info("Run session started", "session", id, "device", deviceID)
	return s
}

// Get returns the session with the given id, or nil.
func (r *SessionRegistry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[id]
}

// List returns all sessions in creation order.
func (r *SessionRegistry) List() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sessions[id])
	}
	return out
}
