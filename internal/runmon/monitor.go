// Package runmon monitors long-lived child processes launched by the run
// tools. Each monitor consumes the child's output streams asynchronously,
// classifies every line, and fans classified events out to subscribers
// without ever blocking the process or the tool call that launched it.
package runmon

import (
	"bufio"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Stream identifies which output stream a line arrived on.
type Stream string

const (
	// StreamStdout is the child's standard output.
	StreamStdout Stream = "stdout"

	// StreamStderr is the child's standard error.
	StreamStderr Stream = "stderr"
)

// Classification is the severity assigned to an output line.
type Classification string

const (
	// ClassInfo marks the one-time "app ready" signal.
	ClassInfo Classification = "info"

	// ClassError marks a genuine error line.
	ClassError Classification = "error"

	// ClassIgnored marks lines with no signal value. They are not
	// surfaced as events but remain available in the line history.
	ClassIgnored Classification = "ignored"
)

// Event is one classified output line from a monitored process.
type Event struct {
	// Stream is the origin stream.
	Stream Stream `json:"stream"`

	// Classification is the assigned severity.
	Classification Classification `json:"classification"`

	// Line is the raw line text.
	Line string `json:"line"`

	// Time is when the line was read.
	Time time.Time `json:"time"`
}

// readyMarkers are stdout substrings that indicate the Flutter app has
// finished launching. The first match emits a single ready event.
var readyMarkers = []string{
	"Flutter run key commands",
	"An Observatory debugger",
}

// devtoolsBanner marks the benign DevTools announcement that Flutter
// prints on stderr; it contains "debugger" but is not an error.
const devtoolsBanner = "DevTools"

// historyLimit bounds the retained line history per monitor.
const historyLimit = 500

// eventBuffer bounds the subscriber channel. When a subscriber falls
// behind, further events for it are dropped, never buffered unboundedly.
const eventBuffer = 256

// Monitor consumes the output streams of one child process.
type Monitor struct {
	// ID identifies the monitored run session.
	ID string

	mu        sync.Mutex
	history   []Event
	subs      []chan Event
	readySeen bool
	dropped   int
	drained   bool

	wg     sync.WaitGroup
	closed chan struct{}
}

// NewMonitor creates a monitor for the given session id.
func NewMonitor(id string) *Monitor {
	return &Monitor{ID: id, closed: make(chan struct{})}
}

// Attach begins asynchronous consumption of both streams. It returns
// immediately; consumption ends when the streams close, which happens
// when the child exits. Once both streams have drained every
// subscription channel is closed, so range loops over them terminate.
// Attach must be called at most once.
func (m *Monitor) Attach(stdout, stderr io.Reader) {
	m.wg.Add(2)
	go m.consume(StreamStdout, stdout)
	go m.consume(StreamStderr, stderr)
	go func() {
		m.wg.Wait()
		m.mu.Lock()
		m.drained = true
		for _, ch := range m.subs {
			close(ch)
		}
		m.subs = nil
		m.mu.Unlock()
		close(m.closed)
	}()
}

// Done returns a channel closed when both streams have been drained.
func (m *Monitor) Done() <-chan struct{} { return m.closed }

// Subscribe returns a channel of classified (non-ignored) events. The
// channel is bounded; events a slow subscriber cannot accept are dropped.
// The channel is closed when both streams have drained; subscribing to an
// already-drained monitor yields a closed channel.
func (m *Monitor) Subscribe() <-chan Event {
	ch := make(chan Event, eventBuffer)
	m.mu.Lock()
	if m.drained {
		close(ch)
	} else {
		m.subs = append(m.subs, ch)
	}
	m.mu.Unlock()
	return ch
}

// Recent returns up to n most recent events, oldest first, including
// ignored lines (the verbose history).
func (m *Monitor) Recent(n int) []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || n > len(m.history) {
		n = len(m.history)
	}
	out := make([]Event, n)
	copy(out, m.history[len(m.history)-n:])
	return out
}

// consume reads one stream line by line until it closes. An unterminated
// trailing fragment at stream end is never emitted.
func (m *Monitor) consume(stream Stream, r io.Reader) {
	defer m.wg.Done()

	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			// A fragment without its newline is an incomplete line.
			return
		}
		m.record(stream, strings.TrimRight(line, "\r\n"))
	}
}

// record classifies a line, appends it to the history, and publishes
// non-ignored events to subscribers.
func (m *Monitor) record(stream Stream, line string) {
	m.mu.Lock()

	class := m.classify(stream, line)
	ev := Event{Stream: stream, Classification: class, Line: line, Time: time.Now()}

	m.history = append(m.history, ev)
	if len(m.history) > historyLimit {
		m.history = m.history[len(m.history)-historyLimit:]
	}

	var subs []chan Event
	if class != ClassIgnored {
		subs = append(subs, m.subs...)
	}
	m.mu.Unlock()

	switch class {
	case ClassInfo:
		log.Info("App ready", "session", m.ID, "line", line)
	case ClassError:
		log.Error("App error", "session", m.ID, "line", line)
	default:
		log.Debug("App output", "session", m.ID, "stream", string(stream), "line", line)
	}

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			m.mu.Lock()
			m.dropped++
			m.mu.Unlock()
		}
	}
}

// classify assigns a severity to one line. Must be called with mu held.
func (m *Monitor) classify(stream Stream, line string) Classification {
	switch stream {
	case StreamStdout:
		if m.readySeen {
			return ClassIgnored
		}
		for _, marker := range readyMarkers {
			if strings.Contains(line, marker) {
				m.readySeen = true
				return ClassInfo
			}
		}
		return ClassIgnored
	case StreamStderr:
		if !strings.Contains(strings.ToLower(line), "error") {
			return ClassIgnored
		}
		if strings.Contains(line, devtoolsBanner) {
			return ClassIgnored
		}
		return ClassError
	}
	return ClassIgnored
}
