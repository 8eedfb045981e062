package runmon

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// waitForClients polls until the hub has n registered clients.
func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		h.mu.Lock()
		count := len(h.clients)
		h.mu.Unlock()
		if count == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("hub never reached %d clients", n)
}

func TestHubBroadcastsToClient(t *testing.T) {
	h := NewHub()
	addr, err := h.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer h.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/logs", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	waitForClients(t, h, 1)

	sent := Event{
		Stream:         StreamStderr,
		Classification: ClassError,
		Line:           "Error: cannot resolve symbol",
		Time:           time.Now(),
	}
	h.Broadcast(sent)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if got.Line != sent.Line || got.Classification != sent.Classification {
		t.Errorf("received %+v, want line %q classified %q", got, sent.Line, sent.Classification)
	}
}

func TestHubRelaysMonitorEvents(t *testing.T) {
	h := NewHub()
	addr, err := h.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer h.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/logs", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	waitForClients(t, h, 1)

	m := NewMonitor("relay-test")
	h.Relay(m)
	m.Attach(strings.NewReader("Flutter run key commands.\n"), strings.NewReader(""))
	<-m.Done()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if got.Classification != ClassInfo {
		t.Errorf("classification = %q, want info", got.Classification)
	}
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	h := NewHub()
	addr, err := h.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/logs", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	waitForClients(t, h, 1)

	if err := h.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected read to fail after hub close")
	}
}
