package runmon

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Hub broadcasts classified run events to WebSocket clients so app logs
// can be tailed live from a browser while the MCP server is running.
//
// Clients connect to ws://<addr>/logs and receive each Event as a JSON
// message. A slow client is disconnected rather than allowed to stall
// the broadcast.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan Event

	listener net.Listener
}

// pingInterval keeps idle connections alive through proxies.
const pingInterval = 30 * time.Second

// NewHub creates a hub with no clients.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			// The hub only ever binds to localhost.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan Event),
	}
}

// Listen starts serving on addr (e.g. "127.0.0.1:9223") in the
// background. Returns the bound address, useful when addr has port 0.
func (h *Hub) Listen(addr string) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", err
	}
	h.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/logs", h.handleLogs)

	go func() {
		if err := http.Serve(ln, mux); err != nil {
			log.Debug("Log stream server stopped", "error", err)
		}
	}()

	log.Info("Log stream listening", "url", "ws://"+ln.Addr().String()+"/logs")
	return ln.Addr().String(), nil
}

// Close stops the listener and disconnects all clients.
func (h *Hub) Close() error {
	if h.listener != nil {
		_ = h.listener.Close()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		close(ch)
		_ = conn.Close()
		delete(h.clients, conn)
	}
	return nil
}

// Broadcast sends an event to every connected client.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- ev:
		default:
			// Client is not keeping up; drop it.
			log.Debug("Dropping slow log stream client", "remote", conn.RemoteAddr())
			close(ch)
			_ = conn.Close()
			delete(h.clients, conn)
		}
	}
}

// Relay forwards a monitor's event stream into the hub until the
// subscription channel closes.
func (h *Hub) Relay(m *Monitor) {
	events := m.Subscribe()
	go func() {
		for ev := range events {
			h.Broadcast(ev)
		}
	}()
}

// handleLogs upgrades the connection and streams events to the client.
func (h *Hub) handleLogs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("WebSocket upgrade failed", "error", err)
		return
	}

	ch := make(chan Event, eventBuffer)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()
	log.Debug("Log stream client connected", "remote", conn.RemoteAddr())

	// Discard inbound messages; the stream is one-way.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				h.drop(conn)
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(conn)
				return
			}
		}
	}
}

// drop removes a client if still registered.
func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[conn]; ok {
		close(ch)
		delete(h.clients, conn)
	}
	_ = conn.Close()
}
