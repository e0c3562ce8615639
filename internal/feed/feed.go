// Package feed publishes experiment progress to websocket subscribers.
// Subscribers are read-only; the experiment is driven by the process that
// owns the hub.
package feed

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/lox/probabilitylab/internal/report"
	"github.com/lox/probabilitylab/internal/scheduler"
	"github.com/lox/probabilitylab/internal/simulator"
)

// Event names carried in Update.Type
const (
	EventSnapshot = "snapshot"
	EventStarted  = "started"
	EventTick     = "tick"
	EventDone     = "done"
	EventStopped  = "stopped"
)

// Update is one message sent to subscribers
type Update struct {
	Type   string        `json:"type"`
	Auto   bool          `json:"auto"`
	Report report.Report `json:"report"`
}

// Hub fans updates out to websocket clients
type Hub struct {
	snapshot func() simulator.Snapshot
	logger   *log.Logger
	upgrader websocket.Upgrader
	now      func() time.Time

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a hub reading state through snapshot
func NewHub(snapshot func() simulator.Snapshot, logger *log.Logger) *Hub {
	return &Hub{
		snapshot: snapshot,
		logger:   logger.WithPrefix("feed"),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		now:     time.Now,
		clients: make(map[*client]struct{}),
	}
}

// Callbacks returns scheduler callbacks that publish each lifecycle event
func (h *Hub) Callbacks() scheduler.Callbacks {
	publish := func(event string) func(scheduler.Progress) {
		return func(p scheduler.Progress) { h.Publish(event, p.Auto) }
	}
	return scheduler.Callbacks{
		OnStart: publish(EventStarted),
		OnTick:  publish(EventTick),
		OnDone:  publish(EventDone),
		OnStop:  publish(EventStopped),
	}
}

func (h *Hub) encode(event string, auto bool) ([]byte, error) {
	return json.Marshal(Update{
		Type:   event,
		Auto:   auto,
		Report: report.New(h.snapshot(), h.now()),
	})
}

// Publish sends the current snapshot to every client. Clients that cannot
// keep up are disconnected.
func (h *Hub) Publish(event string, auto bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return
	}
	data, err := h.encode(event, auto)
	if err != nil {
		h.logger.Error("Failed to encode update", "error", err)
		return
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("Dropping slow subscriber", "remote", c.remote)
			h.removeLocked(c)
		}
	}
}

// Clients returns the number of connected subscribers
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}

func (h *Hub) add(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Handler serves /ws, /snapshot and /health
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/snapshot", h.handleSnapshot)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	return mux
}

func (h *Hub) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := h.encode(EventSnapshot, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		remote: r.RemoteAddr,
	}

	// The first message is always the current state
	data, err := h.encode(EventSnapshot, false)
	if err != nil {
		h.logger.Error("Failed to encode update", "error", err)
		_ = conn.Close()
		return
	}
	c.send <- data
	if !h.add(c) {
		_ = conn.Close()
		return
	}
	h.logger.Info("Subscriber connected", "remote", c.remote)

	go c.writePump()
	c.readPump()
}
