// Package stream pushes supervisor events to WebSocket clients.
package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rest-tracker/internal/logging"
	"rest-tracker/internal/models"
)

const (
	writeWait = 5 * time.Second

	// Events buffered per client before it counts as stalled.
	sendBuffer = 16
)

// client is one WebSocket connection with its own outbound queue. Only the
// client's writer goroutine touches conn for writing.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub manages WebSocket connections and remembers the latest event.
type Hub struct {
	clients    map[*client]bool
	last       *models.Event
	maxClients int
	mutex      sync.Mutex
	logger     *logging.Logger
	upgrader   websocket.Upgrader
}

// NewHub constructs a Hub accepting at most maxClients connections.
func NewHub(maxClients int, logger *logging.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		maxClients: maxClients,
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Observe records e as the latest event and queues it for every client. It
// never waits on the network: a client whose queue is full is dropped.
func (h *Hub) Observe(e models.Event) {
	message, err := json.Marshal(e)
	if err != nil {
		h.logger.Errorf("Failed to encode event %s: %v", e.ID, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.last = &e
	for c := range h.clients {
		select {
		case c.send <- message:
		default:
			h.logger.Warnf("WebSocket client fell behind, dropping it")
			h.drop(c)
		}
	}
}

// Last returns the most recent event, if any.
func (h *Hub) Last() (models.Event, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.last == nil {
		return models.Event{}, false
	}
	return *h.last, true
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and keeps the connection registered until
// the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Clients() >= h.maxClients {
		h.logger.Warnf("Max WebSocket connections reached (%d)", h.maxClients)
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.add(c) {
		// Lost a race with another upgrade for the last slot.
		h.logger.Warnf("Max WebSocket connections reached (%d)", h.maxClients)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many connections"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}
	go h.write(c)
	defer h.remove(c)

	// Drain reads so close frames are processed.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// write sends queued messages until the queue is closed or a write fails.
func (h *Hub) write(c *client) {
	defer c.conn.Close()
	for message := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			h.logger.Warnf("Failed to send WebSocket message: %v", err)
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// add registers c unless the hub is already full.
func (h *Hub) add(c *client) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if len(h.clients) >= h.maxClients {
		return false
	}
	h.clients[c] = true
	h.logger.Infof("Added WebSocket connection (total: %d)", len(h.clients))
	return true
}

func (h *Hub) remove(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.drop(c)
	h.logger.Infof("Removed WebSocket connection (remaining: %d)", len(h.clients))
}

// drop unregisters c and closes its queue, which stops its writer. The caller
// holds the mutex.
func (h *Hub) drop(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}
