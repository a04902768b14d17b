package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/aquasense/aquasense-core/internal/infrastructure/config"
	"github.com/aquasense/aquasense-core/internal/infrastructure/logging"
)

// Event names broadcast to clients.
const (
	// EventDataChanged marks that new merged readings are available.
	// It carries no payload; clients re-query for fresh data.
	EventDataChanged = "data_changed"

	// sendBufferSize is the per-client outbound message buffer size.
	sendBufferSize = 64
)

// Message is the frame sent to connected clients.
type Message struct {
	Type      string `json:"type"`
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
}

// Hub fans change events out to connected WebSocket clients.
//
// Delivery is best-effort and at-most-once: a slow or disconnected
// client misses the event, nothing is queued for later and nothing is
// retried. Absence of subscribers is not an error.
type Hub struct {
	cfg     config.WebSocketConfig
	logger  *logging.Logger
	clients map[*Client]struct{}
	mu      sync.RWMutex
}

// Client is one connected WebSocket subscriber.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Dashboards connect cross-origin; there is nothing privileged
		// on this stream.
		return true
	},
}

// NewHub creates a hub with no connected clients.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*Client]struct{}),
	}
}

// Run blocks until the context is cancelled, then disconnects all clients.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// NotifyDataChanged broadcasts the data-changed marker to every client.
func (h *Hub) NotifyDataChanged() {
	h.broadcast(EventDataChanged)
}

// broadcast sends an event frame to all connected clients, skipping any
// whose send buffer is full.
func (h *Hub) broadcast(event string) {
	msg := Message{
		Type:      "event",
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "error", err)
		return
	}

	// Snapshot under the lock, send outside it.
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.trySend(data)
	}
	if len(clients) > 0 {
		h.logger.Debug("broadcast sent", "event", event, "recipients", len(clients))
	}
}

// ServeHTTP upgrades the connection and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	h.register(client)

	go client.writePump(h.cfg)
	go client.readPump(h.cfg)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "client_id", client.id, "clients", h.ClientCount())
}

// unregister removes a client from the hub.
// Only the goroutine that successfully removes the client from the map
// closes the send channel, preventing double-close panics during shutdown.
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	_, existed := h.clients[client]
	delete(h.clients, client)
	h.mu.Unlock()

	if existed {
		close(client.send)
	}
	h.logger.Debug("websocket client disconnected", "client_id", client.id, "clients", h.ClientCount())
}

// closeAll disconnects all clients and closes their send channels
// so writePump goroutines can exit cleanly.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		if client.conn != nil {
			client.conn.Close()
		}
		delete(h.clients, client)
	}
}

// readPump drains inbound frames. Clients have nothing to say on this
// stream; reading only services pong handling and surfaces disconnects.
func (c *Client) readPump(cfg config.WebSocketConfig) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(int64(cfg.MaxMessageSize))
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	pongWait := time.Duration(cfg.PongTimeout) * time.Second
	//nolint:errcheck // Best-effort deadline on connection setup
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "client_id", c.id, "error", err)
			} else {
				c.hub.logger.Debug("websocket closed", "client_id", c.id, "error", err)
			}
			return
		}
		// Any client message resets the read deadline.
		//nolint:errcheck // Best-effort deadline reset
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	}
}

// writePump writes broadcast frames and protocol pings to the connection.
func (c *Client) writePump(cfg config.WebSocketConfig) {
	pingInterval := time.Duration(cfg.PingInterval) * time.Second
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	pongWait := time.Duration(cfg.PongTimeout) * time.Second

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				//nolint:errcheck // Best-effort close message
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // Best-effort deadline; write error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // Best-effort deadline; ping error caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// trySend attempts to send data to the client's send channel.
// It silently handles closed channels (client disconnected during
// broadcast) and full buffers (slow client).
func (c *Client) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // Absorb send-on-closed-channel panic
	}()

	select {
	case c.send <- data:
	default:
		// Client buffer full, skip
	}
}
