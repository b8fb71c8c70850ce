package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/onnwee/forcemap/internal/apierr"
	"github.com/onnwee/forcemap/internal/logger"
	"github.com/onnwee/forcemap/internal/metrics"
	"github.com/onnwee/forcemap/internal/middleware"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 30 * time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Progress frames broadcast per second across all runs
	progressRate  = 20
	progressBurst = 40
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for now - CORS middleware handles this
		return true
	},
}

// ProgressMessage is pushed to clients as a layout run advances.
type ProgressMessage struct {
	Type          string  `json:"type"` // "progress"
	Key           string  `json:"key"`
	Iteration     int     `json:"iteration"`
	Total         int     `json:"total"`
	KineticEnergy float64 `json:"kinetic_energy"`
}

// Client represents a WebSocket client connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// key filters progress frames to a single run; empty receives all
	key string
	mu  sync.RWMutex
}

func (c *Client) wantsKey(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.key == "" || c.key == key
}

type keyedMessage struct {
	key  string
	data []byte
}

// Hub maintains the set of active clients and broadcasts progress to them
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Broadcast messages to subscribed clients
	broadcast chan keyedMessage

	// Caps the rate of progress frames; excess frames are dropped
	limiter *rate.Limiter

	// Stop channel for the run loop
	stop chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan keyedMessage, 256),
		limiter:    rate.NewLimiter(rate.Limit(progressRate), progressBurst),
		stop:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case <-h.stop:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketConnections.Inc()
			logger.Info("WebSocket client connected", "total_clients", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				metrics.WebSocketConnections.Dec()
				logger.Info("WebSocket client disconnected", "total_clients", len(h.clients))
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			// Slow consumers get evicted here, which mutates the client
			// map, so this needs the write lock.
			h.mu.Lock()
			for client := range h.clients {
				if !client.wantsKey(msg.key) {
					continue
				}
				select {
				case client.send <- msg.data:
					metrics.WebSocketMessagesSent.Inc()
				default:
					// Client's send buffer is full, close the connection
					close(client.send)
					delete(h.clients, client)
					metrics.WebSocketConnections.Dec()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts down the hub's run loop.
func (h *Hub) Stop() {
	close(h.stop)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// PublishProgress broadcasts a progress frame for a layout run. Frames
// beyond the configured rate are dropped so slow consumers cannot stall
// the computation.
func (h *Hub) PublishProgress(key string, iteration, total int, energy float64) {
	if h.ClientCount() == 0 {
		return
	}
	if !h.limiter.Allow() && iteration != total {
		// Always deliver the final frame
		return
	}

	data, err := json.Marshal(ProgressMessage{
		Type:          "progress",
		Key:           key,
		Iteration:     iteration,
		Total:         total,
		KineticEnergy: energy,
	})
	if err != nil {
		logger.Error("Failed to marshal progress message", "error", err)
		return
	}

	select {
	case h.broadcast <- keyedMessage{key: key, data: data}:
	default:
		// Broadcast buffer full, drop the frame
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket unexpected close", "error", err)
			}
			break
		}

		// Clients may subscribe to a single run's progress
		var clientMsg map[string]interface{}
		if err := json.Unmarshal(message, &clientMsg); err == nil {
			if msgType, ok := clientMsg["type"].(string); ok && msgType == "subscribe" {
				if key, ok := clientMsg["key"].(string); ok {
					c.mu.Lock()
					c.key = middleware.SanitizeString(key, 64)
					c.mu.Unlock()
				}
			}
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// WebSocketHandler handles WebSocket connections for layout progress
type WebSocketHandler struct {
	hub *Hub
}

// NewWebSocketHandler creates a new WebSocket handler and starts its hub
func NewWebSocketHandler() *WebSocketHandler {
	hub := NewHub()
	// Start the hub in the background with a long-lived context
	go hub.Run(context.Background())

	return &WebSocketHandler{hub: hub}
}

// HandleWebSocket handles WebSocket upgrade and client connection
// GET /api/ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade to WebSocket", "error", err)
		apierr.WriteErrorWithContext(w, r, apierr.SystemInternal("Failed to establish WebSocket connection"))
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
		key:  middleware.SanitizeString(r.URL.Query().Get("key"), 64),
	}

	h.hub.register <- client

	// Send a hello so clients can confirm their subscription
	hello := map[string]interface{}{
		"type": "hello",
		"key":  client.key,
	}
	if data, err := json.Marshal(hello); err == nil {
		select {
		case client.send <- data:
		default:
		}
	}

	go client.writePump()
	go client.readPump()
}

// GetHub returns the WebSocket hub for progress broadcasting
func (h *WebSocketHandler) GetHub() *Hub {
	return h.hub
}
