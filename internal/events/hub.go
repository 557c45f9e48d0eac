// Package events pushes client-side state changes (upload progress, forced
// navigation) to connected browsers over WebSocket.
package events

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 4 * 1024
)

// Event types.
const (
	TypeUpload   = "upload"
	TypeNavigate = "navigate"
	TypeSession  = "session"
)

// Event is what clients receive. An empty Topic reaches every connection.
type Event struct {
	Type    string `json:"type"`
	Topic   string `json:"topic,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

type connection struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	topics map[string]bool
}

// Hub tracks live connections and their topic subscriptions.
type Hub struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu          sync.RWMutex
	connections map[string]*connection
}

// NewHub accepts connections from the given origins; none means any.
func NewHub(log zerolog.Logger, origins ...string) *Hub {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
		connections: make(map[string]*connection),
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c.id] = c
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.connections[c.id]; ok && existing == c {
		delete(h.connections, c.id)
		close(c.send)
	}
}

// Count returns the number of open connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Publish delivers ev to subscribers of its topic, or to everyone when the
// topic is empty. Slow clients miss events rather than block the caller.
func (h *Hub) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error().Err(err).Str("type", ev.Type).Msg("encode event")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.connections {
		if ev.Topic != "" && !c.topics[ev.Topic] {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.log.Warn().Str("conn", c.id).Msg("client too slow, event dropped")
		}
	}
}

// ServeHTTP upgrades the request and blocks until the client goes away.
// Initial topics come from repeated ?topic= parameters.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &connection{
		id:     uuid.NewString(),
		conn:   conn,
		send:   make(chan []byte, 256),
		topics: make(map[string]bool),
	}
	for _, t := range r.URL.Query()["topic"] {
		c.topics[t] = true
	}

	h.register(c)
	h.log.Debug().Str("conn", c.id).Msg("websocket connected")

	go h.writePump(c)
	h.readPump(c)
	h.log.Debug().Str("conn", c.id).Msg("websocket disconnected")
}

func (h *Hub) readPump(c *connection) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var cmd struct {
			Type  string `json:"type"`
			Topic string `json:"topic"`
		}
		if err := json.Unmarshal(msg, &cmd); err != nil || cmd.Topic == "" {
			continue
		}

		switch cmd.Type {
		case "subscribe":
			h.mu.Lock()
			c.topics[cmd.Topic] = true
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			delete(c.topics, cmd.Topic)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
