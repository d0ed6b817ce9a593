package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"listify_echo/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 32
)

// Frame is the envelope of every websocket message in both directions
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Session identifies the user behind a connection and the group topic it listens to
type Session struct {
	UserID  uint
	GroupID uint
}

// FrameHandler processes one frame received from a client
type FrameHandler func(ctx context.Context, s Session, f Frame)

type client struct {
	conn    *websocket.Conn
	session Session
	send    chan []byte
	once    sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub keeps one topic per group and fans broadcasts out to its subscribers
type Hub struct {
	mu     sync.RWMutex
	topics map[uint]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{topics: make(map[uint]map[*client]struct{})}
}

// Subscribers returns the number of connections listening on a group topic
func (h *Hub) Subscribers(groupID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[groupID])
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	subs, ok := h.topics[c.session.GroupID]
	if !ok {
		subs = make(map[*client]struct{})
		h.topics[c.session.GroupID] = subs
	}
	subs[c] = struct{}{}
	h.mu.Unlock()
	metrics.WSConnections.Inc()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if subs, ok := h.topics[c.session.GroupID]; ok {
		if _, ok := subs[c]; ok {
			delete(subs, c)
			metrics.WSConnections.Dec()
		}
		if len(subs) == 0 {
			delete(h.topics, c.session.GroupID)
		}
	}
	h.mu.Unlock()
	c.close()
}

// Broadcast sends an event to every subscriber of the group. Clients whose
// buffer is full are disconnected.
func (h *Hub) Broadcast(groupID uint, eventType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to encode broadcast payload", "type", eventType, "error", err)
		return
	}
	msg, err := json.Marshal(Frame{Type: eventType, Data: data})
	if err != nil {
		slog.Error("failed to encode broadcast frame", "type", eventType, "error", err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.topics[groupID] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("dropping slow websocket client", "user", c.session.UserID, "group", groupID)
		h.unregister(c)
	}
}

// Serve runs a connection until it closes. Incoming frames are passed to
// handle one at a time.
func (h *Hub) Serve(ctx context.Context, conn *websocket.Conn, s Session, handle FrameHandler) {
	c := &client{conn: conn, session: s, send: make(chan []byte, sendBuffer)}
	h.register(c)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump()
	}()

	c.readPump(ctx, handle)
	h.unregister(c)
	<-done
}

func (c *client) readPump(ctx context.Context, handle FrameHandler) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read failed", "user", c.session.UserID, "error", err)
			}
			return
		}
		handle(ctx, c.session, f)
	}
}

func (c *client) writePump() {
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
