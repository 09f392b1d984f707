package status

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"interbot/pkg/bus"
	"interbot/pkg/logger"
)

// FeedMessage is the JSON frame sent to failure feed clients.
type FeedMessage struct {
	Type      string          `json:"type"` // "failure", "system"
	Payload   json.RawMessage `json:"payload,omitempty"`
	Content   string          `json:"content,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans failure reports out to connected websocket clients.
type Hub struct {
	log *logger.Logger

	mu      sync.RWMutex
	clients map[*feedClient]struct{}
	dropped uint64
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{log: log, clients: make(map[*feedClient]struct{})}
}

// Attach subscribes the hub to failure reports.
func (h *Hub) Attach(b bus.Bus) {
	b.Subscribe(bus.TopicFailure, h.HandleMessage)
}

// HandleMessage forwards a bus message to every client. Slow clients miss
// frames rather than stalling the bus.
func (h *Hub) HandleMessage(_ context.Context, msg *bus.Message) error {
	frame, err := json.Marshal(FeedMessage{
		Type:      "failure",
		Payload:   msg.Payload,
		Timestamp: msg.Timestamp.Unix(),
	})
	if err != nil {
		return err
	}
	h.broadcast(frame)
	return nil
}

func (h *Hub) broadcast(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			h.dropped++
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *feedClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unregister(c *feedClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// newFeedClient returns a client with the welcome frame already queued, so
// registering it can never block on a full send buffer.
func newFeedClient(conn *websocket.Conn) *feedClient {
	c := &feedClient{conn: conn, send: make(chan []byte, 32)}
	welcome, _ := json.Marshal(FeedMessage{
		Type:      "system",
		Content:   "Connected to failure feed",
		Timestamp: time.Now().Unix(),
	})
	c.send <- welcome
	return c
}

// serve runs one client until its connection closes.
func (h *Hub) serve(conn *websocket.Conn) {
	c := newFeedClient(conn)
	h.register(c)
	defer h.unregister(c)

	done := make(chan struct{})
	go h.writeLoop(c, done)
	defer close(done)

	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("Failure feed read error", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *feedClient, done <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
