// Package ws streams a live feed of bot activity to operator consoles.
package ws

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // operator console origin is enforced via JWT, not Origin
	},
}

// FeedEvent is one frame on the operator feed
type FeedEvent struct {
	Kind      string      `json:"kind"` // "message", "callback", "lifecycle", "reply"
	UserID    string      `json:"user_id,omitempty"`
	ChatID    int64       `json:"chat_id,omitempty"`
	Detail    interface{} `json:"detail,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub fans events out to every connected console. Slow consumers are
// dropped rather than allowed to stall the webhook path.
type Hub struct {
	mu    sync.Mutex
	conns map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan FeedEvent
}

// NewHub creates an empty feed hub
func NewHub() *Hub {
	return &Hub{conns: make(map[*client]struct{})}
}

// Publish broadcasts an event; it never blocks the caller
func (h *Hub) Publish(ev FeedEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		select {
		case c.send <- ev:
		default:
			// Consumer is not keeping up; cut it loose.
			delete(h.conns, c)
			close(c.send)
		}
	}
}

// HandleFeed upgrades the connection and streams events until it closes.
// JWT validation happens in the route's middleware before this runs.
func (h *Hub) HandleFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade failed: %v", err)
		return
	}

	cl := &client{conn: conn, send: make(chan FeedEvent, 64)}

	h.mu.Lock()
	h.conns[cl] = struct{}{}
	h.mu.Unlock()

	log.Printf("ws: operator console connected (%d total)", h.count())

	go cl.writeLoop()
	cl.readLoop(h)
}

func (h *Hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[cl]; ok {
		delete(h.conns, cl)
		close(cl.send)
	}
}

func (cl *client) writeLoop() {
	defer cl.conn.Close()
	for ev := range cl.send {
		if err := cl.conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

// readLoop drains the connection so pings and close frames are handled;
// the feed is one-way, incoming payloads are discarded.
func (cl *client) readLoop(h *Hub) {
	defer h.drop(cl)
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws: console read error: %v", err)
			}
			return
		}
	}
}
