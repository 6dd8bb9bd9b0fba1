// Package ws pushes server events to WebSocket clients, grouped by user.
//
//	hub := ws.NewHub()
//	go hub.Run(ctx)
//
//	// handler, after authentication:
//	hub.Upgrade(w, r, userID)
//
//	// anywhere:
//	hub.SendTo(userID, payload)
package ws

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Rasmogul/greatsoko/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendBuffer     = 32
)

// Client is one connection owned by a user.
type Client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// readPump only services control frames; clients do not send data.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("ws: unexpected close", "user_id", c.userID, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

type delivery struct {
	userID string // empty means everyone
	data   []byte
}

// Hub owns all connections. Its state is only touched by Run.
type Hub struct {
	users      map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliveries chan delivery
	count      atomic.Int64
	done       chan struct{}

	upgrader websocket.Upgrader
}

// NewHub allows all origins unless checkOrigin is given.
func NewHub(checkOrigin ...func(r *http.Request) bool) *Hub {
	h := &Hub{
		users:      map[string]map[*Client]struct{}{},
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliveries: make(chan delivery, 256),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	if len(checkOrigin) > 0 && checkOrigin[0] != nil {
		h.upgrader.CheckOrigin = checkOrigin[0]
	}
	return h
}

// Run serves the hub until ctx is done, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.users {
				for c := range set {
					close(c.send)
				}
			}
			h.users = map[string]map[*Client]struct{}{}
			h.count.Store(0)
			return

		case c := <-h.register:
			set, ok := h.users[c.userID]
			if !ok {
				set = map[*Client]struct{}{}
				h.users[c.userID] = set
			}
			set[c] = struct{}{}
			h.count.Add(1)
			logger.Debug("ws: client connected", "user_id", c.userID, "total", h.count.Load())

		case c := <-h.unregister:
			h.drop(c)

		case d := <-h.deliveries:
			if d.userID == "" {
				for _, set := range h.users {
					h.fanout(set, d.data)
				}
				continue
			}
			h.fanout(h.users[d.userID], d.data)
		}
	}
}

func (h *Hub) fanout(set map[*Client]struct{}, data []byte) {
	for c := range set {
		select {
		case c.send <- data:
		default:
			// slow consumer
			h.drop(c)
		}
	}
}

func (h *Hub) drop(c *Client) {
	set, ok := h.users[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.users, c.userID)
	}
	close(c.send)
	h.count.Add(-1)
	logger.Debug("ws: client disconnected", "user_id", c.userID, "total", h.count.Load())
}

// SendTo queues data for every connection of userID. It never blocks; when
// the hub is backed up the message is dropped.
func (h *Hub) SendTo(userID string, data []byte) bool {
	return h.enqueue(delivery{userID: userID, data: data})
}

// Broadcast queues data for every connection.
func (h *Hub) Broadcast(data []byte) bool {
	return h.enqueue(delivery{data: data})
}

func (h *Hub) enqueue(d delivery) bool {
	select {
	case <-h.done:
		return false
	case h.deliveries <- d:
		return true
	default:
		logger.Warn("ws: hub backed up, dropping message", "user_id", d.userID)
		return false
	}
}

// ClientCount reports live connections.
func (h *Hub) ClientCount() int { return int(h.count.Load()) }

// Upgrade switches the request to a WebSocket owned by userID.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WithCtx(r.Context()).Warn("ws: upgrade failed", "error", err)
		return
	}
	c := &Client{hub: h, userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}
