// Package notifications delivers realtime notification events to connected
// clients over WebSocket. Delivery is best effort: the hub never blocks or
// errors back into the caller, slow consumers are disconnected.
package notifications

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/qrcs/qrcs/pkg/logger"
	"github.com/qrcs/qrcs/pkg/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendBufferSize = 32
)

// Event is the JSON payload delivered to notification subscribers.
type Event struct {
	Event        string `json:"event"`
	Notification any    `json:"notification,omitempty"`
}

// Hub fans notification events out to the recipient's open connections.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}

	upgrader websocket.Upgrader
}

// NewHub constructs a notification hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return hostWithoutPort(origin) == hostWithoutPort(r.Host) || isLoopback(hostWithoutPort(origin))
			},
		},
	}
}

// Serve upgrades the HTTP connection to a WebSocket and registers the user
// as a subscriber until the connection drops.
func (h *Hub) Serve(userID string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("notifications: websocket upgrade failed")
		return
	}

	cl := &client{conn: conn, send: make(chan Event, sendBufferSize)}
	h.addClient(userID, cl)
	defer h.removeClient(userID, cl)

	go cl.writeLoop()
	cl.readLoop()
}

// Push delivers an event to every open connection of the user. It never
// blocks: when a client's buffer is full the event is dropped for that
// client and the connection closed.
func (h *Hub) Push(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for cl := range h.clients[userID] {
		select {
		case cl.send <- event:
			metrics.NotificationPushes.WithLabelValues("delivered").Inc()
		default:
			metrics.NotificationPushes.WithLabelValues("dropped").Inc()
			cl.closeSlow()
		}
	}
}

// Connections reports the number of open connections for the user.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) addClient(userID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][cl] = struct{}{}
}

func (h *Hub) removeClient(userID string, cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients := h.clients[userID]; clients != nil {
		if _, ok := clients[cl]; ok {
			delete(clients, cl)
			close(cl.send)
		}
		if len(clients) == 0 {
			delete(h.clients, userID)
		}
	}
	_ = cl.conn.Close()
}

type client struct {
	conn *websocket.Conn
	send chan Event
	slow sync.Once
}

func (c *client) readLoop() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Clients do not send application data; drain until the peer closes.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.conn.Close()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
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

func (c *client) closeSlow() {
	c.slow.Do(func() {
		_ = c.conn.Close()
	})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	if idx := strings.IndexByte(host, '/'); idx >= 0 {
		host = host[:idx]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
