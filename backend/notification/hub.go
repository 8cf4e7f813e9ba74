package notification

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"microblog/backend/user"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub tracks the open WebSocket connections of each user.
type Hub struct {
	mu      sync.Mutex
	clients map[int]map[*client]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[int]map[*client]struct{})}
}

func (h *Hub) register(userID int, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*client]struct{})
	}
	h.clients[userID][c] = struct{}{}
}

func (h *Hub) unregister(userID int, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[userID], c)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

// Online reports whether userID has at least one open connection.
func (h *Hub) Online(userID int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[userID]) > 0
}

// Send writes v to every connection of userID and returns how many
// connections accepted it.
func (h *Hub) Send(userID int, v any) int {
	// copy so no write happens under the hub lock
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients[userID]))
	for c := range h.clients[userID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	delivered := 0
	for _, c := range targets {
		if err := c.send(v); err != nil {
			log.Printf("[Hub] Error sending to user %d: %v", userID, err)
			continue
		}
		delivered++
	}
	return delivered
}

// ServeWS upgrades an authenticated request and keeps the connection
// registered until the client goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	me, ok := user.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Hub] Upgrade failed for user %d: %v", me.ID, err)
		return
	}
	c := &client{conn: conn}
	h.register(me.ID, c)
	log.Printf("[Hub] User %d connected", me.ID)

	defer func() {
		h.unregister(me.ID, c)
		conn.Close()
		log.Printf("[Hub] User %d disconnected", me.ID)
	}()

	// Clients only receive; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
