package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Origins are checked by middleware.WebSocketCORSCheck before the upgrade.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client represents a connected WebSocket client watching one session
type Client struct {
	conn      *websocket.Conn
	clientID  string
	sessionID string
	send      chan []byte
}

// Hub maintains the set of active clients, grouped by session
type Hub struct {
	rooms      map[string]map[string]*Client // sessionID -> clientID -> Client
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub. Call Run before registering clients.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return
		case client := <-h.register:
			h.mu.Lock()
			room, exists := h.rooms[client.sessionID]
			if !exists {
				room = make(map[string]*Client)
				h.rooms[client.sessionID] = room
			}
			room[client.clientID] = client
			h.mu.Unlock()
			log.Printf("[WS] Client %s watching session %s (room_size=%d)", client.clientID, client.sessionID, len(room))

		case client := <-h.unregister:
			h.mu.Lock()
			if room, exists := h.rooms[client.sessionID]; exists {
				if _, ok := room[client.clientID]; ok {
					delete(room, client.clientID)
					close(client.send)
				}
				if len(room) == 0 {
					delete(h.rooms, client.sessionID)
				}
			}
			h.mu.Unlock()
			log.Printf("[WS] Client %s left session %s", client.clientID, client.sessionID)
		}
	}
}

func (h *Hub) Stop() {
	close(h.done)
}

// RoomSize returns how many clients watch a session.
func (h *Hub) RoomSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}

// BroadcastToSession sends a message to every client watching a session
func (h *Hub) BroadcastToSession(sessionID string, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.rooms[sessionID] {
		select {
		case client.send <- msg:
		default:
			// Client's buffer is full; frames are superseded by the next one anyway
			log.Printf("[WS] Send buffer full for client %s in session %s, dropping message", client.clientID, sessionID)
		}
	}
}

// WSMessage is a control message sent by a client
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				// Hub closed the channel; best-effort close frame.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for client %s: %v", c.clientID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for client %s: %v", c.clientID, err)
				return
			}
		}
	}
}

// sendJSON queues a message for this client only
func (c *Client) sendJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] Dropped direct message for client %s (buffer full)", c.clientID)
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	c.sendJSON(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
}
