package ws

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/pinball/internal/sim"
)

type plungerData struct {
	Plunger string `json:"plunger"`
}

type advanceData struct {
	Ms int64 `json:"ms"`
}

func generateClientID() string {
	b := make([]byte, 6)
	rand.Read(b)
	return "c_" + hex.EncodeToString(b)
}

// HandleWebSocket streams the frames of a session and accepts plunger
// and advance commands from the client.
func HandleWebSocket(hub *Hub, mgr *sim.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("id")
		s, err := mgr.Get(sessionID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			conn:      conn,
			clientID:  generateClientID(),
			sessionID: sessionID,
			send:      make(chan []byte, 256),
		}
		hub.register <- client

		client.sendJSON(map[string]interface{}{"type": "frame", "frame": s.Frame()})

		go client.writePump()
		go client.readPump(hub, mgr)
	}
}

// readPump reads control messages until the connection drops.
func (c *Client) readPump(hub *Hub, mgr *sim.Manager) {
	defer func() {
		select {
		case hub.unregister <- c:
		case <-hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[WS] Unexpected close for client %s: %v", c.clientID, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("invalid message")
			continue
		}
		c.handleMessage(context.Background(), mgr, msg)
	}
}

func (c *Client) handleMessage(ctx context.Context, mgr *sim.Manager, msg WSMessage) {
	var err error
	switch msg.Type {
	case "pull":
		var d plungerData
		json.Unmarshal(msg.Data, &d)
		err = mgr.PullBack(ctx, c.sessionID, d.Plunger)
	case "fire":
		var d plungerData
		json.Unmarshal(msg.Data, &d)
		err = mgr.Fire(ctx, c.sessionID, d.Plunger)
	case "advance":
		var d advanceData
		if jerr := json.Unmarshal(msg.Data, &d); jerr != nil {
			c.sendError("invalid advance data")
			return
		}
		// the manager broadcasts the resulting frame to the whole room
		_, err = mgr.Advance(ctx, c.sessionID, d.Ms)
	case "ping":
		c.sendJSON(map[string]interface{}{"type": "pong"})
	default:
		c.sendError("unknown message type: " + msg.Type)
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, sim.ErrSessionNotFound), errors.Is(err, sim.ErrSessionClosed):
			c.sendError("session closed")
		default:
			c.sendError(err.Error())
		}
	}
}
