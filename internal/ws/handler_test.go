package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/models"
	"github.com/playmatatu/pinball/internal/sim"
	"github.com/playmatatu/pinball/internal/table"
)

const boxTable = `
name: box
walls:
  - closed: true
    points:
      - {x: 0, y: 0}
      - {x: 400, y: 0}
      - {x: 400, y: 800}
      - {x: 0, y: 800}
plungers:
  - name: Plunger
    center: {x: 100, y: 40}
balls:
  - position: {x: 200, y: 400}
`

type memStore struct{}

func (memStore) TableDefinition(ctx context.Context, name string) (*table.Definition, error) {
	if name != "box" {
		return nil, fmt.Errorf("%w: %s", table.ErrTableNotFound, name)
	}
	return table.Parse([]byte(boxTable))
}

func (memStore) CreateRun(ctx context.Context, run *models.SimulationRun) error { return nil }
func (memStore) FinishRun(ctx context.Context, run *models.SimulationRun) error { return nil }

type wsFrame struct {
	Type    string    `json:"type"`
	Message string    `json:"message"`
	Frame   sim.Frame `json:"frame"`
}

func setupServer(t *testing.T) (*Hub, *sim.Manager, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	mgr := sim.NewManager(memStore{}, nil, hub, &config.Config{PhysicsStepMsec: 10})
	router := gin.New()
	router.GET("/sessions/:id/ws", HandleWebSocket(hub, mgr))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return hub, mgr, srv
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + sessionID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg wsFrame
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return msg
}

func TestWebSocketStreamsFrames(t *testing.T) {
	_, mgr, srv := setupServer(t)
	s, err := mgr.Create(context.Background(), sim.CreateRequest{Table: "box"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	conn := dial(t, srv, s.ID)
	first := readMessage(t, conn)
	if first.Type != "frame" || first.Frame.SessionID != s.ID || len(first.Frame.Balls) != 1 {
		t.Fatalf("First message = %+v", first)
	}

	if err := conn.WriteJSON(map[string]interface{}{"type": "advance", "data": map[string]int{"ms": 50}}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	next := readMessage(t, conn)
	if next.Type != "frame" || next.Frame.TimeMsec != 50 {
		t.Errorf("After advance: %+v", next)
	}

	conn.WriteJSON(map[string]interface{}{"type": "fire", "data": map[string]string{"plunger": "nope"}})
	if msg := readMessage(t, conn); msg.Type != "error" || !strings.Contains(msg.Message, "plunger not found") {
		t.Errorf("Expected a plunger error, got %+v", msg)
	}

	conn.WriteJSON(map[string]string{"type": "dance"})
	if msg := readMessage(t, conn); msg.Type != "error" {
		t.Errorf("Expected an error for an unknown type, got %+v", msg)
	}
}

func TestWebSocketUnknownSession(t *testing.T) {
	_, _, srv := setupServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/sim_nope/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("Expected the dial to fail")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Errorf("Expected 404, got %v", resp)
	}
}

func TestRelayHitEvent(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	client := &Client{clientID: "c1", sessionID: "sim_a", send: make(chan []byte, 4)}
	hub.register <- client

	deadline := time.Now().Add(time.Second)
	for hub.RoomSize("sim_a") == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	payload, _ := json.Marshal(map[string]interface{}{"type": "bumper_hit", "session_id": "sim_a", "bumper": "Pop"})
	relayHitEvent(hub, payload)
	relayHitEvent(hub, []byte(`{"type":"bumper_hit","session_id":"sim_b"}`))
	relayHitEvent(hub, []byte(`not json`))

	select {
	case got := <-client.send:
		if string(got) != string(payload) {
			t.Errorf("Relayed %s, want %s", got, payload)
		}
	default:
		t.Fatalf("Hit event not relayed")
	}
	if len(client.send) != 0 {
		t.Errorf("Events for other sessions leaked into the room")
	}
}
