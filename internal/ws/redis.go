package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/playmatatu/pinball/internal/sim"
	"github.com/redis/go-redis/v9"
)

// StartHitEventSubscriber relays bumper hits published by any server
// instance to the clients connected here.
func StartHitEventSubscriber(ctx context.Context, rdb *redis.Client, hub *Hub) {
	if rdb == nil {
		log.Println("[WS] Redis client not set; hit event subscriber not started")
		return
	}

	pubsub := rdb.Subscribe(ctx, sim.HitEventsChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[WS] %s subscriber started", sim.HitEventsChannel)
		for {
			select {
			case <-ctx.Done():
				log.Printf("[WS] %s subscriber stopping", sim.HitEventsChannel)
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				relayHitEvent(hub, []byte(msg.Payload))
			}
		}
	}()
}

func relayHitEvent(hub *Hub, payload []byte) {
	var event struct {
		Type      string `json:"type"`
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		log.Printf("[WS] invalid hit event payload: %v", err)
		return
	}
	if event.SessionID == "" {
		log.Printf("[WS] hit event without session: type=%s", event.Type)
		return
	}
	if hub.RoomSize(event.SessionID) == 0 {
		return
	}
	hub.BroadcastToSession(event.SessionID, payload)
}
