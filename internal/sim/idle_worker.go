package sim

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// StartIdleWorker closes sessions nobody has touched for
// SessionIdleSeconds. Activity lives in a Redis sorted set scored by the
// unix time of the last touch.
func (m *Manager) StartIdleWorker(ctx context.Context) {
	if m.rdb == nil || m.config == nil {
		log.Println("[IDLE] Redis or config missing; idle worker not started")
		return
	}

	interval := time.Duration(m.config.IdleWorkerPollInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}

	log.Println("[IDLE] Idle worker started")
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[IDLE] Idle worker stopping")
				return
			case <-ticker.C:
				m.closeIdle(ctx, time.Now())
			}
		}
	}()
}

// closeIdle closes every session whose last touch is older than the idle
// window at now.
func (m *Manager) closeIdle(ctx context.Context, now time.Time) {
	cutoff := now.Unix() - int64(m.config.SessionIdleSeconds)
	members, err := m.rdb.ZRangeByScore(ctx, idleSetKey, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%d", cutoff)}).Result()
	if err != nil {
		log.Printf("[IDLE] Failed to fetch idle sessions: %v", err)
		return
	}
	for _, id := range members {
		// Attempt to remove (race-safe)
		removed, _ := m.rdb.ZRem(ctx, idleSetKey, id).Result()
		if removed == 0 {
			continue
		}
		log.Printf("[IDLE] Closing session %s due to inactivity", id)
		if err := m.Close(ctx, id, "idle"); err != nil && !errors.Is(err, ErrSessionNotFound) {
			log.Printf("[IDLE] Failed to close session %s: %v", id, err)
		}
	}
}
