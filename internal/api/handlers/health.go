package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pinball/internal/sim"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

const version = "1.0.0"

// HealthCheck returns server health status. Postgres and Redis are
// reported when configured.
func HealthCheck(db *sqlx.DB, rdb *redis.Client, mgr *sim.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		deps := gin.H{}
		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				deps["postgres"] = err.Error()
				status = "degraded"
			} else {
				deps["postgres"] = "ok"
			}
		}
		if rdb != nil {
			if err := rdb.Ping(ctx).Err(); err != nil {
				deps["redis"] = err.Error()
				status = "degraded"
			} else {
				deps["redis"] = "ok"
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   status,
			"service":  "pinball-api",
			"version":  version,
			"uptime":   time.Since(startTime).String(),
			"sessions": mgr.Count(),
			"deps":     deps,
		})
	}
}
