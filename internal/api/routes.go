package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pinball/internal/admin"
	"github.com/playmatatu/pinball/internal/api/handlers"
	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/middleware"
	"github.com/playmatatu/pinball/internal/sim"
	"github.com/playmatatu/pinball/internal/ws"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config, st handlers.Store, mgr *sim.Manager, hub *ws.Hub) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(db, rdb, mgr))

		tables := v1.Group("/tables")
		{
			tables.GET("", handlers.ListTables(st))
			tables.GET("/:name", handlers.GetTable(st))
			tables.PUT("/:name", middleware.AdminAuth(cfg, admin.RoleTables), handlers.PutTable(st, db))
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handlers.CreateSession(mgr))
			sessions.GET("", handlers.ListSessions(mgr))
			sessions.GET("/:id", handlers.GetSessionFrame(mgr))
			sessions.DELETE("/:id", handlers.CloseSession(mgr))
			sessions.POST("/:id/pull", handlers.PullPlunger(mgr))
			sessions.POST("/:id/fire", handlers.FirePlunger(mgr))
			sessions.POST("/:id/advance", handlers.AdvanceSession(mgr))
			sessions.POST("/:id/balls", handlers.AddBall(mgr))
			sessions.GET("/:id/run", handlers.GetSessionRun(st))
			sessions.GET("/:id/ws", middleware.WebSocketCORSCheck(cfg), ws.HandleWebSocket(hub, mgr))
		}

		v1.GET("/runs", handlers.ListRuns(st))

		v1.POST("/admin/login", handlers.AdminLogin(db, cfg))
		adm := v1.Group("/admin", middleware.AdminAuth(cfg, ""))
		{
			adm.GET("/me", handlers.AdminMe())
			adm.GET("/audit", middleware.AdminAuth(cfg, admin.RoleAudit), handlers.GetAdminAuditLogs(db))
		}
	}
}
