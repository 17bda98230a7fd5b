package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/playmatatu/pinball/internal/api"
	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/database"
	"github.com/playmatatu/pinball/internal/migrations"
	"github.com/playmatatu/pinball/internal/redis"
	"github.com/playmatatu/pinball/internal/sim"
	"github.com/playmatatu/pinball/internal/store"
	"github.com/playmatatu/pinball/internal/table"
	"github.com/playmatatu/pinball/internal/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		log.Println("[MIGRATE] Running DB migrations on startup...")
		if err := migrations.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := database.Connect(connectCtx, cfg.DatabaseURL, cfg.DBMaxOpenConns)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	connectCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
	rdb, err := redis.Connect(connectCtx, cfg.RedisURL)
	cancel()
	if err != nil {
		// sessions still run; only the frame cache, idle tracking and
		// cross-instance hit fan-out are lost
		log.Printf("[REDIS] Failed to connect, continuing without Redis: %v", err)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	st := store.New(db)
	seedTables(ctx, st, cfg.TablesDir)

	hub := ws.NewHub()
	go hub.Run()

	mgr := sim.NewManager(st, rdb, hub, cfg)
	mgr.StartIdleWorker(ctx)
	ws.StartHitEventSubscriber(ctx, rdb, hub)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, db, rdb, cfg, st, mgr, hub)

	port := cfg.Port
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		log.Printf("Starting pinball server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
	mgr.CloseAll(shutdownCtx, "shutdown")
	hub.Stop()
}

// seedTables stores the YAML tables shipped in dir that the database does
// not know yet. Tables edited through the API are left alone.
func seedTables(ctx context.Context, st *store.Store, dir string) {
	defs, err := table.LoadDir(dir)
	if err != nil {
		log.Printf("[TABLE] Failed to load tables from %s: %v", dir, err)
		return
	}
	for _, def := range defs {
		if _, err := st.GetTable(ctx, def.Name); err == nil {
			continue
		} else if !errors.Is(err, table.ErrTableNotFound) {
			log.Printf("[TABLE] Failed to look up %s: %v", def.Name, err)
			continue
		}
		if _, err := st.UpsertTable(ctx, def, ""); err != nil {
			log.Printf("[TABLE] Failed to seed %s: %v", def.Name, err)
			continue
		}
		log.Printf("[TABLE] Seeded %s from %s", def.Name, dir)
	}
}
